package database

import (
	"database/sql"
	"io/fs"
	"net/url"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examprep/portal/core"
)

func TestDataSourceName(t *testing.T) {
	dsn := DataSourceName(core.DatabaseConfig{
		Engine: "postgres", Host: "db", Port: "5432", Name: "prep", User: "app", Password: "p@ss", DisableTLS: true,
	})
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/prep", u.Path)
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss", pass)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	dsn = DataSourceName(core.DatabaseConfig{Engine: "postgres", Host: "db"})
	assert.Contains(t, dsn, "sslmode=require")
}

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMigrate(t *testing.T) {
	var ran []string
	record := func(name string) func(*sql.DB, fs.FS, string) error {
		return func(_ *sql.DB, fsys fs.FS, dir string) error {
			assert.Equal(t, migrationsDir, dir)
			ran = append(ran, name)
			return nil
		}
	}
	defer func(up, down, redo func(*sql.DB, fs.FS, string) error) {
		gooseUp, gooseDown, gooseRedo = up, down, redo
	}(gooseUp, gooseDown, gooseRedo)
	gooseUp, gooseDown, gooseRedo = record("up"), record("down"), record("redo")

	require.NoError(t, Migrate(nil, ""))
	require.NoError(t, Migrate(nil, "down"))
	require.NoError(t, Migrate(nil, "redo"))
	assert.Equal(t, []string{"up", "down", "redo"}, ran)
	assert.Error(t, Migrate(nil, "sideways"))

	gooseUp = func(*sql.DB, fs.FS, string) error { return errors.New("locked") }
	assert.EqualError(t, Migrate(nil, "up"), "migrating database (up): locked")
}
