package database

import (
	"context"
	"database/sql"
	"embed"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/examprep/portal/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// mockable
var (
	gooseUp   = goose.Up
	gooseDown = goose.Down
	gooseRedo = goose.Redo
)

// DataSourceName builds the connection url of conf.
func DataSourceName(conf core.DatabaseConfig) string {
	sslMode := "require"
	if conf.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Engine,
		User:     url.UserPassword(conf.User, conf.Password),
		Host:     conf.Address(),
		Path:     conf.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the database and waits for it to be ready.
func Open(ctx context.Context, conf core.DatabaseConfig) (*sql.DB, error) {
	return OpenURL(ctx, conf.Engine, DataSourceName(conf))
}

func OpenURL(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := ping(ctx, db, 30); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB, maxAttempts int) error {
	var err error
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate runs command (up, down or redo) with the embedded migrations.
func Migrate(db *sql.DB, command string) error {
	var err error
	switch command {
	case "", "up":
		err = gooseUp(db, migrations, migrationsDir)
	case "down":
		err = gooseDown(db, migrations, migrationsDir)
	case "redo":
		err = gooseRedo(db, migrations, migrationsDir)
	default:
		return errors.Errorf("unknown migration command %q", command)
	}
	return errors.Wrapf(err, "migrating database (%s)", command)
}
