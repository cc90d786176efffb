// Package storage opens the visitor storage selected by configuration.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/storage/database"
	inmemdb "github.com/examprep/portal/storage/database/inmem"
	sqlxrepos "github.com/examprep/portal/storage/database/sqlx"
	filestore "github.com/examprep/portal/storage/file"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Open returns the configured visitor storage and a func releasing its resources.
// The postgres schema is migrated before use.
func Open(ctx context.Context, conf *core.Config) (core.ScopedStorage, func() error, error) {
	noop := func() error { return nil }

	switch conf.Storage.Driver {
	case "", DriverMemory:
		db, err := inmemdb.Open()
		return db, noop, err

	case DriverFile:
		path := conf.Storage.FilePath
		if path == "" {
			var err error
			if path, err = filestore.DefaultPath(); err != nil {
				return nil, nil, err
			}
		}
		store, err := filestore.Open(path)
		return store, noop, err

	case DriverPostgres:
		db, err := database.Open(ctx, conf.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db, "up"); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return sqlxrepos.NewStorageRepository(db, conf.Database.Engine), db.Close, nil

	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
