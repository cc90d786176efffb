package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

const (
	getItemQuery    = `SELECT value FROM visitor_storage WHERE visitor_id = $1 AND key = $2`
	removeItemQuery = `DELETE FROM visitor_storage WHERE visitor_id = $1 AND key = $2`
	setItemQuery    = `
INSERT INTO visitor_storage (visitor_id, key, value, updated_at)
VALUES (:visitor_id, :key, :value, now())
ON CONFLICT (visitor_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

type item struct {
	VisitorID string `db:"visitor_id"`
	Key       string `db:"key"`
	Value     string `db:"value"`
}

// StorageRepository keeps visitor storage in the visitor_storage table.
type StorageRepository struct {
	db *sqlx.DB
}

var (
	_ core.ScopedStorage  = (*StorageRepository)(nil)
	_ core.VisitorStorage = (*visitorStorage)(nil)
)

func NewStorageRepository(db *sql.DB, driverName string) *StorageRepository {
	return &StorageRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo *StorageRepository) Scope(visitorID string) core.Storage {
	return &visitorStorage{db: repo.db, visitorID: visitorID}
}

type visitorStorage struct {
	db        *sqlx.DB
	visitorID string
}

func (s *visitorStorage) VisitorID() string { return s.visitorID }

func (s *visitorStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, getItemQuery, s.visitorID, key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "selecting storage item")
	}
	return value, true, nil
}

func (s *visitorStorage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.NamedExecContext(ctx, setItemQuery, item{VisitorID: s.visitorID, Key: key, Value: value})
	return errors.Wrap(err, "upserting storage item")
}

func (s *visitorStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, removeItemQuery, s.visitorID, key)
	return errors.Wrap(err, "deleting storage item")
}
