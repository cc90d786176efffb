package inmemdb

import (
	"context"
	"sync"

	"github.com/examprep/portal/core"
)

type (
	// DB holds every visitor's key-value entries in memory. Lost on restart.
	DB struct {
		storage *storageTable
	}

	storageTable struct {
		sync.RWMutex
		table map[string]map[string]string // visitor id -> key -> value
	}

	visitorStorage struct {
		db        *storageTable
		visitorID string
	}
)

var (
	_ core.ScopedStorage  = (*DB)(nil)
	_ core.VisitorStorage = (*visitorStorage)(nil)
)

func Open() (*DB, error) {
	db := &DB{
		storage: &storageTable{table: make(map[string]map[string]string)},
	}
	return db, nil
}

func (db *DB) Scope(visitorID string) core.Storage {
	return &visitorStorage{db: db.storage, visitorID: visitorID}
}

func (s *visitorStorage) VisitorID() string { return s.visitorID }

func (s *visitorStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.db.RLock()
	defer s.db.RUnlock()
	v, ok := s.db.table[s.visitorID][key]
	return v, ok, nil
}

func (s *visitorStorage) SetItem(_ context.Context, key, value string) error {
	s.db.Lock()
	defer s.db.Unlock()
	items, ok := s.db.table[s.visitorID]
	if !ok {
		items = make(map[string]string)
		s.db.table[s.visitorID] = items
	}
	items[key] = value
	return nil
}

func (s *visitorStorage) RemoveItem(_ context.Context, key string) error {
	s.db.Lock()
	defer s.db.Unlock()
	delete(s.db.table[s.visitorID], key)
	if len(s.db.table[s.visitorID]) == 0 {
		delete(s.db.table, s.visitorID)
	}
	return nil
}
