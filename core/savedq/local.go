package savedq

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

const (
	// StorageKey is the storage entry holding the saved question ids.
	StorageKey = "savedQuestions"

	storageVersion = 1
)

var errFutureVersion = errors.New("stored saved questions written by a newer version")

// storedIDs is the persisted format. Version 0 is the bare JSON array written by older clients.
type storedIDs struct {
	Version int      `json:"version"`
	IDs     []string `json:"ids"`
}

// LocalStore persists the saved question ids of one visitor.
type LocalStore struct {
	storage core.Storage
	logger  core.Logger
}

func NewLocalStore(storage core.Storage, logger core.Logger) *LocalStore {
	return &LocalStore{storage: storage, logger: logger}
}

// Load returns the stored ids. Missing or corrupt data yields an empty set (and a log line);
// only an unreadable storage is an error.
func (ls *LocalStore) Load(ctx context.Context) (*IDSet, error) {
	raw, found, err := ls.storage.GetItem(ctx, StorageKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading saved questions")
	}
	if !found || strings.TrimSpace(raw) == "" {
		return NewIDSet(), nil
	}

	ids, err := decodeIDs(raw)
	if err != nil {
		ls.logger.Warn("discarding unreadable saved questions", err, map[string]interface{}{"raw": truncate(raw, 128)})
		return NewIDSet(), nil
	}
	return NewIDSet(ids...), nil
}

// Save overwrites the whole stored collection with set.
func (ls *LocalStore) Save(ctx context.Context, set *IDSet) error {
	data, err := json.Marshal(storedIDs{Version: storageVersion, IDs: set.IDs()})
	if err != nil {
		return errors.Wrap(err, "encoding saved questions")
	}
	if err := ls.storage.SetItem(ctx, StorageKey, string(data)); err != nil {
		return errors.Wrap(err, "writing saved questions")
	}
	return nil
}

func decodeIDs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") { // version 0
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, errors.Wrap(err, "decoding saved questions (v0)")
		}
		return ids, nil
	}

	var stored storedIDs
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, errors.Wrap(err, "decoding saved questions")
	}
	if stored.Version > storageVersion {
		return nil, errors.Wrapf(errFutureVersion, "version %d", stored.Version)
	}
	return stored.IDs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
