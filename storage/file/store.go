// Package filestore keeps visitor storage in a single JSON file, rewritten whole on every change.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
)

// Store is a core.ScopedStorage backed by a JSON file.
type Store struct {
	filename string
	mu       sync.Mutex
}

var (
	_ core.ScopedStorage  = (*Store)(nil)
	_ core.VisitorStorage = (*visitorStorage)(nil)
)

// Open returns the store at filename. The file and its directory are created on first write.
func Open(filename string) (*Store, error) {
	if filename == "" {
		return nil, errors.New("empty storage file path")
	}
	if fi, err := os.Stat(filename); err == nil && fi.IsDir() {
		return nil, errors.Errorf("storage file %s is a directory", filename)
	}
	return &Store{filename: filename}, nil
}

// DefaultPath is the CLI storage file, eg. ~/.config/prep/storage.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating config dir")
	}
	return filepath.Join(dir, "prep", "storage.json"), nil
}

func (s *Store) Scope(visitorID string) core.Storage {
	return &visitorStorage{store: s, visitorID: visitorID}
}

type contents map[string]map[string]string

// load must be called with mu held.
func (s *Store) load() (contents, error) {
	data, err := os.ReadFile(s.filename)
	if os.IsNotExist(err) {
		return make(contents), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.filename)
	}
	c := make(contents)
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.filename)
	}
	return c, nil
}

// save must be called with mu held. The file is replaced atomically.
func (s *Store) save(c contents) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding storage")
	}
	if err := os.MkdirAll(filepath.Dir(s.filename), 0o700); err != nil {
		return errors.Wrap(err, "creating storage dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.filename), ".storage-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp storage file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	return errors.Wrapf(os.Rename(tmp.Name(), s.filename), "replacing %s", s.filename)
}

type visitorStorage struct {
	store     *Store
	visitorID string
}

func (v *visitorStorage) VisitorID() string { return v.visitorID }

func (v *visitorStorage) GetItem(_ context.Context, key string) (string, bool, error) {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	c, err := v.store.load()
	if err != nil {
		return "", false, err
	}
	val, ok := c[v.visitorID][key]
	return val, ok, nil
}

func (v *visitorStorage) SetItem(_ context.Context, key, value string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	c, err := v.store.load()
	if err != nil {
		return err
	}
	if c[v.visitorID] == nil {
		c[v.visitorID] = make(map[string]string)
	}
	c[v.visitorID][key] = value
	return v.store.save(c)
}

func (v *visitorStorage) RemoveItem(_ context.Context, key string) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	c, err := v.store.load()
	if err != nil {
		return err
	}
	if _, ok := c[v.visitorID][key]; !ok {
		return nil
	}
	delete(c[v.visitorID], key)
	if len(c[v.visitorID]) == 0 {
		delete(c, v.visitorID)
	}
	return v.store.save(c)
}
