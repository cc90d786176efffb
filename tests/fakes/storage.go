package fakes

import (
	"context"
	"sync"

	"github.com/examprep/portal/core"
)

// Storage is an in-memory core.Storage that can be made to fail.
type Storage struct {
	mu    sync.Mutex
	items map[string]string

	GetErr error // returned by GetItem when set
	SetErr error // returned by SetItem when set
	Writes int
}

var _ core.Storage = (*Storage)(nil)

func NewStorage(items map[string]string) *Storage {
	s := &Storage{items: make(map[string]string, len(items))}
	for k, v := range items {
		s.items[k] = v
	}
	return s
}

func (s *Storage) GetItem(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *Storage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.Writes++
	s.items[key] = value
	return nil
}

func (s *Storage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	delete(s.items, key)
	return nil
}

// Value returns the raw stored value of key.
func (s *Storage) Value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[key]
}
