// Package fakes holds in-memory stand-ins for the backend ports, usable from any package's tests.
package fakes

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"

	"github.com/examprep/portal/core"
)

// Collection is an in-memory core.Collection.
// Writes are decoded into T through JSON, the way the backend would echo them back.
type Collection[T any] struct {
	mu      sync.Mutex
	items   []T
	idOf    func(T) string
	setID   func(*T, string)
	nextID  func() string
	matchFn func(T, url.Values) bool

	Err     error // returned by every call when set
	Queries []url.Values
	Tokens  []string
}

var _ core.Collection[struct{}] = (*Collection[struct{}])(nil)

func NewCollection[T any](idOf func(T) string, setID func(*T, string), items ...T) *Collection[T] {
	var n int
	c := &Collection[T]{
		idOf:  idOf,
		setID: setID,
		items: append([]T(nil), items...),
	}
	c.nextID = func() string {
		n++
		return "new" + strconv.Itoa(n)
	}
	return c
}

// MatchBy sets the predicate used by List to honour query parameters.
func (c *Collection[T]) MatchBy(fn func(T, url.Values) bool) *Collection[T] {
	c.matchFn = fn
	return c
}

func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) List(_ context.Context, token string, query url.Values) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Queries = append(c.Queries, query)
	c.Tokens = append(c.Tokens, token)
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		if c.matchFn == nil || c.matchFn(it, query) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c *Collection[T]) Get(_ context.Context, token, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tokens = append(c.Tokens, token)
	var zero T
	if c.Err != nil {
		return zero, c.Err
	}
	for _, it := range c.items {
		if c.idOf(it) == id {
			return it, nil
		}
	}
	return zero, core.ErrNotFound
}

func (c *Collection[T]) Create(_ context.Context, token string, body interface{}) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tokens = append(c.Tokens, token)
	var it T
	if c.Err != nil {
		return it, c.Err
	}
	if err := roundTrip(body, &it); err != nil {
		return it, err
	}
	c.setID(&it, c.nextID())
	c.items = append(c.items, it)
	return it, nil
}

func (c *Collection[T]) Update(_ context.Context, token, id string, body interface{}) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tokens = append(c.Tokens, token)
	var it T
	if c.Err != nil {
		return it, c.Err
	}
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			if err := roundTrip(body, &it); err != nil {
				return it, err
			}
			c.setID(&it, id)
			c.items[i] = it
			return it, nil
		}
	}
	return it, core.ErrNotFound
}

func (c *Collection[T]) Delete(_ context.Context, token, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tokens = append(c.Tokens, token)
	if c.Err != nil {
		return c.Err
	}
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func roundTrip(in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
