package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/examprep/portal/core"
)

// Collection is a CRUD resource of the backend, eg. /api/exams.
type Collection[T any] struct {
	client *Client
	path   string
	// itemPath is the path of a single item; defaults to path + "/" + id
	itemPath func(id string) string

	decodeOne  func(raw []byte) (T, error)
	decodeMany func(raw []byte) ([]T, error)
}

var _ core.Collection[struct{}] = (*Collection[struct{}])(nil)

// NewCollection returns the resource at path, decoding items with encoding/json.
func NewCollection[T any](client *Client, path string) *Collection[T] {
	path = "/" + strings.Trim(path, "/")
	col := &Collection[T]{client: client, path: path}
	col.itemPath = func(id string) string { return path + "/" + url.PathEscape(id) }
	col.decodeOne = func(raw []byte) (T, error) {
		var it T
		err := decode(raw, &it)
		return it, err
	}
	col.decodeMany = func(raw []byte) ([]T, error) {
		items := make([]T, 0)
		err := decode(raw, &items)
		return items, err
	}
	return col
}

// WithItemPath overrides the path of single items, eg. /api/questions/id/:id.
func (col *Collection[T]) WithItemPath(fn func(id string) string) *Collection[T] {
	col.itemPath = fn
	return col
}

// WithDecoders overrides how items are decoded; nil keeps the current decoder.
func (col *Collection[T]) WithDecoders(one func([]byte) (T, error), many func([]byte) ([]T, error)) *Collection[T] {
	if one != nil {
		col.decodeOne = one
	}
	if many != nil {
		col.decodeMany = many
	}
	return col
}

func (col *Collection[T]) List(ctx context.Context, token string, query url.Values) ([]T, error) {
	raw, err := col.client.do(ctx, http.MethodGet, col.path, query, token, nil)
	if err != nil {
		return nil, err
	}
	return col.decodeMany(raw)
}

func (col *Collection[T]) Get(ctx context.Context, token, id string) (T, error) {
	raw, err := col.client.do(ctx, http.MethodGet, col.itemPath(id), nil, token, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return col.decodeOne(raw)
}

func (col *Collection[T]) Create(ctx context.Context, token string, body interface{}) (T, error) {
	raw, err := col.client.do(ctx, http.MethodPost, col.path, nil, token, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return col.decodeOne(raw)
}

func (col *Collection[T]) Update(ctx context.Context, token, id string, body interface{}) (T, error) {
	raw, err := col.client.do(ctx, http.MethodPut, col.path+"/"+url.PathEscape(id), nil, token, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return col.decodeOne(raw)
}

func (col *Collection[T]) Delete(ctx context.Context, token, id string) error {
	_, err := col.client.do(ctx, http.MethodDelete, col.path+"/"+url.PathEscape(id), nil, token, nil)
	return err
}
