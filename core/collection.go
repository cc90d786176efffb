package core

import (
	"context"
	"net/url"

	"github.com/go-playground/validator/v10"
)

type (
	// Collection is a CRUD resource owned by the backend API.
	// token is the session token forwarded to the backend; it may be empty for public resources.
	Collection[T any] interface {
		List(ctx context.Context, token string, query url.Values) ([]T, error)
		Get(ctx context.Context, token, id string) (T, error)
		Create(ctx context.Context, token string, body interface{}) (T, error)
		Update(ctx context.Context, token, id string, body interface{}) (T, error)
		Delete(ctx context.Context, token, id string) error
	}

	// Writable is a payload bound from a request, cleaned and validated before being forwarded.
	Writable interface {
		Validate(validate *validator.Validate) error
	}
)
