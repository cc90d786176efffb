package core

import (
	"context"
	"io"
)

type (
	// MediaResolver turns an image reference into a URL a browser can load.
	MediaResolver interface {
		URL(ctx context.Context, ref string) (string, error)
	}

	// MediaStore also accepts uploads from the admin screens.
	MediaStore interface {
		MediaResolver
		Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (ref string, err error)
	}
)

// PassthroughMedia is used when no object store is configured: references already are URLs.
type PassthroughMedia struct{}

func (PassthroughMedia) URL(_ context.Context, ref string) (string, error) { return ref, nil }
