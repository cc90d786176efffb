package core

import "context"

type (
	// Storage is a per-visitor key-value store, the server side counterpart of the browser's local storage.
	// Values are opaque strings; writes overwrite the whole value.
	Storage interface {
		// GetItem returns found == false if the key has never been set.
		GetItem(ctx context.Context, key string) (value string, found bool, err error)
		SetItem(ctx context.Context, key, value string) error
		RemoveItem(ctx context.Context, key string) error
	}

	// VisitorStorage is a Storage that knows which visitor it is scoped to.
	// Storages handed out for the same visitor share its ID.
	VisitorStorage interface {
		Storage
		VisitorID() string
	}

	// ScopedStorage hands out one Storage per visitor.
	ScopedStorage interface {
		Scope(visitorID string) Storage
	}
)
