// Package store abstracts the key-value persistence used to survive wizard
// restarts. Each product owns an independent key; writers race with
// last-write-wins semantics and no locking is provided across holders.
package store

import (
	"context"
	"errors"
)

// ErrNotFound reports that no payload exists under the requested key.
var ErrNotFound = errors.New("store: key not found")

// Store persists opaque session snapshots keyed per product.
type Store interface {
	// Load returns the payload stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save writes the payload under key, replacing any previous value.
	Save(ctx context.Context, key string, payload []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
