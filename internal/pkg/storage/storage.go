package storage

import (
	"context"
	"errors"
	"io"
)

// ErrInvalidKey is returned for object keys that escape the storage root
var ErrInvalidKey = errors.New("invalid object key")

// Storage is the object store behind the storage-backed media backends.
type Storage interface {
	// Put stores the object at key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes the object. Returns nil if it does not exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for key.
	GetURL(key string) string
}
