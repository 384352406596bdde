// Package storage persists series artifacts on a local filesystem, S3/MinIO
// or Azure Blob Storage.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Backend defines the interface for artifact storage backends
type Backend interface {
	// Write stores data at path, replacing any existing object
	Write(ctx context.Context, path string, data []byte) error

	// Read returns the object at path, or an error wrapping ErrNotFound
	Read(ctx context.Context, path string) ([]byte, error)

	// List lists all objects with the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete deletes the object at path; a missing object is not an error
	Delete(ctx context.Context, path string) error

	// Exists checks if an object exists at path
	Exists(ctx context.Context, path string) (bool, error)

	// Close closes any resources held by the backend
	Close() error

	// Type returns the storage type identifier ("local", "s3", "azure")
	Type() string
}
