// Package kv provides the string-keyed persistent map that backs the portal's
// collections. Values are opaque bytes; callers store JSON documents.
package kv

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("kv store closed")

type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
