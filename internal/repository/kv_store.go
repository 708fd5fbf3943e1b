package repository

import (
	"context"
	"errors"
)

var (
	ErrDBNotReady  = errors.New("database not initialized")
	ErrKeyNotFound = errors.New("key not found")
	ErrConflict    = errors.New("concurrent modification")
	// ErrSkipWrite may be returned by an UpdateFunc to leave the stored value untouched.
	ErrSkipWrite = errors.New("skip write")
)

// UpdateFunc receives the current value (nil and false when the key is absent)
// and returns the value to store.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// KVStore persists whole serialized blobs by key. Update is the only mutation
// that reads before writing and is atomic per key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
}
