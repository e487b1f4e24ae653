// Package persist provides the durable key-value storage behind the ledger
// and the mapping of ledger state onto it.
package persist

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KV.Get when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// KV is a durable string key-value store.
type KV interface {
	// Get returns the value stored at key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}
