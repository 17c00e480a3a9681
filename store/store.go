// Package store defines the byte store that backs a cachefront cache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// bytes previously passed to Set for a key. Compression or other transforms are
// allowed only when fully reversed before Get returns.
//
// The keyspace "single:<ns>:" is owned by cachefront. Foreign writes under it
// fail wire validation and are deleted on read.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Get, Set and Del once a store has been closed.
var ErrClosed = errors.New("store: closed")

// Store is a minimal byte store with TTLs, safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// IO or remote failures return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl <= 0 means no store-level expiry. Stores without
	// cost accounting ignore cost. ok=false reports a write refused under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources. Calls after the first are no-ops.
	Close(ctx context.Context) error
}
