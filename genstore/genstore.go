package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where per-key generations live.
// Use LocalGenStore (default) for a single process, or RedisGenStore when
// several replicas share one backing store.
//
// Retention must exceed the longest entry TTL in use: once a generation is
// pruned it restarts from 0.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes generations not bumped within retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources.
	Close(context.Context) error
}
