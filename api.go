package cachefront

import (
	"context"
	"time"

	"github.com/unkn0wn-root/cachefront/codec"
	"github.com/unkn0wn-root/cachefront/genstore"
	"github.com/unkn0wn-root/cachefront/store"
)

// NoExpiration marks an entry that never expires. Usable as a Put ttl,
// as Options.DefaultTTL and as a TTLOf result.
const NoExpiration time.Duration = -1

// SetCostFunc computes the admission cost of a framed record for stores
// that weigh entries (ristretto). Default: 1.
type SetCostFunc func(storageKey string, raw []byte) int64

// LoaderFunc produces the value for key on a cache miss.
type LoaderFunc[V any] func(ctx context.Context, key string) (V, error)

// Cache is the store-agnostic caching facade. V is the caller's value type;
// serialization is handled by a pluggable codec.Codec[V].
type Cache[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// GetOrLoad returns the live entry for key, or runs load once for all
	// concurrent callers of that key, stores its result and returns it.
	// When the value was loaded but could not be stored, both the value and
	// a *StoreError are returned. If ctx ends first, ctx.Err() is returned
	// as is (context.Canceled or context.DeadlineExceeded) and the shared
	// load keeps running for the other callers.
	GetOrLoad(ctx context.Context, key string, load LoaderFunc[V]) (V, error)

	// Get is a cache-only read.
	Get(ctx context.Context, key string) (v V, ok bool, err error)

	// Put writes value unconditionally. ttl == 0 uses Options.TTLOf, then
	// Options.DefaultTTL; NoExpiration keeps the entry until evicted.
	Put(ctx context.Context, key string, value V, ttl time.Duration) error

	// Evict removes key. Evicting an absent key is not an error. A failed
	// delete returns a *StoreError even though the bumped generation already
	// hides the record; *EvictError means both steps failed.
	Evict(ctx context.Context, key string) error
}

// Options tune the cache. Namespace, Store and Codec are required.
type Options[V any] struct {
	Namespace string // e.g. "products", "user"
	Store     store.Store
	Codec     codec.Codec[V]

	Logger          Logger                // nil => NopLogger
	Hooks           Hooks                 // nil => NopHooks
	DefaultTTL      time.Duration         // 0 => 10m; NoExpiration => none
	TTLOf           func(V) time.Duration // per-value TTL; 0 result falls back to DefaultTTL
	LoadTimeout     time.Duration         // bound on the shared load; 0 => none
	CleanupInterval time.Duration         // local gen cleanup; 0 => 1h
	GenRetention    time.Duration         // local gen retention; 0 => 30d
	Disabled        bool                  // pass-through mode
	ComputeSetCost  SetCostFunc           // default 1
	GenStore        genstore.GenStore     // nil => LocalGenStore (in-process)

	now func() time.Time // test clock
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
