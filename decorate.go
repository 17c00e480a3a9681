package cachefront

import "context"

// Cached wraps fn so every call goes through c.GetOrLoad: hits skip fn,
// concurrent misses for one key share a single fn call.
func Cached[V any](c Cache[V], fn LoaderFunc[V]) LoaderFunc[V] {
	return func(ctx context.Context, key string) (V, error) {
		return c.GetOrLoad(ctx, key, fn)
	}
}

// CachePut runs fn and, on success, stores its result under keyOf(result)
// with the cache's default TTL resolution. A failed Put is returned together
// with the result.
func CachePut[A, V any](c Cache[V], keyOf func(V) string, fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		v, err := fn(ctx, arg)
		if err != nil {
			return v, err
		}
		return v, c.Put(ctx, keyOf(v), v, 0)
	}
}

// CacheEvict runs fn and, on success, evicts keyOf(arg).
func CacheEvict[A, V any](c Cache[V], keyOf func(A) string, fn func(context.Context, A) error) func(context.Context, A) error {
	return func(ctx context.Context, arg A) error {
		if err := fn(ctx, arg); err != nil {
			return err
		}
		return c.Evict(ctx, keyOf(arg))
	}
}
