// Package cachefront is a read-through / cache-aside facade over a pluggable
// byte store, with explicit TTL and eviction semantics.
//
// Components:
//   - store.Store: byte store (memory, ristretto, bigcache, bolt, redis).
//   - codec.Codec[V]: (de)serializes V <-> []byte.
//   - genstore.GenStore: generation counter per key. Local (in-process) by
//     default; Redis when several replicas share one store.
//
// Keys are stored as
//
//	single:<ns>:<key>
//
// Every record carries the generation it was written under and an optional
// absolute expiry. Put and Evict bump the generation, so a load that started
// before them never overwrites their effect, and a record older than the
// current generation is never served.
//
// Usage:
//
//	products, _ := cachefront.New[Product](cachefront.Options[Product]{
//	    Namespace: "products",
//	    Store:     memory.New(memory.Config{}),
//	    Codec:     codec.JSON[Product]{},
//	})
//	p, err := products.GetOrLoad(ctx, id, loadFromDB)
package cachefront
