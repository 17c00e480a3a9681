package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryBackend is an in-process Backend for tests and single-node demos.
// Record expiry is handled by ttlcache; the index behaves like the Redis set
// and may list expired ids until FindAll prunes them.
type MemoryBackend struct {
	records *ttlcache.Cache[string, map[string]string]

	mu    sync.Mutex
	index map[string]map[string]struct{}
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		records: ttlcache.New[string, map[string]string](
			ttlcache.WithDisableTouchOnHit[string, map[string]string](),
		),
		index: make(map[string]map[string]struct{}),
	}
}

func (b *MemoryBackend) Put(_ context.Context, keyspace, id string, fields map[string]string, ttl time.Duration) error {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	b.records.Set(recordKey(keyspace, id), cp, ttl)

	b.mu.Lock()
	ids, ok := b.index[keyspace]
	if !ok {
		ids = make(map[string]struct{})
		b.index[keyspace] = ids
	}
	ids[id] = struct{}{}
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Get(_ context.Context, keyspace, id string) (map[string]string, bool, error) {
	item := b.records.Get(recordKey(keyspace, id))
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	src := item.Value()
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, true, nil
}

func (b *MemoryBackend) Delete(ctx context.Context, keyspace, id string) error {
	b.records.Delete(recordKey(keyspace, id))
	return b.Unindex(ctx, keyspace, id)
}

func (b *MemoryBackend) IDs(_ context.Context, keyspace string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.index[keyspace]))
	for id := range b.index[keyspace] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (b *MemoryBackend) Unindex(_ context.Context, keyspace string, ids ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.index[keyspace], id)
	}
	return nil
}
