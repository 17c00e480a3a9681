package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	st "github.com/unkn0wn-root/cachefront/store"
)

// Store is an in-process store with per-entry TTL backed by ttlcache.
// Reads never extend an entry's lifetime.
type Store struct {
	c       *ttlcache.Cache[string, []byte]
	started bool
	closed  atomic.Bool
}

var _ st.Store = (*Store)(nil)

type Config struct {
	// Capacity bounds the number of entries; 0 = unbounded. When full the
	// least recently used entry is evicted.
	Capacity uint64
	// Janitor runs ttlcache's expiry loop so expired entries are reclaimed
	// without a read. Without it they are dropped lazily.
	Janitor bool
}

func New(cfg Config) *Store {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](cfg.Capacity))
	}
	s := &Store{c: ttlcache.New[string, []byte](opts...)}
	if cfg.Janitor {
		s.started = true
		go s.c.Start()
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, st.ErrClosed
	}
	item := s.c.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if s.closed.Load() {
		return false, st.ErrClosed
	}
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.c.Set(key, value, ttl)
	return true, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	if s.closed.Load() {
		return st.ErrClosed
	}
	s.c.Delete(key)
	return nil
}

// Len reports entries physically held, expired ones included.
func (s *Store) Len() int { return s.c.Len() }

// Close stops the janitor once; ttlcache.Stop blocks if called twice.
func (s *Store) Close(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.started {
		s.c.Stop()
	}
	s.c.DeleteAll()
	return nil
}
