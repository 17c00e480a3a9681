package ristretto

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	rc "github.com/dgraph-io/ristretto"

	st "github.com/unkn0wn-root/cachefront/store"
)

// Store is a cost-bounded in-process store. Sets are buffered by ristretto, so
// a Get right after Set may miss until the buffer drains; Wait forces it.
type Store struct {
	c      *rc.Cache
	closed atomic.Bool
}

var _ st.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, st.ErrClosed
	}
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set returns ok=false when ristretto drops the write (admission policy or full buffers).
func (s *Store) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if s.closed.Load() {
		return false, st.ErrClosed
	}
	if cost <= 0 {
		cost = int64(len(value))
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.c.SetWithTTL(key, value, cost, ttl), nil
}

func (s *Store) Del(_ context.Context, key string) error {
	if s.closed.Load() {
		return st.ErrClosed
	}
	s.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (s *Store) Wait() { s.c.Wait() }

func (s *Store) Close(_ context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes ristretto's counters when Config.Metrics is set.
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
