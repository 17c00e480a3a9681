package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/unkn0wn-root/cachefront/store"
)

var ErrNilClient = errors.New("redis store: nil client")

// Redis stores cache records as plain string values with PX expiry.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	closed      atomic.Bool
}

var _ st.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, st.ErrClosed
	}
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if s.closed.Load() {
		return false, st.ErrClosed
	}
	if ttl < 0 {
		ttl = 0 // KEEPTTL is -1 in go-redis; never pass it through
	}
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Redis) Del(ctx context.Context, key string) error {
	if s.closed.Load() {
		return st.ErrClosed
	}
	return s.rdb.Del(ctx, key).Err()
}

// Close releases the client only when this store owns it. Repeated calls are no-ops.
func (s *Redis) Close(context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
