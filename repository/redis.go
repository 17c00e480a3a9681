package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps records as Redis hashes and the index as a set.
type RedisBackend struct {
	rdb redis.UniversalClient
}

var _ Backend = (*RedisBackend)(nil)

func NewRedisBackend(rdb redis.UniversalClient) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

// Put rewrites the hash, its expiry and the index entry in one MULTI/EXEC.
func (b *RedisBackend) Put(ctx context.Context, keyspace, id string, fields map[string]string, ttl time.Duration) error {
	key := recordKey(keyspace, id)
	values := make(map[string]any, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, values)
		if ttl > 0 {
			p.Expire(ctx, key, ttl)
		}
		p.SAdd(ctx, keyspace, id)
		return nil
	})
	return err
}

func (b *RedisBackend) Get(ctx context.Context, keyspace, id string) (map[string]string, bool, error) {
	m, err := b.rdb.HGetAll(ctx, recordKey(keyspace, id)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(m) == 0 {
		return nil, false, nil
	}
	return m, true, nil
}

func (b *RedisBackend) Delete(ctx context.Context, keyspace, id string) error {
	_, err := b.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, recordKey(keyspace, id))
		p.SRem(ctx, keyspace, id)
		return nil
	})
	return err
}

func (b *RedisBackend) IDs(ctx context.Context, keyspace string) ([]string, error) {
	return b.rdb.SMembers(ctx, keyspace).Result()
}

func (b *RedisBackend) Unindex(ctx context.Context, keyspace string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	return b.rdb.SRem(ctx, keyspace, members...).Err()
}
