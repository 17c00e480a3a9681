package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID     string  `kv:"id"`
	Name   string  `kv:"name"`
	Price  int64   `kv:"price"`
	Weight float64 `kv:"weight"`
	Active bool    `kv:"active"`
	TTL    int64   `kv:"ttl"`
}

func TestFieldMappingRoundTrip(t *testing.T) {
	in := item{ID: "1", Name: "Laptop", Price: 1000, Weight: 1.25, Active: true}

	fields, err := ToFields(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"id":     "1",
		"name":   "Laptop",
		"price":  "1000",
		"weight": "1.25",
		"active": "true",
		"ttl":    "0",
	}, fields)

	out, err := FromFields[item](fields)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFromFieldsRejectsBadNumbers(t *testing.T) {
	_, err := FromFields[item](map[string]string{"id": "1", "price": "cheap"})
	assert.Error(t, err)
}

func TestTTLField(t *testing.T) {
	ttl, err := ttlOf(map[string]string{"ttl": "3"})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, ttl)

	ttl, err = ttlOf(map[string]string{"ttl": "0"})
	require.NoError(t, err)
	assert.Zero(t, ttl)

	ttl, err = ttlOf(map[string]string{})
	require.NoError(t, err)
	assert.Zero(t, ttl)

	_, err = ttlOf(map[string]string{"ttl": "soon"})
	assert.Error(t, err)
}

func TestNewValidates(t *testing.T) {
	_, err := New[item](NewMemoryBackend(), "")
	assert.ErrorIs(t, err, ErrKeyspace)
	_, err = New[item](nil, "items")
	assert.Error(t, err)
}

func runRepositorySuite(t *testing.T, backend Backend, keyspace string) {
	ctx := context.Background()
	repo, err := New[item](backend, keyspace)
	require.NoError(t, err)

	t.Run("SaveFind", func(t *testing.T) {
		p := item{ID: "1", Name: "Laptop", Price: 1000}
		require.NoError(t, repo.Save(ctx, p))

		got, ok, err := repo.FindByID(ctx, "1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, p, got)

		fields, ok, err := backend.Get(ctx, keyspace, "1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "1", fields["id"])
		assert.Equal(t, "Laptop", fields["name"])
		assert.Equal(t, "1000", fields["price"])
	})

	t.Run("MissingID", func(t *testing.T) {
		assert.ErrorIs(t, repo.Save(ctx, item{Name: "anon"}), ErrMissingID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, item{ID: "2", Name: "Mouse"}))
		require.NoError(t, repo.DeleteByID(ctx, "2"))
		_, ok, err := repo.FindByID(ctx, "2")
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, repo.DeleteByID(ctx, "2"))
	})

	t.Run("TTL", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, item{ID: "3", Name: "Temp", TTL: 1}))
		_, ok, err := repo.FindByID(ctx, "3")
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(1500 * time.Millisecond)
		_, ok, err = repo.FindByID(ctx, "3")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FindAllPrunesExpired", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, item{ID: "4", Name: "Keyboard"}))

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(all))
		for _, it := range all {
			names = append(names, it.Name)
		}
		assert.ElementsMatch(t, []string{"Laptop", "Keyboard"}, names)

		ids, err := backend.IDs(ctx, keyspace)
		require.NoError(t, err)
		assert.NotContains(t, ids, "3")

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestMemoryBackend(t *testing.T) {
	runRepositorySuite(t, NewMemoryBackend(), "items")
}

func TestRedisBackend(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	keyspace := "cachefront-test-items-" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		ctx := context.Background()
		ids, _ := rdb.SMembers(ctx, keyspace).Result()
		for _, id := range ids {
			rdb.Del(ctx, recordKey(keyspace, id))
		}
		rdb.Del(ctx, keyspace)
	})
	runRepositorySuite(t, NewRedisBackend(rdb), keyspace)
}
