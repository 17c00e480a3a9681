package cachefront

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestCachedWrapsGetOrLoad(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, newMemStore(), nil)

	var calls atomic.Int64
	get := Cached(cc, countingLoader(&calls))
	for i := 0; i < 3; i++ {
		p, err := get(ctx, "P001")
		if err != nil {
			t.Fatal(err)
		}
		if p.ID != "P001" {
			t.Fatalf("got %+v", p)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("wrapped fn calls = %d, want 1", calls.Load())
	}
}

func TestCachePutStoresResult(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, newMemStore(), nil)

	save := CachePut(cc, func(p product) string { return p.ID },
		func(_ context.Context, p product) (product, error) { return p, nil })

	if _, err := save(ctx, product{ID: "P003", Price: 100}); err != nil {
		t.Fatal(err)
	}
	got, err := cc.GetOrLoad(ctx, "P003", failingLoader(t))
	if err != nil || got.Price != 100 {
		t.Fatalf("got %+v err %v", got, err)
	}
}

func TestCachePutSkipsOnError(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	cc := newTestCache(t, st, nil)
	boom := errors.New("validation failed")

	save := CachePut(cc, func(p product) string { return p.ID },
		func(context.Context, product) (product, error) { return product{ID: "P003"}, boom })

	if _, err := save(ctx, product{ID: "P003"}); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if st.sets.Load() != 0 {
		t.Fatalf("failed call must not be cached")
	}
}

func TestCacheEvictRemovesAfterSuccess(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, newMemStore(), nil)
	if err := cc.Put(ctx, "P001", product{ID: "P001"}, 0); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("delete failed")
	fail := true
	remove := CacheEvict(cc, func(id string) string { return id },
		func(context.Context, string) error {
			if fail {
				return boom
			}
			return nil
		})

	if err := remove(ctx, "P001"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, ok, _ := cc.Get(ctx, "P001"); !ok {
		t.Fatalf("entry must survive a failed call")
	}

	fail = false
	if err := remove(ctx, "P001"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := cc.Get(ctx, "P001"); ok {
		t.Fatalf("entry must be evicted after a successful call")
	}
}
