package bigcache

import (
	"testing"
	"time"

	"github.com/unkn0wn-root/cachefront/store/storetest"
)

func TestBigCacheStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Harness {
		s, err := New(Config{LifeWindow: time.Minute, Shards: 16})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return storetest.Harness{Store: s}
	})
}
