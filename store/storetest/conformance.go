// Package storetest provides conformance tests for store.Store implementations.
package storetest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	st "github.com/unkn0wn-root/cachefront/store"
)

// Harness is one fresh store under test.
type Harness struct {
	Store st.Store
	// Settle flushes asynchronous writes (ristretto buffers). May be nil.
	Settle func()
	// TTL reports whether the store enforces per-entry expiry on its own.
	TTL bool
}

// Factory creates a fresh Harness for each subtest.
type Factory func(t *testing.T) Harness

// Run runs all conformance tests against a store implementation.
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		test func(t *testing.T, h Harness)
	}{
		{"SetGet", testSetGet},
		{"GetMissing", testGetMissing},
		{"Overwrite", testOverwrite},
		{"Delete", testDelete},
		{"DeleteAbsent", testDeleteAbsent},
		{"BinaryTransparent", testBinaryTransparent},
		{"TTL", testTTL},
		{"Concurrent", testConcurrent},
		{"CloseTwice", testCloseTwice},
		{"UseAfterClose", testUseAfterClose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := factory(t)
			t.Cleanup(func() { _ = h.Store.Close(context.Background()) })
			tt.test(t, h)
		})
	}
}

func settle(h Harness) {
	if h.Settle != nil {
		h.Settle()
	}
}

func mustSet(t *testing.T, h Harness, key string, v []byte, ttl time.Duration) {
	t.Helper()
	ok, err := h.Store.Set(context.Background(), key, v, int64(len(v)), ttl)
	if err != nil {
		t.Fatalf("Set(%q): %v", key, err)
	}
	if !ok {
		t.Fatalf("Set(%q) rejected", key)
	}
	settle(h)
}

func mustGet(t *testing.T, h Harness, key string) ([]byte, bool) {
	t.Helper()
	v, ok, err := h.Store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	return v, ok
}

func testSetGet(t *testing.T, h Harness) {
	mustSet(t, h, "test:k", []byte("value"), 0)
	v, ok := mustGet(t, h, "test:k")
	if !ok || string(v) != "value" {
		t.Fatalf("Get = %q ok=%v, want value", v, ok)
	}
}

func testGetMissing(t *testing.T, h Harness) {
	if v, ok := mustGet(t, h, "test:missing"); ok || v != nil {
		t.Fatalf("expected miss, got %q ok=%v", v, ok)
	}
}

func testOverwrite(t *testing.T, h Harness) {
	mustSet(t, h, "test:k", []byte("v1"), 0)
	mustSet(t, h, "test:k", []byte("v2"), 0)
	if v, ok := mustGet(t, h, "test:k"); !ok || string(v) != "v2" {
		t.Fatalf("Get = %q ok=%v, want v2", v, ok)
	}
}

func testDelete(t *testing.T, h Harness) {
	mustSet(t, h, "test:k", []byte("v"), 0)
	if err := h.Store.Del(context.Background(), "test:k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	settle(h)
	if _, ok := mustGet(t, h, "test:k"); ok {
		t.Fatalf("expected miss after Del")
	}
}

func testDeleteAbsent(t *testing.T, h Harness) {
	if err := h.Store.Del(context.Background(), "test:never"); err != nil {
		t.Fatalf("Del on absent key: %v", err)
	}
}

func testBinaryTransparent(t *testing.T, h Harness) {
	in := []byte{0, 1, 2, 0xff, 'C', 'F', 0, 0}
	mustSet(t, h, "test:bin", in, 0)
	v, ok := mustGet(t, h, "test:bin")
	if !ok || !bytes.Equal(v, in) {
		t.Fatalf("Get = %x ok=%v, want %x", v, ok, in)
	}
}

func testTTL(t *testing.T, h Harness) {
	if !h.TTL {
		t.Skip("store has no per-entry TTL")
	}
	mustSet(t, h, "test:ttl", []byte("v"), 50*time.Millisecond)
	if _, ok := mustGet(t, h, "test:ttl"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	time.Sleep(150 * time.Millisecond)
	if _, ok := mustGet(t, h, "test:ttl"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func testConcurrent(t *testing.T, h Harness) {
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("test:c:%d", i%4)
			for j := 0; j < 20; j++ {
				if _, err := h.Store.Set(ctx, key, []byte("v"), 1, 0); err != nil {
					errs <- err
					return
				}
				if _, _, err := h.Store.Get(ctx, key); err != nil {
					errs <- err
					return
				}
				if err := h.Store.Del(ctx, key); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent op: %v", err)
	}
}

func testCloseTwice(t *testing.T, h Harness) {
	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		if err := h.Store.Close(ctx); err != nil {
			done <- err
			return
		}
		done <- h.Store.Close(ctx)
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second Close blocked")
	}
}

func testUseAfterClose(t *testing.T, h Harness) {
	ctx := context.Background()
	mustSet(t, h, "test:k", []byte("v"), 0)
	if err := h.Store.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := h.Store.Get(ctx, "test:k"); !errors.Is(err, st.ErrClosed) {
		t.Fatalf("Get after Close: err=%v, want ErrClosed", err)
	}
	if ok, err := h.Store.Set(ctx, "test:k", []byte("v"), 1, 0); ok || !errors.Is(err, st.ErrClosed) {
		t.Fatalf("Set after Close: ok=%v err=%v, want ErrClosed", ok, err)
	}
	if err := h.Store.Del(ctx, "test:k"); !errors.Is(err, st.ErrClosed) {
		t.Fatalf("Del after Close: err=%v, want ErrClosed", err)
	}
}
