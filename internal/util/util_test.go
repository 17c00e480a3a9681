package util

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestValidateKey(t *testing.T) {
	cases := []struct {
		name string
		key  string
		want error
	}{
		{"ok", "P003", nil},
		{"ok_with_space_and_colon", "user 1:profile", nil},
		{"empty", "", ErrEmptyKey},
		{"too_long", strings.Repeat("k", MaxKeyLen+1), ErrKeyTooLong},
		{"boundary", strings.Repeat("k", MaxKeyLen), nil},
		{"bad_utf8", string([]byte{0xff, 0xfe}), ErrKeyEncoding},
		{"control", "a\nb", ErrKeyControl},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateKey(tc.key); !errors.Is(err, tc.want) {
				t.Fatalf("ValidateKey(%q) = %v, want %v", tc.key, err, tc.want)
			}
		})
	}
}

func TestStorageKey(t *testing.T) {
	if got := StorageKey("single", "products", "P1"); got != "single:products:P1" {
		t.Fatalf("StorageKey = %q", got)
	}
}

func TestKeyMutexSerializesSameKey(t *testing.T) {
	km := NewKeyMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("k")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if n := km.Len(); n != 0 {
		t.Fatalf("expected lock table drained, got %d", n)
	}
}

func TestKeyMutexDifferentKeysIndependent(t *testing.T) {
	km := NewKeyMutex()
	unlockA := km.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := km.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on b blocked behind a")
	}
}
