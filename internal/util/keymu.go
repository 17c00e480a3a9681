package util

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const keyMuShards = 32

// KeyMutex hands out one mutex per key. Unrelated keys never share a lock;
// entries are dropped once the last holder releases them.
type KeyMutex struct {
	shards [keyMuShards]keyMuShard
}

type keyMuShard struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyMutex() *KeyMutex {
	km := &KeyMutex{}
	for i := range km.shards {
		km.shards[i].locks = make(map[string]*refLock)
	}
	return km
}

func (km *KeyMutex) shard(key string) *keyMuShard {
	return &km.shards[xxhash.Sum64String(key)%keyMuShards]
}

// Lock blocks until key is held and returns the matching unlock func.
func (km *KeyMutex) Lock(key string) (unlock func()) {
	s := km.shard(key)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &refLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Len returns the number of keys currently locked or waited on.
func (km *KeyMutex) Len() int {
	n := 0
	for i := range km.shards {
		s := &km.shards[i]
		s.mu.Lock()
		n += len(s.locks)
		s.mu.Unlock()
	}
	return n
}
