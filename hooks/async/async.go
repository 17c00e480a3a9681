// Package asynchook moves hook delivery off the cache's hot path.
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	products, _ := cachefront.New[Product](cachefront.Options[Product]{
//	    Namespace: "products",
//	    Store:     st,
//	    Codec:     codec.JSON[Product]{},
//	    Hooks:     hooks,
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachefront"
)

// Hooks queues events for a fixed worker pool. When the queue is full the
// event is dropped and counted, never blocking the caller.
type Hooks struct {
	inner   cachefront.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cachefront.Hooks = (*Hooks)(nil)

func New(inner cachefront.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(k string)                { h.try(func() { h.inner.Hit(k) }) }
func (h *Hooks) Miss(k string)               { h.try(func() { h.inner.Miss(k) }) }
func (h *Hooks) LoadShared(k string)         { h.try(func() { h.inner.LoadShared(k) }) }
func (h *Hooks) LoadError(k string, e error) { h.try(func() { h.inner.LoadError(k, e) }) }
func (h *Hooks) PopulateSkipped(k string)    { h.try(func() { h.inner.PopulateSkipped(k) }) }
func (h *Hooks) SelfHeal(k, r string)        { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) StoreSetRejected(k string)   { h.try(func() { h.inner.StoreSetRejected(k) }) }
func (h *Hooks) GenBumpError(k string, e error) {
	h.try(func() { h.inner.GenBumpError(k, e) })
}
func (h *Hooks) EvictOutage(k string, be, de error) {
	h.try(func() { h.inner.EvictOutage(k, be, de) })
}
