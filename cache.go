package cachefront

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/cachefront/codec"
	"github.com/unkn0wn-root/cachefront/genstore"
	"github.com/unkn0wn-root/cachefront/internal/util"
	"github.com/unkn0wn-root/cachefront/internal/wire"
	"github.com/unkn0wn-root/cachefront/store"
)

type cache[V any] struct {
	ns             string
	store          store.Store
	codec          codec.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	ttlOf          func(V) time.Duration
	loadTimeout    time.Duration
	sweepInterval  time.Duration
	genRetention   time.Duration
	computeSetCost SetCostFunc
	gen            genstore.GenStore
	now            func() time.Time

	sf singleflight.Group
	km *util.KeyMutex
}

// flight is the shared outcome of one load. v may be set together with err
// when the value was loaded but could not be stored.
type flight[V any] struct {
	v   V
	err error
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("cachefront: store is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("cachefront: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("cachefront: namespace is required")
	}

	c := &cache[V]{
		ns:          opts.Namespace,
		store:       opts.Store,
		codec:       opts.Codec,
		enabled:     !opts.Disabled,
		ttlOf:       opts.TTLOf,
		loadTimeout: opts.LoadTimeout,
		km:          util.NewKeyMutex(),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)
	c.sweepInterval = coalesce[time.Duration](opts.CleanupInterval, defaultSweep)
	c.genRetention = coalesce[time.Duration](opts.GenRetention, defaultGenRetention)

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(string, []byte) int64 { return 1 }
	}
	if opts.now != nil {
		c.now = opts.now
	} else {
		c.now = time.Now
	}

	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		c.gen = genstore.NewLocalGenStore(c.sweepInterval, c.genRetention)
	}

	return c, nil
}

func (c *cache[V]) Enabled() bool { return c.enabled }

func (c *cache[V]) Close(ctx context.Context) error {
	var genErr error
	if c.gen != nil {
		genErr = c.gen.Close(ctx)
	}
	return errors.Join(genErr, c.store.Close(ctx))
}

func (c *cache[V]) GetOrLoad(ctx context.Context, key string, load LoaderFunc[V]) (V, error) {
	var zero V
	if err := checkKey(key); err != nil {
		return zero, err
	}
	if load == nil {
		return zero, &LoadError{Key: key, Err: ErrNilLoader}
	}
	if !c.enabled {
		v, err := load(ctx, key)
		if err != nil {
			return zero, &LoadError{Key: key, Err: err}
		}
		return v, nil
	}

	k := c.singleKey(key)
	v, ok, err := c.lookup(ctx, key, k)
	if err != nil {
		return zero, err
	}
	if ok {
		c.hooks.Hit(k)
		return v, nil
	}
	c.hooks.Miss(k)

	// The flight runs detached from ctx: an abandoning caller must not cancel
	// the load for the others.
	ch := c.sf.DoChan(k, func() (any, error) {
		return c.loadAndPopulate(ctx, key, k, load), nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.hooks.LoadShared(k)
		}
		f := res.Val.(flight[V])
		return f.v, f.err
	}
}

func (c *cache[V]) loadAndPopulate(ctx context.Context, key, k string, load LoaderFunc[V]) flight[V] {
	lctx := context.WithoutCancel(ctx)
	if c.loadTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(lctx, c.loadTimeout)
		defer cancel()
	}

	// Snapshot before the recheck: a Put landing after a recheck miss must
	// still move the generation past obs.
	obs, snapErr := c.gen.Snapshot(lctx, k)

	// A flight that finished between our miss and this one may have filled it.
	if v, ok, err := c.lookup(lctx, key, k); err != nil {
		return flight[V]{err: err}
	} else if ok {
		return flight[V]{v: v}
	}

	v, err := load(lctx, key)
	if err != nil {
		c.hooks.LoadError(k, err)
		c.log.Debug("load failed", Fields{"key": key, "err": err})
		return flight[V]{err: &LoadError{Key: key, Err: err}}
	}
	if snapErr != nil {
		return flight[V]{v: v, err: &StoreError{Op: OpGenSnapshot, Key: key, Err: snapErr}}
	}
	if err := c.populate(lctx, key, k, obs, v); err != nil {
		return flight[V]{v: v, err: err}
	}
	return flight[V]{v: v}
}

// populate stores a loaded value iff no Put or Evict bumped the generation
// since obs was taken.
func (c *cache[V]) populate(ctx context.Context, key, k string, obs uint64, v V) error {
	payload, err := c.codec.Encode(v)
	if err != nil {
		return &CodecError{Key: key, Err: err}
	}
	ttl := c.resolveTTL(v, 0)

	unlock := c.km.Lock(k)
	defer unlock()

	cur, err := c.gen.Snapshot(ctx, k)
	if err != nil {
		return &StoreError{Op: OpGenSnapshot, Key: key, Err: err}
	}
	if cur != obs {
		c.hooks.PopulateSkipped(k)
		c.log.Debug("populate skipped (gen moved)", Fields{"key": key, "obs": obs, "gen": cur})
		return nil
	}

	ok, err := c.write(ctx, k, cur, payload, ttl)
	if err != nil {
		return &StoreError{Op: OpSet, Key: key, Err: err}
	}
	if !ok {
		// the value is still correct for the caller; the store just would not keep it
		c.hooks.StoreSetRejected(k)
		c.log.Debug("populate rejected by store (pressure)", Fields{"key": key})
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if err := checkKey(key); err != nil {
		return zero, false, err
	}
	if !c.enabled {
		return zero, false, nil
	}
	k := c.singleKey(key)
	v, ok, err := c.lookup(ctx, key, k)
	if err != nil || !ok {
		if err == nil {
			c.hooks.Miss(k)
		}
		return zero, false, err
	}
	c.hooks.Hit(k)
	return v, true, nil
}

func (c *cache[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if !c.enabled {
		return nil
	}
	k := c.singleKey(key)
	payload, err := c.codec.Encode(value)
	if err != nil {
		return &CodecError{Key: key, Err: err}
	}
	ttl = c.resolveTTL(value, ttl)

	unlock := c.km.Lock(k)
	gen, err := c.gen.Bump(ctx, k)
	if err != nil {
		unlock()
		c.hooks.GenBumpError(k, err)
		c.log.Error("gen bump error", Fields{"key": key, "err": err})
		return &StoreError{Op: OpGenBump, Key: key, Err: err}
	}
	ok, err := c.write(ctx, k, gen, payload, ttl)
	unlock()

	// later callers must not join a load that started before this put
	c.sf.Forget(k)

	if err != nil {
		return &StoreError{Op: OpSet, Key: key, Err: err}
	}
	if !ok {
		c.hooks.StoreSetRejected(k)
		return &StoreError{Op: OpSet, Key: key, Err: ErrStoreRejected}
	}
	return nil
}

func (c *cache[V]) Evict(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if !c.enabled {
		return nil
	}
	k := c.singleKey(key)

	unlock := c.km.Lock(k)
	newGen, bumpErr := c.gen.Bump(ctx, k)
	delErr := c.store.Del(ctx, k)
	unlock()
	c.sf.Forget(k)

	switch {
	case bumpErr != nil && delErr != nil:
		c.hooks.EvictOutage(k, bumpErr, delErr)
		c.log.Error("evict failed: gen bump and delete failed", Fields{"key": key, "bumpErr": bumpErr, "delErr": delErr})
		return &EvictError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	case bumpErr != nil:
		// entry is gone; only an in-flight load could still repopulate it
		c.hooks.GenBumpError(k, bumpErr)
		c.log.Warn("evict: gen bump failed; entry deleted", Fields{"key": key, "err": bumpErr})
	case delErr != nil:
		// the bumped gen already hides the record; the store failure is still reported
		c.log.Warn("evict: delete failed; entry unreachable by gen", Fields{"key": key, "err": delErr, "newGen": newGen})
		return &StoreError{Op: OpDel, Key: key, Err: delErr}
	default:
		c.log.Debug("evicted key", Fields{"key": key, "newGen": newGen})
	}
	return nil
}

// lookup reads and validates the record for k. Corrupt, expired and stale
// records are reported as a miss and deleted.
func (c *cache[V]) lookup(ctx context.Context, key, k string) (V, bool, error) {
	var zero V
	raw, ok, err := c.store.Get(ctx, k)
	if err != nil {
		return zero, false, &StoreError{Op: OpGet, Key: key, Err: err}
	}
	if !ok {
		return zero, false, nil
	}

	rec, err := wire.Decode(raw)
	if err != nil {
		c.heal(ctx, k, raw, "corrupt")
		return zero, false, nil
	}
	if rec.Expired(c.now()) {
		c.heal(ctx, k, raw, "expired")
		return zero, false, nil
	}
	cur, err := c.gen.Snapshot(ctx, k)
	if err != nil {
		return zero, false, &StoreError{Op: OpGenSnapshot, Key: key, Err: err}
	}
	if rec.Gen != cur {
		c.heal(ctx, k, raw, "gen_mismatch")
		return zero, false, nil
	}
	v, err := c.codec.Decode(rec.Payload)
	if err != nil {
		c.heal(ctx, k, raw, "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

// heal deletes k if it still holds raw. A concurrent Put may have replaced
// the record since it was read; that one is left alone.
func (c *cache[V]) heal(ctx context.Context, k string, raw []byte, reason string) {
	unlock := c.km.Lock(k)
	defer unlock()

	cur, ok, err := c.store.Get(ctx, k)
	if err != nil || !ok || !bytes.Equal(cur, raw) {
		return
	}
	if err := c.store.Del(ctx, k); err != nil {
		c.log.Warn("self-heal delete failed", Fields{"key": k, "reason": reason, "err": err})
		return
	}
	c.hooks.SelfHeal(k, reason)
	c.log.Debug("self-healed entry", Fields{"key": k, "reason": reason})
}

func (c *cache[V]) write(ctx context.Context, k string, gen uint64, payload []byte, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	} else {
		ttl = 0
	}
	b := wire.Encode(gen, exp, payload)
	return c.store.Set(ctx, k, b, c.computeSetCost(k, b), ttl)
}

// resolveTTL picks the effective TTL; a result <= 0 means no expiry.
func (c *cache[V]) resolveTTL(v V, ttl time.Duration) time.Duration {
	if ttl != 0 {
		return ttl
	}
	if c.ttlOf != nil {
		if t := c.ttlOf(v); t != 0 {
			return t
		}
	}
	return c.defaultTTL
}

func (c *cache[V]) singleKey(userKey string) string {
	return util.StorageKey("single", c.ns, userKey)
}

func checkKey(key string) error {
	if err := util.ValidateKey(key); err != nil {
		return &InvalidKeyError{Key: key, Err: err}
	}
	return nil
}
