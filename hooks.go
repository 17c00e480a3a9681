package cachefront

// Hooks are lightweight callbacks for cache events.
// Implementations MUST be cheap and non-blocking; the cache calls them on
// hot paths. Wrap slow sinks with hooks/async.
type Hooks interface {
	Hit(storageKey string)
	Miss(storageKey string)

	// The caller received the result of a load started by another caller.
	LoadShared(storageKey string)
	LoadError(storageKey string, err error)

	// A loaded value was not stored because Put or Evict ran meanwhile.
	PopulateSkipped(storageKey string)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "expired", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Store returned ok=false on Set (backpressure/admission).
	StoreSetRejected(storageKey string)

	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Evict (likely backend outage).
	EvictOutage(storageKey string, bumpErr, delErr error)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) Hit(string)                       {}
func (NopHooks) Miss(string)                      {}
func (NopHooks) LoadShared(string)                {}
func (NopHooks) LoadError(string, error)          {}
func (NopHooks) PopulateSkipped(string)           {}
func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) StoreSetRejected(string)          {}
func (NopHooks) GenBumpError(string, error)       {}
func (NopHooks) EvictOutage(string, error, error) {}

// ChainHooks fans every event out to each of hs in order. Nil entries are skipped.
func ChainHooks(hs ...Hooks) Hooks {
	out := make(chain, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

type chain []Hooks

func (c chain) Hit(k string) {
	for _, h := range c {
		h.Hit(k)
	}
}

func (c chain) Miss(k string) {
	for _, h := range c {
		h.Miss(k)
	}
}

func (c chain) LoadShared(k string) {
	for _, h := range c {
		h.LoadShared(k)
	}
}

func (c chain) LoadError(k string, err error) {
	for _, h := range c {
		h.LoadError(k, err)
	}
}

func (c chain) PopulateSkipped(k string) {
	for _, h := range c {
		h.PopulateSkipped(k)
	}
}

func (c chain) SelfHeal(k, reason string) {
	for _, h := range c {
		h.SelfHeal(k, reason)
	}
}

func (c chain) StoreSetRejected(k string) {
	for _, h := range c {
		h.StoreSetRejected(k)
	}
}

func (c chain) GenBumpError(k string, err error) {
	for _, h := range c {
		h.GenBumpError(k, err)
	}
}

func (c chain) EvictOutage(k string, bumpErr, delErr error) {
	for _, h := range c {
		h.EvictOutage(k, bumpErr, delErr)
	}
}
