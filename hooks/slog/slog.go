// Package sloghook logs cache events through log/slog, with sampling for
// noisy events and redacted keys.
package sloghook

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cachefront"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery  uint64
	LoadErrorEvery uint64
	// Log hits and misses at debug level. Off by default.
	Traffic bool
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr  atomic.Uint64
	loadErrorCtr atomic.Uint64
}

var _ cachefront.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Hit(storageKey string) {
	if h.l == nil || !h.opts.Traffic {
		return
	}
	h.l.Debug("cachefront.hit", "key", h.redact(storageKey))
}

func (h *Hooks) Miss(storageKey string) {
	if h.l == nil || !h.opts.Traffic {
		return
	}
	h.l.Debug("cachefront.miss", "key", h.redact(storageKey))
}

func (h *Hooks) LoadShared(string) {}

func (h *Hooks) LoadError(storageKey string, err error) {
	if h.l == nil || !sample(h.opts.LoadErrorEvery, &h.loadErrorCtr) {
		return
	}
	h.l.Warn("cachefront.load_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) PopulateSkipped(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Debug("cachefront.populate_skipped", "key", h.redact(storageKey))
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("cachefront.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) StoreSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachefront.store_set_rejected", "key", h.redact(storageKey))
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachefront.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) EvictOutage(storageKey string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachefront.evict_outage",
		"key", h.redact(storageKey),
		"bump_err", bumpErr,
		"del_err", delErr)
}
