// Package sloglog adapts a *slog.Logger to cachefront.Logger.
package sloglog

import (
	"context"
	"log/slog"
	"sort"

	"github.com/unkn0wn-root/cachefront"
)

var _ cachefront.Logger = Logger{}

type Logger struct{ L *slog.Logger }

// New groups cache records under the "cachefront" component attribute.
func New(l *slog.Logger) Logger { return Logger{L: l.With("component", "cachefront")} }

func (s Logger) Debug(msg string, f cachefront.Fields) { s.log(slog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f cachefront.Fields)  { s.log(slog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f cachefront.Fields)  { s.log(slog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f cachefront.Fields) { s.log(slog.LevelError, msg, f) }

func (s Logger) log(level slog.Level, msg string, f cachefront.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

func attrs(f cachefront.Fields) []slog.Attr {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]slog.Attr, 0, len(f))
	for _, k := range keys {
		out = append(out, slog.Any(k, f[k]))
	}
	return out
}
