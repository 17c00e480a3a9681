// Package zaplog adapts a *zap.Logger to cachefront.Logger.
package zaplog

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachefront"
)

type Logger struct{ L *zap.Logger }

var _ cachefront.Logger = Logger{}

// New names the logger "cachefront" so cache records are easy to filter.
func New(l *zap.Logger) Logger { return Logger{L: l.Named("cachefront")} }

func (z Logger) Debug(msg string, f cachefront.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cachefront.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cachefront.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cachefront.Fields) { z.L.Error(msg, fields(f)...) }

// fields sorts by key so output is stable across runs.
func fields(f cachefront.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
