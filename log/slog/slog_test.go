package sloglog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/cachefront"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	l := New(base)

	l.Debug("dropped", nil)
	l.Info("populated", cachefront.Fields{"key": "P001", "gen": 2})

	got := strings.TrimSpace(buf.String())
	want := `level=INFO msg=populated component=cachefront gen=2 key=P001`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}
