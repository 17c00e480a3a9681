// Package logruslog adapts a *logrus.Entry to cachefront.Logger.
package logruslog

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cachefront"
)

type Logger struct{ E *logrus.Entry }

var _ cachefront.Logger = Logger{}

// New tags every record with component=cachefront.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "cachefront")}
}

func (l Logger) Debug(msg string, f cachefront.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f cachefront.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f cachefront.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f cachefront.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f cachefront.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	e := l.E
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		e = e.WithField(k, v)
	}
	return e
}
