package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/bucketcache/logging"
)

var _ logging.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger after component ("bucketcache" if empty).
// A nil l discards everything.
func New(l *zap.Logger, component string) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	if component == "" {
		component = "bucketcache"
	}
	return ZapLogger{L: l.Named(component)}
}

func (z ZapLogger) Debug(msg string, f logging.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f logging.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f logging.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f logging.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order; error values keep zap's error encoding.
func zf(f logging.Fields) []zap.Field {
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
