package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/bucketcache/logging"
)

var _ logging.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every record with component ("bucketcache" if empty).
// A nil l uses logrus.StandardLogger().
func New(l *logrus.Logger, component string) LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	if component == "" {
		component = "bucketcache"
	}
	return LogrusLogger{E: l.WithField("component", component)}
}

func (l LogrusLogger) Debug(msg string, f logging.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f logging.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f logging.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f logging.Fields) { l.with(f).Error(msg) }

// with moves an "err" error field to logrus' ErrorKey.
func (l LogrusLogger) with(f logging.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	data := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			data[logrus.ErrorKey] = err
			continue
		}
		data[k] = v
	}
	return l.E.WithFields(data)
}
