package xgb

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// PrintLog controls whether XGB emits log messages. By default, it is
// enabled.
var PrintLog = true

// Logger is the default logger for connections created without WithLogger.
// It writes warnings and errors to stderr.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	return &logrus.Logger{
		Out:       os.Stderr,
		Formatter: &logrus.TextFormatter{DisableTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.WarnLevel,
		ExitFunc:  os.Exit,
	}
}

var discard = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// xgblog gates a connection's logger on PrintLog.
type xgblog struct {
	l logrus.FieldLogger
}

func (lg xgblog) get() logrus.FieldLogger {
	if PrintLog {
		return lg.l
	}
	return discard
}

func (lg xgblog) WithField(key string, value interface{}) *logrus.Entry {
	return lg.get().WithField(key, value)
}

func (lg xgblog) WithFields(fields logrus.Fields) *logrus.Entry {
	return lg.get().WithFields(fields)
}

func (lg xgblog) WithError(err error) *logrus.Entry {
	return lg.get().WithError(err)
}

func (lg xgblog) Debugf(format string, args ...interface{}) { lg.get().Debugf(format, args...) }
func (lg xgblog) Infof(format string, args ...interface{})  { lg.get().Infof(format, args...) }
func (lg xgblog) Warnf(format string, args ...interface{})  { lg.get().Warnf(format, args...) }
func (lg xgblog) Errorf(format string, args ...interface{}) { lg.get().Errorf(format, args...) }
