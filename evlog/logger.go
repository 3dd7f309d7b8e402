// Package evlog is the pluggable logging facade for the reactor. The
// default logger discards everything; callers opt in with SetLogger.
package evlog

import "github.com/sirupsen/logrus"

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var logger Logger = nopLogger{}

// SetLogger replaces the package logger. Not safe to call concurrently with
// reactor activity; install the logger before driving a Notifier.
func SetLogger(l Logger) {
	logger = l
}

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }

// NewLogger returns a logrus-backed logger at the default level.
func NewLogger() Logger {
	return logrus.New()
}

// NewDebugLogger returns a logrus-backed logger with debug output enabled.
func NewDebugLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	return l
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...interface{}) {}
func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Warnf(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}
