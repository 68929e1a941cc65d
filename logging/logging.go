// Package logging contains the leveled loggers of epivalid. Log entries are zap entries written to a
// list of appenders.
package logging

import (
	"testing"

	"go.uber.org/zap/zaptest/observer"
)

// NewBlankLogger returns a new logger that outputs Debug+ logs in UTC, but without any
// pre-existing appenders/outputs.
func NewBlankLogger(name string) Logger {
	const inUTC = true
	return &impl{name, NewAtomicLevelAt(DEBUG), inUTC, []Appender{}}
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the test's Log method in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	const inUTC = false
	level := NewAtomicLevelAt(DEBUG)
	logger := &impl{"", level, inUTC, []Appender{}}
	logger.AddAppender(NewTestAppender(tb))

	observerCore, observedLogs := observer.New(level)
	logger.AddAppender(observerCore)

	return logger, observedLogs
}
