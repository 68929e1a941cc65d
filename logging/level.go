package logging

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/atomic"
	"go.uber.org/zap/zapcore"
)

// Level is an enum of the log levels. Its value can be `DEBUG`, `INFO`, `WARN` or `ERROR`.
type Level int

const (
	// DEBUG log level.
	DEBUG Level = iota - 1
	// INFO log level.
	INFO
	// WARN log level.
	WARN
	// ERROR log level.
	ERROR
)

// String returns the upper case name of the level.
func (level Level) String() string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(level))
}

// AsZap converts the Level to a `zapcore.Level`.
func (level Level) AsZap() zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// LevelFromString parses an input string to a log level. The string must be one of `debug`, `info`,
// `warn` or `error`, case does not matter.
func LevelFromString(inp string) (Level, error) {
	switch strings.ToLower(inp) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return DEBUG, fmt.Errorf("unknown log level: %q", inp)
}

// MarshalJSON writes the level as a lower case string.
func (level Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToLower(level.String()))
}

// UnmarshalJSON parses a level written by MarshalJSON.
func (level *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := LevelFromString(s)
	if err != nil {
		return err
	}
	*level = parsed
	return nil
}

// AtomicLevel is a level that can be read and changed concurrently. Subloggers share the AtomicLevel of
// their parent.
type AtomicLevel struct {
	val *atomic.Int32
}

// NewAtomicLevelAt creates an AtomicLevel set to the given level.
func NewAtomicLevelAt(initLevel Level) AtomicLevel {
	return AtomicLevel{val: atomic.NewInt32(int32(initLevel))}
}

// Set changes the level.
func (level AtomicLevel) Set(newLevel Level) {
	level.val.Store(int32(newLevel))
}

// Get returns the level.
func (level AtomicLevel) Get() Level {
	return Level(level.val.Load())
}

// Enabled implements zapcore.LevelEnabler.
func (level AtomicLevel) Enabled(zl zapcore.Level) bool {
	return zl >= level.Get().AsZap()
}
