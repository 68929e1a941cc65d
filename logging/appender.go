package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the time format of every log line.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. A zapcore.Core is an Appender.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender writes tab separated log lines to an io.Writer.
type ConsoleAppender struct {
	io.Writer
}

// NewWriterAppender creates a new appender that writes to the given writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// Write outputs the entry as `<time>\t<level>\t<logger>\t<file:line>\t<message>\t<json fields>`.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	if _, writeErr := fmt.Fprintln(appender.Writer, line); writeErr != nil {
		return writeErr
	}
	return err
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// formatEntry renders an entry the same way for every text appender. Fields are encoded in order with
// zap's json encoder. On an encoding error the line is still returned without its fields.
func formatEntry(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	const maxLength = 6
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))
	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	toPrint = append(toPrint, entry.LoggerName)
	if entry.Caller.Defined {
		toPrint = append(toPrint, callerToString(&entry.Caller))
	}
	toPrint = append(toPrint, entry.Message)
	if len(fields) == 0 {
		return strings.Join(toPrint, "\t"), nil
	}

	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(toPrint, "\t"), err
	}
	toPrint = append(toPrint, buf.String())
	buf.Free()
	return strings.Join(toPrint, "\t"), nil
}

// callerToString returns "<directory>/<file>:<line>", e.g. "rig/rig.go:84".
func callerToString(caller *zapcore.EntryCaller) string {
	return caller.TrimmedPath()
}
