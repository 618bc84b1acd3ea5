// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/ringdb/ringdb/pkg/util/syncutil"
	"github.com/rs/zerolog"
)

// Severity identifies the sort of log: info, warning etc.
type Severity int

const (
	// Severity_INFO is used for informational messages.
	Severity_INFO Severity = iota
	// Severity_WARNING is used for situations that may require attention.
	Severity_WARNING
	// Severity_ERROR is used for errors that do not stop the process.
	Severity_ERROR
	// Severity_FATAL is used for errors after which the process exits.
	Severity_FATAL
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case Severity_INFO:
		return "INFO"
	case Severity_WARNING:
		return "WARNING"
	case Severity_ERROR:
		return "ERROR"
	case Severity_FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) zerologLevel() zerolog.Level {
	switch s {
	case Severity_WARNING:
		return zerolog.WarnLevel
	case Severity_ERROR:
		return zerolog.ErrorLevel
	case Severity_FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// loggerT holds the process-wide sink. Entries are rendered with their context
// tags and handed to a zerolog logger.
type loggerT struct {
	mu struct {
		syncutil.Mutex
		sink         zerolog.Logger
		exitOverride func(int)
	}
}

var logging = func() *loggerT {
	l := &loggerT{}
	l.mu.sink = newSink(os.Stderr, false /* pretty */)
	return l
}()

func newSink(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "060102 15:04:05.000000"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetOutput redirects all log entries to w. When pretty is set, entries are
// rendered for humans instead of as JSON lines.
func SetOutput(w io.Writer, pretty bool) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.sink = newSink(w, pretty)
}

// FormatWithContextTags formats the string and prepends the context
// tags.
//
// Redaction markers are *not* inserted. The resulting
// string is generally unsafe for reporting.
func FormatWithContextTags(ctx context.Context, format string, args ...interface{}) string {
	var buf strings.Builder
	formatTags(ctx, &buf)
	buf.WriteString(redact.Sprintf(format, args...).StripMarkers())
	return buf.String()
}

// formatTags writes the context tags as a bracketed prefix, e.g.
// "[n1,query=abc] ". Nothing is written when the context carries no tags.
func formatTags(ctx context.Context, buf *strings.Builder) {
	if ctx == nil {
		return
	}
	tags := logtags.FromContext(ctx)
	if tags == nil || len(tags.Get()) == 0 {
		return
	}
	buf.WriteByte('[')
	tags.FormatToString(buf)
	buf.WriteString("] ")
}

// addStructured creates a structured log entry and writes it to the sink.
func addStructured(ctx context.Context, sev Severity, format string, args []interface{}) {
	msg := FormatWithContextTags(ctx, format, args...)
	logging.mu.Lock()
	sink := logging.mu.sink
	exit := logging.mu.exitOverride
	logging.mu.Unlock()

	sink.WithLevel(sev.zerologLevel()).Msg(msg)
	if sev == Severity_FATAL {
		if exit != nil {
			exit(2)
			return
		}
		os.Exit(2)
	}
}

// Infof logs to the INFO log.
// It extracts log tags from the context and logs them along with the given
// message. Arguments are handled in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_INFO, format, args)
}

// Warningf logs to the WARNING and INFO logs.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_WARNING, format, args)
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_ERROR, format, args)
}

// Fatalf logs to the FATAL log and then exits the process, unless an exit
// override is installed.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, Severity_FATAL, format, args)
}

// SetExitFunc allows setting a function that will be called instead of
// os.Exit after a fatal log entry. Used in tests.
func SetExitFunc(f func(int)) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.exitOverride = f
}

// ResetExitFunc undoes any prior call to SetExitFunc.
func ResetExitFunc() {
	SetExitFunc(nil)
}
