// Package logging wraps logrus with the component-scoped helpers used across
// satsrate. The TUI writes to a rotated file so the terminal stays clean.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias-friendly map for structured fields.
type Fields map[string]any

// Log wraps logrus.Logger.
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry.
type Entry struct {
	*logrus.Entry
}

var defaultLog = New()

// New returns a logger at info level writing JSON to stderr.
func New() *Log {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetReportCaller(true)
	logger.SetFormatter(jsonFormatter())
	return &Log{Logger: logger}
}

// Default returns the process-wide logger.
func Default() *Log {
	return defaultLog
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Log {
	l := New()
	l.SetOutput(io.Discard)
	return l
}

// Options control Configure.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	Output string // stdout, stderr or a file path
	MaxAge int    // days to keep rotated files; zero keeps them all
}

// Configure applies level, format and output. File outputs are rotated with
// lumberjack and their directory is created when missing.
func (l *Log) Configure(opts Options) error {
	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", opts.Level)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		l.SetFormatter(jsonFormatter())
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	default:
		return fmt.Errorf("invalid log format %q", opts.Format)
	}

	switch output := strings.TrimSpace(opts.Output); output {
	case "", "stderr":
		l.SetOutput(os.Stderr)
	case "stdout":
		l.SetOutput(os.Stdout)
	default:
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		l.SetOutput(&lumberjack.Logger{
			Filename:   output,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     opts.MaxAge,
		})
	}
	return nil
}

// WithComponent tags entries with the emitting component.
func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

// WithFields attaches structured fields.
func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

// WithError attaches err under the "error" key.
func (l *Log) WithError(err error) *Entry {
	return &Entry{Entry: l.Logger.WithError(err)}
}

func (e *Entry) WithComponent(component string) *Entry {
	return &Entry{Entry: e.Entry.WithField("component", component)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithField(key string, value any) *Entry {
	return &Entry{Entry: e.Entry.WithField(key, value)}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
		CallerPrettyfier: callerPrettyfier,
	}
}

func callerPrettyfier(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}
