// Package logger is a thin, structured wrapper around charmbracelet/log,
// used for the optional diagnostic logging a renderer can be configured
// with.
package logger

import (
	"io"
	"os"
	"strings"

	charm "github.com/charmbracelet/log"
)

// LogLevel mirrors the trace/debug/info/warning/error/off ladder used
// throughout the package.
type LogLevel string

const (
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
	LogLevelError   LogLevel = "Error"
	LogLevelOff     LogLevel = "Off"
)

// ParseLogLevel maps a case-insensitive level name to a LogLevel, defaulting
// to LogLevelInfo for an unrecognized value.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "trace":
		return LogLevelTrace
	case "debug":
		return LogLevelDebug
	case "warning", "warn":
		return LogLevelWarning
	case "error":
		return LogLevelError
	case "off", "":
		return LogLevelOff
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) toCharm() charm.Level {
	switch l {
	case LogLevelTrace, LogLevelDebug:
		return charm.DebugLevel
	case LogLevelWarning:
		return charm.WarnLevel
	case LogLevelError:
		return charm.ErrorLevel
	case LogLevelOff:
		return charm.FatalLevel + 1
	default:
		return charm.InfoLevel
	}
}

// Logger wraps a charmbracelet/log.Logger with the Trace/Debug/Info/
// Warning/Error method set used across the codebase.
type Logger struct {
	level LogLevel
	charm *charm.Logger
}

var charmLogger = charm.NewWithOptions(os.Stderr, charm.Options{ReportTimestamp: true})

// GetCharmLogger exposes the package-wide charmbracelet logger for callers
// that want direct access to its fluent configuration methods.
func GetCharmLogger() *charm.Logger { return charmLogger }

// InitializeLogger builds a Logger at the given level, writing to file
// (a path) or to stderr when file is empty.
func InitializeLogger(level LogLevel, file string) (*Logger, error) {
	var w io.Writer = os.Stderr
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}

	l := charm.NewWithOptions(w, charm.Options{ReportTimestamp: true})
	l.SetLevel(level.toCharm())

	return &Logger{level: level, charm: l}, nil
}

func (l *Logger) Trace(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.charm.Debug(msg, kv...)
}

func (l *Logger) Debug(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.charm.Debug(msg, kv...)
}

func (l *Logger) Info(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.charm.Info(msg, kv...)
}

func (l *Logger) Warning(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.charm.Warn(msg, kv...)
}

func (l *Logger) Error(err error, kv ...any) {
	if l == nil || err == nil {
		return
	}
	l.charm.Error(err.Error(), kv...)
}

// Package-level helpers logging through the shared charmLogger, for call
// sites that don't carry a *Logger of their own.
func Info(msg string, kv ...any)  { charmLogger.Info(msg, kv...) }
func Debug(msg string, kv ...any) { charmLogger.Debug(msg, kv...) }
func Warn(msg string, kv ...any)  { charmLogger.Warn(msg, kv...) }
func Error(msg string, kv ...any) { charmLogger.Error(msg, kv...) }
