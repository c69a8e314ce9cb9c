package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel represents logging severity
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelNone disables all logging
	LogLevelNone
)

// Prefix is written in front of every line by the built-in loggers.
const Prefix = "[stepgraph] "

// Logger is the leveled, printf-style logger used by the executor, service and server
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// String returns the upper-case tag of the level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelNone:
		return "NONE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// Allows reports whether a logger set to l emits messages at msg.
func (l LogLevel) Allows(msg LogLevel) bool {
	return l != LogLevelNone && msg >= l
}

// ParseLevel maps a configuration string (debug, info, warn, error, none) to a LogLevel.
// Matching is case-insensitive; "warning" and "disable" are accepted as aliases.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none", "disable", "off":
		return LogLevelNone, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// DefaultLogger writes "[stepgraph] <time> [LEVEL] message" lines through
// the standard log package.
type DefaultLogger struct {
	out   *log.Logger
	level LogLevel
}

var _ Logger = (*DefaultLogger)(nil)

// NewDefaultLogger returns a DefaultLogger writing to out. A nil out means
// standard error.
func NewDefaultLogger(out io.Writer, level LogLevel) *DefaultLogger {
	if out == nil {
		out = os.Stderr
	}
	return &DefaultLogger{
		out:   log.New(out, Prefix, log.LstdFlags),
		level: level,
	}
}

func (l *DefaultLogger) logf(level LogLevel, format string, v []any) {
	if !l.level.Allows(level) {
		return
	}
	l.out.Printf("["+level.String()+"] "+format, v...)
}

func (l *DefaultLogger) Debug(format string, v ...any) { l.logf(LogLevelDebug, format, v) }
func (l *DefaultLogger) Info(format string, v ...any)  { l.logf(LogLevelInfo, format, v) }
func (l *DefaultLogger) Warn(format string, v ...any)  { l.logf(LogLevelWarn, format, v) }
func (l *DefaultLogger) Error(format string, v ...any) { l.logf(LogLevelError, format, v) }

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

type loggerHolder struct{ Logger }

var defaultLogger atomic.Pointer[loggerHolder]

func init() {
	defaultLogger.Store(&loggerHolder{NewDefaultLogger(nil, LogLevelInfo)})
}

// SetDefaultLogger replaces the logger used by components constructed
// without one. A nil logger disables logging.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	defaultLogger.Store(&loggerHolder{logger})
}

// GetDefaultLogger returns the current package-level logger
func GetDefaultLogger() Logger {
	return defaultLogger.Load().Logger
}
