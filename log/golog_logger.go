package log

import (
	"github.com/kataras/golog"
)

var gologLevels = map[LogLevel]string{
	LogLevelDebug: "debug",
	LogLevelInfo:  "info",
	LogLevelWarn:  "warn",
	LogLevelError: "error",
	LogLevelNone:  "disable",
}

// GologLogger implements Logger on top of a kataras/golog logger. The
// stepgraph level is mirrored onto golog, which does the filtering.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

// NewGologLogger creates a golog logger with the stepgraph prefix.
func NewGologLogger(level LogLevel) *GologLogger {
	glogger := golog.New()
	glogger.SetPrefix(Prefix)
	return WrapGolog(glogger, level)
}

// WrapGolog adapts an existing golog logger and sets its level.
func WrapGolog(logger *golog.Logger, level LogLevel) *GologLogger {
	l := &GologLogger{logger: logger}
	l.SetLevel(level)
	return l
}

// Golog returns the underlying logger, e.g. to redirect its output.
func (l *GologLogger) Golog() *golog.Logger {
	return l.logger
}

func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }
func (l *GologLogger) Info(format string, v ...any)  { l.logger.Infof(format, v...) }
func (l *GologLogger) Warn(format string, v ...any)  { l.logger.Warnf(format, v...) }
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }

// SetLevel changes the level of both the adapter and golog.
func (l *GologLogger) SetLevel(level LogLevel) {
	name, ok := gologLevels[level]
	if !ok {
		name, level = "info", LogLevelInfo
	}
	l.level = level
	l.logger.SetLevel(name)
}

// Level returns the current level.
func (l *GologLogger) Level() LogLevel {
	return l.level
}
