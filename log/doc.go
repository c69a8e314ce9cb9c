// Package log provides the leveled logging interface used throughout stepgraph.
//
// # Log Levels
//
// The package supports five log levels, in order of increasing severity:
//
//   - LogLevelDebug: per-step executor output
//   - LogLevelInfo: run completion, server lifecycle
//   - LogLevelWarn: recoverable problems
//   - LogLevelError: failed runs and requests
//   - LogLevelNone: disables all logging output
//
// ParseLevel maps the strings found in configuration files onto these levels.
//
// # Implementations
//
// DefaultLogger writes through Go's standard log package with a "[stepgraph] "
// prefix:
//
//	logger := log.NewDefaultLogger(os.Stderr, log.LogLevelInfo)
//	logger.Info("run %s completed in %d steps", runID, len(entries))
//
// GologLogger writes through github.com/kataras/golog and mirrors the level
// onto it:
//
//	logger := log.NewGologLogger(log.LogLevelDebug)
//	logger.Golog().SetOutput(os.Stdout)
//
// WrapGolog adapts a golog logger configured elsewhere.
//
// NoOpLogger discards everything and is handy in tests.
//
// # Package Logger
//
// Components that are not given a Logger fall back to the package-level
// logger, which can be replaced with SetDefaultLogger at any time.
package log
