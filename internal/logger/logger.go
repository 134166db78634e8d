// Package logger provides the process-wide structured logger.
//
// Records are emitted through log/slog using either the colored TextHandler
// or the standard JSON handler. Level and format can be changed at runtime;
// the level check happens before any argument is formatted.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is a log severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel parses a level name. Unknown names report false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return LevelInfo, false
}

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	level    atomic.Int32
	levelVar = new(slog.LevelVar)

	mu      sync.RWMutex
	format            = "text"
	output  io.Writer = os.Stderr
	color   bool
	current *slog.Logger
)

func init() {
	level.Store(int32(LevelInfo))
	color = isTerminal(os.Stderr.Fd())
	rebuild()
}

// rebuild installs a new handler for the current output and format.
// Callers must not hold mu.
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: levelVar})
	} else {
		h = NewTextHandler(output, levelVar, color)
	}
	current = slog.New(h)
}

// Init configures the logger. Output can be "stdout", "stderr", or a file
// path opened for appending.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, isTTY, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		mu.Lock()
		output = w
		color = isTTY
		mu.Unlock()
	}

	if cfg.Format != "" {
		f := strings.ToLower(cfg.Format)
		if f != "text" && f != "json" {
			return fmt.Errorf("unknown log format %q", cfg.Format)
		}
		mu.Lock()
		format = f
		mu.Unlock()
	}

	if cfg.Level != "" {
		l, ok := ParseLevel(cfg.Level)
		if !ok {
			return fmt.Errorf("unknown log level %q", cfg.Level)
		}
		setLevel(l)
	}

	rebuild()
	return nil
}

func openOutput(name string) (io.Writer, bool, error) {
	switch strings.ToLower(name) {
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr.Fd()), nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file %q: %w", name, err)
	}
	return f, false, nil
}

// InitWithWriter redirects output to w. Used by tests.
func InitWithWriter(w io.Writer, lvl, fmtName string) {
	mu.Lock()
	output = w
	color = false
	if fmtName == "json" || fmtName == "text" {
		format = fmtName
	}
	mu.Unlock()

	if l, ok := ParseLevel(lvl); ok {
		setLevel(l)
	}
	rebuild()
}

// SetLevel changes the minimum level. Invalid names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		setLevel(l)
	}
}

func setLevel(l Level) {
	level.Store(int32(l))
	levelVar.Set(l.slog())
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	return Level(level.Load())
}

func enabled(l Level) bool {
	return l >= Level(level.Load())
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debug logs at debug level. Usage: Debug("msg", "key", value, ...)
func Debug(msg string, args ...any) {
	if enabled(LevelDebug) {
		get().Debug(msg, args...)
	}
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if enabled(LevelInfo) {
		get().Info(msg, args...)
	}
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if enabled(LevelWarn) {
		get().Warn(msg, args...)
	}
}

// Error logs at error level.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// DebugCtx logs at debug level, prefixed with the LogContext fields of ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	if enabled(LevelDebug) {
		get().Debug(msg, withContext(ctx, args)...)
	}
}

// InfoCtx logs at info level with context fields.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	if enabled(LevelInfo) {
		get().Info(msg, withContext(ctx, args)...)
	}
}

// WarnCtx logs at warn level with context fields.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	if enabled(LevelWarn) {
		get().Warn(msg, withContext(ctx, args)...)
	}
}

// ErrorCtx logs at error level with context fields.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	get().Error(msg, withContext(ctx, args)...)
}

// With returns a logger with pre-bound attributes.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
