package logger

import (
	"context"
	"time"
)

type contextKey struct{}

// LogContext carries the per-command fields that every record of a command
// should repeat.
type LogContext struct {
	TraceID   string
	SpanID    string
	ClientID  string    // Client registration (UUID)
	Command   string    // FSA command (READ_FILE, OPEN_DIR, ...)
	Path      string    // Primary path argument, if any
	StartTime time.Time // Submission time
}

// NewLogContext creates a LogContext for a command issued by clientID.
func NewLogContext(clientID, command string) *LogContext {
	return &LogContext{
		ClientID:  clientID,
		Command:   command,
		StartTime: time.Now(),
	}
}

// WithContext stores lc in ctx.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(contextKey{}).(*LogContext)
	return lc
}

// WithPath returns a copy with the path set.
func (lc *LogContext) WithPath(path string) *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	clone.Path = path
	return &clone
}

// WithTrace returns a copy with trace identifiers set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	clone.TraceID = traceID
	clone.SpanID = spanID
	return &clone
}

// DurationMs returns the milliseconds elapsed since StartTime.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}

func withContext(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	out := make([]any, 0, 10+len(args))
	if lc.TraceID != "" {
		out = append(out, KeyTraceID, lc.TraceID)
	}
	if lc.SpanID != "" {
		out = append(out, KeySpanID, lc.SpanID)
	}
	if lc.ClientID != "" {
		out = append(out, KeyClientID, lc.ClientID)
	}
	if lc.Command != "" {
		out = append(out, KeyCommand, lc.Command)
	}
	if lc.Path != "" {
		out = append(out, KeyPath, lc.Path)
	}
	return append(out, args...)
}
