package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrClient  = "fsa.client"
	AttrCommand = "fsa.command"
	AttrPath    = "fsa.path"
	AttrHandle  = "fsa.handle"
	AttrStatus  = "fsa.status"
	AttrBytes   = "fsa.bytes"
	AttrPos     = "fsa.pos"
	AttrRegion  = "mcp.region"
	AttrStore   = "mcp.store"
)

// Span name prefixes.
const (
	SpanFSAPrefix = "fsa."
	SpanMCPPrefix = "mcp."
)

func Client(handle uint32) attribute.KeyValue {
	return attribute.Int64(AttrClient, int64(handle))
}

func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

func Handle(h uint32) attribute.KeyValue {
	return attribute.Int64(AttrHandle, int64(h))
}

func Status(name string) attribute.KeyValue {
	return attribute.String(AttrStatus, name)
}

func Bytes(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrBytes, int64(n))
}

func Pos(p uint32) attribute.KeyValue {
	return attribute.Int64(AttrPos, int64(p))
}

func Region(name string) attribute.KeyValue {
	return attribute.String(AttrRegion, name)
}

func Store(name string) attribute.KeyValue {
	return attribute.String(AttrStore, name)
}

// StartCommandSpan starts the span covering one FSA request, named
// "fsa.<COMMAND>".
func StartCommandSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, Command(command))
	return StartSpan(ctx, SpanFSAPrefix+command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
}

// StartSettingsSpan starts the span covering one settings service call.
func StartSettingsSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanMCPPrefix+operation, trace.WithAttributes(attrs...))
}
