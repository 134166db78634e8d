package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys. Use these consistently so records can be queried
// across the client layer, the FSA device, and the settings service.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Client and command
	KeyClientID     = "client_id"     // Client registration UUID
	KeyClientHandle = "client_handle" // FSA client handle
	KeyCommand      = "command"       // FSA command name
	KeyStatus       = "status"        // Application-facing status
	KeyFSAStatus    = "fsa_status"    // Service-level status
	KeyReason       = "reason"        // Cause recorded by the fatal latch
	KeyErrorMask    = "error_mask"    // Caller-declared recoverable set

	// Paths and handles
	KeyPath    = "path"
	KeyNewPath = "new_path"
	KeyMode    = "mode"
	KeyHandle  = "handle"

	// Transfers
	KeyPos          = "pos"
	KeySize         = "size"
	KeyCount        = "count"
	KeyBytes        = "bytes"
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"
	KeyRoundTrips   = "round_trips"

	// Settings service
	KeyRegion = "region"
	KeyStore  = "store"

	// Metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyWorkers    = "workers"
	KeyAddress    = "address"
	KeyPort       = "port"
)

// ClientID returns an attr for a client registration.
func ClientID(id string) slog.Attr {
	return slog.String(KeyClientID, id)
}

// Command returns an attr for a command name.
func Command(name fmt.Stringer) slog.Attr {
	return slog.String(KeyCommand, name.String())
}

// Status returns an attr for an application-facing status.
func Status(s fmt.Stringer) slog.Attr {
	return slog.String(KeyStatus, s.String())
}

// FSAStatus returns an attr for a service-level status.
func FSAStatus(s fmt.Stringer) slog.Attr {
	return slog.String(KeyFSAStatus, s.String())
}

// Path returns an attr for a path argument.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Handle returns an attr for a file or directory handle.
func Handle(h uint32) slog.Attr {
	return slog.String(KeyHandle, fmt.Sprintf("0x%x", h))
}

// Mask returns an attr for an error-acceptance mask.
func Mask(m uint32) slog.Attr {
	return slog.String(KeyErrorMask, fmt.Sprintf("0x%08x", m))
}

// Bytes returns an attr for a byte count.
func Bytes(n uint64) slog.Attr {
	return slog.Uint64(KeyBytes, n)
}

// DurationMs returns an attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns an attr for err. A nil error yields an empty attr that
// handlers skip.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
