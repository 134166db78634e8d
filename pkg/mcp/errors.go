package mcp

import "fmt"

// Error is the result code of an MCP call.
type Error int32

const (
	ErrorOK            Error = 0
	ErrorInvalidHandle Error = -0x40001
	ErrorInvalidParam  Error = -0x40004
	ErrorStorage       Error = -0x40005
)

func (e Error) String() string {
	switch e {
	case ErrorOK:
		return "OK"
	case ErrorInvalidHandle:
		return "InvalidHandle"
	case ErrorInvalidParam:
		return "InvalidParam"
	case ErrorStorage:
		return "StorageError"
	}
	return fmt.Sprintf("MCPError(%#x)", int32(e))
}

// Err returns e as a Go error, or nil for ErrorOK.
func (e Error) Err() error {
	if e == ErrorOK {
		return nil
	}
	return &CallError{Code: e}
}

// CallError wraps a non-OK Error for host-side plumbing.
type CallError struct {
	Code Error
}

func (e *CallError) Error() string {
	return "mcp: " + e.Code.String()
}

// Is matches any CallError carrying the same code.
func (e *CallError) Is(target error) bool {
	t, ok := target.(*CallError)
	return ok && t.Code == e.Code
}
