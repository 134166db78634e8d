// Package fs is the application-facing asynchronous filesystem client.
//
// Every operation is issued through a caller-owned CmdBlock and comes in two
// forms: XAsync, which returns as soon as the request is handed to the
// service and reports its final status through a Completion, and X, which
// blocks the calling goroutine until that status is known. Both forms run
// the same pipeline:
//
//  1. claim the command block (at most one operation in flight per block)
//  2. validate the caller's arguments
//  3. marshal the request through a Shim
//  4. submit it to the Service with a finish routine that decodes the
//     response, classifies failures against the caller's ErrorFlag mask,
//     and delivers the final Status
//
// Failures outside the mask are treated as unrecoverable: the client latches
// into a fatal state and rejects further operations with StatusFatalError.
package fs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/fsa"
)

const (
	// MaxPathLength is the shortest working-directory buffer GetCwd accepts.
	MaxPathLength = fsa.MaxPathLength

	// MaxBytesPerRequest is the default ceiling on bytes moved by one
	// read or write round trip.
	MaxBytesPerRequest = 0x100000

	// DefaultFilePermission is sent for MakeDir and OpenFile.
	DefaultFilePermission = 0x660
)

// ErrClientClosed is returned by Close on an already closed client.
var ErrClientClosed = errors.New("fs client closed")

// Shim marshals requests into ShimBuffers. fsa.Shim implements it.
type Shim interface {
	PrepareChangeDir(buf *fsa.ShimBuffer, client fsa.ClientHandle, path string) fsa.Status
	PrepareGetCwd(buf *fsa.ShimBuffer, client fsa.ClientHandle) fsa.Status
	PrepareMakeDir(buf *fsa.ShimBuffer, client fsa.ClientHandle, path string, permission uint32) fsa.Status
	PrepareRemove(buf *fsa.ShimBuffer, client fsa.ClientHandle, path string) fsa.Status
	PrepareRename(buf *fsa.ShimBuffer, client fsa.ClientHandle, oldPath, newPath string) fsa.Status
	PrepareOpenDir(buf *fsa.ShimBuffer, client fsa.ClientHandle, path string) fsa.Status
	PrepareReadDir(buf *fsa.ShimBuffer, client fsa.ClientHandle, handle fsa.DirHandle) fsa.Status
	PrepareCloseDir(buf *fsa.ShimBuffer, client fsa.ClientHandle, handle fsa.DirHandle) fsa.Status
	PrepareOpenFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, path, mode string, unk1, unk2, unk3 uint32) fsa.Status
	PrepareCloseFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, handle fsa.FileHandle) fsa.Status
	PrepareGetPosFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, handle fsa.FileHandle) fsa.Status
	PrepareSetPosFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, handle fsa.FileHandle, pos uint32) fsa.Status
	PrepareStatFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, handle fsa.FileHandle) fsa.Status
	PrepareReadFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, data []byte, size, count, pos uint32, handle fsa.FileHandle, flags fsa.ReadFlag) fsa.Status
	PrepareWriteFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, data []byte, size, count, pos uint32, handle fsa.FileHandle, flags fsa.WriteFlag) fsa.Status
	PrepareGetInfoByQuery(buf *fsa.ShimBuffer, client fsa.ClientHandle, path string, query fsa.QueryType) fsa.Status
}

// Submitter executes marshalled requests. Submit never fails synchronously;
// done is called exactly once with the service-level result, possibly before
// Submit returns.
type Submitter interface {
	Submit(buf *fsa.ShimBuffer, done func(fsa.Status))
}

// Service is the FSA endpoint a Client registers with. device.Device
// implements it.
type Service interface {
	Submitter
	OpenClient() (fsa.ClientHandle, error)
	CloseClient(fsa.ClientHandle) error
}

// Metrics receives per-command observations. A nil Metrics disables
// collection.
type Metrics interface {
	ObserveCommand(cmd fsa.Command, status Status, duration time.Duration)
	ObserveTransfer(cmd fsa.Command, bytes uint32, roundTrips int)
	RecordFatal(reason fsa.Status)
}

// Option configures a Client.
type Option func(*Client)

// WithShim replaces the request marshaller.
func WithShim(s Shim) Option {
	return func(c *Client) {
		c.shim = s
	}
}

// WithMaxBytesPerRequest lowers or raises the per-round-trip transfer
// ceiling. Zero keeps the default.
func WithMaxBytesPerRequest(n uint32) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is one registration with the filesystem service.
//
// A Client may be shared by any number of command blocks. Its service
// handle is immutable after NewClient; the fatal latch is the only mutable
// shared state.
type Client struct {
	id       string
	handle   fsa.ClientHandle
	service  Service
	shim     Shim
	maxBytes uint32
	metrics  Metrics

	mu        sync.Mutex
	fatal     bool
	lastError fsa.Status
	closed    bool
}

// NewClient registers a client with service.
func NewClient(service Service, opts ...Option) (*Client, error) {
	h, err := service.OpenClient()
	if err != nil {
		return nil, fmt.Errorf("failed to register fs client: %w", err)
	}

	c := &Client{
		id:       uuid.NewString(),
		handle:   h,
		service:  service,
		shim:     fsa.Shim{},
		maxBytes: MaxBytesPerRequest,
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Debug("FS client registered",
		logger.ClientID(c.id),
		logger.KeyClientHandle, uint32(h),
		"max_bytes_per_request", c.maxBytes)
	return c, nil
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Handle returns the service handle.
func (c *Client) Handle() fsa.ClientHandle { return c.handle }

// MaxBytesPerRequest returns the per-round-trip transfer ceiling.
func (c *Client) MaxBytesPerRequest() uint32 { return c.maxBytes }

// IsFatal reports whether the client has latched a fatal error.
func (c *Client) IsFatal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fatal
}

// LastError returns the service-level reason recorded when the client
// latched. It is StatusOK while the client is healthy.
func (c *Client) LastError() fsa.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// ClearFatalError resets the fatal latch so the client accepts commands
// again.
func (c *Client) ClearFatalError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fatal {
		logger.Info("FS client fatal state cleared", logger.ClientID(c.id),
			logger.KeyReason, c.lastError.String())
	}
	c.fatal = false
	c.lastError = fsa.StatusOK
}

// Close unregisters the client. Commands already submitted still complete;
// new commands are rejected with StatusFatalError.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.service.CloseClient(c.handle); err != nil {
		return fmt.Errorf("failed to unregister fs client: %w", err)
	}
	logger.Debug("FS client closed", logger.ClientID(c.id))
	return nil
}

// Name identifies the client in health reports.
func (c *Client) Name() string { return "fs-client" }

// Healthcheck fails while the client is closed or latched.
func (c *Client) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return ErrClientClosed
	case c.fatal:
		return fmt.Errorf("fs client latched fatal error: %s", c.lastError)
	}
	return nil
}

// usable reports whether the client may start a new command.
func (c *Client) usable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.fatal && !c.closed
}

// handleFatalError latches the client. Only the first fault is recorded.
func (c *Client) handleFatalError(reason fsa.Status) {
	c.mu.Lock()
	first := !c.fatal
	if first {
		c.fatal = true
		c.lastError = reason
	}
	c.mu.Unlock()

	if !first {
		return
	}
	logger.Error("FS client entered fatal state",
		logger.ClientID(c.id),
		logger.KeyReason, reason.String())
	if c.metrics != nil {
		c.metrics.RecordFatal(reason)
	}
}
