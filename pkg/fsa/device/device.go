// Package device implements the FSA I/O service on top of a host filesystem.
//
// A Device accepts marshalled ShimBuffers from any number of registered
// clients, executes them against an afero.Fs, writes the response area, and
// reports the service-level status through the submitter's completion
// function. Requests run either inline on the submitting goroutine or on a
// bounded set of worker goroutines.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/internal/telemetry"
	"github.com/marmos91/cafefs/pkg/fsa"
)

const (
	// DefaultMaxClients matches the number of client registrations the
	// console service accepts.
	DefaultMaxClients = 0x40

	// DefaultCapacity is the volume size reported when none is configured.
	DefaultCapacity = 1 << 30
)

// ErrClosed is returned by OpenClient after Close.
var ErrClosed = errors.New("fsa device closed")

// Metrics receives per-request observations. A nil Metrics disables
// collection.
type Metrics interface {
	ObserveRequest(cmd fsa.Command, status fsa.Status, duration time.Duration)
	RecordTransfer(cmd fsa.Command, bytes int)
	SetOpenClients(n int)
	SetOpenHandles(n int)
}

// Option configures a Device.
type Option func(*Device)

// WithWorkers bounds concurrent request execution to n goroutines. n <= 0
// executes every request inline inside Submit.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.sem = semaphore.NewWeighted(int64(n))
			d.workers = n
		}
	}
}

// WithCapacity sets the volume size used for free space queries and
// StorageFull detection.
func WithCapacity(bytes uint64) Option {
	return func(d *Device) {
		if bytes > 0 {
			d.capacity = bytes
		}
	}
}

// WithMaxClients limits concurrent client registrations.
func WithMaxClients(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.maxClients = n
		}
	}
}

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Device) {
		d.metrics = m
	}
}

// Device is an FSA service instance.
type Device struct {
	fs         afero.Fs
	sem        *semaphore.Weighted
	workers    int
	capacity   uint64
	maxClients int
	metrics    Metrics

	mu         sync.Mutex
	clients    map[fsa.ClientHandle]*client
	nextClient uint32
	closed     bool

	nextHandle  atomic.Uint32
	openHandles atomic.Int64

	pending sync.WaitGroup
}

// client is one registration. mu guards every field; handlers hold it for
// the whole request so requests of one client never interleave on a handle
// table.
type client struct {
	mu    sync.Mutex
	cwd   string
	files map[fsa.FileHandle]*openFile
	dirs  map[fsa.DirHandle]*openDir
}

// New creates a Device serving fsys.
func New(fsys afero.Fs, opts ...Option) *Device {
	d := &Device{
		fs:         fsys,
		capacity:   DefaultCapacity,
		maxClients: DefaultMaxClients,
		clients:    make(map[fsa.ClientHandle]*client),
	}
	for _, opt := range opts {
		opt(d)
	}

	logger.Debug("FSA device created",
		logger.KeyWorkers, d.workers,
		"capacity", d.capacity,
		"max_clients", d.maxClients)
	return d
}

// Fs returns the filesystem the device serves.
func (d *Device) Fs() afero.Fs {
	return d.fs
}

// OpenClient registers a new client with its working directory at "/".
func (d *Device) OpenClient() (fsa.ClientHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrClosed
	}
	if len(d.clients) >= d.maxClients {
		return 0, fsa.StatusMaxClients.Err()
	}

	d.nextClient++
	h := fsa.ClientHandle(d.nextClient)
	d.clients[h] = &client{
		cwd:   "/",
		files: make(map[fsa.FileHandle]*openFile),
		dirs:  make(map[fsa.DirHandle]*openDir),
	}
	if d.metrics != nil {
		d.metrics.SetOpenClients(len(d.clients))
	}

	logger.Debug("FSA client registered", logger.KeyClientHandle, uint32(h))
	return h, nil
}

// CloseClient unregisters a client and closes every handle it still owns.
func (d *Device) CloseClient(h fsa.ClientHandle) error {
	d.mu.Lock()
	c, ok := d.clients[h]
	if ok {
		delete(d.clients, h)
	}
	n := len(d.clients)
	d.mu.Unlock()

	if !ok {
		return fsa.StatusInvalidClientHandle.Err()
	}

	d.closeClient(c)
	if d.metrics != nil {
		d.metrics.SetOpenClients(n)
	}

	logger.Debug("FSA client unregistered", logger.KeyClientHandle, uint32(h))
	return nil
}

func (d *Device) closeClient(c *client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for h, f := range c.files {
		if err := f.file.Close(); err != nil {
			logger.Warn("Close on client teardown failed", logger.Handle(uint32(h)), logger.Err(err))
		}
	}
	d.releaseHandles(len(c.files) + len(c.dirs))
	clear(c.files)
	clear(c.dirs)
}

// Submit queues buf for execution and calls done with the result exactly
// once. Submit itself never fails: every error, including an unknown
// client, is reported through done.
//
// buf must not be modified until done has been called.
func (d *Device) Submit(buf *fsa.ShimBuffer, done func(fsa.Status)) {
	d.mu.Lock()
	closed := d.closed
	if !closed {
		d.pending.Add(1)
	}
	d.mu.Unlock()

	if closed {
		done(fsa.StatusMediaNotReady)
		return
	}

	if d.sem == nil {
		d.run(buf, done)
		return
	}

	go func() {
		// Acquire on a background context cannot fail.
		_ = d.sem.Acquire(context.Background(), 1)
		defer d.sem.Release(1)
		d.run(buf, done)
	}()
}

func (d *Device) run(buf *fsa.ShimBuffer, done func(fsa.Status)) {
	defer d.pending.Done()

	start := time.Now()
	cmd := buf.Command
	ctx, span := telemetry.StartCommandSpan(context.Background(), cmd.String(),
		telemetry.Client(uint32(buf.ClientHandle)))

	status := d.execute(ctx, buf)

	telemetry.SetAttributes(ctx, telemetry.Status(status.String()))
	if status.IsError() {
		telemetry.RecordError(ctx, status.Err())
	}
	span.End()

	if d.metrics != nil {
		d.metrics.ObserveRequest(cmd, status, time.Since(start))
	}

	done(status)
}

func (d *Device) execute(ctx context.Context, buf *fsa.ShimBuffer) fsa.Status {
	if st := buf.EmulatedError(); st.IsError() {
		return st
	}

	d.mu.Lock()
	c, ok := d.clients[buf.ClientHandle]
	d.mu.Unlock()
	if !ok {
		return fsa.StatusInvalidClientHandle
	}

	h, ok := handlers[buf.Command]
	if !ok {
		logger.Warn("Unsupported FSA command", logger.Command(buf.Command))
		return fsa.StatusUnsupportedCmd
	}
	return h(ctx, d, c, buf)
}

// Close stops accepting clients, waits for in-flight requests, and closes
// every open handle.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.pending.Wait()

	d.mu.Lock()
	clients := d.clients
	d.clients = make(map[fsa.ClientHandle]*client)
	d.mu.Unlock()

	for _, c := range clients {
		d.closeClient(c)
	}
	if d.metrics != nil {
		d.metrics.SetOpenClients(0)
	}
	return nil
}

// Name identifies the device in health reports.
func (d *Device) Name() string { return "fsa-device" }

// Healthcheck reports whether the device is open and its volume root is
// reachable.
func (d *Device) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if _, err := d.fs.Stat("/"); err != nil {
		return fmt.Errorf("volume root unavailable: %w", err)
	}
	return nil
}

// allocHandle returns a fresh non-zero handle value.
func (d *Device) allocHandle() uint32 {
	for {
		if h := d.nextHandle.Add(1); h != 0 {
			d.openHandles.Add(1)
			d.updateHandleGauge()
			return h
		}
	}
}

func (d *Device) releaseHandles(n int) {
	if n == 0 {
		return
	}
	d.openHandles.Add(-int64(n))
	d.updateHandleGauge()
}

func (d *Device) updateHandleGauge() {
	if d.metrics != nil {
		d.metrics.SetOpenHandles(int(d.openHandles.Load()))
	}
}
