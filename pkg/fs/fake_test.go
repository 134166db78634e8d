package fs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cafefs/pkg/fsa"
)

// fakeService records every submitted request and answers it with respond.
// Completions run inline unless hold is set, in which case they wait until
// hold is closed.
type fakeService struct {
	mu       sync.Mutex
	commands []fsa.Command
	xfers    []fsa.TransferArgs
	opens    []fsa.OpenArgs
	closed   []fsa.ClientHandle
	respond  func(buf *fsa.ShimBuffer) fsa.Status
	hold     chan struct{}
}

func (s *fakeService) OpenClient() (fsa.ClientHandle, error) {
	return 7, nil
}

func (s *fakeService) CloseClient(h fsa.ClientHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, h)
	return nil
}

func (s *fakeService) Submit(buf *fsa.ShimBuffer, done func(fsa.Status)) {
	s.mu.Lock()
	s.commands = append(s.commands, buf.Command)
	switch buf.Command {
	case fsa.CommandReadFile, fsa.CommandWriteFile:
		s.xfers = append(s.xfers, buf.Transfer())
	case fsa.CommandOpenFile:
		s.opens = append(s.opens, buf.OpenFileArgs())
	}
	respond := s.respond
	hold := s.hold
	s.mu.Unlock()

	run := func() {
		if hold != nil {
			<-hold
		}
		st := fsa.StatusOK
		if respond != nil {
			st = respond(buf)
		}
		done(st)
	}
	if hold != nil {
		go run()
		return
	}
	run()
}

func (s *fakeService) setRespond(f func(buf *fsa.ShimBuffer) fsa.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond = f
}

func (s *fakeService) submitted() []fsa.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fsa.Command(nil), s.commands...)
}

func (s *fakeService) transfers() []fsa.TransferArgs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fsa.TransferArgs(nil), s.xfers...)
}

// respondWith answers every request with st.
func respondWith(st fsa.Status) func(*fsa.ShimBuffer) fsa.Status {
	return func(*fsa.ShimBuffer) fsa.Status { return st }
}

// fullTransfer answers transfers with the number of bytes requested.
func fullTransfer(buf *fsa.ShimBuffer) fsa.Status {
	return fsa.Status(buf.Transfer().Bytes())
}

// spyShim counts marshalling calls.
type spyShim struct {
	fsa.Shim

	mu    sync.Mutex
	calls map[fsa.Command]int
}

func newSpyShim() *spyShim {
	return &spyShim{calls: make(map[fsa.Command]int)}
}

func (s *spyShim) count(cmd fsa.Command) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[cmd]
}

func (s *spyShim) record(cmd fsa.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[cmd]++
}

func (s *spyShim) PrepareGetCwd(buf *fsa.ShimBuffer, client fsa.ClientHandle) fsa.Status {
	s.record(fsa.CommandGetCwd)
	return s.Shim.PrepareGetCwd(buf, client)
}

func (s *spyShim) PrepareReadFile(buf *fsa.ShimBuffer, client fsa.ClientHandle, data []byte, size, count, pos uint32, handle fsa.FileHandle, flags fsa.ReadFlag) fsa.Status {
	s.record(fsa.CommandReadFile)
	return s.Shim.PrepareReadFile(buf, client, data, size, count, pos, handle, flags)
}

func newTestClient(t *testing.T, svc *fakeService, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(svc, opts...)
	require.NoError(t, err)
	return c
}

// recorder collects callback deliveries.
type recorder struct {
	mu      sync.Mutex
	results []*AsyncResult
	done    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) callback() Callback {
	return Callback{Func: func(client *Client, block *CmdBlock, status Status, context any) {
		r.mu.Lock()
		r.results = append(r.results, &AsyncResult{Client: client, Block: block, Status: status, Context: context})
		r.mu.Unlock()
		r.done <- struct{}{}
	}}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("completion was not delivered")
	}
}

func (r *recorder) all() []*AsyncResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*AsyncResult(nil), r.results...)
}
