package fs

import "context"

// Completion selects how an asynchronous command reports its final status.
// The variants are Callback, Queue, and the internal wait used by the
// synchronous entry points.
type Completion interface {
	valid() bool
	deliver(res *AsyncResult)
}

// AsyncResult is the final outcome of one command.
type AsyncResult struct {
	Client  *Client
	Block   *CmdBlock
	Status  Status
	Context any
}

// CallbackFunc receives the final status of a command. It runs on the
// goroutine that completed the last round trip and must not block.
type CallbackFunc func(client *Client, block *CmdBlock, status Status, context any)

// Callback delivers the result by calling Func exactly once.
type Callback struct {
	Func    CallbackFunc
	Context any
}

func (c Callback) valid() bool { return c.Func != nil }

func (c Callback) deliver(res *AsyncResult) {
	c.Func(res.Client, res.Block, res.Status, c.Context)
}

// Queue delivers the result as a message on C. Sends block until the
// receiver is ready, so C should be buffered.
type Queue struct {
	C       chan<- *AsyncResult
	Context any
}

func (q Queue) valid() bool { return q.C != nil }

func (q Queue) deliver(res *AsyncResult) {
	res.Context = q.Context
	q.C <- res
}

// GetAsyncResult waits for the next result posted to a Queue channel.
func GetAsyncResult(ctx context.Context, ch <-chan *AsyncResult) (*AsyncResult, error) {
	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// syncWait parks a synchronous caller until its command completes.
type syncWait struct {
	ch chan Status
}

func newSyncWait() *syncWait {
	return &syncWait{ch: make(chan Status, 1)}
}

func (w *syncWait) valid() bool { return w != nil }

func (w *syncWait) deliver(res *AsyncResult) {
	w.ch <- res.Status
}

// await runs start with a fresh wait completion. A status other than OK
// from start means nothing was submitted and is returned as is; otherwise
// await blocks until the final status arrives.
func await(start func(Completion) Status) Status {
	w := newSyncWait()
	if st := start(w); st != StatusOK {
		return st
	}
	return <-w.ch
}
