package fs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/marmos91/cafefs/pkg/fsa"
)

const (
	blockInitialized int32 = iota
	blockBusy
)

// Round trip hand-off between runTransfer and the trip's completion.
const (
	tripSubmitting int32 = iota
	tripReturned
	tripCompleted
)

// CmdBlock is the caller-owned context of one in-flight operation.
//
// The zero value is ready to use. A block carries at most one operation at
// a time: starting a second operation while the first is in flight is
// rejected with StatusFatalError and leaves the first untouched. The block
// returns to the idle state before the final status is delivered, so a
// completion may immediately reuse it.
type CmdBlock struct {
	state atomic.Int32

	// Owned by the in-flight operation.
	client     *Client
	cmd        fsa.Command
	mask       ErrorFlag
	completion Completion
	data       cmdData
	ctx        context.Context
	start      time.Time
	shim       fsa.ShimBuffer

	progress TransferProgress
	userData any
}

// Busy reports whether an operation is in flight on the block.
func (b *CmdBlock) Busy() bool {
	return b.state.Load() == blockBusy
}

// SetUserData attaches an arbitrary value to the block. It survives across
// operations.
func (b *CmdBlock) SetUserData(v any) {
	b.userData = v
}

// UserData returns the value set by SetUserData.
func (b *CmdBlock) UserData() any {
	return b.userData
}

// Progress returns the transfer bookkeeping of the most recent read or
// write on this block. It is stable once the operation has completed.
func (b *CmdBlock) Progress() TransferProgress {
	return b.progress
}

// claim moves the block from idle to busy.
func (b *CmdBlock) claim() bool {
	return b.state.CompareAndSwap(blockInitialized, blockBusy)
}

// release drops the operation's state and returns the block to idle.
func (b *CmdBlock) release() {
	b.client = nil
	b.cmd = fsa.CommandInvalid
	b.mask = 0
	b.completion = nil
	b.data = nil
	b.ctx = nil
	b.shim.Payload = nil
	b.state.Store(blockInitialized)
}

// TransferProgress is the bookkeeping of a chunked read or write.
type TransferProgress struct {
	// ElementSize is the caller's element size.
	ElementSize uint32

	// TripSize is the most bytes a single round trip moves.
	TripSize uint32

	// BytesRemaining is what the operation has yet to move.
	BytesRemaining uint32

	// BytesTransferred is what completed round trips moved.
	BytesTransferred uint32

	// RoundTrips counts completed round trips.
	RoundTrips int
}

// cmdData is the per-command variant of the block's data area. store copies
// a successful response into the caller's output.
type cmdData interface {
	store(buf *fsa.ShimBuffer)
}

type cwdOut struct{ out []byte }

func (d cwdOut) store(buf *fsa.ShimBuffer) {
	cwd := buf.Cwd()
	n := copy(d.out[:len(d.out)-1], cwd)
	d.out[n] = 0
}

type posOut struct{ out *uint32 }

func (d posOut) store(buf *fsa.ShimBuffer) { *d.out = buf.ResponseWord() }

type fileHandleOut struct{ out *FileHandle }

func (d fileHandleOut) store(buf *fsa.ShimBuffer) { *d.out = FileHandle(buf.ResponseWord()) }

type dirHandleOut struct{ out *DirHandle }

func (d dirHandleOut) store(buf *fsa.ShimBuffer) { *d.out = DirHandle(buf.ResponseWord()) }

type dirEntryOut struct{ out *DirEntry }

func (d dirEntryOut) store(buf *fsa.ShimBuffer) { buf.DirEntry(d.out) }

type statOut struct{ out *Stat }

func (d statOut) store(buf *fsa.ShimBuffer) { buf.Stat(d.out) }

type sizeOut struct{ out *uint64 }

func (d sizeOut) store(buf *fsa.ShimBuffer) { *d.out = buf.FreeSpace() }

type countOut struct{ out *uint32 }

func (d countOut) store(buf *fsa.ShimBuffer) { *d.out = buf.ResponseWord() }

// transfer is the data area of ReadFile and WriteFile.
type transfer struct {
	write   bool
	buffer  []byte
	handle  FileHandle
	flags   uint32
	posFlag uint32

	elementSize uint32
	tripSize    uint32
	inFlight    uint32
	remaining   uint32
	transferred uint32
	trips       int

	state  atomic.Int32
	result fsa.Status
}

// store is a no-op: transfers move data through the payload vector.
func (*transfer) store(*fsa.ShimBuffer) {}

func (t *transfer) progress() TransferProgress {
	return TransferProgress{
		ElementSize:      t.elementSize,
		TripSize:         t.tripSize,
		BytesRemaining:   t.remaining,
		BytesTransferred: t.transferred,
		RoundTrips:       t.trips,
	}
}

// elements is the number of whole elements moved so far.
func (t *transfer) elements() Status {
	if t.elementSize == 0 {
		return 0
	}
	return Status(t.transferred / t.elementSize)
}
