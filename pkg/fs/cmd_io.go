package fs

import (
	"math"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/fsa"
)

// ReadFileAsync reads count elements of size bytes from the current file
// position into buffer. The final status is the number of whole elements
// read, which is less than count on end of file.
//
// Transfers larger than the client's per-request limit are split into
// sequential round trips of at most min(size, limit) bytes each.
func (c *Client) ReadFileAsync(block *CmdBlock, buffer []byte, size, count uint32, handle FileHandle, flags ReadFlag, mask ErrorFlag, completion Completion) Status {
	flags &^= fsa.ReadWithPos
	return c.startTransfer(block, fsa.CommandReadFile, buffer, size, count, 0, handle, uint32(flags), uint32(fsa.ReadWithPos), mask, completion)
}

// ReadFile is the synchronous form of ReadFileAsync.
func (c *Client) ReadFile(block *CmdBlock, buffer []byte, size, count uint32, handle FileHandle, flags ReadFlag, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.ReadFileAsync(block, buffer, size, count, handle, flags, mask, w)
	})
}

// ReadFileWithPosAsync is ReadFileAsync starting at file offset pos.
func (c *Client) ReadFileWithPosAsync(block *CmdBlock, buffer []byte, size, count, pos uint32, handle FileHandle, flags ReadFlag, mask ErrorFlag, completion Completion) Status {
	flags |= fsa.ReadWithPos
	return c.startTransfer(block, fsa.CommandReadFile, buffer, size, count, pos, handle, uint32(flags), uint32(fsa.ReadWithPos), mask, completion)
}

// ReadFileWithPos is the synchronous form of ReadFileWithPosAsync.
func (c *Client) ReadFileWithPos(block *CmdBlock, buffer []byte, size, count, pos uint32, handle FileHandle, flags ReadFlag, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.ReadFileWithPosAsync(block, buffer, size, count, pos, handle, flags, mask, w)
	})
}

// WriteFileAsync writes count elements of size bytes from buffer at the
// current file position. The final status is the number of whole elements
// written.
func (c *Client) WriteFileAsync(block *CmdBlock, buffer []byte, size, count uint32, handle FileHandle, flags WriteFlag, mask ErrorFlag, completion Completion) Status {
	flags &^= fsa.WriteWithPos
	return c.startTransfer(block, fsa.CommandWriteFile, buffer, size, count, 0, handle, uint32(flags), uint32(fsa.WriteWithPos), mask, completion)
}

// WriteFile is the synchronous form of WriteFileAsync.
func (c *Client) WriteFile(block *CmdBlock, buffer []byte, size, count uint32, handle FileHandle, flags WriteFlag, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.WriteFileAsync(block, buffer, size, count, handle, flags, mask, w)
	})
}

// WriteFileWithPosAsync is WriteFileAsync starting at file offset pos.
func (c *Client) WriteFileWithPosAsync(block *CmdBlock, buffer []byte, size, count, pos uint32, handle FileHandle, flags WriteFlag, mask ErrorFlag, completion Completion) Status {
	flags |= fsa.WriteWithPos
	return c.startTransfer(block, fsa.CommandWriteFile, buffer, size, count, pos, handle, uint32(flags), uint32(fsa.WriteWithPos), mask, completion)
}

// WriteFileWithPos is the synchronous form of WriteFileWithPosAsync.
func (c *Client) WriteFileWithPos(block *CmdBlock, buffer []byte, size, count, pos uint32, handle FileHandle, flags WriteFlag, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.WriteFileWithPosAsync(block, buffer, size, count, pos, handle, flags, mask, w)
	})
}

func (c *Client) startTransfer(block *CmdBlock, cmd fsa.Command, buffer []byte, size, count, pos uint32, handle FileHandle, flags, posFlag uint32, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, cmd, "", mask, completion); st != StatusOK {
		return st
	}
	total := uint64(size) * uint64(count)
	if total > math.MaxUint32 {
		return c.rejectArgs(block, fsa.StatusInvalidParam)
	}
	if uint64(len(buffer)) < total {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}

	t := &transfer{
		write:       cmd == fsa.CommandWriteFile,
		buffer:      buffer,
		handle:      handle,
		flags:       flags,
		posFlag:     posFlag,
		elementSize: size,
		tripSize:    min(size, c.maxBytes),
		remaining:   uint32(total),
	}
	block.data = t
	block.progress = t.progress()

	if err := c.prepareTrip(block, t, pos); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.runTransfer(block, t)
	return StatusOK
}

// prepareTrip marshals the next round trip of t into the block.
func (c *Client) prepareTrip(block *CmdBlock, t *transfer, pos uint32) fsa.Status {
	n := min(t.tripSize, t.remaining)
	t.inFlight = n
	data := t.buffer[t.transferred : t.transferred+n]
	if t.write {
		return c.shim.PrepareWriteFile(&block.shim, c.handle, data, n, 1, pos, t.handle, fsa.WriteFlag(t.flags))
	}
	return c.shim.PrepareReadFile(&block.shim, c.handle, data, n, 1, pos, t.handle, fsa.ReadFlag(t.flags))
}

// runTransfer submits round trips of t until one is left in flight or the
// transfer completes. A trip whose completion fires inside Submit is
// continued by this loop rather than by the completion, so services that
// answer inline do not grow the stack with every round trip.
func (c *Client) runTransfer(block *CmdBlock, t *transfer) {
	for {
		t.state.Store(tripSubmitting)
		logger.DebugCtx(block.ctx, "Submitting FSA request", logger.KeyRoundTrips, t.trips)
		c.service.Submit(&block.shim, func(res fsa.Status) {
			t.result = res
			if t.state.CompareAndSwap(tripSubmitting, tripCompleted) {
				return
			}
			if c.finishTrip(block, t, res) {
				c.runTransfer(block, t)
			}
		})
		if t.state.CompareAndSwap(tripSubmitting, tripReturned) {
			return
		}
		if !c.finishTrip(block, t, t.result) {
			return
		}
	}
}

// finishTrip accounts for one round trip. It reports true when the next
// trip has been marshalled and must be submitted; otherwise the block has
// been completed.
func (c *Client) finishTrip(block *CmdBlock, t *transfer, res fsa.Status) bool {
	if res < 0 {
		status := c.handleResult(block, res)
		c.finishTransfer(block, t, status)
		return false
	}

	n := min(uint32(res), t.inFlight)
	t.transferred += n
	t.remaining -= n
	t.trips++

	if n < t.inFlight || t.remaining == 0 {
		c.finishTransfer(block, t, t.elements())
		return false
	}

	// Later trips continue from the position the first one left behind.
	t.flags &^= t.posFlag
	if err := c.prepareTrip(block, t, 0); err != fsa.StatusOK {
		c.finishTransfer(block, t, c.handleResult(block, err))
		return false
	}
	block.progress = t.progress()
	return true
}

func (c *Client) finishTransfer(block *CmdBlock, t *transfer, status Status) {
	block.progress = t.progress()
	logger.DebugCtx(block.ctx, "FSA transfer finished",
		logger.KeyBytes, t.transferred,
		logger.KeyRoundTrips, t.trips)
	if c.metrics != nil {
		c.metrics.ObserveTransfer(block.cmd, t.transferred, t.trips)
	}
	c.complete(block, status)
}
