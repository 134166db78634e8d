package fs

import (
	"context"
	"time"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/fsa"
)

type finishFunc func(c *Client, block *CmdBlock, res fsa.Status)

// prepare claims block for cmd. On success the block is busy and owned by
// the caller until it either submits or aborts.
func (c *Client) prepare(block *CmdBlock, cmd fsa.Command, path string, mask ErrorFlag, completion Completion) Status {
	if c == nil || !c.usable() {
		return StatusFatalError
	}
	if block == nil {
		logger.Warn("Command issued without a command block", logger.ClientID(c.id), logger.Command(cmd))
		c.handleFatalError(fsa.StatusInvalidParam)
		return StatusFatalError
	}
	if completion == nil || !completion.valid() {
		logger.Warn("Command issued without a completion", logger.ClientID(c.id), logger.Command(cmd))
		c.handleFatalError(fsa.StatusInvalidParam)
		return StatusFatalError
	}
	if !block.claim() {
		logger.Warn("Command block already in flight", logger.ClientID(c.id), logger.Command(cmd))
		c.handleFatalError(fsa.StatusBusy)
		return StatusFatalError
	}

	lc := logger.NewLogContext(c.id, cmd.String())
	if path != "" {
		lc = lc.WithPath(path)
	}

	block.client = c
	block.cmd = cmd
	block.mask = mask
	block.completion = completion
	block.data = nil
	block.ctx = logger.WithContext(context.Background(), lc)
	block.start = lc.StartTime
	return StatusOK
}

// abort releases a claimed block without submitting and returns status.
func (c *Client) abort(block *CmdBlock, status Status) Status {
	block.release()
	return status
}

// rejectArgs rejects a claimed block's arguments: the client latches with
// reason and the block is released.
func (c *Client) rejectArgs(block *CmdBlock, reason fsa.Status) Status {
	logger.WarnCtx(block.ctx, "Invalid command arguments", logger.KeyReason, reason.String())
	c.handleFatalError(reason)
	return c.abort(block, StatusFatalError)
}

// handleShimPrepareError classifies a marshalling failure against the
// block's mask and releases the block.
func (c *Client) handleShimPrepareError(block *CmdBlock, err fsa.Status) Status {
	status := c.handleResult(block, err)
	return c.abort(block, status)
}

// handleResult classifies a service-level result. Unmasked failures latch
// the client.
func (c *Client) handleResult(block *CmdBlock, res fsa.Status) Status {
	status, fatal := classify(res, block.mask)
	if fatal {
		logger.WarnCtx(block.ctx, "Unexpected FSA error",
			logger.FSAStatus(res),
			logger.Mask(uint32(block.mask)))
		c.handleFatalError(res)
	}
	return status
}

// submit hands the marshalled request to the service. The block must not be
// touched after submit returns: it may already have been completed and
// reused.
func (c *Client) submit(block *CmdBlock, finish finishFunc) {
	logger.DebugCtx(block.ctx, "Submitting FSA request")
	c.service.Submit(&block.shim, func(res fsa.Status) {
		finish(c, block, res)
	})
}

// finishCmd completes single round trip commands.
func finishCmd(c *Client, block *CmdBlock, res fsa.Status) {
	status := c.handleResult(block, res)
	if status >= 0 && block.data != nil {
		block.data.store(&block.shim)
	}
	c.complete(block, status)
}

// complete releases the block and delivers status to its completion.
func (c *Client) complete(block *CmdBlock, status Status) {
	completion := block.completion
	cmd := block.cmd
	elapsed := time.Since(block.start)

	logger.DebugCtx(block.ctx, "FSA request completed",
		logger.Status(status),
		logger.DurationMs(float64(elapsed.Microseconds())/1000.0))
	if c.metrics != nil {
		c.metrics.ObserveCommand(cmd, status, elapsed)
	}

	block.release()
	completion.deliver(&AsyncResult{Client: c, Block: block, Status: status})
}
