package fs

import "github.com/marmos91/cafefs/pkg/fsa"

// ChangeDirAsync sets the client's working directory.
func (c *Client) ChangeDirAsync(block *CmdBlock, path string, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandChangeDir, path, mask, completion); st != StatusOK {
		return st
	}
	if path == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if err := c.shim.PrepareChangeDir(&block.shim, c.handle, path); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// ChangeDir is the synchronous form of ChangeDirAsync.
func (c *Client) ChangeDir(block *CmdBlock, path string, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.ChangeDirAsync(block, path, mask, w)
	})
}

// GetCwdAsync copies the NUL-terminated working directory into out, which
// must hold at least MaxPathLength bytes.
func (c *Client) GetCwdAsync(block *CmdBlock, out []byte, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandGetCwd, "", mask, completion); st != StatusOK {
		return st
	}
	if out == nil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if len(out) < MaxPathLength {
		return c.rejectArgs(block, fsa.StatusInvalidParam)
	}
	if err := c.shim.PrepareGetCwd(&block.shim, c.handle); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = cwdOut{out: out}
	c.submit(block, finishCmd)
	return StatusOK
}

// GetCwd is the synchronous form of GetCwdAsync.
func (c *Client) GetCwd(block *CmdBlock, out []byte, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetCwdAsync(block, out, mask, w)
	})
}

// MakeDirAsync creates a directory with the default permission.
func (c *Client) MakeDirAsync(block *CmdBlock, path string, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandMakeDir, path, mask, completion); st != StatusOK {
		return st
	}
	if path == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if err := c.shim.PrepareMakeDir(&block.shim, c.handle, path, DefaultFilePermission); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// MakeDir is the synchronous form of MakeDirAsync.
func (c *Client) MakeDir(block *CmdBlock, path string, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.MakeDirAsync(block, path, mask, w)
	})
}

// RemoveAsync removes a file or an empty directory.
func (c *Client) RemoveAsync(block *CmdBlock, path string, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandRemove, path, mask, completion); st != StatusOK {
		return st
	}
	if path == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if err := c.shim.PrepareRemove(&block.shim, c.handle, path); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// Remove is the synchronous form of RemoveAsync.
func (c *Client) Remove(block *CmdBlock, path string, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.RemoveAsync(block, path, mask, w)
	})
}

// RenameAsync moves oldPath to newPath.
func (c *Client) RenameAsync(block *CmdBlock, oldPath, newPath string, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandRename, oldPath, mask, completion); st != StatusOK {
		return st
	}
	if oldPath == "" || newPath == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if err := c.shim.PrepareRename(&block.shim, c.handle, oldPath, newPath); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// Rename is the synchronous form of RenameAsync.
func (c *Client) Rename(block *CmdBlock, oldPath, newPath string, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.RenameAsync(block, oldPath, newPath, mask, w)
	})
}

// OpenDirAsync opens a directory for iteration and stores its handle in
// handle on success.
func (c *Client) OpenDirAsync(block *CmdBlock, path string, handle *DirHandle, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandOpenDir, path, mask, completion); st != StatusOK {
		return st
	}
	if handle == nil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if path == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if err := c.shim.PrepareOpenDir(&block.shim, c.handle, path); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = dirHandleOut{out: handle}
	c.submit(block, finishCmd)
	return StatusOK
}

// OpenDir is the synchronous form of OpenDirAsync.
func (c *Client) OpenDir(block *CmdBlock, path string, handle *DirHandle, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.OpenDirAsync(block, path, handle, mask, w)
	})
}

// ReadDirAsync reads the next entry of an open directory. The final status
// is StatusEnd once every entry has been returned.
func (c *Client) ReadDirAsync(block *CmdBlock, handle DirHandle, entry *DirEntry, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandReadDir, "", mask, completion); st != StatusOK {
		return st
	}
	if entry == nil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if err := c.shim.PrepareReadDir(&block.shim, c.handle, handle); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = dirEntryOut{out: entry}
	c.submit(block, finishCmd)
	return StatusOK
}

// ReadDir is the synchronous form of ReadDirAsync.
func (c *Client) ReadDir(block *CmdBlock, handle DirHandle, entry *DirEntry, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.ReadDirAsync(block, handle, entry, mask, w)
	})
}

// CloseDirAsync closes a directory handle.
func (c *Client) CloseDirAsync(block *CmdBlock, handle DirHandle, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandCloseDir, "", mask, completion); st != StatusOK {
		return st
	}
	if err := c.shim.PrepareCloseDir(&block.shim, c.handle, handle); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// CloseDir is the synchronous form of CloseDirAsync.
func (c *Client) CloseDir(block *CmdBlock, handle DirHandle, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.CloseDirAsync(block, handle, mask, w)
	})
}
