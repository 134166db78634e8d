package fs

import "github.com/marmos91/cafefs/pkg/fsa"

// OpenFileAsync opens path with an fopen-style mode ("r", "w+", ...) and
// the default extended parameters.
func (c *Client) OpenFileAsync(block *CmdBlock, path, mode string, handle *FileHandle, mask ErrorFlag, completion Completion) Status {
	return c.OpenFileExAsync(block, path, mode, DefaultFilePermission, 0, 0, handle, mask, completion)
}

// OpenFile is the synchronous form of OpenFileAsync.
func (c *Client) OpenFile(block *CmdBlock, path, mode string, handle *FileHandle, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.OpenFileAsync(block, path, mode, handle, mask, w)
	})
}

// OpenFileExAsync opens path with explicit creation permission, open flags,
// and preallocation size, and stores the file handle in handle on success.
func (c *Client) OpenFileExAsync(block *CmdBlock, path, mode string, createMode, openFlags, preallocSize uint32, handle *FileHandle, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandOpenFile, path, mask, completion); st != StatusOK {
		return st
	}
	if handle == nil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if path == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if mode == "" {
		return c.rejectArgs(block, fsa.StatusInvalidParam)
	}
	err := c.shim.PrepareOpenFile(&block.shim, c.handle, path, mode, createMode, openFlags, preallocSize)
	if err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = fileHandleOut{out: handle}
	c.submit(block, finishCmd)
	return StatusOK
}

// OpenFileEx is the synchronous form of OpenFileExAsync.
func (c *Client) OpenFileEx(block *CmdBlock, path, mode string, createMode, openFlags, preallocSize uint32, handle *FileHandle, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.OpenFileExAsync(block, path, mode, createMode, openFlags, preallocSize, handle, mask, w)
	})
}

// CloseFileAsync closes a file handle.
func (c *Client) CloseFileAsync(block *CmdBlock, handle FileHandle, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandCloseFile, "", mask, completion); st != StatusOK {
		return st
	}
	if err := c.shim.PrepareCloseFile(&block.shim, c.handle, handle); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// CloseFile is the synchronous form of CloseFileAsync.
func (c *Client) CloseFile(block *CmdBlock, handle FileHandle, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.CloseFileAsync(block, handle, mask, w)
	})
}

// GetPosFileAsync stores the file position in pos on success.
func (c *Client) GetPosFileAsync(block *CmdBlock, handle FileHandle, pos *uint32, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandGetPosFile, "", mask, completion); st != StatusOK {
		return st
	}
	if pos == nil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if err := c.shim.PrepareGetPosFile(&block.shim, c.handle, handle); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = posOut{out: pos}
	c.submit(block, finishCmd)
	return StatusOK
}

// GetPosFile is the synchronous form of GetPosFileAsync.
func (c *Client) GetPosFile(block *CmdBlock, handle FileHandle, pos *uint32, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetPosFileAsync(block, handle, pos, mask, w)
	})
}

// SetPosFileAsync moves the file position to pos.
func (c *Client) SetPosFileAsync(block *CmdBlock, handle FileHandle, pos uint32, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandSetPosFile, "", mask, completion); st != StatusOK {
		return st
	}
	if err := c.shim.PrepareSetPosFile(&block.shim, c.handle, handle, pos); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	c.submit(block, finishCmd)
	return StatusOK
}

// SetPosFile is the synchronous form of SetPosFileAsync.
func (c *Client) SetPosFile(block *CmdBlock, handle FileHandle, pos uint32, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.SetPosFileAsync(block, handle, pos, mask, w)
	})
}

// GetStatFileAsync stores the attributes of an open file in stat.
func (c *Client) GetStatFileAsync(block *CmdBlock, handle FileHandle, stat *Stat, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandStatFile, "", mask, completion); st != StatusOK {
		return st
	}
	if stat == nil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if err := c.shim.PrepareStatFile(&block.shim, c.handle, handle); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = statOut{out: stat}
	c.submit(block, finishCmd)
	return StatusOK
}

// GetStatFile is the synchronous form of GetStatFileAsync.
func (c *Client) GetStatFile(block *CmdBlock, handle FileHandle, stat *Stat, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetStatFileAsync(block, handle, stat, mask, w)
	})
}
