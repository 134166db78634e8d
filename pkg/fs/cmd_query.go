package fs

import "github.com/marmos91/cafefs/pkg/fsa"

// query funnels the GetInfoByQuery family through the dispatcher.
func (c *Client) query(block *CmdBlock, path string, qt fsa.QueryType, out cmdData, outNil bool, mask ErrorFlag, completion Completion) Status {
	if st := c.prepare(block, fsa.CommandGetInfoByQuery, path, mask, completion); st != StatusOK {
		return st
	}
	if path == "" {
		return c.rejectArgs(block, fsa.StatusInvalidPath)
	}
	if outNil {
		return c.rejectArgs(block, fsa.StatusInvalidBuffer)
	}
	if err := c.shim.PrepareGetInfoByQuery(&block.shim, c.handle, path, qt); err != fsa.StatusOK {
		return c.handleShimPrepareError(block, err)
	}
	block.data = out
	c.submit(block, finishCmd)
	return StatusOK
}

// GetFreeSpaceSizeAsync stores the free bytes of the volume holding path.
func (c *Client) GetFreeSpaceSizeAsync(block *CmdBlock, path string, out *uint64, mask ErrorFlag, completion Completion) Status {
	return c.query(block, path, fsa.QueryFreeSpaceSize, sizeOut{out: out}, out == nil, mask, completion)
}

// GetFreeSpaceSize is the synchronous form of GetFreeSpaceSizeAsync.
func (c *Client) GetFreeSpaceSize(block *CmdBlock, path string, out *uint64, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetFreeSpaceSizeAsync(block, path, out, mask, w)
	})
}

// GetDirSizeAsync stores the total size of the files below path.
func (c *Client) GetDirSizeAsync(block *CmdBlock, path string, out *uint64, mask ErrorFlag, completion Completion) Status {
	return c.query(block, path, fsa.QueryDirSize, sizeOut{out: out}, out == nil, mask, completion)
}

// GetDirSize is the synchronous form of GetDirSizeAsync.
func (c *Client) GetDirSize(block *CmdBlock, path string, out *uint64, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetDirSizeAsync(block, path, out, mask, w)
	})
}

// GetEntryNumAsync stores the number of entries in the directory at path.
func (c *Client) GetEntryNumAsync(block *CmdBlock, path string, out *uint32, mask ErrorFlag, completion Completion) Status {
	return c.query(block, path, fsa.QueryEntryNum, countOut{out: out}, out == nil, mask, completion)
}

// GetEntryNum is the synchronous form of GetEntryNumAsync.
func (c *Client) GetEntryNum(block *CmdBlock, path string, out *uint32, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetEntryNumAsync(block, path, out, mask, w)
	})
}

// GetStatAsync stores the attributes of path.
func (c *Client) GetStatAsync(block *CmdBlock, path string, out *Stat, mask ErrorFlag, completion Completion) Status {
	return c.query(block, path, fsa.QueryStat, statOut{out: out}, out == nil, mask, completion)
}

// GetStat is the synchronous form of GetStatAsync.
func (c *Client) GetStat(block *CmdBlock, path string, out *Stat, mask ErrorFlag) Status {
	return await(func(w Completion) Status {
		return c.GetStatAsync(block, path, out, mask, w)
	})
}
