package fsa

import "strings"

// Shim marshals logical filesystem requests into ShimBuffers.
//
// Each Prepare method resets the buffer, validates the arguments that the
// wire format constrains, and encodes the request. A non-OK return means the
// buffer holds no valid request and must not be submitted.
type Shim struct{}

func checkPath(path string) Status {
	if path == "" || len(path) > MaxPathLength || strings.IndexByte(path, 0) >= 0 {
		return StatusInvalidPath
	}
	return StatusOK
}

func (b *ShimBuffer) putPath(off int, path string) {
	putCString(b.Request[off:off+PathSize], path)
}

// PrepareChangeDir encodes a ChangeDir request.
func (Shim) PrepareChangeDir(buf *ShimBuffer, client ClientHandle, path string) Status {
	return preparePath(buf, client, CommandChangeDir, path)
}

// PrepareRemove encodes a Remove request.
func (Shim) PrepareRemove(buf *ShimBuffer, client ClientHandle, path string) Status {
	return preparePath(buf, client, CommandRemove, path)
}

// PrepareOpenDir encodes an OpenDir request.
func (Shim) PrepareOpenDir(buf *ShimBuffer, client ClientHandle, path string) Status {
	return preparePath(buf, client, CommandOpenDir, path)
}

func preparePath(buf *ShimBuffer, client ClientHandle, cmd Command, path string) Status {
	if client == 0 {
		return StatusInvalidClientHandle
	}
	if st := checkPath(path); st != StatusOK {
		return st
	}
	buf.begin(client, cmd)
	buf.putPath(reqOffPath, path)
	return StatusOK
}

// PrepareGetCwd encodes a GetCwd request.
func (Shim) PrepareGetCwd(buf *ShimBuffer, client ClientHandle) Status {
	if client == 0 {
		return StatusInvalidClientHandle
	}
	buf.begin(client, CommandGetCwd)
	return StatusOK
}

// PrepareMakeDir encodes a MakeDir request.
func (Shim) PrepareMakeDir(buf *ShimBuffer, client ClientHandle, path string, permission uint32) Status {
	if st := preparePath(buf, client, CommandMakeDir, path); st != StatusOK {
		return st
	}
	buf.putReq32(reqOffPathExtra, permission)
	return StatusOK
}

// PrepareRename encodes a Rename request.
func (Shim) PrepareRename(buf *ShimBuffer, client ClientHandle, oldPath, newPath string) Status {
	if client != 0 {
		if st := checkPath(newPath); st != StatusOK {
			return st
		}
	}
	if st := preparePath(buf, client, CommandRename, oldPath); st != StatusOK {
		return st
	}
	buf.putPath(reqOffNewPath, newPath)
	return StatusOK
}

// PrepareOpenFile encodes an OpenFile request.
func (Shim) PrepareOpenFile(buf *ShimBuffer, client ClientHandle, path, mode string, unk1, unk2, unk3 uint32) Status {
	if client == 0 {
		return StatusInvalidClientHandle
	}
	if mode == "" || len(mode) >= ModeSize || strings.IndexByte(mode, 0) >= 0 {
		return StatusInvalidParam
	}
	if st := preparePath(buf, client, CommandOpenFile, path); st != StatusOK {
		return st
	}
	putCString(buf.Request[reqOffMode:reqOffMode+ModeSize], mode)
	buf.putReq32(reqOffOpenUnk1, unk1)
	buf.putReq32(reqOffOpenUnk2, unk2)
	buf.putReq32(reqOffOpenUnk3, unk3)
	return StatusOK
}

// PrepareGetInfoByQuery encodes a GetInfoByQuery request.
func (Shim) PrepareGetInfoByQuery(buf *ShimBuffer, client ClientHandle, path string, query QueryType) Status {
	if st := preparePath(buf, client, CommandGetInfoByQuery, path); st != StatusOK {
		return st
	}
	buf.putReq32(reqOffPathExtra, uint32(query))
	return StatusOK
}

func prepareHandle(buf *ShimBuffer, client ClientHandle, cmd Command, handle uint32, invalid Status) Status {
	if client == 0 {
		return StatusInvalidClientHandle
	}
	if handle == 0 {
		return invalid
	}
	buf.begin(client, cmd)
	buf.putReq32(reqOffHandle, handle)
	return StatusOK
}

// PrepareCloseFile encodes a CloseFile request.
func (Shim) PrepareCloseFile(buf *ShimBuffer, client ClientHandle, handle FileHandle) Status {
	return prepareHandle(buf, client, CommandCloseFile, uint32(handle), StatusInvalidFileHandle)
}

// PrepareGetPosFile encodes a GetPosFile request.
func (Shim) PrepareGetPosFile(buf *ShimBuffer, client ClientHandle, handle FileHandle) Status {
	return prepareHandle(buf, client, CommandGetPosFile, uint32(handle), StatusInvalidFileHandle)
}

// PrepareStatFile encodes a StatFile request.
func (Shim) PrepareStatFile(buf *ShimBuffer, client ClientHandle, handle FileHandle) Status {
	return prepareHandle(buf, client, CommandStatFile, uint32(handle), StatusInvalidFileHandle)
}

// PrepareSetPosFile encodes a SetPosFile request.
func (Shim) PrepareSetPosFile(buf *ShimBuffer, client ClientHandle, handle FileHandle, pos uint32) Status {
	if st := prepareHandle(buf, client, CommandSetPosFile, uint32(handle), StatusInvalidFileHandle); st != StatusOK {
		return st
	}
	buf.putReq32(reqOffSetPos, pos)
	return StatusOK
}

// PrepareReadDir encodes a ReadDir request.
func (Shim) PrepareReadDir(buf *ShimBuffer, client ClientHandle, handle DirHandle) Status {
	return prepareHandle(buf, client, CommandReadDir, uint32(handle), StatusInvalidDirHandle)
}

// PrepareCloseDir encodes a CloseDir request.
func (Shim) PrepareCloseDir(buf *ShimBuffer, client ClientHandle, handle DirHandle) Status {
	return prepareHandle(buf, client, CommandCloseDir, uint32(handle), StatusInvalidDirHandle)
}

// PrepareReadFile encodes one ReadFile round trip into data.
func (Shim) PrepareReadFile(buf *ShimBuffer, client ClientHandle, data []byte, size, count, pos uint32, handle FileHandle, flags ReadFlag) Status {
	return prepareTransfer(buf, client, CommandReadFile, data, size, count, pos, handle, uint32(flags))
}

// PrepareWriteFile encodes one WriteFile round trip from data.
func (Shim) PrepareWriteFile(buf *ShimBuffer, client ClientHandle, data []byte, size, count, pos uint32, handle FileHandle, flags WriteFlag) Status {
	return prepareTransfer(buf, client, CommandWriteFile, data, size, count, pos, handle, uint32(flags))
}

func prepareTransfer(buf *ShimBuffer, client ClientHandle, cmd Command, data []byte, size, count, pos uint32, handle FileHandle, flags uint32) Status {
	if client == 0 {
		return StatusInvalidClientHandle
	}
	if handle == 0 {
		return StatusInvalidFileHandle
	}
	if uint64(len(data)) < uint64(size)*uint64(count) {
		return StatusInvalidBuffer
	}
	buf.begin(client, cmd)
	buf.putReq32(reqOffXferBuffer, 0)
	buf.putReq32(reqOffXferSize, size)
	buf.putReq32(reqOffXferCount, count)
	buf.putReq32(reqOffXferPos, pos)
	buf.putReq32(reqOffXferHandle, uint32(handle))
	buf.putReq32(reqOffXferFlags, flags)
	buf.Payload = data
	return StatusOK
}
