// Package fsa implements the request/response marshalling boundary of the
// console filesystem I/O service (FSA).
//
// Every filesystem command travels in a ShimBuffer: a fixed-size request
// area, a fixed-size response area, and a small header naming the target
// client and command. Transfer commands carry their payload in a separate
// data vector rather than in the request area.
//
// # Request Layout (0x520 bytes, big-endian)
//
//	┌────────┬───────┬──────────────────────────────────────────────┐
//	│ Offset │ Size  │ Field                                        │
//	├────────┼───────┼──────────────────────────────────────────────┤
//	│  0x000 │     4 │ emulatedError                                │
//	│  0x004 │ 0x280 │ path (ChangeDir, MakeDir, Remove, Rename,    │
//	│        │       │ OpenDir, OpenFile, GetInfoByQuery)           │
//	│  0x284 │     4 │ permission (MakeDir) / query type            │
//	│  0x284 │ 0x280 │ new path (Rename)                            │
//	│  0x284 │  0x10 │ mode (OpenFile), then 3 × u32 extra params   │
//	│  0x004 │     4 │ handle (GetPos, SetPos, Close, ReadDir, …)   │
//	│  0x008 │     4 │ position (SetPos)                            │
//	│  0x004 │  0x18 │ transfer: buffer slot, size, count, pos,     │
//	│        │       │ handle, flags (ReadFile, WriteFile)          │
//	└────────┴───────┴──────────────────────────────────────────────┘
//
// # Response Layout (0x293 bytes, big-endian)
//
//	┌────────┬───────┬──────────────────────────────────────────────┐
//	│  0x000 │     4 │ word0                                        │
//	│  0x004 │ 0x280 │ cwd path (GetCwd)                            │
//	│  0x004 │     4 │ position (GetPos) / handle (OpenFile/Dir)    │
//	│  0x004 │     8 │ free space (GetInfoByQuery FreeSpaceSize)    │
//	│  0x004 │  0x64 │ Stat (GetInfoByQuery Stat, StatFile)         │
//	│  0x004 │ 0x164 │ DirEntry (ReadDir)                           │
//	└────────┴───────┴──────────────────────────────────────────────┘
package fsa

import (
	"bytes"
	"encoding/binary"
)

const (
	// RequestSize is the fixed size of the request area.
	RequestSize = 0x520

	// ResponseSize is the fixed size of the response area.
	ResponseSize = 0x293

	// PathSize is the size of a NUL-terminated path field.
	PathSize = 0x280

	// MaxPathLength is the longest path (excluding the terminator) that fits
	// a path field.
	MaxPathLength = PathSize - 1

	// ModeSize is the size of the NUL-terminated open mode field.
	ModeSize = 0x10
)

// Request field offsets.
const (
	reqOffEmulatedError = 0x000
	reqOffPath          = 0x004
	reqOffPathExtra     = reqOffPath + PathSize
	reqOffNewPath       = reqOffPathExtra
	reqOffMode          = reqOffPathExtra
	reqOffOpenUnk1      = reqOffMode + ModeSize
	reqOffOpenUnk2      = reqOffOpenUnk1 + 4
	reqOffOpenUnk3      = reqOffOpenUnk2 + 4
	reqOffHandle        = 0x004
	reqOffSetPos        = 0x008
	reqOffXferBuffer    = 0x004
	reqOffXferSize      = 0x008
	reqOffXferCount     = 0x00C
	reqOffXferPos       = 0x010
	reqOffXferHandle    = 0x014
	reqOffXferFlags     = 0x018
)

// Response field offsets.
const (
	respOffWord0 = 0x000
	respOffData  = 0x004
)

// ShimBuffer holds one marshalled FSA request and its response.
//
// A ShimBuffer is owned by a command block and reused for every round trip
// of that block's operation.
type ShimBuffer struct {
	Request  [RequestSize]byte
	Response [ResponseSize]byte

	// ClientHandle addresses the client registration in the service.
	ClientHandle ClientHandle

	// Command selects the operation encoded in Request.
	Command Command

	// Payload is the data vector of ReadFile/WriteFile requests.
	Payload []byte
}

// Reset clears the buffer for a new request.
func (b *ShimBuffer) Reset() {
	clear(b.Request[:])
	clear(b.Response[:])
	b.ClientHandle = 0
	b.Command = CommandInvalid
	b.Payload = nil
}

func (b *ShimBuffer) begin(client ClientHandle, cmd Command) {
	b.Reset()
	b.ClientHandle = client
	b.Command = cmd
}

func (b *ShimBuffer) putReq32(off int, v uint32) {
	binary.BigEndian.PutUint32(b.Request[off:], v)
}

func (b *ShimBuffer) req32(off int) uint32 {
	return binary.BigEndian.Uint32(b.Request[off:])
}

func (b *ShimBuffer) putResp32(off int, v uint32) {
	binary.BigEndian.PutUint32(b.Response[off:], v)
}

func (b *ShimBuffer) resp32(off int) uint32 {
	return binary.BigEndian.Uint32(b.Response[off:])
}

// ============================================================================
// Request accessors (service side)
// ============================================================================

// EmulatedError returns the emulated error word of the request.
func (b *ShimBuffer) EmulatedError() Status {
	return Status(int32(b.req32(reqOffEmulatedError)))
}

// SetEmulatedError asks the service to fail the request with s instead of
// executing it. Must be called after Prepare.
func (b *ShimBuffer) SetEmulatedError(s Status) {
	b.putReq32(reqOffEmulatedError, uint32(s))
}

// Path returns the primary path argument.
func (b *ShimBuffer) Path() string {
	return cString(b.Request[reqOffPath : reqOffPath+PathSize])
}

// NewPath returns the destination path of a Rename request.
func (b *ShimBuffer) NewPath() string {
	return cString(b.Request[reqOffNewPath : reqOffNewPath+PathSize])
}

// Permission returns the permission argument of a MakeDir request.
func (b *ShimBuffer) Permission() uint32 {
	return b.req32(reqOffPathExtra)
}

// QueryType returns the query type of a GetInfoByQuery request.
func (b *ShimBuffer) QueryType() QueryType {
	return QueryType(b.req32(reqOffPathExtra))
}

// OpenArgs holds the decoded arguments of an OpenFile request.
type OpenArgs struct {
	Path string
	Mode string
	Unk1 uint32
	Unk2 uint32
	Unk3 uint32
}

// OpenFileArgs decodes an OpenFile request.
func (b *ShimBuffer) OpenFileArgs() OpenArgs {
	return OpenArgs{
		Path: b.Path(),
		Mode: cString(b.Request[reqOffMode : reqOffMode+ModeSize]),
		Unk1: b.req32(reqOffOpenUnk1),
		Unk2: b.req32(reqOffOpenUnk2),
		Unk3: b.req32(reqOffOpenUnk3),
	}
}

// Handle returns the handle argument of single-handle requests.
func (b *ShimBuffer) Handle() uint32 {
	return b.req32(reqOffHandle)
}

// Position returns the position argument of a SetPosFile request.
func (b *ShimBuffer) Position() uint32 {
	return b.req32(reqOffSetPos)
}

// TransferArgs holds the decoded arguments of a ReadFile/WriteFile request.
type TransferArgs struct {
	Size   uint32
	Count  uint32
	Pos    uint32
	Handle FileHandle
	Flags  uint32
}

// Bytes returns the number of bytes requested.
func (a TransferArgs) Bytes() uint64 {
	return uint64(a.Size) * uint64(a.Count)
}

// Transfer decodes a ReadFile/WriteFile request.
func (b *ShimBuffer) Transfer() TransferArgs {
	return TransferArgs{
		Size:   b.req32(reqOffXferSize),
		Count:  b.req32(reqOffXferCount),
		Pos:    b.req32(reqOffXferPos),
		Handle: FileHandle(b.req32(reqOffXferHandle)),
		Flags:  b.req32(reqOffXferFlags),
	}
}

// ============================================================================
// Response accessors
// ============================================================================

// SetCwd stores the working directory in the response.
func (b *ShimBuffer) SetCwd(path string) {
	putCString(b.Response[respOffData:respOffData+PathSize], path)
}

// Cwd returns the working directory from the response.
func (b *ShimBuffer) Cwd() string {
	return cString(b.Response[respOffData : respOffData+PathSize])
}

// SetResponseWord stores a 32-bit result (position or handle).
func (b *ShimBuffer) SetResponseWord(v uint32) {
	b.putResp32(respOffData, v)
}

// ResponseWord returns a 32-bit result (position or handle).
func (b *ShimBuffer) ResponseWord() uint32 {
	return b.resp32(respOffData)
}

// SetFreeSpace stores a free space query result.
func (b *ShimBuffer) SetFreeSpace(v uint64) {
	binary.BigEndian.PutUint64(b.Response[respOffData:], v)
}

// FreeSpace returns a free space query result.
func (b *ShimBuffer) FreeSpace() uint64 {
	return binary.BigEndian.Uint64(b.Response[respOffData:])
}

// SetStat stores a Stat record in the response.
func (b *ShimBuffer) SetStat(st *Stat) {
	st.Encode(b.Response[respOffData : respOffData+StatSize])
}

// Stat decodes a Stat record from the response.
func (b *ShimBuffer) Stat(st *Stat) {
	st.Decode(b.Response[respOffData : respOffData+StatSize])
}

// SetDirEntry stores a DirEntry record in the response.
func (b *ShimBuffer) SetDirEntry(e *DirEntry) {
	e.Encode(b.Response[respOffData : respOffData+DirEntrySize])
}

// DirEntry decodes a DirEntry record from the response.
func (b *ShimBuffer) DirEntry(e *DirEntry) {
	e.Decode(b.Response[respOffData : respOffData+DirEntrySize])
}

// ============================================================================
// C string helpers
// ============================================================================

// putCString copies s into field and NUL-terminates it, truncating when the
// field is too small.
func putCString(field []byte, s string) {
	clear(field)
	n := copy(field[:len(field)-1], s)
	field[n] = 0
}

func cString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		return string(field[:i])
	}
	return string(field)
}
