package fsa

import (
	"encoding/binary"
	"time"
)

// StatSize is the encoded size of a Stat record.
const StatSize = 0x64

// DirEntrySize is the encoded size of a DirEntry record.
const DirEntrySize = 0x164

// DirEntryNameSize is the size of the NUL-terminated name field of a DirEntry.
const DirEntryNameSize = 0x100

// Stat record field offsets.
const (
	statOffFlags     = 0x00
	statOffMode      = 0x04
	statOffOwner     = 0x08
	statOffGroup     = 0x0C
	statOffSize      = 0x10
	statOffAllocSize = 0x14
	statOffQuotaSize = 0x18
	statOffEntryID   = 0x20
	statOffCreated   = 0x24
	statOffModified  = 0x2C
)

// StatFlags describes the kind of a filesystem entry.
type StatFlags uint32

const (
	// StatDirectory marks a directory entry.
	StatDirectory StatFlags = 0x80000000
)

// Stat mirrors the console FSStat record. Timestamps are FS time
// (microseconds since 2000-01-01 UTC).
type Stat struct {
	Flags     StatFlags
	Mode      uint32
	Owner     uint32
	Group     uint32
	Size      uint32
	AllocSize uint32
	QuotaSize uint64
	EntryID   uint32
	Created   int64
	Modified  int64
}

// IsDir reports whether the entry is a directory.
func (s *Stat) IsDir() bool {
	return s.Flags&StatDirectory != 0
}

// Encode writes the record into b, which must be at least StatSize bytes.
// Bytes past the known fields are zeroed.
func (s *Stat) Encode(b []byte) {
	_ = b[StatSize-1]
	clear(b[:StatSize])
	binary.BigEndian.PutUint32(b[statOffFlags:], uint32(s.Flags))
	binary.BigEndian.PutUint32(b[statOffMode:], s.Mode)
	binary.BigEndian.PutUint32(b[statOffOwner:], s.Owner)
	binary.BigEndian.PutUint32(b[statOffGroup:], s.Group)
	binary.BigEndian.PutUint32(b[statOffSize:], s.Size)
	binary.BigEndian.PutUint32(b[statOffAllocSize:], s.AllocSize)
	binary.BigEndian.PutUint64(b[statOffQuotaSize:], s.QuotaSize)
	binary.BigEndian.PutUint32(b[statOffEntryID:], s.EntryID)
	binary.BigEndian.PutUint64(b[statOffCreated:], uint64(s.Created))
	binary.BigEndian.PutUint64(b[statOffModified:], uint64(s.Modified))
}

// Decode reads the record from b, which must be at least StatSize bytes.
func (s *Stat) Decode(b []byte) {
	_ = b[StatSize-1]
	s.Flags = StatFlags(binary.BigEndian.Uint32(b[statOffFlags:]))
	s.Mode = binary.BigEndian.Uint32(b[statOffMode:])
	s.Owner = binary.BigEndian.Uint32(b[statOffOwner:])
	s.Group = binary.BigEndian.Uint32(b[statOffGroup:])
	s.Size = binary.BigEndian.Uint32(b[statOffSize:])
	s.AllocSize = binary.BigEndian.Uint32(b[statOffAllocSize:])
	s.QuotaSize = binary.BigEndian.Uint64(b[statOffQuotaSize:])
	s.EntryID = binary.BigEndian.Uint32(b[statOffEntryID:])
	s.Created = int64(binary.BigEndian.Uint64(b[statOffCreated:]))
	s.Modified = int64(binary.BigEndian.Uint64(b[statOffModified:]))
}

// DirEntry mirrors the console FSDirEntry record.
type DirEntry struct {
	Stat Stat
	Name string
}

// Encode writes the entry into b, which must be at least DirEntrySize bytes.
// Names are truncated to fit the NUL-terminated name field.
func (e *DirEntry) Encode(b []byte) {
	_ = b[DirEntrySize-1]
	e.Stat.Encode(b[:StatSize])
	putCString(b[StatSize:DirEntrySize], e.Name)
}

// Decode reads the entry from b, which must be at least DirEntrySize bytes.
func (e *DirEntry) Decode(b []byte) {
	_ = b[DirEntrySize-1]
	e.Stat.Decode(b[:StatSize])
	e.Name = cString(b[StatSize:DirEntrySize])
}

var fsEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeToFS converts a host time into FS time.
func TimeToFS(t time.Time) int64 {
	return t.Sub(fsEpoch).Microseconds()
}

// TimeFromFS converts FS time into a host time.
func TimeFromFS(v int64) time.Time {
	return fsEpoch.Add(time.Duration(v) * time.Microsecond)
}
