package fsa

import (
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatOffsets(t *testing.T) {
	t.Parallel()

	st := Stat{
		Flags:     StatDirectory,
		Mode:      0x660,
		Owner:     0x1000,
		Group:     0x400,
		Size:      0x12345678,
		AllocSize: 0x20000,
		QuotaSize: 0x0102030405060708,
		EntryID:   77,
		Created:   0x1111,
		Modified:  -2,
	}

	b := make([]byte, StatSize)
	st.Encode(b)

	assert.Equal(t, uint32(0x80000000), binary.BigEndian.Uint32(b[0x00:]))
	assert.Equal(t, uint32(0x660), binary.BigEndian.Uint32(b[0x04:]))
	assert.Equal(t, uint32(0x1000), binary.BigEndian.Uint32(b[0x08:]))
	assert.Equal(t, uint32(0x400), binary.BigEndian.Uint32(b[0x0C:]))
	assert.Equal(t, uint32(0x12345678), binary.BigEndian.Uint32(b[0x10:]))
	assert.Equal(t, uint32(0x20000), binary.BigEndian.Uint32(b[0x14:]))
	assert.Equal(t, uint64(0x0102030405060708), binary.BigEndian.Uint64(b[0x18:]))
	assert.Equal(t, uint32(77), binary.BigEndian.Uint32(b[0x20:]))
	assert.Equal(t, uint64(0x1111), binary.BigEndian.Uint64(b[0x24:]))
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFE), binary.BigEndian.Uint64(b[0x2C:]))
	assert.Equal(t, make([]byte, StatSize-0x34), b[0x34:])

	var got Stat
	got.Decode(b)
	assert.Equal(t, st, got)
	assert.True(t, got.IsDir())
}

func TestDirEntryName(t *testing.T) {
	t.Parallel()

	b := make([]byte, DirEntrySize)
	e := DirEntry{Stat: Stat{Size: 9}, Name: "save.dat"}
	e.Encode(b)

	assert.Equal(t, byte('s'), b[0x64])
	assert.Equal(t, byte(0), b[0x64+len("save.dat")])

	var got DirEntry
	got.Decode(b)
	assert.Equal(t, e, got)

	long := DirEntry{Name: strings.Repeat("x", 300)}
	long.Encode(b)
	got.Decode(b)
	assert.Len(t, got.Name, DirEntryNameSize-1)
}

func TestFSTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), TimeToFS(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1_000_000), TimeToFS(time.Date(2000, 1, 1, 0, 0, 1, 0, time.UTC)))

	ts := time.Date(2017, 3, 3, 12, 0, 0, 0, time.UTC)
	assert.True(t, ts.Equal(TimeFromFS(TimeToFS(ts))))
}
