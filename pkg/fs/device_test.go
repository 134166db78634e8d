package fs_test

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/fsa"
	"github.com/marmos91/cafefs/pkg/fsa/device"
)

func newDeviceClient(t *testing.T, opts ...fs.Option) (*fs.Client, *device.Device) {
	t.Helper()

	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/vol/save", 0o755))

	d := device.New(mem, device.WithWorkers(4))
	t.Cleanup(func() { _ = d.Close() })

	c, err := fs.NewClient(d, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, d
}

func TestDeviceRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newDeviceClient(t, fs.WithMaxBytesPerRequest(1024))
	var block fs.CmdBlock

	require.Equal(t, fs.StatusOK, c.ChangeDir(&block, "/vol/save", fs.ErrorFlagNone))
	cwd := make([]byte, fs.MaxPathLength)
	require.Equal(t, fs.StatusOK, c.GetCwd(&block, cwd, fs.ErrorFlagNone))
	assert.Equal(t, "/vol/save", string(cwd[:bytes.IndexByte(cwd, 0)]))

	require.Equal(t, fs.StatusOK, c.MakeDir(&block, "slot1", fs.ErrorFlagNone))
	assert.Equal(t, fs.StatusExists, c.MakeDir(&block, "slot1", fs.ErrorFlagExists))

	data := bytes.Repeat([]byte("cafe"), 2500)
	var fh fs.FileHandle
	require.Equal(t, fs.StatusOK, c.OpenFile(&block, "slot1/game.dat", "w", &fh, fs.ErrorFlagNone))
	require.Equal(t, fs.Status(10), c.WriteFile(&block, data, 1000, 10, fh, fs.WriteFlagNone, fs.ErrorFlagNone))

	var st fs.Stat
	require.Equal(t, fs.StatusOK, c.GetStatFile(&block, fh, &st, fs.ErrorFlagNone))
	assert.Equal(t, uint32(len(data)), st.Size)
	require.Equal(t, fs.StatusOK, c.CloseFile(&block, fh, fs.ErrorFlagNone))

	require.Equal(t, fs.StatusOK, c.OpenFile(&block, "slot1/game.dat", "r", &fh, fs.ErrorFlagNone))
	out := make([]byte, len(data))
	require.Equal(t, fs.Status(1), c.ReadFile(&block, out, uint32(len(out)), 1, fh, fs.ReadFlagNone, fs.ErrorFlagNone))
	assert.Equal(t, data, out)
	assert.Equal(t, 10, block.Progress().RoundTrips)

	// End of file is a short read, not an error.
	assert.Equal(t, fs.StatusOK, c.ReadFile(&block, out, 16, 1, fh, fs.ReadFlagNone, fs.ErrorFlagNone))

	tail := make([]byte, 4)
	require.Equal(t, fs.Status(4), c.ReadFileWithPos(&block, tail, 1, 4, 8, fh, fs.ReadFlagNone, fs.ErrorFlagNone))
	assert.Equal(t, "cafe", string(tail))

	var pos uint32
	require.Equal(t, fs.StatusOK, c.GetPosFile(&block, fh, &pos, fs.ErrorFlagNone))
	assert.Equal(t, uint32(12), pos)
	require.Equal(t, fs.StatusOK, c.SetPosFile(&block, fh, 0, fs.ErrorFlagNone))
	require.Equal(t, fs.StatusOK, c.GetPosFile(&block, fh, &pos, fs.ErrorFlagNone))
	assert.Zero(t, pos)
	require.Equal(t, fs.StatusOK, c.CloseFile(&block, fh, fs.ErrorFlagNone))

	require.Equal(t, fs.StatusOK, c.GetStat(&block, "slot1/game.dat", &st, fs.ErrorFlagNone))
	assert.Equal(t, uint32(len(data)), st.Size)

	var dirSize uint64
	require.Equal(t, fs.StatusOK, c.GetDirSize(&block, "slot1", &dirSize, fs.ErrorFlagNone))
	assert.Equal(t, uint64(len(data)), dirSize)

	var free uint64
	require.Equal(t, fs.StatusOK, c.GetFreeSpaceSize(&block, "/", &free, fs.ErrorFlagNone))
	assert.Equal(t, uint64(1<<30)-uint64(len(data)), free)

	assert.False(t, c.IsFatal())
}

func TestDeviceDirectoryIteration(t *testing.T) {
	t.Parallel()

	c, d := newDeviceClient(t)
	for _, name := range []string{"b.sav", "a.sav", "c.sav"} {
		require.NoError(t, afero.WriteFile(d.Fs(), "/vol/save/"+name, []byte(name), 0o660))
	}

	var block fs.CmdBlock
	var n uint32
	require.Equal(t, fs.StatusOK, c.GetEntryNum(&block, "/vol/save", &n, fs.ErrorFlagNone))
	assert.Equal(t, uint32(3), n)

	var dh fs.DirHandle
	require.Equal(t, fs.StatusOK, c.OpenDir(&block, "/vol/save", &dh, fs.ErrorFlagNone))

	var names []string
	for {
		var entry fs.DirEntry
		st := c.ReadDir(&block, dh, &entry, fs.ErrorFlagNone)
		if st == fs.StatusEnd {
			break
		}
		require.Equal(t, fs.StatusOK, st)
		names = append(names, entry.Name)
		assert.Equal(t, uint32(5), entry.Stat.Size)
	}
	assert.Equal(t, []string{"a.sav", "b.sav", "c.sav"}, names)
	require.Equal(t, fs.StatusOK, c.CloseDir(&block, dh, fs.ErrorFlagNone))
}

func TestDeviceRenameRemove(t *testing.T) {
	t.Parallel()

	c, d := newDeviceClient(t)
	require.NoError(t, afero.WriteFile(d.Fs(), "/vol/save/old.sav", []byte("x"), 0o660))

	var block fs.CmdBlock
	require.Equal(t, fs.StatusOK, c.Rename(&block, "/vol/save/old.sav", "/vol/save/new.sav", fs.ErrorFlagNone))
	assert.Equal(t, fs.StatusNotFound, c.Remove(&block, "/vol/save/old.sav", fs.ErrorFlagNotFound))

	assert.Equal(t, fs.StatusExists, c.Remove(&block, "/vol/save", fs.ErrorFlagExists))
	require.Equal(t, fs.StatusOK, c.Remove(&block, "/vol/save/new.sav", fs.ErrorFlagNone))
	require.Equal(t, fs.StatusOK, c.Remove(&block, "/vol/save", fs.ErrorFlagNone))

	var st fs.Stat
	assert.Equal(t, fs.StatusNotFound, c.GetStat(&block, "/vol/save", &st, fs.ErrorFlagNotFound))
	assert.False(t, c.IsFatal())
}

func TestDeviceUnmaskedErrorLatches(t *testing.T) {
	t.Parallel()

	c, _ := newDeviceClient(t)

	var block fs.CmdBlock
	var fh fs.FileHandle
	assert.Equal(t, fs.StatusFatalError, c.OpenFile(&block, "/vol/save/missing", "r", &fh, fs.ErrorFlagNone))
	assert.True(t, c.IsFatal())
	assert.Equal(t, fsa.StatusNotFound, c.LastError())

	assert.Equal(t, fs.StatusFatalError, c.ChangeDir(&block, "/vol", fs.ErrorFlagAll))
	c.ClearFatalError()
	assert.Equal(t, fs.StatusOK, c.ChangeDir(&block, "/vol", fs.ErrorFlagAll))
}

func TestDeviceConcurrentBlocks(t *testing.T) {
	t.Parallel()

	c, d := newDeviceClient(t)
	const n = 16
	for i := 0; i < n; i++ {
		require.NoError(t, afero.WriteFile(d.Fs(), "/vol/save/f"+string(rune('a'+i)), bytes.Repeat([]byte{byte(i)}, 64), 0o660))
	}

	blocks := make([]fs.CmdBlock, n)
	stats := make([]fs.Stat, n)
	ch := make(chan *fs.AsyncResult, n)
	for i := 0; i < n; i++ {
		path := "/vol/save/f" + string(rune('a'+i))
		require.Equal(t, fs.StatusOK, c.GetStatAsync(&blocks[i], path, &stats[i], fs.ErrorFlagNone, fs.Queue{C: ch, Context: i}))
	}

	for k := 0; k < n; k++ {
		res := <-ch
		assert.Equal(t, fs.StatusOK, res.Status)
		i := res.Context.(int)
		assert.Same(t, &blocks[i], res.Block)
		assert.Equal(t, uint32(64), stats[i].Size)
	}
}
