package device

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cafefs/pkg/fsa"
)

var shim fsa.Shim

func newDevice(t *testing.T, opts ...Option) (*Device, fsa.ClientHandle) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/vol/save", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/vol/save/game.dat", []byte("0123456789abcdef"), 0o660))

	d := New(mem, opts...)
	t.Cleanup(func() { _ = d.Close() })

	h, err := d.OpenClient()
	require.NoError(t, err)
	return d, h
}

// exec submits buf and waits for its completion.
func exec(t *testing.T, d *Device, buf *fsa.ShimBuffer) fsa.Status {
	t.Helper()
	done := make(chan fsa.Status, 1)
	d.Submit(buf, func(st fsa.Status) { done <- st })
	select {
	case st := <-done:
		return st
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
		return 0
	}
}

func openTestFile(t *testing.T, d *Device, h fsa.ClientHandle, path, mode string) fsa.FileHandle {
	t.Helper()
	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareOpenFile(&buf, h, path, mode, 0x660, 0, 0))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	return fsa.FileHandle(buf.ResponseWord())
}

func TestChangeDirAndGetCwd(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareChangeDir(&buf, h, "/vol/save"))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareGetCwd(&buf, h))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	assert.Equal(t, "/vol/save", buf.Cwd())

	require.Equal(t, fsa.StatusOK, shim.PrepareChangeDir(&buf, h, "/vol/missing"))
	assert.Equal(t, fsa.StatusNotFound, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareChangeDir(&buf, h, "game.dat"))
	assert.Equal(t, fsa.StatusNotDir, exec(t, d, &buf))
}

func TestMakeDirRemoveRename(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)
	mem := d.Fs()

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareMakeDir(&buf, h, "/vol/save/slot1", 0x660))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	info, err := mem.Stat("/vol/save/slot1")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, fsa.StatusAlreadyExists, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareMakeDir(&buf, h, "/nope/slot", 0x660))
	assert.Equal(t, fsa.StatusNotFound, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareRemove(&buf, h, "/vol/save"))
	assert.Equal(t, fsa.StatusNotEmpty, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareRename(&buf, h, "/vol/save/game.dat", "/vol/save/slot1/game.dat"))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	exists, err := afero.Exists(mem, "/vol/save/slot1/game.dat")
	require.NoError(t, err)
	assert.True(t, exists)

	require.Equal(t, fsa.StatusOK, shim.PrepareRename(&buf, h, "/vol/save/game.dat", "/vol/x"))
	assert.Equal(t, fsa.StatusNotFound, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareRemove(&buf, h, "/vol/save/slot1/game.dat"))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	require.Equal(t, fsa.StatusOK, shim.PrepareRemove(&buf, h, "/vol/save/slot1"))
	assert.Equal(t, fsa.StatusOK, exec(t, d, &buf))
}

func TestReadDir(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)
	require.NoError(t, afero.WriteFile(d.Fs(), "/vol/save/a.txt", []byte("x"), 0o644))

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareOpenDir(&buf, h, "/vol/save"))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	dir := fsa.DirHandle(buf.ResponseWord())
	require.NotZero(t, dir)

	var names []string
	for {
		require.Equal(t, fsa.StatusOK, shim.PrepareReadDir(&buf, h, dir))
		st := exec(t, d, &buf)
		if st == fsa.StatusEndOfDir {
			break
		}
		require.Equal(t, fsa.StatusOK, st)
		var e fsa.DirEntry
		buf.DirEntry(&e)
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.txt", "game.dat"}, names)

	require.Equal(t, fsa.StatusOK, shim.PrepareCloseDir(&buf, h, dir))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	assert.Equal(t, fsa.StatusInvalidDirHandle, exec(t, d, &buf))
}

func TestReadFileChunks(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)
	fh := openTestFile(t, d, h, "/vol/save/game.dat", "r")

	data := make([]byte, 10)
	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareReadFile(&buf, h, data, 10, 1, 0, fh, 0))
	require.Equal(t, fsa.Status(10), exec(t, d, &buf))
	assert.Equal(t, "0123456789", string(data))

	// Short read at end of file.
	require.Equal(t, fsa.StatusOK, shim.PrepareReadFile(&buf, h, data, 10, 1, 0, fh, 0))
	require.Equal(t, fsa.Status(6), exec(t, d, &buf))
	assert.Equal(t, "abcdef", string(data[:6]))

	// Nothing left.
	assert.Equal(t, fsa.Status(0), exec(t, d, &buf))

	// Positioned read ignores the current position.
	require.Equal(t, fsa.StatusOK, shim.PrepareReadFile(&buf, h, data, 4, 1, 2, fh, fsa.ReadWithPos))
	require.Equal(t, fsa.Status(4), exec(t, d, &buf))
	assert.Equal(t, "2345", string(data[:4]))

	require.Equal(t, fsa.StatusOK, shim.PrepareGetPosFile(&buf, h, fh))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	assert.Equal(t, uint32(6), buf.ResponseWord())
}

func TestWriteFileAndStat(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)
	fh := openTestFile(t, d, h, "/vol/save/new.bin", "w+")

	payload := []byte("hello world!")
	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareWriteFile(&buf, h, payload, 4, 3, 0, fh, 0))
	require.Equal(t, fsa.Status(12), exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareWriteFile(&buf, h, []byte("J"), 1, 1, 0, fh, fsa.WriteWithPos))
	require.Equal(t, fsa.Status(1), exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareStatFile(&buf, h, fh))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	var st fsa.Stat
	buf.Stat(&st)
	assert.Equal(t, uint32(12), st.Size)
	assert.False(t, st.IsDir())

	require.Equal(t, fsa.StatusOK, shim.PrepareCloseFile(&buf, h, fh))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))

	got, err := afero.ReadFile(d.Fs(), "/vol/save/new.bin")
	require.NoError(t, err)
	assert.Equal(t, "Jello world!", string(got))
}

func TestAppendMode(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)
	fh := openTestFile(t, d, h, "/vol/save/game.dat", "a")

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareWriteFile(&buf, h, []byte("!"), 1, 1, 0, fh, fsa.WriteWithPos))
	require.Equal(t, fsa.Status(1), exec(t, d, &buf))

	got, err := afero.ReadFile(d.Fs(), "/vol/save/game.dat")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef!", string(got))

	// Write-only handles refuse reads.
	require.Equal(t, fsa.StatusOK, shim.PrepareReadFile(&buf, h, make([]byte, 1), 1, 1, 0, fh, 0))
	assert.Equal(t, fsa.StatusAccessError, exec(t, d, &buf))
}

func TestOpenFileErrors(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)

	tests := []struct {
		name string
		path string
		mode string
		want fsa.Status
	}{
		{name: "Missing", path: "/vol/save/none", mode: "r", want: fsa.StatusNotFound},
		{name: "Directory", path: "/vol/save", mode: "r", want: fsa.StatusNotFile},
		{name: "BadMode", path: "/vol/save/game.dat", mode: "x", want: fsa.StatusInvalidParam},
		{name: "BinaryMode", path: "/vol/save/game.dat", mode: "rb", want: fsa.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf fsa.ShimBuffer
			require.Equal(t, fsa.StatusOK, shim.PrepareOpenFile(&buf, h, tt.path, tt.mode, 0x660, 0, 0))
			assert.Equal(t, tt.want, exec(t, d, &buf))
		})
	}
}

func TestStorageFull(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t, WithCapacity(20))
	fh := openTestFile(t, d, h, "/vol/save/big.bin", "w")

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareWriteFile(&buf, h, make([]byte, 8), 8, 1, 0, fh, 0))
	assert.Equal(t, fsa.StatusStorageFull, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(&buf, h, "/", fsa.QueryFreeSpaceSize))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	assert.Equal(t, uint64(4), buf.FreeSpace())
}

func TestGetInfoByQuery(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(&buf, h, "/vol/save", fsa.QueryStat))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	var st fsa.Stat
	buf.Stat(&st)
	assert.True(t, st.IsDir())

	require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(&buf, h, "/vol/save", fsa.QueryDirSize))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	assert.Equal(t, uint64(16), buf.FreeSpace())

	require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(&buf, h, "/vol/save", fsa.QueryEntryNum))
	require.Equal(t, fsa.StatusOK, exec(t, d, &buf))
	assert.Equal(t, uint32(1), buf.ResponseWord())

	require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(&buf, h, "/vol/save", fsa.QueryDeviceInfo))
	assert.Equal(t, fsa.StatusUnsupportedCmd, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(&buf, h, "/vol/none", fsa.QueryStat))
	assert.Equal(t, fsa.StatusNotFound, exec(t, d, &buf))
}

func TestUnknownClientAndEmulatedError(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t)

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareGetCwd(&buf, h+100))
	assert.Equal(t, fsa.StatusInvalidClientHandle, exec(t, d, &buf))

	require.Equal(t, fsa.StatusOK, shim.PrepareGetCwd(&buf, h))
	buf.SetEmulatedError(fsa.StatusMediaError)
	assert.Equal(t, fsa.StatusMediaError, exec(t, d, &buf))
}

func TestClientRegistration(t *testing.T) {
	t.Parallel()
	d := New(afero.NewMemMapFs(), WithMaxClients(2))

	a, err := d.OpenClient()
	require.NoError(t, err)
	_, err = d.OpenClient()
	require.NoError(t, err)

	_, err = d.OpenClient()
	assert.ErrorIs(t, err, fsa.StatusMaxClients.Err())

	require.NoError(t, d.CloseClient(a))
	assert.Error(t, d.CloseClient(a))

	require.NoError(t, d.Close())
	_, err = d.OpenClient()
	assert.ErrorIs(t, err, ErrClosed)

	var buf fsa.ShimBuffer
	require.Equal(t, fsa.StatusOK, shim.PrepareGetCwd(&buf, a))
	assert.Equal(t, fsa.StatusMediaNotReady, exec(t, d, &buf))
}

func TestWorkerPool(t *testing.T) {
	t.Parallel()
	d, h := newDevice(t, WithWorkers(4))

	var wg sync.WaitGroup
	results := make([]fsa.Status, 32)
	for i := range results {
		i := i
		wg.Add(1)
		buf := new(fsa.ShimBuffer)
		require.Equal(t, fsa.StatusOK, shim.PrepareGetInfoByQuery(buf, h, "/vol/save/game.dat", fsa.QueryStat))
		d.Submit(buf, func(st fsa.Status) {
			results[i] = st
			wg.Done()
		})
	}
	wg.Wait()

	for _, st := range results {
		assert.Equal(t, fsa.StatusOK, st)
	}
}

func TestPermissionConversion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, os.FileMode(0o660), HostPerm(0x660))
	assert.Equal(t, os.FileMode(0o644), HostPerm(0x644))
	assert.Equal(t, os.FileMode(0o600), HostPerm(0x700))
	assert.Equal(t, uint32(0x644), ConsolePerm(0o755))
	assert.Equal(t, uint32(0x660), ConsolePerm(HostPerm(0x660)))
}

func TestParseOpenMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"r", "w", "a", "r+", "w+", "a+", "rb", "r+b", "rb+", "wb"} {
		_, ok := parseOpenMode(mode)
		assert.True(t, ok, mode)
	}
	for _, mode := range []string{"", "x", "rw", "r++", "+"} {
		_, ok := parseOpenMode(mode)
		assert.False(t, ok, mode)
	}

	m, _ := parseOpenMode("a+")
	assert.True(t, m.read)
	assert.True(t, m.write)
	assert.True(t, m.append)
	assert.Equal(t, os.O_RDWR|os.O_CREATE|os.O_APPEND, m.flag)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	d, _ := newDevice(t)
	assert.Equal(t, "fsa-device", d.Name())
	assert.NoError(t, d.Healthcheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Healthcheck(ctx), context.Canceled)

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Healthcheck(context.Background()), ErrClosed)
}
