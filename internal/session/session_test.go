package session

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cafefs/pkg/config"
	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/mcp"
)

func memoryConfig() *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.FS.Backend = "memory"
	cfg.FS.Root = ""
	cfg.FS.MaxBytesPerRequest = 0x1000
	cfg.MCP.Store = "memory"
	cfg.MCP.Path = ""
	return cfg
}

func openSession(t *testing.T) (*Session, *Volume) {
	t.Helper()
	s, err := Open(context.Background(), memoryConfig(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, NewVolume(s.Client)
}

func TestOpenSession(t *testing.T) {
	s, _ := openSession(t)

	assert.Nil(t, s.Server())
	assert.Equal(t, uint32(0x1000), s.Client.MaxBytesPerRequest())
	assert.Len(t, s.Checkers(), 2)
	for _, c := range s.Checkers() {
		assert.NoError(t, c.Healthcheck(context.Background()), c.Name())
	}

	h := s.Settings.Open()
	var out mcp.SysProdSettings
	assert.Equal(t, mcp.ErrorOK, s.Settings.GetSysProdSettings(context.Background(), h, &out))
	assert.Equal(t, mcp.RegionUSA, out.GameRegion)

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}

func TestVolumeFileRoundTrip(t *testing.T) {
	_, v := openSession(t)

	payload := bytes.Repeat([]byte("cafe"), 5000)
	require.NoError(t, v.MakeDirAll("/vol/save/slot1"))

	n, err := v.WriteFrom("/vol/save/slot1/game.dat", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	var out bytes.Buffer
	n, err = v.ReadTo("/vol/save/slot1/game.dat", &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, out.Bytes())

	st, err := v.Stat("/vol/save/slot1/game.dat")
	require.NoError(t, err)
	assert.Equal(t, uint32(len(payload)), st.Size)
	assert.False(t, st.IsDir())

	entries, err := v.EntryNum("/vol/save/slot1")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), entries)

	used, err := v.DirSize("/vol/save")
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), used)

	free, err := v.FreeSpace("/vol")
	require.NoError(t, err)
	assert.Less(t, free, uint64(1<<30))
}

func TestVolumeInlineLargeFile(t *testing.T) {
	cfg := memoryConfig()
	cfg.FS.Workers = 0
	s, err := Open(context.Background(), cfg, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	v := NewVolume(s.Client)

	payload := bytes.Repeat([]byte("0123456789abcdef"), (1<<20)/16+3)
	n, err := v.WriteFrom("/big.bin", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	var out bytes.Buffer
	n, err = v.ReadTo("/big.bin", &out)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, out.Bytes())
}

func TestVolumeEmptyFile(t *testing.T) {
	_, v := openSession(t)

	n, err := v.WriteFrom("/empty", strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)

	var out bytes.Buffer
	n, err = v.ReadTo("/empty", &out)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVolumeDirectories(t *testing.T) {
	_, v := openSession(t)

	require.NoError(t, v.MakeDirAll("/a/b"))
	require.NoError(t, v.MakeDirAll("/a/b"))
	_, err := v.WriteFrom("/a/b/one", strings.NewReader("1"))
	require.NoError(t, err)
	_, err = v.WriteFrom("/a/two", strings.NewReader("2"))
	require.NoError(t, err)

	entries, err := v.List("/a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Name)
	assert.True(t, entries[0].Stat.IsDir())
	assert.Equal(t, "two", entries[1].Name)

	require.NoError(t, v.ChangeDir("/a/b"))
	cwd, err := v.Cwd()
	require.NoError(t, err)
	assert.Equal(t, "/a/b", cwd)

	require.NoError(t, v.Rename("/a/two", "/a/three"))
	_, err = v.Stat("/a/two")
	assert.True(t, IsStatus(err, fs.StatusNotFound))

	err = v.MakeDirAll("/a/three/x")
	assert.Error(t, err)

	require.NoError(t, v.RemoveAll("/a"))
	_, err = v.Stat("/a")
	assert.True(t, IsStatus(err, fs.StatusNotFound))
	assert.False(t, v.Client().IsFatal())
}

func TestVolumeUserErrorsDoNotLatch(t *testing.T) {
	_, v := openSession(t)

	var out bytes.Buffer
	_, err := v.ReadTo("/missing", &out)
	require.Error(t, err)
	assert.True(t, IsStatus(err, fs.StatusNotFound))
	assert.Contains(t, err.Error(), "open /missing: NotFound")

	require.NoError(t, v.MakeDir("/dir"))
	assert.True(t, IsStatus(v.MakeDir("/dir"), fs.StatusExists))
	assert.False(t, v.Client().IsFatal())
}

func TestVolumeStatMany(t *testing.T) {
	_, v := openSession(t)

	_, err := v.WriteFrom("/x", strings.NewReader("xx"))
	require.NoError(t, err)
	require.NoError(t, v.MakeDir("/y"))

	results, err := v.StatMany(context.Background(), []string{"/x", "/missing", "/y", ""})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, uint32(2), results[0].Stat.Size)
	assert.True(t, IsStatus(results[1].Err, fs.StatusNotFound))
	assert.NoError(t, results[2].Err)
	assert.True(t, results[2].Stat.IsDir())
	// An empty path is rejected before submission and latches the client.
	assert.True(t, IsStatus(results[3].Err, fs.StatusFatalError))
	assert.True(t, v.Client().IsFatal())
}
