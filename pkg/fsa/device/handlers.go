package device

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/fsa"
)

type handler func(ctx context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status

var handlers = map[fsa.Command]handler{
	fsa.CommandChangeDir:      handleChangeDir,
	fsa.CommandGetCwd:         handleGetCwd,
	fsa.CommandMakeDir:        handleMakeDir,
	fsa.CommandRemove:         handleRemove,
	fsa.CommandRename:         handleRename,
	fsa.CommandOpenDir:        handleOpenDir,
	fsa.CommandReadDir:        handleReadDir,
	fsa.CommandCloseDir:       handleCloseDir,
	fsa.CommandOpenFile:       handleOpenFile,
	fsa.CommandReadFile:       handleReadFile,
	fsa.CommandWriteFile:      handleWriteFile,
	fsa.CommandGetPosFile:     handleGetPosFile,
	fsa.CommandSetPosFile:     handleSetPosFile,
	fsa.CommandStatFile:       handleStatFile,
	fsa.CommandCloseFile:      handleCloseFile,
	fsa.CommandGetInfoByQuery: handleGetInfoByQuery,
}

type openFile struct {
	mu   sync.Mutex
	file afero.File
	path string
	mode openMode
}

type openDir struct {
	path    string
	entries []os.FileInfo
	next    int
}

// resolve turns a request path into an absolute, cleaned path relative to
// the client's working directory. Caller holds c.mu.
func (c *client) resolve(p string) string {
	if !path.IsAbs(p) {
		p = path.Join(c.cwd, p)
	}
	return path.Clean(p)
}

// ============================================================================
// Directory commands
// ============================================================================

func handleChangeDir(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.resolve(buf.Path())
	info, err := d.fs.Stat(p)
	if err != nil {
		return mapHostError(err, buf.Command, p)
	}
	if !info.IsDir() {
		return fsa.StatusNotDir
	}
	c.cwd = p
	return fsa.StatusOK
}

func handleGetCwd(_ context.Context, _ *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf.SetCwd(c.cwd)
	return fsa.StatusOK
}

func handleMakeDir(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	p := c.resolve(buf.Path())
	c.mu.Unlock()

	if _, err := d.fs.Stat(p); err == nil {
		return fsa.StatusAlreadyExists
	}
	parent, err := d.fs.Stat(path.Dir(p))
	if err != nil {
		return mapHostError(err, buf.Command, p)
	}
	if !parent.IsDir() {
		return fsa.StatusNotDir
	}
	if err := d.fs.Mkdir(p, HostPerm(buf.Permission())|os.ModeDir); err != nil {
		return mapHostError(err, buf.Command, p)
	}
	return fsa.StatusOK
}

func handleRemove(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	p := c.resolve(buf.Path())
	c.mu.Unlock()

	if p == "/" {
		return fsa.StatusPermissionError
	}
	info, err := d.fs.Stat(p)
	if err != nil {
		return mapHostError(err, buf.Command, p)
	}
	if info.IsDir() {
		entries, err := afero.ReadDir(d.fs, p)
		if err != nil {
			return mapHostError(err, buf.Command, p)
		}
		if len(entries) > 0 {
			return fsa.StatusNotEmpty
		}
	}
	if err := d.fs.Remove(p); err != nil {
		return mapHostError(err, buf.Command, p)
	}
	return fsa.StatusOK
}

func handleRename(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	from := c.resolve(buf.Path())
	to := c.resolve(buf.NewPath())
	c.mu.Unlock()

	if _, err := d.fs.Stat(from); err != nil {
		return mapHostError(err, buf.Command, from)
	}
	if _, err := d.fs.Stat(to); err == nil {
		return fsa.StatusAlreadyExists
	}
	if err := d.fs.Rename(from, to); err != nil {
		return mapHostError(err, buf.Command, from)
	}
	return fsa.StatusOK
}

func handleOpenDir(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.resolve(buf.Path())
	info, err := d.fs.Stat(p)
	if err != nil {
		return mapHostError(err, buf.Command, p)
	}
	if !info.IsDir() {
		return fsa.StatusNotDir
	}

	entries, err := afero.ReadDir(d.fs, p)
	if err != nil {
		return mapHostError(err, buf.Command, p)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	h := fsa.DirHandle(d.allocHandle())
	c.dirs[h] = &openDir{path: p, entries: entries}
	buf.SetResponseWord(uint32(h))
	return fsa.StatusOK
}

func handleReadDir(_ context.Context, _ *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir, ok := c.dirs[fsa.DirHandle(buf.Handle())]
	if !ok {
		return fsa.StatusInvalidDirHandle
	}
	if dir.next >= len(dir.entries) {
		return fsa.StatusEndOfDir
	}

	info := dir.entries[dir.next]
	dir.next++

	entry := fsa.DirEntry{Stat: statFromInfo(info), Name: info.Name()}
	buf.SetDirEntry(&entry)
	return fsa.StatusOK
}

func handleCloseDir(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := fsa.DirHandle(buf.Handle())
	if _, ok := c.dirs[h]; !ok {
		return fsa.StatusInvalidDirHandle
	}
	delete(c.dirs, h)
	d.releaseHandles(1)
	return fsa.StatusOK
}

// ============================================================================
// File commands
// ============================================================================

func handleOpenFile(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	args := buf.OpenFileArgs()
	mode, ok := parseOpenMode(args.Mode)
	if !ok {
		logger.Warn("Invalid open mode", logger.KeyMode, args.Mode)
		return fsa.StatusInvalidParam
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.resolve(args.Path)
	if info, err := d.fs.Stat(p); err == nil && info.IsDir() {
		return fsa.StatusNotFile
	}

	f, err := d.fs.OpenFile(p, mode.flag, HostPerm(args.Unk1))
	if err != nil {
		return mapHostError(err, buf.Command, p)
	}

	h := fsa.FileHandle(d.allocHandle())
	c.files[h] = &openFile{file: f, path: p, mode: mode}
	buf.SetResponseWord(uint32(h))
	return fsa.StatusOK
}

func (c *client) file(h fsa.FileHandle) (*openFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[h]
	return f, ok
}

func handleReadFile(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	args := buf.Transfer()
	f, ok := c.file(args.Handle)
	if !ok {
		return fsa.StatusInvalidFileHandle
	}
	if !f.mode.read {
		return fsa.StatusAccessError
	}

	n := args.Bytes()
	if n > uint64(len(buf.Payload)) {
		return fsa.StatusInvalidBuffer
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if args.Flags&uint32(fsa.ReadWithPos) != 0 {
		if _, err := f.file.Seek(int64(args.Pos), io.SeekStart); err != nil {
			return mapHostError(err, buf.Command, f.path)
		}
	}

	read, err := io.ReadFull(f.file, buf.Payload[:n])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return mapHostError(err, buf.Command, f.path)
	}

	if d.metrics != nil {
		d.metrics.RecordTransfer(buf.Command, read)
	}
	return fsa.Status(read)
}

func handleWriteFile(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	args := buf.Transfer()
	f, ok := c.file(args.Handle)
	if !ok {
		return fsa.StatusInvalidFileHandle
	}
	if !f.mode.write {
		return fsa.StatusAccessError
	}

	n := args.Bytes()
	if n > uint64(len(buf.Payload)) {
		return fsa.StatusInvalidBuffer
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.mode.append:
		if _, err := f.file.Seek(0, io.SeekEnd); err != nil {
			return mapHostError(err, buf.Command, f.path)
		}
	case args.Flags&uint32(fsa.WriteWithPos) != 0:
		if _, err := f.file.Seek(int64(args.Pos), io.SeekStart); err != nil {
			return mapHostError(err, buf.Command, f.path)
		}
	}

	if st := d.reserve(f, n); st != fsa.StatusOK {
		return st
	}

	written, err := f.file.Write(buf.Payload[:n])
	if err != nil {
		return mapHostError(err, buf.Command, f.path)
	}

	if d.metrics != nil {
		d.metrics.RecordTransfer(buf.Command, written)
	}
	return fsa.Status(written)
}

// reserve reports StorageFull when writing n bytes at the current position
// of f would grow the volume past its capacity. Caller holds f.mu.
func (d *Device) reserve(f *openFile, n uint64) fsa.Status {
	pos, err := f.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return mapHostError(err, fsa.CommandWriteFile, f.path)
	}
	info, err := f.file.Stat()
	if err != nil {
		return mapHostError(err, fsa.CommandWriteFile, f.path)
	}

	end := uint64(pos) + n
	if end <= uint64(info.Size()) {
		return fsa.StatusOK
	}
	if end > 0xFFFFFFFF {
		return fsa.StatusFileTooBig
	}

	used, err := d.usage("/")
	if err != nil {
		return mapHostError(err, fsa.CommandWriteFile, f.path)
	}
	if used+end-uint64(info.Size()) > d.capacity {
		return fsa.StatusStorageFull
	}
	return fsa.StatusOK
}

func handleGetPosFile(_ context.Context, _ *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	f, ok := c.file(fsa.FileHandle(buf.Handle()))
	if !ok {
		return fsa.StatusInvalidFileHandle
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pos, err := f.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return mapHostError(err, buf.Command, f.path)
	}
	buf.SetResponseWord(uint32(pos))
	return fsa.StatusOK
}

func handleSetPosFile(_ context.Context, _ *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	f, ok := c.file(fsa.FileHandle(buf.Handle()))
	if !ok {
		return fsa.StatusInvalidFileHandle
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.file.Seek(int64(buf.Position()), io.SeekStart); err != nil {
		return mapHostError(err, buf.Command, f.path)
	}
	return fsa.StatusOK
}

func handleStatFile(_ context.Context, _ *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	f, ok := c.file(fsa.FileHandle(buf.Handle()))
	if !ok {
		return fsa.StatusInvalidFileHandle
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := f.file.Stat()
	if err != nil {
		return mapHostError(err, buf.Command, f.path)
	}
	st := statFromInfo(info)
	buf.SetStat(&st)
	return fsa.StatusOK
}

func handleCloseFile(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	h := fsa.FileHandle(buf.Handle())
	f, ok := c.files[h]
	delete(c.files, h)
	c.mu.Unlock()

	if !ok {
		return fsa.StatusInvalidFileHandle
	}
	d.releaseHandles(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.file.Close(); err != nil {
		return mapHostError(err, buf.Command, f.path)
	}
	return fsa.StatusOK
}

// ============================================================================
// Queries
// ============================================================================

func handleGetInfoByQuery(_ context.Context, d *Device, c *client, buf *fsa.ShimBuffer) fsa.Status {
	c.mu.Lock()
	p := c.resolve(buf.Path())
	c.mu.Unlock()

	switch buf.QueryType() {
	case fsa.QueryFreeSpaceSize:
		used, err := d.usage("/")
		if err != nil {
			return mapHostError(err, buf.Command, p)
		}
		free := uint64(0)
		if used < d.capacity {
			free = d.capacity - used
		}
		buf.SetFreeSpace(free)

	case fsa.QueryDirSize:
		size, err := d.usage(p)
		if err != nil {
			return mapHostError(err, buf.Command, p)
		}
		buf.SetFreeSpace(size)

	case fsa.QueryEntryNum:
		entries, err := afero.ReadDir(d.fs, p)
		if err != nil {
			return mapHostError(err, buf.Command, p)
		}
		buf.SetResponseWord(uint32(len(entries)))

	case fsa.QueryStat:
		info, err := d.fs.Stat(p)
		if err != nil {
			return mapHostError(err, buf.Command, p)
		}
		st := statFromInfo(info)
		buf.SetStat(&st)

	default:
		return fsa.StatusUnsupportedCmd
	}
	return fsa.StatusOK
}

// usage sums the sizes of all regular files under root.
func (d *Device) usage(root string) (uint64, error) {
	var total uint64
	err := afero.Walk(d.fs, root, func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			total += uint64(info.Size())
		}
		return nil
	})
	return total, err
}

func statFromInfo(info os.FileInfo) fsa.Stat {
	st := fsa.Stat{
		Mode:     ConsolePerm(info.Mode()),
		Size:     uint32(info.Size()),
		Modified: fsa.TimeToFS(info.ModTime()),
		Created:  fsa.TimeToFS(info.ModTime()),
	}
	if info.IsDir() {
		st.Flags |= fsa.StatDirectory
		st.Size = 0
	} else {
		st.AllocSize = uint32(info.Size())
	}
	return st
}
