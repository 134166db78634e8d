package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/bufpool"
	"github.com/marmos91/cafefs/pkg/fs"
)

// userErrors are the statuses a command-line user can cause and recover
// from. Anything else latches the client.
const userErrors = fs.ErrorFlagMax |
	fs.ErrorFlagAlreadyOpen |
	fs.ErrorFlagExists |
	fs.ErrorFlagNotFound |
	fs.ErrorFlagNotFile |
	fs.ErrorFlagNotDirectory |
	fs.ErrorFlagAccessError |
	fs.ErrorFlagPermissionError |
	fs.ErrorFlagFileTooBig |
	fs.ErrorFlagStorageFull

// OpError reports a failed volume operation.
type OpError struct {
	Op     string
	Path   string
	Status fs.Status
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Status)
}

// IsStatus reports whether err is an OpError carrying st.
func IsStatus(err error, st fs.Status) bool {
	var oe *OpError
	return errors.As(err, &oe) && oe.Status == st
}

// Volume runs whole-file and whole-directory operations through a Client.
// Each call uses its own command block, so a Volume is safe for concurrent
// use.
type Volume struct {
	client *fs.Client
}

// NewVolume wraps client.
func NewVolume(client *fs.Client) *Volume {
	return &Volume{client: client}
}

// Client returns the underlying client.
func (v *Volume) Client() *fs.Client {
	return v.client
}

func (v *Volume) check(op, p string, st fs.Status) error {
	if st >= fs.StatusOK {
		return nil
	}
	if st == fs.StatusFatalError {
		return fmt.Errorf("%s %s: %w (reason: %s)", op, p, &OpError{Op: op, Path: p, Status: st}, v.client.LastError())
	}
	return &OpError{Op: op, Path: p, Status: st}
}

// Stat returns the status record of p.
func (v *Volume) Stat(p string) (fs.Stat, error) {
	var block fs.CmdBlock
	var st fs.Stat
	return st, v.check("stat", p, v.client.GetStat(&block, p, &st, userErrors))
}

// StatResult is one entry of StatMany.
type StatResult struct {
	Path string
	Stat fs.Stat
	Err  error
}

// StatMany issues one asynchronous stat per path and collects the results
// in path order.
func (v *Volume) StatMany(ctx context.Context, paths []string) ([]StatResult, error) {
	results := make([]StatResult, len(paths))
	blocks := make([]fs.CmdBlock, len(paths))
	ch := make(chan *fs.AsyncResult, len(paths))

	pending := 0
	for i, p := range paths {
		results[i].Path = p
		st := v.client.GetStatAsync(&blocks[i], p, &results[i].Stat, userErrors, fs.Queue{C: ch, Context: i})
		if st != fs.StatusOK {
			results[i].Err = v.check("stat", p, st)
			continue
		}
		pending++
	}

	for ; pending > 0; pending-- {
		res, err := fs.GetAsyncResult(ctx, ch)
		if err != nil {
			return nil, err
		}
		i := res.Context.(int)
		results[i].Err = v.check("stat", paths[i], res.Status)
	}
	return results, nil
}

// List returns the entries of directory p.
func (v *Volume) List(p string) ([]fs.DirEntry, error) {
	var block fs.CmdBlock
	var h fs.DirHandle
	if err := v.check("opendir", p, v.client.OpenDir(&block, p, &h, userErrors)); err != nil {
		return nil, err
	}

	var entries []fs.DirEntry
	var readErr error
	for {
		var e fs.DirEntry
		st := v.client.ReadDir(&block, h, &e, userErrors)
		if st == fs.StatusEnd {
			break
		}
		if readErr = v.check("readdir", p, st); readErr != nil {
			break
		}
		entries = append(entries, e)
	}

	closeErr := v.check("closedir", p, v.client.CloseDir(&block, h, userErrors))
	if readErr != nil {
		return nil, readErr
	}
	return entries, closeErr
}

// Cwd returns the client's working directory.
func (v *Volume) Cwd() (string, error) {
	var block fs.CmdBlock
	buf := make([]byte, fs.MaxPathLength)
	if err := v.check("getcwd", "", v.client.GetCwd(&block, buf, userErrors)); err != nil {
		return "", err
	}
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}

// ChangeDir sets the client's working directory.
func (v *Volume) ChangeDir(p string) error {
	var block fs.CmdBlock
	return v.check("chdir", p, v.client.ChangeDir(&block, p, userErrors))
}

// MakeDir creates directory p.
func (v *Volume) MakeDir(p string) error {
	var block fs.CmdBlock
	return v.check("mkdir", p, v.client.MakeDir(&block, p, userErrors))
}

// MakeDirAll creates p and any missing parents. Existing directories are
// not an error.
func (v *Volume) MakeDirAll(p string) error {
	p = path.Clean(p)
	if p == "/" || p == "." {
		return nil
	}
	if err := v.MakeDirAll(path.Dir(p)); err != nil {
		return err
	}
	err := v.MakeDir(p)
	if IsStatus(err, fs.StatusExists) {
		st, statErr := v.Stat(p)
		if statErr != nil {
			return statErr
		}
		if !st.IsDir() {
			return &OpError{Op: "mkdir", Path: p, Status: fs.StatusNotDirectory}
		}
		return nil
	}
	return err
}

// Remove deletes a file or an empty directory.
func (v *Volume) Remove(p string) error {
	var block fs.CmdBlock
	return v.check("remove", p, v.client.Remove(&block, p, userErrors))
}

// RemoveAll deletes p and everything below it.
func (v *Volume) RemoveAll(p string) error {
	st, err := v.Stat(p)
	if err != nil {
		return err
	}
	if st.IsDir() {
		entries, err := v.List(p)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := v.RemoveAll(path.Join(p, e.Name)); err != nil {
				return err
			}
		}
	}
	return v.Remove(p)
}

// Rename moves oldPath to newPath.
func (v *Volume) Rename(oldPath, newPath string) error {
	var block fs.CmdBlock
	return v.check("rename", oldPath, v.client.Rename(&block, oldPath, newPath, userErrors))
}

// FreeSpace returns the free bytes of the volume holding p.
func (v *Volume) FreeSpace(p string) (uint64, error) {
	var block fs.CmdBlock
	var n uint64
	return n, v.check("freespace", p, v.client.GetFreeSpaceSize(&block, p, &n, userErrors))
}

// DirSize returns the bytes used below directory p.
func (v *Volume) DirSize(p string) (uint64, error) {
	var block fs.CmdBlock
	var n uint64
	return n, v.check("dirsize", p, v.client.GetDirSize(&block, p, &n, userErrors))
}

// EntryNum returns the number of entries in directory p.
func (v *Volume) EntryNum(p string) (uint32, error) {
	var block fs.CmdBlock
	var n uint32
	return n, v.check("entrynum", p, v.client.GetEntryNum(&block, p, &n, userErrors))
}

// ReadTo copies file p into w and returns the bytes copied.
func (v *Volume) ReadTo(p string, w io.Writer) (int64, error) {
	var block fs.CmdBlock
	var h fs.FileHandle
	if err := v.check("open", p, v.client.OpenFile(&block, p, "r", &h, userErrors)); err != nil {
		return 0, err
	}
	defer v.closeFile(p, h)

	buf := bufpool.Get(bufpool.DefaultTripSize)
	defer bufpool.Put(buf)

	var total int64
	for {
		// One element spanning the whole buffer: the client splits it into
		// per-request trips and a short final read still reports its bytes.
		st := v.client.ReadFile(&block, buf, uint32(len(buf)), 1, h, fs.ReadFlagNone, userErrors)
		if err := v.check("read", p, st); err != nil {
			return total, err
		}
		read := block.Progress().BytesTransferred
		if read == 0 {
			return total, nil
		}
		n, err := w.Write(buf[:read])
		total += int64(n)
		if err != nil {
			return total, err
		}
		if st == 0 {
			return total, nil
		}
	}
}

// WriteFrom creates or truncates file p with the contents of r and returns
// the bytes written.
func (v *Volume) WriteFrom(p string, r io.Reader) (int64, error) {
	var block fs.CmdBlock
	var h fs.FileHandle
	if err := v.check("open", p, v.client.OpenFile(&block, p, "w", &h, userErrors)); err != nil {
		return 0, err
	}
	defer v.closeFile(p, h)

	buf := bufpool.Get(bufpool.DefaultTripSize)
	defer bufpool.Put(buf)

	var total int64
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			st := v.client.WriteFile(&block, buf[:n], uint32(n), 1, h, fs.WriteFlagNone, userErrors)
			if err := v.check("write", p, st); err != nil {
				return total, err
			}
			written := block.Progress().BytesTransferred
			total += int64(written)
			if int(written) != n {
				return total, fmt.Errorf("write %s: short write (%d of %d bytes)", p, written, n)
			}
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			return total, nil
		default:
			return total, readErr
		}
	}
}

func (v *Volume) closeFile(p string, h fs.FileHandle) {
	var block fs.CmdBlock
	if err := v.check("close", p, v.client.CloseFile(&block, h, userErrors)); err != nil {
		logger.Warn("Close failed", logger.Path(p), logger.Err(err))
	}
}
