package device

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/marmos91/cafefs/internal/logger"
	"github.com/marmos91/cafefs/pkg/fsa"
)

// ============================================================================
// Error Mapping - host errors → FSA status codes
// ============================================================================

// mapHostError translates a host filesystem error into an FSA status.
//
// Error Mapping:
//   - fs.ErrNotExist → StatusNotFound
//   - fs.ErrExist → StatusAlreadyExists
//   - fs.ErrPermission → StatusPermissionError
//   - ENOTDIR → StatusNotDir
//   - EISDIR → StatusNotFile
//   - ENOTEMPTY → StatusNotEmpty
//   - ENOSPC → StatusStorageFull
//   - EROFS → StatusWriteProtected
//   - EFBIG → StatusFileTooBig
//   - other → StatusMediaError
//
// Caller mistakes are logged at warn level; anything that points at the
// host is logged as an error.
func mapHostError(err error, cmd fsa.Command, path string) fsa.Status {
	if err == nil {
		return fsa.StatusOK
	}

	var st fsa.Status
	switch {
	case errors.Is(err, fs.ErrNotExist):
		st = fsa.StatusNotFound
	case errors.Is(err, fs.ErrExist):
		st = fsa.StatusAlreadyExists
	case errors.Is(err, fs.ErrPermission):
		st = fsa.StatusPermissionError
	case errors.Is(err, syscall.ENOTDIR):
		st = fsa.StatusNotDir
	case errors.Is(err, syscall.EISDIR):
		st = fsa.StatusNotFile
	case errors.Is(err, syscall.ENOTEMPTY):
		st = fsa.StatusNotEmpty
	case errors.Is(err, syscall.ENOSPC):
		logger.Error("Host storage full", logger.Command(cmd), logger.Path(path), logger.Err(err))
		return fsa.StatusStorageFull
	case errors.Is(err, syscall.EROFS):
		st = fsa.StatusWriteProtected
	case errors.Is(err, syscall.EFBIG):
		st = fsa.StatusFileTooBig
	default:
		logger.Error("Host I/O failed", logger.Command(cmd), logger.Path(path), logger.Err(err))
		return fsa.StatusMediaError
	}

	logger.Warn("FSA request failed", logger.Command(cmd), logger.Path(path),
		logger.FSAStatus(st), logger.Err(err))
	return st
}
