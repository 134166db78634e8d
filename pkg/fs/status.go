package fs

import (
	"fmt"

	"github.com/marmos91/cafefs/pkg/fsa"
)

// Status is the application-facing result of a filesystem command.
//
// Non-negative values are success results (OK, or an element count for
// transfers). Negative values are a stable enumeration that application
// software branches on by literal value.
type Status int32

const (
	StatusOK              Status = 0
	StatusCancelled       Status = -1
	StatusEnd             Status = -2
	StatusMax             Status = -3
	StatusAlreadyOpen     Status = -4
	StatusExists          Status = -5
	StatusNotFound        Status = -6
	StatusNotFile         Status = -7
	StatusNotDirectory    Status = -8
	StatusAccessError     Status = -9
	StatusPermissionError Status = -10
	StatusFileTooBig      Status = -11
	StatusStorageFull     Status = -12
	StatusUnsupportedCmd  Status = -13
	StatusJournalFull     Status = -14
	StatusFatalError      Status = -0x400
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCancelled:
		return "Cancelled"
	case StatusEnd:
		return "End"
	case StatusMax:
		return "Max"
	case StatusAlreadyOpen:
		return "AlreadyOpen"
	case StatusExists:
		return "Exists"
	case StatusNotFound:
		return "NotFound"
	case StatusNotFile:
		return "NotFile"
	case StatusNotDirectory:
		return "NotDirectory"
	case StatusAccessError:
		return "AccessError"
	case StatusPermissionError:
		return "PermissionError"
	case StatusFileTooBig:
		return "FileTooBig"
	case StatusStorageFull:
		return "StorageFull"
	case StatusUnsupportedCmd:
		return "UnsupportedCmd"
	case StatusJournalFull:
		return "JournalFull"
	case StatusFatalError:
		return "FatalError"
	}
	if s > 0 {
		return fmt.Sprintf("%d", int32(s))
	}
	return fmt.Sprintf("FSStatus(%d)", int32(s))
}

// ErrorFlag is the caller-declared set of recoverable statuses for a call.
type ErrorFlag uint32

const (
	ErrorFlagNone            ErrorFlag = 0
	ErrorFlagMax             ErrorFlag = 1 << 0
	ErrorFlagAlreadyOpen     ErrorFlag = 1 << 1
	ErrorFlagExists          ErrorFlag = 1 << 2
	ErrorFlagNotFound        ErrorFlag = 1 << 3
	ErrorFlagNotFile         ErrorFlag = 1 << 4
	ErrorFlagNotDirectory    ErrorFlag = 1 << 5
	ErrorFlagAccessError     ErrorFlag = 1 << 6
	ErrorFlagPermissionError ErrorFlag = 1 << 7
	ErrorFlagFileTooBig      ErrorFlag = 1 << 8
	ErrorFlagStorageFull     ErrorFlag = 1 << 9
	ErrorFlagUnsupportedCmd  ErrorFlag = 1 << 10
	ErrorFlagJournalFull     ErrorFlag = 1 << 11
	ErrorFlagAll             ErrorFlag = 0xFFFFFFFF
)

// flagFor returns the mask bit that makes s recoverable. Statuses without a
// bit return ErrorFlagNone.
func flagFor(s Status) ErrorFlag {
	switch s {
	case StatusMax:
		return ErrorFlagMax
	case StatusAlreadyOpen:
		return ErrorFlagAlreadyOpen
	case StatusExists:
		return ErrorFlagExists
	case StatusNotFound:
		return ErrorFlagNotFound
	case StatusNotFile:
		return ErrorFlagNotFile
	case StatusNotDirectory:
		return ErrorFlagNotDirectory
	case StatusAccessError:
		return ErrorFlagAccessError
	case StatusPermissionError:
		return ErrorFlagPermissionError
	case StatusFileTooBig:
		return ErrorFlagFileTooBig
	case StatusStorageFull:
		return ErrorFlagStorageFull
	case StatusUnsupportedCmd:
		return ErrorFlagUnsupportedCmd
	case StatusJournalFull:
		return ErrorFlagJournalFull
	default:
		return ErrorFlagNone
	}
}

// StatusFromFSA collapses a service-level code into the application-facing
// enumeration. Success values pass through unchanged.
func StatusFromFSA(s fsa.Status) Status {
	if s >= 0 {
		return Status(s)
	}

	switch s {
	case fsa.StatusCancelled:
		return StatusCancelled
	case fsa.StatusEndOfDir, fsa.StatusEndOfFile:
		return StatusEnd
	case fsa.StatusMaxMountpoints, fsa.StatusMaxVolumes, fsa.StatusMaxClients,
		fsa.StatusMaxFiles, fsa.StatusMaxDirs:
		return StatusMax
	case fsa.StatusAlreadyOpen:
		return StatusAlreadyOpen
	case fsa.StatusAlreadyExists, fsa.StatusNotEmpty:
		return StatusExists
	case fsa.StatusNotFound:
		return StatusNotFound
	case fsa.StatusAccessError:
		return StatusAccessError
	case fsa.StatusPermissionError, fsa.StatusWriteProtected:
		return StatusPermissionError
	case fsa.StatusStorageFull:
		return StatusStorageFull
	case fsa.StatusJournalFull:
		return StatusJournalFull
	case fsa.StatusUnsupportedCmd, fsa.StatusUnavailableCmd:
		return StatusUnsupportedCmd
	case fsa.StatusNotFile:
		return StatusNotFile
	case fsa.StatusNotDir:
		return StatusNotDirectory
	case fsa.StatusFileTooBig:
		return StatusFileTooBig
	default:
		return StatusFatalError
	}
}

// classify applies the error-acceptance mask to a service-level failure.
//
// The returned fatal flag is true when the failure must latch the client.
// End and Cancelled are outcomes rather than faults and bypass the mask.
func classify(s fsa.Status, mask ErrorFlag) (Status, bool) {
	status := StatusFromFSA(s)
	if status >= 0 {
		return status, false
	}

	switch status {
	case StatusEnd, StatusCancelled:
		return status, false
	case StatusFatalError:
		return StatusFatalError, true
	}

	if mask&flagFor(status) != 0 {
		return status, false
	}
	return StatusFatalError, true
}
