package fsa

import "fmt"

// Status is the fine-grained result code of the FSA I/O service.
//
// Negative values are errors. Non-negative values are success results and,
// for transfer commands, carry the number of bytes moved.
type Status int32

const (
	StatusOK                  Status = 0
	StatusNotInit             Status = -0x30001
	StatusBusy                Status = -0x30002
	StatusCancelled           Status = -0x30003
	StatusEndOfDir            Status = -0x30004
	StatusEndOfFile           Status = -0x30005
	StatusMaxMountpoints      Status = -0x30010
	StatusMaxVolumes          Status = -0x30011
	StatusMaxClients          Status = -0x30012
	StatusMaxFiles            Status = -0x30013
	StatusMaxDirs             Status = -0x30014
	StatusAlreadyOpen         Status = -0x30015
	StatusAlreadyExists       Status = -0x30016
	StatusNotFound            Status = -0x30017
	StatusNotEmpty            Status = -0x30018
	StatusAccessError         Status = -0x30019
	StatusPermissionError     Status = -0x3001A
	StatusDataCorrupted       Status = -0x3001B
	StatusStorageFull         Status = -0x3001C
	StatusJournalFull         Status = -0x3001D
	StatusUnavailableCmd      Status = -0x3001F
	StatusUnsupportedCmd      Status = -0x30020
	StatusInvalidParam        Status = -0x30021
	StatusInvalidPath         Status = -0x30022
	StatusInvalidBuffer       Status = -0x30023
	StatusInvalidAlignment    Status = -0x30024
	StatusInvalidClientHandle Status = -0x30025
	StatusInvalidFileHandle   Status = -0x30026
	StatusInvalidDirHandle    Status = -0x30027
	StatusNotFile             Status = -0x30028
	StatusNotDir              Status = -0x30029
	StatusFileTooBig          Status = -0x3002A
	StatusOutOfRange          Status = -0x3002B
	StatusOutOfResources      Status = -0x3002C
	StatusMediaNotReady       Status = -0x30040
	StatusMediaError          Status = -0x30041
	StatusWriteProtected      Status = -0x30042
	StatusInvalidMedia        Status = -0x30043
)

var statusNames = map[Status]string{
	StatusOK:                  "OK",
	StatusNotInit:             "NotInit",
	StatusBusy:                "Busy",
	StatusCancelled:           "Cancelled",
	StatusEndOfDir:            "EndOfDir",
	StatusEndOfFile:           "EndOfFile",
	StatusMaxMountpoints:      "MaxMountpoints",
	StatusMaxVolumes:          "MaxVolumes",
	StatusMaxClients:          "MaxClients",
	StatusMaxFiles:            "MaxFiles",
	StatusMaxDirs:             "MaxDirs",
	StatusAlreadyOpen:         "AlreadyOpen",
	StatusAlreadyExists:       "AlreadyExists",
	StatusNotFound:            "NotFound",
	StatusNotEmpty:            "NotEmpty",
	StatusAccessError:         "AccessError",
	StatusPermissionError:     "PermissionError",
	StatusDataCorrupted:       "DataCorrupted",
	StatusStorageFull:         "StorageFull",
	StatusJournalFull:         "JournalFull",
	StatusUnavailableCmd:      "UnavailableCmd",
	StatusUnsupportedCmd:      "UnsupportedCmd",
	StatusInvalidParam:        "InvalidParam",
	StatusInvalidPath:         "InvalidPath",
	StatusInvalidBuffer:       "InvalidBuffer",
	StatusInvalidAlignment:    "InvalidAlignment",
	StatusInvalidClientHandle: "InvalidClientHandle",
	StatusInvalidFileHandle:   "InvalidFileHandle",
	StatusInvalidDirHandle:    "InvalidDirHandle",
	StatusNotFile:             "NotFile",
	StatusNotDir:              "NotDir",
	StatusFileTooBig:          "FileTooBig",
	StatusOutOfRange:          "OutOfRange",
	StatusOutOfResources:      "OutOfResources",
	StatusMediaNotReady:       "MediaNotReady",
	StatusMediaError:          "MediaError",
	StatusWriteProtected:      "WriteProtected",
	StatusInvalidMedia:        "InvalidMedia",
}

// String returns the symbolic name of the status. Success values other than
// OK are rendered as their decimal result.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if s > 0 {
		return fmt.Sprintf("%d", int32(s))
	}
	return fmt.Sprintf("FSAStatus(-0x%X)", -int64(s))
}

// IsError reports whether the status is a failure code.
func (s Status) IsError() bool {
	return s < 0
}

// Err converts the status into a Go error for host-side plumbing.
// Success values return nil.
func (s Status) Err() error {
	if s >= 0 {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError wraps a failing Status as an error value.
type StatusError struct {
	Status Status
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return "fsa: " + e.Status.String()
}

// Is matches any StatusError carrying the same status, so callers can write
// errors.Is(err, fsa.StatusNotFound.Err()).
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Status == e.Status
}
