package fsa

import "fmt"

// ClientHandle identifies a client registration inside the FSA service.
// Zero is never a valid handle.
type ClientHandle uint32

// FileHandle identifies an open file inside the FSA service.
type FileHandle uint32

// DirHandle identifies an open directory inside the FSA service.
type DirHandle uint32

// Command is the FSA command code carried in a shim buffer.
type Command uint32

const (
	CommandInvalid        Command = 0x00
	CommandChangeDir      Command = 0x05
	CommandGetCwd         Command = 0x06
	CommandMakeDir        Command = 0x07
	CommandRemove         Command = 0x08
	CommandRename         Command = 0x09
	CommandOpenDir        Command = 0x0A
	CommandReadDir        Command = 0x0B
	CommandCloseDir       Command = 0x0D
	CommandOpenFile       Command = 0x0E
	CommandReadFile       Command = 0x0F
	CommandWriteFile      Command = 0x10
	CommandGetPosFile     Command = 0x11
	CommandSetPosFile     Command = 0x12
	CommandStatFile       Command = 0x14
	CommandCloseFile      Command = 0x15
	CommandGetInfoByQuery Command = 0x18
)

func (c Command) String() string {
	switch c {
	case CommandChangeDir:
		return "CHANGE_DIR"
	case CommandGetCwd:
		return "GET_CWD"
	case CommandMakeDir:
		return "MAKE_DIR"
	case CommandRemove:
		return "REMOVE"
	case CommandRename:
		return "RENAME"
	case CommandOpenDir:
		return "OPEN_DIR"
	case CommandReadDir:
		return "READ_DIR"
	case CommandCloseDir:
		return "CLOSE_DIR"
	case CommandOpenFile:
		return "OPEN_FILE"
	case CommandReadFile:
		return "READ_FILE"
	case CommandWriteFile:
		return "WRITE_FILE"
	case CommandGetPosFile:
		return "GET_POS_FILE"
	case CommandSetPosFile:
		return "SET_POS_FILE"
	case CommandStatFile:
		return "STAT_FILE"
	case CommandCloseFile:
		return "CLOSE_FILE"
	case CommandGetInfoByQuery:
		return "GET_INFO_BY_QUERY"
	case CommandInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("COMMAND_0x%02X", uint32(c))
	}
}

// QueryType selects the information returned by GetInfoByQuery.
type QueryType uint32

const (
	QueryFreeSpaceSize  QueryType = 0
	QueryDirSize        QueryType = 1
	QueryEntryNum       QueryType = 2
	QueryFileSystemInfo QueryType = 3
	QueryDeviceInfo     QueryType = 4
	QueryStat           QueryType = 5
)

// ReadFlag modifies a read request.
type ReadFlag uint32

const (
	ReadFlagNone ReadFlag = 0
	// ReadWithPos makes the service seek to the request position first.
	ReadWithPos ReadFlag = 1 << 0
)

// WriteFlag modifies a write request.
type WriteFlag uint32

const (
	WriteFlagNone WriteFlag = 0
	// WriteWithPos makes the service seek to the request position first.
	WriteWithPos WriteFlag = 1 << 0
)
