package fs

import "github.com/marmos91/cafefs/pkg/fsa"

type (
	FileHandle = fsa.FileHandle
	DirHandle  = fsa.DirHandle
	Stat       = fsa.Stat
	DirEntry   = fsa.DirEntry
	ReadFlag   = fsa.ReadFlag
	WriteFlag  = fsa.WriteFlag
)

const (
	ReadFlagNone  = fsa.ReadFlagNone
	WriteFlagNone = fsa.WriteFlagNone
)
