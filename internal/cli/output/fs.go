package output

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/cafefs/internal/cli/timeutil"
	"github.com/marmos91/cafefs/pkg/fs"
	"github.com/marmos91/cafefs/pkg/mcp"
)

// Entry is a printable directory entry or stat result.
type Entry struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Size     uint32 `json:"size" yaml:"size"`
	Mode     string `json:"mode" yaml:"mode"`
	Owner    uint32 `json:"owner" yaml:"owner"`
	Group    uint32 `json:"group" yaml:"group"`
	Modified string `json:"modified" yaml:"modified"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewEntry converts a stat record.
func NewEntry(name string, st *fs.Stat) Entry {
	kind := "file"
	if st.IsDir() {
		kind = "dir"
	}
	return Entry{
		Name:     name,
		Type:     kind,
		Size:     st.Size,
		Mode:     fmt.Sprintf("0x%03x", st.Mode),
		Owner:    st.Owner,
		Group:    st.Group,
		Modified: timeutil.FormatFSTime(st.Modified),
	}
}

// EntryList is the result of ls and stat.
type EntryList []Entry

// NewEntryList converts directory entries.
func NewEntryList(entries []fs.DirEntry) EntryList {
	out := make(EntryList, 0, len(entries))
	for i := range entries {
		out = append(out, NewEntry(entries[i].Name, &entries[i].Stat))
	}
	return out
}

func (l EntryList) Headers() []string {
	return []string{"Name", "Type", "Size", "Mode", "Modified", "Error"}
}

func (l EntryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		if e.Error != "" {
			rows = append(rows, []string{e.Name, "", "", "", "", e.Error})
			continue
		}
		size := humanize.IBytes(uint64(e.Size))
		if e.Type == "dir" {
			size = "-"
		}
		rows = append(rows, []string{e.Name, e.Type, size, e.Mode, e.Modified, ""})
	}
	return rows
}

// Usage is the result of df.
type Usage struct {
	Path      string `json:"path" yaml:"path"`
	FreeBytes uint64 `json:"free_bytes" yaml:"free_bytes"`
	UsedBytes uint64 `json:"used_bytes" yaml:"used_bytes"`
	Entries   uint32 `json:"entries" yaml:"entries"`
}

func (u Usage) Headers() []string {
	return []string{"Path", "Used", "Free", "Entries"}
}

func (u Usage) Rows() [][]string {
	return [][]string{{
		u.Path,
		humanize.IBytes(u.UsedBytes),
		humanize.IBytes(u.FreeBytes),
		strconv.FormatUint(uint64(u.Entries), 10),
	}}
}

// Settings is the printable form of the system product settings.
type Settings struct {
	PlatformRegion string `json:"platform_region" yaml:"platform_region"`
	GameRegion     string `json:"game_region" yaml:"game_region"`
}

// NewSettings converts a settings record.
func NewSettings(s *mcp.SysProdSettings) Settings {
	return Settings{
		PlatformRegion: s.PlatformRegion.String(),
		GameRegion:     s.GameRegion.String(),
	}
}

func (s Settings) Headers() []string {
	return []string{"Setting", "Value"}
}

func (s Settings) Rows() [][]string {
	return [][]string{
		{"platform_region", s.PlatformRegion},
		{"game_region", s.GameRegion},
	}
}
