// Package timeutil formats times for CLI output.
package timeutil

import (
	"fmt"
	"time"

	"github.com/marmos91/cafefs/pkg/fsa"
)

// LocalTimeFormat is used for every timestamp shown to the user.
const LocalTimeFormat = "2006-01-02 15:04:05"

// FormatFSTime converts an FS timestamp to local time. Zero renders as "-".
func FormatFSTime(v int64) string {
	if v == 0 {
		return "-"
	}
	return fsa.TimeFromFS(v).Local().Format(LocalTimeFormat)
}

// FormatUptime renders d as "3d 0h 30m 15s", dropping leading zero units.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
