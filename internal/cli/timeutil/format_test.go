package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/cafefs/pkg/fsa"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 30*time.Second, "2h 0m 30s"},
		{72*time.Hour + 30*time.Minute + 15*time.Second, "3d 0h 30m 15s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUptime(tt.in), tt.in.String())
	}
}

func TestFormatFSTime(t *testing.T) {
	assert.Equal(t, "-", FormatFSTime(0))

	ts := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ts.Local().Format(LocalTimeFormat), FormatFSTime(fsa.TimeToFS(ts)))
}
