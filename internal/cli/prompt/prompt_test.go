package prompt

import (
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"

	"github.com/marmos91/cafefs/pkg/mcp"
)

func TestConfirmForce(t *testing.T) {
	ok, err := Confirm("remove /vol/save?", true)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestIsYes(t *testing.T) {
	for _, s := range []string{"y", "Y", " yes "} {
		assert.True(t, isYes(s), s)
	}
	for _, s := range []string{"", "n", "no", "yep"} {
		assert.False(t, isYes(s), s)
	}
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.ErrorIs(t, wrapError(promptui.ErrInterrupt), ErrAborted)
	assert.ErrorIs(t, wrapError(fmt.Errorf("read: %w", promptui.ErrEOF)), ErrAborted)

	other := fmt.Errorf("tty gone")
	assert.Equal(t, other, wrapError(other))
	assert.False(t, IsAborted(other))
}

func TestRegionItemLabel(t *testing.T) {
	assert.Equal(t, "USA (current)", regionItem{Region: mcp.RegionUSA, Current: true}.Label())
	assert.Equal(t, "EUR", regionItem{Region: mcp.RegionEurope}.Label())
}
