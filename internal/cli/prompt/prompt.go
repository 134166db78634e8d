// Package prompt asks the user for confirmation and choices on a terminal.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/marmos91/cafefs/pkg/mcp"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("aborted")

// IsAborted reports whether err came from an interrupted prompt.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Confirm asks a yes/no question. force skips the prompt and answers yes.
func Confirm(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	result, err := p.Run()
	if err != nil {
		// promptui reports "n" as ErrAbort.
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, wrapError(err)
	}
	return isYes(result), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}

// Input prompts for free text.
func Input(label, defaultValue string) (string, error) {
	p := promptui.Prompt{Label: label, Default: defaultValue}
	result, err := p.Run()
	return result, wrapError(err)
}

type regionItem struct {
	Region  mcp.Region
	Current bool
}

func (r regionItem) Label() string {
	if r.Current {
		return r.Region.String() + " (current)"
	}
	return r.Region.String()
}

// SelectRegion lets the user pick a region, starting on current.
func SelectRegion(label string, current mcp.Region) (mcp.Region, error) {
	regions := mcp.Regions()
	items := make([]regionItem, len(regions))
	cursor := 0
	for i, r := range regions {
		items[i] = regionItem{Region: r, Current: r == current}
		if r == current {
			cursor = i
		}
	}

	p := promptui.Select{
		Label: label,
		Items: items,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label }}",
			Selected: fmt.Sprintf("%s {{ .Label | green }}", promptui.IconGood),
		},
		CursorPos: cursor,
		Size:      len(items),
	}
	i, _, err := p.Run()
	if err != nil {
		return 0, wrapError(err)
	}
	return items[i].Region, nil
}
