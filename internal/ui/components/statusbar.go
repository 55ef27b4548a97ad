// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/scribe-tui/internal/ui/styles"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// STATUS BAR - bottom status line
// =============================================================================

// Status is the coarse application state shown in the bar.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusStreaming
	StatusSaving
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusSaving:
		return "Saving..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an ASCII glyph for the status, paired with the text so the
// state is readable without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return styles.StatusIndicators.Streaming
	case StatusSaving:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the single-line bar at the bottom of the chat view.
type StatusBar struct {
	Provider     string
	ModelName    string
	Title        string // active conversation title
	TokenCount   int    // tokens in the last exchange
	Status       Status
	ScrollPaused bool // auto-scroll suspended by the user
	Width        int
	theme        *styles.Theme
}

// NewStatusBar creates a status bar with default state.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// View renders the bar: status on the left, model and token info on the
// right, conversation title in the middle truncated to fit.
func (b *StatusBar) View() string {
	left := b.Status.Icon() + " " + b.Status.String()
	if b.ScrollPaused {
		left += "  [scroll paused - end to resume]"
	}

	var right []string
	if b.Provider != "" && b.ModelName != "" {
		right = append(right, b.Provider+"/"+b.ModelName)
	} else if b.ModelName != "" {
		right = append(right, b.ModelName)
	}
	if b.TokenCount > 0 {
		right = append(right, util.IntToString(b.TokenCount)+" tok")
	}
	rightText := strings.Join(right, " | ")

	mid := b.Title
	avail := b.Width - runewidth.StringWidth(left) - runewidth.StringWidth(rightText) - 6
	if avail < 0 {
		avail = 0
	}
	if runewidth.StringWidth(mid) > avail {
		mid = runewidth.Truncate(mid, avail, "...")
	}

	gap := b.Width - runewidth.StringWidth(left) - runewidth.StringWidth(mid) - runewidth.StringWidth(rightText) - 2
	if gap < 2 {
		gap = 2
	}
	leftGap := gap / 2
	rightGap := gap - leftGap

	line := left + strings.Repeat(" ", leftGap) + mid + strings.Repeat(" ", rightGap) + rightText
	return b.theme.StatusBar.Width(b.Width).Render(line)
}
