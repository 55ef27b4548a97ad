// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scribe-tui/internal/ui/styles"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// SPINNER - waiting indicator for the thinking phase
// =============================================================================

// Spinner shows activity between submit and the first streamed token.
// ASCII frames only.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	active    bool
	theme     *styles.Theme
}

// NewSpinner creates an inactive spinner.
func NewSpinner(theme *styles.Theme) *Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = theme.Spinner

	return &Spinner{
		spinner: s,
		message: "Thinking",
		theme:   theme,
	}
}

// Start activates the spinner and returns the tick command.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	return s.active
}

// SetMessage changes the label next to the frames.
func (s *Spinner) SetMessage(message string) {
	s.message = message
}

// Update advances the animation while active.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	if !s.active {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders "frame Thinking... (3s)", or nothing when inactive.
func (s *Spinner) View() string {
	if !s.active {
		return ""
	}
	elapsed := int(time.Since(s.startTime).Seconds())
	line := s.spinner.View() + " " + s.message + "..."
	if elapsed > 0 {
		line += " (" + util.IntToString(elapsed) + "s)"
	}
	return s.theme.Muted.Render(line)
}
