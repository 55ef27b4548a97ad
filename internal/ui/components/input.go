// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/scribe-tui/internal/ui/styles"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// INPUT AREA - message composer
// =============================================================================

const defaultCharLimit = 4096

// InputArea is the single-line message composer at the bottom of the chat.
type InputArea struct {
	input   textinput.Model
	width   int
	focused bool
	theme   *styles.Theme
}

// NewInputArea creates the composer with scribe's default placeholder.
func NewInputArea(theme *styles.Theme) *InputArea {
	ti := textinput.New()
	ti.Placeholder = "Type a message, @path to attach a file, / for commands"
	ti.CharLimit = defaultCharLimit
	ti.Width = 70
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	return &InputArea{
		input: ti,
		width: 80,
		theme: theme,
	}
}

// Focus gives the composer keyboard focus.
func (i *InputArea) Focus() tea.Cmd {
	i.focused = true
	return i.input.Focus()
}

// Blur removes keyboard focus.
func (i *InputArea) Blur() {
	i.focused = false
	i.input.Blur()
}

// Focused reports whether the composer has focus.
func (i *InputArea) Focused() bool {
	return i.focused
}

// SetWidth resizes the composer; the inner text field keeps room for the
// prompt and border.
func (i *InputArea) SetWidth(width int) {
	i.width = width
	inner := width - 8
	if inner < 20 {
		inner = 20
	}
	i.input.Width = inner
}

// Value returns the current text.
func (i *InputArea) Value() string {
	return i.input.Value()
}

// SetValue replaces the current text.
func (i *InputArea) SetValue(value string) {
	i.input.SetValue(value)
	i.input.CursorEnd()
}

// Reset clears the composer.
func (i *InputArea) Reset() {
	i.input.Reset()
}

// Update forwards events to the text input.
func (i *InputArea) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.input, cmd = i.input.Update(msg)
	return cmd
}

// View renders the bordered composer with a character counter.
func (i *InputArea) View() string {
	frame := i.theme.InputBlurred
	if i.focused {
		frame = i.theme.InputFocused
	}

	box := frame.Width(i.width - 2).Render(i.input.View())

	count := len([]rune(i.input.Value()))
	counter := i.theme.CharCounter.Render(
		util.IntToString(count) + "/" + util.IntToString(defaultCharLimit))
	counterLine := lipgloss.NewStyle().
		Width(i.width - 2).
		Align(lipgloss.Right).
		Render(counter)

	return lipgloss.JoinVertical(lipgloss.Left, box, counterLine)
}
