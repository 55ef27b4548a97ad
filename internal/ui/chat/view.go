// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen, the conversation picker, or the help
// overlay depending on mode.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.mode == modeList {
		return m.viewPicker()
	}

	sections := []string{
		m.viewHeader(),
		m.viewport.View(),
	}

	if m.spinner.Active() {
		sections = append(sections, m.spinner.View())
	}
	if m.notice != "" {
		sections = append(sections, m.viewNotice())
	}
	if m.showHelp {
		sections = append(sections, m.viewHelp())
	}

	sections = append(sections,
		m.input.View(),
		m.statusBar.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewHeader draws the one-line title bar.
func (m *Model) viewHeader() string {
	title := "scribe"
	if conv := m.view.ActiveConversation(); conv != nil && conv.Title != "" {
		title = conv.Title
	}
	left := m.theme.Header.Render(title)
	right := m.theme.HeaderTag.Render(m.session.SessionID())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) viewNotice() string {
	if m.noticeErr {
		return m.theme.Error.Render(m.notice)
	}
	return m.theme.Success.Render(m.notice)
}

func (m *Model) viewHelp() string {
	return m.theme.Help.Render(helpText)
}

// =============================================================================
// CONVERSATION PICKER
// =============================================================================

func (m *Model) viewPicker() string {
	var sb strings.Builder
	sb.WriteString(m.theme.ListTitle.Render("Conversations"))
	sb.WriteString("\n\n")

	if len(m.pickerItems) == 0 {
		sb.WriteString(m.theme.Muted.Render("  nothing here yet"))
	}

	visible := m.height - 5
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.pickerSelected >= visible {
		start = m.pickerSelected - visible + 1
	}
	end := start + visible
	if end > len(m.pickerItems) {
		end = len(m.pickerItems)
	}

	for i := start; i < end; i++ {
		item := m.pickerItems[i]

		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		line := title +
			"  " + item.UpdatedAt.Format("Jan 2 15:04") +
			"  " + util.IntToString(item.MessageCount) + " msgs"
		if item.Preview != "" {
			line += "  " + runewidth.Truncate(item.Preview, 40, "...")
		}
		line = runewidth.Truncate(line, m.width-4, "...")

		if i == m.pickerSelected {
			sb.WriteString(m.theme.ListSelected.Render("> " + line))
		} else {
			sb.WriteString(m.theme.ListItem.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.Help.Render("enter open | esc back | j/k move"))
	return sb.String()
}
