// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME - precomputed lipgloss styles for every part of the TUI
// =============================================================================

// Theme bundles the styles the chat view needs so components never build
// lipgloss styles per frame.
type Theme struct {
	// Terminal capabilities detected at startup.
	IsDark       bool
	HasTrueColor bool

	// Chrome
	App       lipgloss.Style
	Header    lipgloss.Style
	HeaderTag lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style

	// Message bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	ErrorBubble     lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	StatsLine       lipgloss.Style
	Attachment      lipgloss.Style

	// Input
	InputFocused lipgloss.Style
	InputBlurred lipgloss.Style
	CharCounter  lipgloss.Style

	// Status / feedback
	Spinner lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style

	// Conversation list
	ListTitle    lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	// Welcome screen
	WelcomeTitle lipgloss.Style
	WelcomeBody  lipgloss.Style
}

// NewTheme detects terminal capabilities and builds the style set.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: termenv.ColorProfile() == termenv.TrueColor,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Header = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Padding(0, 1)

	t.HeaderTag = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UserBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Foreground(UserBubbleText).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Foreground(AssistantBubbleText).
		Padding(0, 1)

	t.SystemBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(SystemBubbleBorder).
		Foreground(SystemBubbleText).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ErrorBubbleBorder).
		Foreground(ErrorBubbleText).
		Padding(0, 1)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatsLine = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Attachment = lipgloss.NewStyle().
		Foreground(Cyan)

	t.InputFocused = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(FocusRing).
		Padding(0, 1)

	t.InputBlurred = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CharCounter = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.Error = lipgloss.NewStyle().
		Foreground(Rose)

	t.Success = lipgloss.NewStyle().
		Foreground(Emerald)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ListTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.ListItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ListSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		Bold(true).
		Padding(0, 1)

	t.WelcomeTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Align(lipgloss.Center)

	t.WelcomeBody = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Align(lipgloss.Center)
}
