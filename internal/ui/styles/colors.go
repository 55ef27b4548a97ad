// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the color palette and theme for the scribe TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// CORE PALETTE - adaptive colors with light/dark variants
// =============================================================================

var (
	// Purple is the primary accent, used for the assistant voice and branding.
	Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	// Cyan is the secondary accent, used for the user voice and focus rings.
	Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#67E8F9"}

	// Emerald marks success states.
	Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#6EE7B7"}

	// Rose marks errors and destructive actions.
	Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FDA4AF"}

	// Amber marks warnings and system notices.
	Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FCD34D"}
)

// =============================================================================
// SURFACE COLORS - backgrounds and borders
// =============================================================================

var (
	Surface       = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	SurfaceDim    = lipgloss.AdaptiveColor{Light: "#F4F4F5", Dark: "#181825"}
	SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#313244"}

	Overlay    = lipgloss.AdaptiveColor{Light: "#D4D4D8", Dark: "#45475A"}
	OverlayDim = lipgloss.AdaptiveColor{Light: "#E4E4E7", Dark: "#313244"}

	// FocusRing outlines the focused component.
	FocusRing = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#89DCEB"}
)

// =============================================================================
// TEXT COLORS
// =============================================================================

var (
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#18181B", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#52525B", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#A1A1AA", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#11111B"}
)

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

var (
	UserBubbleBorder = Cyan
	UserBubbleText   = lipgloss.AdaptiveColor{Light: "#164E63", Dark: "#A5F3FC"}

	AssistantBubbleBorder = Purple
	AssistantBubbleText   = TextPrimary

	SystemBubbleBorder = Amber
	SystemBubbleText   = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FDE68A"}

	ErrorBubbleBorder = Rose
	ErrorBubbleText   = lipgloss.AdaptiveColor{Light: "#9F1239", Dark: "#FECDD3"}
)

// =============================================================================
// STATUS INDICATORS - ASCII-safe glyphs paired with color
// =============================================================================

// Indicators holds the glyphs used for status display. ASCII only so the
// TUI renders correctly on terminals without wide glyph support.
type Indicators struct {
	Success   string
	Error     string
	Warning   string
	Pending   string
	Streaming string
	Starred   string
}

// StatusIndicators is the default glyph set.
var StatusIndicators = Indicators{
	Success:   "+",
	Error:     "x",
	Warning:   "!",
	Pending:   "o",
	Streaming: "~",
	Starred:   "*",
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderSuccess renders text in the success color with its indicator.
func RenderSuccess(text string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Render(StatusIndicators.Success + " " + text)
}

// RenderError renders text in the error color with its indicator.
func RenderError(text string) string {
	return lipgloss.NewStyle().Foreground(Rose).Render(StatusIndicators.Error + " " + text)
}

// RenderWarning renders text in the warning color with its indicator.
func RenderWarning(text string) string {
	return lipgloss.NewStyle().Foreground(Amber).Render(StatusIndicators.Warning + " " + text)
}

// RenderMuted renders de-emphasized text.
func RenderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(TextMuted).Render(text)
}
