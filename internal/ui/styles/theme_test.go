// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemeBuildsStyles(t *testing.T) {
	theme := NewTheme()

	// Every bubble style must carry its padding so message content does not
	// touch the border.
	for name, got := range map[string]int{
		"user":      theme.UserBubble.GetPaddingLeft(),
		"assistant": theme.AssistantBubble.GetPaddingLeft(),
		"system":    theme.SystemBubble.GetPaddingLeft(),
		"error":     theme.ErrorBubble.GetPaddingLeft(),
	} {
		if got != 1 {
			t.Errorf("%s bubble padding = %d, want 1", name, got)
		}
	}
}

func TestRenderHelpersIncludeIndicator(t *testing.T) {
	if got := RenderError("boom"); !strings.Contains(got, "boom") {
		t.Errorf("RenderError dropped the message: %q", got)
	}
	if got := RenderSuccess("saved"); !strings.Contains(got, "saved") {
		t.Errorf("RenderSuccess dropped the message: %q", got)
	}
	if got := RenderWarning("careful"); !strings.Contains(got, "careful") {
		t.Errorf("RenderWarning dropped the message: %q", got)
	}
}

func TestStatusIndicatorsAreASCII(t *testing.T) {
	for _, glyph := range []string{
		StatusIndicators.Success,
		StatusIndicators.Error,
		StatusIndicators.Warning,
		StatusIndicators.Pending,
		StatusIndicators.Streaming,
		StatusIndicators.Starred,
	} {
		for _, r := range glyph {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", glyph)
			}
		}
	}
}
