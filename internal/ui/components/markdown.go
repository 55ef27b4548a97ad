// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER - shared glamour instance
// =============================================================================

var (
	markdownMu       sync.Mutex
	markdownRenderer *glamour.TermRenderer
	markdownWidth    int
)

// RenderMarkdown renders markdown for terminal display at the given word-wrap
// width. The glamour renderer is rebuilt only when the width changes; on any
// renderer failure the raw text is returned so content is never lost.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	markdownMu.Lock()
	defer markdownMu.Unlock()

	if markdownRenderer == nil || markdownWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return content
		}
		markdownRenderer = r
		markdownWidth = width
	}

	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
