// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the scribe TUI.
package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/scribe-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK - syntax-highlighted fenced code
// =============================================================================

// CodeBlock renders a fenced code block with syntax highlighting.
type CodeBlock struct {
	Language string
	Code     string
	Theme    string // chroma style name, e.g. "monokai"
	Width    int
}

// NewCodeBlock creates a code block with the given language hint and source.
func NewCodeBlock(language, code string) *CodeBlock {
	return &CodeBlock{
		Language: language,
		Code:     code,
		Theme:    "monokai",
		Width:    80,
	}
}

// Render returns the highlighted code framed in a subtle border with a
// language tag. Highlighting failures fall back to the raw source.
func (c *CodeBlock) Render() string {
	highlighted := c.highlight()

	frame := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.OverlayDim).
		Padding(0, 1)

	label := ""
	if c.Language != "" {
		label = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" " + c.Language)
	}

	body := frame.Render(strings.TrimRight(highlighted, "\n"))
	if label == "" {
		return body
	}
	return label + "\n" + body
}

// highlight runs the chroma pipeline for terminal output.
func (c *CodeBlock) highlight() string {
	lexer := lexers.Get(c.Language)
	if lexer == nil {
		lexer = lexers.Analyse(c.Code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromastyles.Get(c.Theme)
	if style == nil {
		style = chromastyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, c.Code)
	if err != nil {
		return c.Code
	}

	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return c.Code
	}
	return sb.String()
}

// =============================================================================
// FENCE PARSING
// =============================================================================

// ContentSegment is a run of either prose or fenced code within a message.
type ContentSegment struct {
	IsCode   bool
	Language string
	Text     string
}

// ParseCodeBlocks splits message content on triple-backtick fences. Unclosed
// fences are treated as code running to the end of the content, which keeps
// streaming output readable while a fence is still open.
func ParseCodeBlocks(content string) []ContentSegment {
	var segments []ContentSegment
	lines := strings.Split(content, "\n")

	var buf []string
	inCode := false
	language := ""

	flush := func(code bool, lang string) {
		if len(buf) == 0 {
			return
		}
		segments = append(segments, ContentSegment{
			IsCode:   code,
			Language: lang,
			Text:     strings.Join(buf, "\n"),
		})
		buf = buf[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flush(true, language)
				inCode = false
				language = ""
			} else {
				flush(false, "")
				inCode = true
				language = strings.TrimPrefix(trimmed, "```")
			}
			continue
		}
		buf = append(buf, line)
	}
	flush(inCode, language)

	return segments
}

// RenderInlineCode styles `backtick` spans within prose.
func RenderInlineCode(text string) string {
	style := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Background(styles.SurfaceBright)

	var sb strings.Builder
	rest := text
	for {
		start := strings.Index(rest, "`")
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.Index(rest[start+1:], "`")
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:start])
		sb.WriteString(style.Render(rest[start+1 : start+1+end]))
		rest = rest[start+end+2:]
	}
	return sb.String()
}
