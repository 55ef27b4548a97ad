// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE - renders a single chat message
// =============================================================================

// MessageBubble renders one message as a bordered bubble with a role header,
// timestamp, optional attachment list and generation stats.
type MessageBubble struct {
	Message   *model.Message
	Width     int
	ShowStats bool
	Pending   bool // not yet persisted
	Streaming bool // still receiving tokens
	CodeTheme string
	theme     *styles.Theme
}

// NewMessageBubble creates a bubble for the given message.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:   msg,
		Width:     80,
		ShowStats: true,
		CodeTheme: "monokai",
		theme:     theme,
	}
}

// Render produces the full bubble. User messages align right, assistant and
// system messages align left.
func (b *MessageBubble) Render() string {
	if b.Message == nil {
		return ""
	}

	bubbleWidth := b.Width * 3 / 4
	if bubbleWidth < 30 {
		bubbleWidth = b.Width - 4
	}
	contentWidth := bubbleWidth - 4
	if contentWidth < 10 {
		contentWidth = 10
	}

	header := b.renderHeader()
	body := b.renderBody(contentWidth)
	footer := b.renderFooter()

	parts := []string{header, body}
	if footer != "" {
		parts = append(parts, footer)
	}
	inner := strings.Join(parts, "\n")

	bubble := b.bubbleStyle().MaxWidth(bubbleWidth).Render(inner)

	align := lipgloss.Left
	if b.Message.Role == model.RoleUser {
		align = lipgloss.Right
	}
	return lipgloss.NewStyle().
		Width(b.Width).
		Align(align).
		Render(bubble)
}

func (b *MessageBubble) bubbleStyle() lipgloss.Style {
	switch {
	case b.Message.IsError:
		return b.theme.ErrorBubble
	case b.Message.Role == model.RoleUser:
		return b.theme.UserBubble
	case b.Message.Role == model.RoleSystem:
		return b.theme.SystemBubble
	default:
		return b.theme.AssistantBubble
	}
}

// renderHeader builds the "role  [star]  time" line.
func (b *MessageBubble) renderHeader() string {
	msg := b.Message

	label := msg.Role.DisplayName()
	if msg.Role == model.RoleAssistant && msg.Model != "" {
		label = msg.Model
	}

	var roleColor lipgloss.AdaptiveColor
	switch {
	case msg.IsError:
		roleColor = styles.Rose
	case msg.Role == model.RoleUser:
		roleColor = styles.Cyan
	case msg.Role == model.RoleSystem:
		roleColor = styles.Amber
	default:
		roleColor = styles.Purple
	}

	parts := []string{b.theme.RoleLabel.Foreground(roleColor).Render(label)}
	if msg.Starred {
		parts = append(parts, b.theme.RoleLabel.Foreground(styles.Amber).Render(styles.StatusIndicators.Starred))
	}
	if b.Pending {
		parts = append(parts, b.theme.Muted.Render("(saving)"))
	}
	if !msg.Timestamp.IsZero() {
		parts = append(parts, b.theme.Timestamp.Render(msg.Timestamp.Format("15:04")))
	}
	return strings.Join(parts, " ")
}

// renderBody renders the content, splitting fenced code out for highlighting.
func (b *MessageBubble) renderBody(width int) string {
	msg := b.Message
	content := msg.Content
	if b.Streaming {
		content += " " + styles.StatusIndicators.Streaming
	}

	// Plain wrap for user and system turns; markdown for the assistant.
	if msg.Role != model.RoleAssistant || msg.IsError {
		return wrapText(content, width)
	}

	segments := ParseCodeBlocks(content)
	if len(segments) == 1 && !segments[0].IsCode {
		return RenderMarkdown(content, width)
	}

	var rendered []string
	for _, seg := range segments {
		if seg.IsCode {
			block := NewCodeBlock(seg.Language, seg.Text)
			block.Theme = b.CodeTheme
			block.Width = width
			rendered = append(rendered, block.Render())
		} else if strings.TrimSpace(seg.Text) != "" {
			rendered = append(rendered, RenderMarkdown(seg.Text, width))
		}
	}
	return strings.Join(rendered, "\n")
}

// renderFooter lists attachments and the stats line when available.
func (b *MessageBubble) renderFooter() string {
	msg := b.Message

	var lines []string
	for _, att := range msg.Attachments {
		lines = append(lines, b.theme.Attachment.Render("@ "+att.Name))
	}
	if b.ShowStats && !b.Streaming {
		if stats := msg.FormatStats(); stats != "" {
			lines = append(lines, b.theme.StatsLine.Render(stats))
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// MESSAGE LIST - renders a full conversation
// =============================================================================

// MessageList renders an ordered slice of messages plus an optional
// in-flight streaming bubble at the tail.
type MessageList struct {
	Messages  []*model.Message
	Width     int
	ShowStats bool
	CodeTheme string
	theme     *styles.Theme

	// IsPending reports whether a message is spliced but not yet persisted.
	IsPending func(messageID string) bool

	// Streaming tail, shown after the persisted messages while a response
	// is being generated.
	StreamingMessage *model.Message
}

// NewMessageList creates an empty message list.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:     80,
		ShowStats: true,
		CodeTheme: "monokai",
		theme:     theme,
	}
}

// Render produces the whole conversation, or a hint when it is empty.
func (l *MessageList) Render() string {
	if len(l.Messages) == 0 && l.StreamingMessage == nil {
		return l.theme.Muted.
			Width(l.Width).
			Align(lipgloss.Center).
			Render("No messages yet. Type below to start the conversation.")
	}

	var sb strings.Builder
	for _, msg := range l.Messages {
		bubble := NewMessageBubble(msg, l.theme)
		bubble.Width = l.Width
		bubble.ShowStats = l.ShowStats
		bubble.CodeTheme = l.CodeTheme
		if l.IsPending != nil {
			bubble.Pending = l.IsPending(msg.ID)
		}
		sb.WriteString(bubble.Render())
		sb.WriteString("\n\n")
	}

	if l.StreamingMessage != nil {
		bubble := NewMessageBubble(l.StreamingMessage, l.theme)
		bubble.Width = l.Width
		bubble.ShowStats = false
		bubble.CodeTheme = l.CodeTheme
		bubble.Streaming = true
		sb.WriteString(bubble.Render())
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

// wrapText word-wraps plain text to the given display width, measuring with
// runewidth so CJK and other wide glyphs wrap correctly.
func wrapText(text string, width int) string {
	if width < 1 {
		return text
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= width {
			out = append(out, line)
			continue
		}

		var current strings.Builder
		currentWidth := 0
		for _, word := range strings.Fields(line) {
			// A single word wider than the line gets hard-split per chunk.
			if runewidth.StringWidth(word) > width {
				if current.Len() > 0 {
					out = append(out, current.String())
					current.Reset()
					currentWidth = 0
				}
				for runewidth.StringWidth(word) > width {
					chunk := runewidth.Truncate(word, width, "")
					out = append(out, chunk)
					word = strings.TrimPrefix(word, chunk)
				}
			}
			w := runewidth.StringWidth(word)
			if currentWidth > 0 && currentWidth+1+w > width {
				out = append(out, current.String())
				current.Reset()
				currentWidth = 0
			}
			if currentWidth > 0 {
				current.WriteByte(' ')
				currentWidth++
			}
			current.WriteString(word)
			currentWidth += w
		}
		if current.Len() > 0 {
			out = append(out, current.String())
		}
	}
	return strings.Join(out, "\n")
}
