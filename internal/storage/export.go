// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jeranaias/scribe-tui/internal/model"
)

// =============================================================================
// CONVERSATION EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as Markdown, with metadata, role
// labels, timestamps, and attachment listings.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.Title + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n")
	if conv.ActiveModel != "" {
		sb.WriteString("Model: " + conv.ActiveModel)
		if conv.ActiveProvider != "" {
			sb.WriteString(" (" + conv.ActiveProvider + ")")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n---\n\n")

	for _, msg := range conv.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + ")")
		if msg.Starred {
			sb.WriteString(" ★")
		}
		sb.WriteString(":\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")

		if len(msg.Attachments) > 0 {
			sb.WriteString("\nAttachments:\n")
			for _, res := range msg.Attachments {
				sb.WriteString("- " + res.Name + "\n")
			}
		}

		if stats := msg.FormatStats(); stats != "" {
			sb.WriteString("\n_" + stats + "_\n")
		}

		sb.WriteString("\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders a conversation as pretty-printed JSON.
func ExportJSON(conv *model.Conversation) ([]byte, error) {
	return json.MarshalIndent(conv, "", "  ")
}
