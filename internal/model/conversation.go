// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered message history plus metadata. The storage
// layer is the source of truth; the copy held by the view-state store is a
// working copy updated optimistically before persistence confirms. The
// working copy's message sequence must always be a prefix-or-equal superset
// of the last persisted state.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ProjectID string    `json:"project_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Active provider/model for new exchanges in this conversation.
	ActiveProvider string `json:"active_provider,omitempty"`
	ActiveModel    string `json:"active_model,omitempty"`

	// Messages in arrival order.
	Messages []*Message `json:"messages"`
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        NewConversationID(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// NewConversationForProject creates an empty conversation bound to a project.
func NewConversationForProject(projectID string) *Conversation {
	c := NewConversation()
	c.ProjectID = projectID
	return c
}

// =============================================================================
// MESSAGE ACCESS
// =============================================================================

// AddMessage appends a message and bumps the updated timestamp.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastUserMessage returns the most recent user message, or nil.
func (c *Conversation) LastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// MessageByID finds a message by ID, or returns nil.
func (c *Conversation) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// EstimateTokens sums the rough token estimate across all messages.
func (c *Conversation) EstimateTokens() int {
	total := 0
	for _, msg := range c.Messages {
		total += msg.EstimateTokens()
	}
	return total
}

// =============================================================================
// TITLE HANDLING
// =============================================================================

// updateTitle derives a title from the first user message if none is set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			c.Title = summarize(msg.Content, 50)
			return
		}
	}
}

// SetTitle overrides the derived title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// Preview returns a short preview from the first user message.
func (c *Conversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return summarize(msg.Content, 80)
		}
	}
	return ""
}

// =============================================================================
// COPYING
// =============================================================================

// Clone returns a deep copy. The view-state store hands clones to
// subscribers so optimistic splices never alias persisted state.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	for i, msg := range c.Messages {
		msgCopy := *msg
		if len(msg.Attachments) > 0 {
			msgCopy.Attachments = append([]Resource(nil), msg.Attachments...)
		}
		clone.Messages[i] = &msgCopy
	}
	return &clone
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewConversationID creates a unique conversation ID.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// summarize collapses whitespace and truncates to maxLen runes.
func summarize(content string, maxLen int) string {
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\r", "")
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}
