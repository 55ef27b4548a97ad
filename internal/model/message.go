// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	// Zone is the IANA zone name the message was created in. Timestamp
	// alone round-trips through JSON as UTC; the zone lets the UI show
	// the wall-clock time the user actually saw.
	Zone string `json:"zone,omitempty"`

	// Content
	Content string `json:"content"`

	// Provenance (assistant messages)
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`

	// Starred is the one field that stays mutable after persistence.
	Starred bool `json:"starred,omitempty"`

	// Attachments uploaded with this message, in upload order.
	Attachments []Resource `json:"attachments,omitempty"`

	// IsError marks an assistant message synthesized from a stream
	// failure. Error messages render inline in the conversation rather
	// than as a transient notification.
	IsError bool `json:"is_error,omitempty"`

	// Token statistics (assistant messages)
	TokenCount int `json:"token_count,omitempty"`

	// Performance metrics (assistant messages)
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	now := time.Now()
	return &Message{
		ID:        generateMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
		Zone:      now.Location().String(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant message shell. Content is
// filled in by the stream orchestrator when the stream settles.
func NewAssistantMessage(provider, modelName string) *Message {
	m := NewMessage(RoleAssistant, "")
	m.Provider = provider
	m.Model = modelName
	return m
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// ToggleStarred flips the starred flag and returns the new value.
func (m *Message) ToggleStarred() bool {
	m.Starred = !m.Starred
	return m.Starred
}

// ApplyStats copies generation statistics onto an assistant message.
func (m *Message) ApplyStats(stats *Statistics) {
	if stats == nil {
		return
	}
	m.TTFT = stats.TTFT
	m.TotalDuration = stats.TotalDuration
	m.TokenCount = stats.CompletionTokens
	m.TokensPerSec = stats.TokensPerSecond
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	return (len(m.Content) + 3) / 4
}

// FormatStats returns a formatted statistics line for assistant messages,
// e.g. "2.5s | 128 tokens | 51.2 tok/s | TTFT 234ms".
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(formatSeconds(m.TotalDuration.Seconds()))
	sb.WriteString(" | ")
	sb.WriteString(formatInt(m.TokenCount))
	sb.WriteString(" tokens | ")
	sb.WriteString(formatFloat1(m.TokensPerSec))
	sb.WriteString(" tok/s | TTFT ")
	sb.WriteString(formatInt(int(m.TTFT.Milliseconds())))
	sb.WriteString("ms")
	return sb.String()
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing and token count information for one generation.
type Statistics struct {
	// Timestamps
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// Token counts
	PromptTokens     int
	CompletionTokens int

	// Derived metrics (computed on Finalize)
	TTFT            time.Duration
	TotalDuration   time.Duration
	TokensPerSecond float64
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFirstToken records when the first token was received.
// Only the first call has an effect.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes the final statistics.
func (s *Statistics) Finalize(tokenCount int) {
	s.EndTime = time.Now()
	s.CompletionTokens = tokenCount
	s.TotalDuration = s.EndTime.Sub(s.StartTime)

	if s.TotalDuration > 0 {
		s.TokensPerSecond = float64(tokenCount) / s.TotalDuration.Seconds()
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}

// formatInt formats an integer without using fmt.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}

	if negative {
		return "-" + string(digits)
	}
	return string(digits)
}

// formatFloat1 formats a float with one decimal place (truncating).
func formatFloat1(f float64) string {
	whole := int(f)
	frac := int((f - float64(whole)) * 10)
	if frac < 0 {
		frac = -frac
	}
	return formatInt(whole) + "." + formatInt(frac)
}

// formatSeconds formats seconds as a short duration string.
func formatSeconds(seconds float64) string {
	if seconds < 1 {
		return formatInt(int(seconds*1000)) + "ms"
	}
	return formatFloat1(seconds) + "s"
}
