// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// STREAM EVENT TYPES
// =============================================================================

// StreamEventType discriminates events on a chat stream.
type StreamEventType string

const (
	// StreamDelta carries an incremental chunk of assistant text.
	StreamDelta StreamEventType = "delta"
	// StreamToolCall reports a tool invocation milestone.
	StreamToolCall StreamEventType = "tool_call"
	// StreamComplete carries the finished message and usage totals.
	StreamComplete StreamEventType = "complete"
	// StreamError carries a provider-side failure.
	StreamError StreamEventType = "error"
)

// StreamEvent is one event yielded by a provider chat stream. Exactly one
// of Text, Message/Usage, or Err is meaningful, per Type.
type StreamEvent struct {
	Type StreamEventType

	// Text is the delta content (StreamDelta).
	Text string

	// ToolName identifies the tool being invoked (StreamToolCall).
	ToolName string

	// Message is the provider's final assembled message (StreamComplete).
	Message *Message

	// Usage holds token totals for the exchange (StreamComplete, optional).
	Usage *Usage

	// Err is the upstream failure (StreamError).
	Err error
}

// Usage holds token accounting for a completed exchange.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
