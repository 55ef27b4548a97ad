// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message on the wire.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system", "tool"
	Content string `json:"content"` // The message content
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// Options contains model parameters for inference.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"` // 0.0-2.0, default 0.8
	TopP        float64 `json:"top_p,omitempty"`       // 0.0-1.0, default 0.9
	NumCtx      int     `json:"num_ctx,omitempty"`     // Context window size
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens, -1 for unlimited
	Seed        int     `json:"seed,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ChatResponse is the response from /api/chat (non-streaming).
type ChatResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Message            Message   `json:"message"`
	Done               bool      `json:"done"`
	DoneReason         string    `json:"done_reason,omitempty"`
	TotalDuration      int64     `json:"total_duration,omitempty"`       // nanoseconds
	LoadDuration       int64     `json:"load_duration,omitempty"`        // nanoseconds
	PromptEvalCount    int       `json:"prompt_eval_count,omitempty"`    // prompt tokens
	PromptEvalDuration int64     `json:"prompt_eval_duration,omitempty"` // nanoseconds
	EvalCount          int       `json:"eval_count,omitempty"`           // generated tokens
	EvalDuration       int64     `json:"eval_duration,omitempty"`        // nanoseconds
}

// ModelInfo contains information about a locally available model.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

type listModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// apiError is the error body Ollama-compatible backends return on non-200.
type apiError struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// ToolCall represents a tool invocation from the model.
type ToolCall struct {
	Function ToolFunction `json:"function"`
}

// ToolFunction contains the function name and arguments.
type ToolFunction struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// StreamChunk represents a single chunk from a streaming response.
type StreamChunk struct {
	// Content from this chunk.
	Content string

	// Tool calls requested by the model.
	ToolCalls []ToolCall

	// Done marks the final chunk; the duration and token fields below are
	// only populated when Done is true.
	Done               bool
	DoneReason         string
	TotalDuration      time.Duration
	LoadDuration       time.Duration
	PromptEvalDuration time.Duration
	EvalDuration       time.Duration

	PromptTokens     int
	CompletionTokens int

	// Model information.
	Model string

	// Error if any occurred during streaming.
	Error error
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// NewUserMessage creates a user wire message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant wire message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system wire message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}
