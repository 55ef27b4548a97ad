// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/scribe-tui/internal/model"
)

func exportFixture() *model.Conversation {
	conv := model.NewConversation()
	conv.SetTitle("Export Test")
	conv.ActiveProvider = "ollama"
	conv.ActiveModel = "llama3.2"

	user := model.NewUserMessage("what is a goroutine?")
	user.Attachments = []model.Resource{{Name: "notes.txt"}}
	conv.AddMessage(user)

	reply := model.NewAssistantMessage("ollama", "llama3.2")
	reply.Content = "A goroutine is a lightweight thread."
	reply.Starred = true
	reply.TokenCount = 9
	reply.TotalDuration = time.Second
	reply.TokensPerSec = 9.0
	reply.TTFT = 50 * time.Millisecond
	conv.AddMessage(reply)
	return conv
}

func TestExportMarkdown(t *testing.T) {
	out := ExportMarkdown(exportFixture())

	assert.Contains(t, out, "# Export Test")
	assert.Contains(t, out, "Model: llama3.2 (ollama)")
	assert.Contains(t, out, "**You**")
	assert.Contains(t, out, "what is a goroutine?")
	assert.Contains(t, out, "A goroutine is a lightweight thread.")
	assert.Contains(t, out, "- notes.txt")
	assert.Contains(t, out, "tok/s")
	assert.Contains(t, out, "★") // starred reply marker
}

func TestExportJSONRoundTrip(t *testing.T) {
	conv := exportFixture()

	data, err := ExportJSON(conv)
	require.NoError(t, err)

	var decoded model.Conversation
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, conv.ID, decoded.ID)
	assert.Equal(t, conv.Title, decoded.Title)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, conv.Messages[1].Content, decoded.Messages[1].Content)
	assert.True(t, decoded.Messages[1].Starred)
}
