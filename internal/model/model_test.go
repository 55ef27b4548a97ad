// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, "Hello")

	if msg.ID == "" {
		t.Error("Expected non-empty message ID")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("Expected msg_ prefix, got %s", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Expected user role, got %s", msg.Role)
	}
	if msg.Content != "Hello" {
		t.Errorf("Expected content 'Hello', got '%s'", msg.Content)
	}
	if msg.Zone == "" {
		t.Error("Expected zone to be recorded")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewMessage(RoleUser, "x")
		if seen[msg.ID] {
			t.Fatalf("Duplicate message ID: %s", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestToggleStarred(t *testing.T) {
	msg := NewUserMessage("star me")

	if msg.Starred {
		t.Error("Messages should start unstarred")
	}
	if got := msg.ToggleStarred(); !got {
		t.Error("First toggle should star")
	}
	if got := msg.ToggleStarred(); got {
		t.Error("Second toggle should unstar")
	}
}

func TestMessagePreview(t *testing.T) {
	msg := NewUserMessage("This is a fairly long message that should be truncated")

	preview := msg.Preview(20)
	if len([]rune(preview)) > 20 {
		t.Errorf("Preview too long: %q", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Expected ellipsis, got %q", preview)
	}

	short := NewUserMessage("short")
	if short.Preview(20) != "short" {
		t.Error("Short content should not be truncated")
	}
}

func TestMessagePreviewUnicode(t *testing.T) {
	msg := NewUserMessage(strings.Repeat("日本語テキスト", 10))
	preview := msg.Preview(10)
	if len([]rune(preview)) > 10 {
		t.Errorf("Unicode preview too long: %q", preview)
	}
}

func TestRoleDisplayName(t *testing.T) {
	cases := map[Role]string{
		RoleUser:      "You",
		RoleAssistant: "Assistant",
		RoleSystem:    "System",
		Role("other"): "other",
	}
	for role, want := range cases {
		if got := role.DisplayName(); got != want {
			t.Errorf("DisplayName(%s) = %s, want %s", role, got, want)
		}
	}
}

func TestConversationAddMessage(t *testing.T) {
	conv := NewConversation()

	if !conv.IsEmpty() {
		t.Error("New conversation should be empty")
	}

	conv.AddMessage(NewUserMessage("first"))
	conv.AddMessage(NewAssistantMessage("local", "llama3.2"))

	if conv.MessageCount() != 2 {
		t.Errorf("Expected 2 messages, got %d", conv.MessageCount())
	}
	if conv.LastMessage().Role != RoleAssistant {
		t.Error("Last message should be the assistant shell")
	}
	if conv.LastUserMessage().Content != "first" {
		t.Error("LastUserMessage should find the user message")
	}
}

func TestConversationTitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()
	conv.AddMessage(NewSystemMessage("system prompt"))
	conv.AddMessage(NewUserMessage("How do I link notes together?"))

	if conv.Title != "How do I link notes together?" {
		t.Errorf("Expected title from first user message, got %q", conv.Title)
	}

	// Title does not change once set
	conv.AddMessage(NewUserMessage("Another question entirely"))
	if conv.Title != "How do I link notes together?" {
		t.Error("Title should not change after being derived")
	}
}

func TestConversationTitleCollapsesNewlines(t *testing.T) {
	conv := NewConversation()
	conv.AddMessage(NewUserMessage("line one\nline two"))

	if strings.Contains(conv.Title, "\n") {
		t.Errorf("Title should not contain newlines: %q", conv.Title)
	}
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation()
	msg := NewUserMessage("original")
	msg.Attachments = []Resource{{ID: "res_1", Name: "notes.md"}}
	conv.AddMessage(msg)

	clone := conv.Clone()
	clone.Messages[0].Content = "mutated"
	clone.Messages[0].Attachments[0].Name = "other.md"

	if conv.Messages[0].Content != "original" {
		t.Error("Clone mutation leaked into original message")
	}
	if conv.Messages[0].Attachments[0].Name != "notes.md" {
		t.Error("Clone mutation leaked into original attachments")
	}
}

func TestStatisticsFirstTokenOnlyOnce(t *testing.T) {
	stats := NewStatistics()
	stats.RecordFirstToken()
	first := stats.FirstTokenTime

	time.Sleep(5 * time.Millisecond)
	stats.RecordFirstToken()

	if !stats.FirstTokenTime.Equal(first) {
		t.Error("RecordFirstToken should be idempotent")
	}
}

func TestStatisticsFinalize(t *testing.T) {
	stats := NewStatistics()
	time.Sleep(10 * time.Millisecond)
	stats.Finalize(100)

	if stats.CompletionTokens != 100 {
		t.Errorf("Expected 100 completion tokens, got %d", stats.CompletionTokens)
	}
	if stats.TotalDuration <= 0 {
		t.Error("Expected positive total duration")
	}
	if stats.TokensPerSecond <= 0 {
		t.Error("Expected positive tokens per second")
	}
}

func TestFormatStats(t *testing.T) {
	msg := NewAssistantMessage("local", "llama3.2")
	msg.TotalDuration = 2500 * time.Millisecond
	msg.TokenCount = 128
	msg.TokensPerSec = 51.2
	msg.TTFT = 234 * time.Millisecond

	got := msg.FormatStats()
	if !strings.Contains(got, "128 tokens") {
		t.Errorf("Expected token count in stats line: %q", got)
	}
	if !strings.Contains(got, "TTFT 234ms") {
		t.Errorf("Expected TTFT in stats line: %q", got)
	}

	user := NewUserMessage("hi")
	if user.FormatStats() != "" {
		t.Error("User messages have no stats line")
	}
}
