// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/scribe-tui/internal/model"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func sampleConversation(userContent string) *model.Conversation {
	conv := model.NewConversation()
	conv.ActiveProvider = "ollama"
	conv.ActiveModel = "llama3.2"
	conv.AddMessage(model.NewUserMessage(userContent))
	reply := model.NewAssistantMessage("ollama", "llama3.2")
	reply.Content = "Here is an answer."
	conv.AddMessage(reply)
	return conv
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	conv := sampleConversation("How do I write a goroutine?")
	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty ID")
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.ID != conv.ID {
		t.Errorf("ID = %q, want %q", loaded.ID, conv.ID)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(loaded.Messages))
	}
	if loaded.Messages[0].Content != "How do I write a goroutine?" {
		t.Errorf("user content = %q", loaded.Messages[0].Content)
	}
	if loaded.Messages[1].Provider != "ollama" {
		t.Errorf("provider = %q", loaded.Messages[1].Provider)
	}
}

func TestSavePreservesAttachmentsAndStarred(t *testing.T) {
	store := newTestStore(t)

	conv := model.NewConversation()
	msg := model.NewUserMessage("see attached")
	msg.Attachments = []model.Resource{{
		ID:         model.NewResourceID(),
		Name:       "notes.md",
		StoredPath: "/tmp/res/notes.md",
		Size:       1024,
	}}
	msg.Starred = true
	conv.AddMessage(msg)

	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Messages[0].Attachments) != 1 {
		t.Fatal("attachments not persisted")
	}
	if loaded.Messages[0].Attachments[0].Name != "notes.md" {
		t.Errorf("attachment name = %q", loaded.Messages[0].Attachments[0].Name)
	}
	if !loaded.Messages[0].Starred {
		t.Error("starred flag not persisted")
	}
}

func TestLoadNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("conv_missing")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestSaveDerivesTitle(t *testing.T) {
	store := newTestStore(t)

	conv := &model.Conversation{ID: model.NewConversationID()}
	conv.Messages = append(conv.Messages, model.NewUserMessage("Explain the context package in Go"))

	if _, err := store.Save(conv); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(conv.Title, "Explain the context package") {
		t.Errorf("derived title = %q", conv.Title)
	}
}

// =============================================================================
// APPEND
// =============================================================================

func TestAppendMessage(t *testing.T) {
	store := newTestStore(t)

	conv := sampleConversation("first")
	id, err := store.Save(conv)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	updated, err := store.AppendMessage(id, model.NewUserMessage("second"))
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if len(updated.Messages) != 3 {
		t.Fatalf("message count = %d, want 3", len(updated.Messages))
	}

	// The file reflects the append.
	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Messages[2].Content != "second" {
		t.Errorf("appended content = %q", loaded.Messages[2].Content)
	}
}

func TestAppendMessageMissingConversation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AppendMessage("conv_missing", model.NewUserMessage("hi"))
	if !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound, got %v", err)
	}
}

// =============================================================================
// LIST / SEARCH
// =============================================================================

func TestListSortedByRecency(t *testing.T) {
	store := newTestStore(t)

	old := sampleConversation("older question")
	if _, err := store.Save(old); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	recent := sampleConversation("newer question")
	if _, err := store.Save(recent); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("meta count = %d, want 2", len(metas))
	}
	if metas[0].ID != recent.ID {
		t.Error("most recent conversation should list first")
	}
	if metas[0].MessageCount != 2 {
		t.Errorf("message count = %d", metas[0].MessageCount)
	}
	if metas[0].Preview != "newer question" {
		t.Errorf("preview = %q", metas[0].Preview)
	}
}

func TestListSkipsCorruptedFiles(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(sampleConversation("intact")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.BaseDir, "conv_bad.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("meta count = %d, want 1", len(metas))
	}
}

func TestListByProject(t *testing.T) {
	store := newTestStore(t)

	inProject := model.NewConversationForProject("proj_docs")
	inProject.AddMessage(model.NewUserMessage("project question"))
	if _, err := store.Save(inProject); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(sampleConversation("loose question")); err != nil {
		t.Fatal(err)
	}

	metas, err := store.ListByProject("proj_docs")
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(metas) != 1 || metas[0].ID != inProject.ID {
		t.Errorf("unexpected project listing: %+v", metas)
	}
}

func TestSearchMatchesTitleAndPreview(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save(sampleConversation("tell me about goroutines")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(sampleConversation("what is a channel")); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search("GOROUTINE")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("result count = %d, want 1", len(results))
	}

	results, err = store.Search("nothing matches this")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

// =============================================================================
// DELETE / LIMIT
// =============================================================================

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	conv := sampleConversation("short lived")
	id, err := store.Save(conv)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(id); !errors.Is(err, ErrConversationNotFound) {
		t.Error("conversation should be gone after delete")
	}
	if err := store.Delete(id); !errors.Is(err, ErrConversationNotFound) {
		t.Error("double delete should report not found")
	}
}

func TestMaxConversationsEnforced(t *testing.T) {
	store := newTestStore(t)
	store.MaxConversations = 3

	for i := 0; i < 5; i++ {
		if _, err := store.Save(sampleConversation("question")); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 3 {
		t.Errorf("conversation count = %d, want 3", len(metas))
	}
}

// =============================================================================
// PATH MAPPING
// =============================================================================

func TestConversationIDFromPath(t *testing.T) {
	store := newTestStore(t)

	path := filepath.Join(store.BaseDir, "conv_abc123.json")
	if got := store.ConversationIDFromPath(path); got != "conv_abc123" {
		t.Errorf("id = %q", got)
	}
	if got := store.ConversationIDFromPath(filepath.Join(store.BaseDir, "notes.txt")); got != "" {
		t.Errorf("non-json path should map to empty id, got %q", got)
	}
	if got := store.ConversationIDFromPath("/elsewhere/conv_abc123.json"); got != "" {
		t.Errorf("foreign path should map to empty id, got %q", got)
	}
}
