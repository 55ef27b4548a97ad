// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jeranaias/scribe-tui/internal/model"
)

func newTestIndex(t *testing.T) *SearchIndex {
	t.Helper()
	idx, err := NewSearchIndex(filepath.Join(t.TempDir(), "search.db"))
	if err != nil {
		t.Fatalf("NewSearchIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	conv := sampleConversation("how do goroutines work under the hood")
	if err := idx.IndexConversation(ctx, conv); err != nil {
		t.Fatalf("IndexConversation: %v", err)
	}

	hits, err := idx.Search(ctx, "goroutines", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hit count = %d, want 1", len(hits))
	}
	if hits[0].ConversationID != conv.ID {
		t.Errorf("conversation id = %q", hits[0].ConversationID)
	}
	if hits[0].Role != "user" {
		t.Errorf("role = %q", hits[0].Role)
	}
}

func TestSearchNoMatches(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.IndexConversation(ctx, sampleConversation("channels and select")); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, "kubernetes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestReindexReplacesOldRows(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	conv := sampleConversation("original topic alpha")
	if err := idx.IndexConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	// Re-index with rewritten content; old rows must not linger.
	conv.Messages[0].Content = "replacement topic beta"
	if err := idx.IndexConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	hits, err := idx.Search(ctx, "alpha", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("stale rows survived re-index: %+v", hits)
	}

	hits, err = idx.Search(ctx, "beta", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("new rows not searchable, hits = %d", len(hits))
	}
}

func TestRemoveConversation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	conv := sampleConversation("ephemeral discussion")
	if err := idx.IndexConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}
	if err := idx.RemoveConversation(ctx, conv.ID); err != nil {
		t.Fatalf("RemoveConversation: %v", err)
	}

	hits, err := idx.Search(ctx, "ephemeral", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("removed conversation still searchable: %+v", hits)
	}
}

func TestRebuildFromStore(t *testing.T) {
	idx := newTestIndex(t)
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(sampleConversation("first about interfaces")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(sampleConversation("second about generics")); err != nil {
		t.Fatal(err)
	}

	if err := idx.Rebuild(ctx, store); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, err := idx.Search(ctx, "generics", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("rebuild missed a conversation, hits = %d", len(hits))
	}
}

func TestClosedIndexRejectsOperations(t *testing.T) {
	idx := newTestIndex(t)
	idx.Close()

	if err := idx.IndexConversation(context.Background(), sampleConversation("x")); err != ErrIndexClosed {
		t.Errorf("expected ErrIndexClosed, got %v", err)
	}
	if _, err := idx.Search(context.Background(), "x", 1); err != ErrIndexClosed {
		t.Errorf("expected ErrIndexClosed, got %v", err)
	}
}

func TestIndexEmptyConversation(t *testing.T) {
	idx := newTestIndex(t)

	conv := model.NewConversation()
	conv.Title = "empty"
	if err := idx.IndexConversation(context.Background(), conv); err != nil {
		t.Fatalf("indexing an empty conversation should work: %v", err)
	}
}
