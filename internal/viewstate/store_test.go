// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package viewstate

import (
	"testing"

	"github.com/jeranaias/scribe-tui/internal/model"
)

func testConv(t *testing.T) *model.Conversation {
	t.Helper()
	conv := &model.Conversation{
		ID:    model.NewConversationID(),
		Title: "test conversation",
	}
	conv.AddMessage(model.NewUserMessage("first question"))
	return conv
}

func TestSetAndGetActiveConversation(t *testing.T) {
	s := NewStore()

	if s.ActiveConversation() != nil {
		t.Fatal("empty store should have no active conversation")
	}

	conv := testConv(t)
	s.SetActiveConversation(conv)

	got := s.ActiveConversation()
	if got == nil || got.ID != conv.ID {
		t.Fatal("active conversation not round-tripped")
	}
	if s.ActiveConversationID() != conv.ID {
		t.Error("ActiveConversationID mismatch")
	}

	// Returned copy must be isolated from the store.
	got.Messages[0].Content = "mutated"
	again := s.ActiveConversation()
	if again.Messages[0].Content == "mutated" {
		t.Error("accessor must return a deep copy")
	}
}

func TestSetActiveConversationCopiesInput(t *testing.T) {
	s := NewStore()
	conv := testConv(t)
	s.SetActiveConversation(conv)

	// Mutating the caller's value must not leak into the store.
	conv.Messages[0].Content = "mutated"
	if s.ActiveConversation().Messages[0].Content == "mutated" {
		t.Error("store must hold its own copy")
	}
}

func TestPendingConversationLifecycle(t *testing.T) {
	s := NewStore()
	s.SetActiveConversation(testConv(t))

	s.SetPending(PendingConversation{Title: "New Chat", ProjectID: "proj_1"})

	if s.ActiveConversation() != nil {
		t.Error("pending descriptor should clear the active conversation")
	}
	if !s.HasPending() {
		t.Fatal("HasPending should be true")
	}

	p := s.TakePending()
	if p == nil || p.Title != "New Chat" || p.ProjectID != "proj_1" {
		t.Fatalf("unexpected pending descriptor: %+v", p)
	}
	if s.HasPending() {
		t.Error("TakePending should clear the descriptor")
	}
	if s.TakePending() != nil {
		t.Error("second TakePending should return nil")
	}
}

func TestSpliceMessage(t *testing.T) {
	s := NewStore()
	conv := testConv(t)
	s.SetActiveConversation(conv)

	msg := model.NewUserMessage("optimistic")
	if !s.SpliceMessage(conv.ID, msg) {
		t.Fatal("splice into active conversation should succeed")
	}

	got := s.ActiveConversation()
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[1].ID != msg.ID {
		t.Error("spliced message should be appended, not inserted")
	}
	if s.PendingCount() != 1 {
		t.Errorf("expected 1 pending message, got %d", s.PendingCount())
	}

	s.Confirm(msg.ID)
	if s.PendingCount() != 0 {
		t.Error("Confirm should clear pending tracking")
	}
}

func TestSpliceIntoWrongConversationIsRejected(t *testing.T) {
	s := NewStore()
	s.SetActiveConversation(testConv(t))

	if s.SpliceMessage("conv_other", model.NewUserMessage("hi")) {
		t.Error("splice into a different conversation must be rejected")
	}
	if s.SpliceMessage("", model.NewUserMessage("hi")) {
		t.Error("splice with empty id must be rejected")
	}

	s.SetActiveConversation(nil)
	if s.SpliceMessage("conv_any", model.NewUserMessage("hi")) {
		t.Error("splice with no active conversation must be rejected")
	}
}

func TestReconcileKeepsPendingSuffix(t *testing.T) {
	s := NewStore()
	conv := testConv(t)
	s.SetActiveConversation(conv)

	confirmed := model.NewUserMessage("persisted later")
	still := model.NewAssistantMessage("ollama", "llama3.2")
	still.Content = "in flight"
	s.SpliceMessage(conv.ID, confirmed)
	s.SpliceMessage(conv.ID, still)

	// Persisted record contains the original message plus one of the two
	// optimistic splices.
	persisted := conv.Clone()
	persisted.AddMessage(confirmed)
	s.Reconcile(persisted)

	got := s.ActiveConversation()
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages after reconcile, got %d", len(got.Messages))
	}

	// Persisted order is authoritative; the unconfirmed splice follows.
	if got.Messages[1].ID != confirmed.ID {
		t.Error("persisted message should hold its persisted position")
	}
	if got.Messages[2].ID != still.ID {
		t.Error("unconfirmed splice should be re-appended after the persisted sequence")
	}

	// The persisted splice counts as confirmed now.
	if s.PendingCount() != 1 {
		t.Errorf("expected 1 pending message after reconcile, got %d", s.PendingCount())
	}
}

func TestReconcileIgnoresOtherConversations(t *testing.T) {
	s := NewStore()
	conv := testConv(t)
	s.SetActiveConversation(conv)

	other := testConv(t)
	s.Reconcile(other)

	if s.ActiveConversationID() != conv.ID {
		t.Error("reconcile with a different conversation must be ignored")
	}
	s.Reconcile(nil)
	if s.ActiveConversation() == nil {
		t.Error("reconcile with nil must be ignored")
	}
}

func TestSubscribersNotified(t *testing.T) {
	s := NewStore()

	var calls int
	var last *model.Conversation
	s.Subscribe(func(conv *model.Conversation) {
		calls++
		last = conv
	})

	conv := testConv(t)
	s.SetActiveConversation(conv)
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if last == nil || last.ID != conv.ID {
		t.Error("subscriber should receive the new state")
	}

	s.SpliceMessage(conv.ID, model.NewUserMessage("hi"))
	if calls != 2 {
		t.Errorf("splice should notify, got %d calls", calls)
	}

	s.SetActiveConversation(nil)
	if calls != 3 || last != nil {
		t.Error("clearing the display should notify with nil")
	}
}

func TestSwitchingConversationDropsPendingTracking(t *testing.T) {
	s := NewStore()
	conv := testConv(t)
	s.SetActiveConversation(conv)
	s.SpliceMessage(conv.ID, model.NewUserMessage("orphan"))

	s.SetActiveConversation(testConv(t))
	if s.PendingCount() != 0 {
		t.Error("switching conversations should discard pending tracking")
	}
}
