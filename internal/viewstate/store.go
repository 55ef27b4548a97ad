// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package viewstate holds the in-memory view model: which conversation and
// project are displayed, a pending descriptor for a conversation that does
// not exist on disk yet, and an optimistically updated working copy of the
// displayed conversation.
//
// The working copy follows a two-phase model. Messages spliced in before
// persistence confirms are tracked as pending; Confirm promotes them, and
// Reconcile replaces the copy with the persisted record while re-appending
// any still-pending messages. The message sequence of the working copy is
// always the persisted sequence plus a pending suffix, never a reordering.
package viewstate

import (
	"sync"

	"github.com/jeranaias/scribe-tui/internal/model"
)

// =============================================================================
// TYPES
// =============================================================================

// PendingConversation describes a conversation the user has begun but that
// has not been created yet. Creation is deferred until first submit so
// abandoned drafts leave nothing behind.
type PendingConversation struct {
	Title     string
	ProjectID string
	Provider  string
	Model     string
}

// Store tracks the displayed conversation and project.
//
// Thread-safety: all methods are safe for concurrent use. Accessors return
// deep copies so callers can read without holding any lock, and subscriber
// callbacks run outside the store lock.
type Store struct {
	mu sync.Mutex

	conversation *model.Conversation
	projectID    string
	pending      *PendingConversation

	// pendingIDs tracks optimistic messages awaiting persistence
	// confirmation.
	pendingIDs map[string]bool

	subscribers []func(*model.Conversation)
}

// NewStore creates an empty view state store.
func NewStore() *Store {
	return &Store{
		pendingIDs: make(map[string]bool),
	}
}

// =============================================================================
// ACTIVE CONVERSATION
// =============================================================================

// SetActiveConversation replaces the displayed conversation. Pending
// tracking from the previous conversation is discarded. Passing nil clears
// the display.
func (s *Store) SetActiveConversation(conv *model.Conversation) {
	s.mu.Lock()
	if conv != nil {
		s.conversation = conv.Clone()
	} else {
		s.conversation = nil
	}
	s.pendingIDs = make(map[string]bool)
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// ActiveConversation returns a deep copy of the displayed conversation, or
// nil when nothing is displayed.
func (s *Store) ActiveConversation() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneLocked()
}

// ActiveConversationID returns the displayed conversation's id, or "".
func (s *Store) ActiveConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversation == nil {
		return ""
	}
	return s.conversation.ID
}

// SetActiveProject records the displayed project.
func (s *Store) SetActiveProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = projectID
}

// ActiveProject returns the displayed project id, or "".
func (s *Store) ActiveProject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

// =============================================================================
// PENDING CONVERSATION
// =============================================================================

// SetPending records a descriptor for a not-yet-created conversation and
// clears the active conversation.
func (s *Store) SetPending(p PendingConversation) {
	s.mu.Lock()
	s.pending = &p
	s.conversation = nil
	s.pendingIDs = make(map[string]bool)
	s.mu.Unlock()

	s.notify(nil)
}

// TakePending returns the pending descriptor and clears it, or nil when
// none is set. The caller owns conversation creation from here.
func (s *Store) TakePending() *PendingConversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

// HasPending reports whether a pending descriptor is set.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// =============================================================================
// OPTIMISTIC SPLICE
// =============================================================================

// SpliceMessage appends a message to the working copy before persistence
// confirms it, so the UI renders it immediately. The message is tracked as
// pending until Confirm or Reconcile. Returns false when no conversation is
// displayed or the id targets a different conversation.
func (s *Store) SpliceMessage(conversationID string, msg *model.Message) bool {
	s.mu.Lock()
	if s.conversation == nil || s.conversation.ID != conversationID {
		s.mu.Unlock()
		return false
	}
	s.conversation.AddMessage(msg)
	s.pendingIDs[msg.ID] = true
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Confirm marks a previously spliced message as persisted.
func (s *Store) Confirm(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingIDs, messageID)
}

// IsPending reports whether a spliced message is still awaiting
// confirmation.
func (s *Store) IsPending(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingIDs[messageID]
}

// PendingCount returns the number of spliced messages still awaiting
// confirmation.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingIDs)
}

// Reconcile replaces the working copy with the persisted record, then
// re-appends any still-pending optimistic messages the record does not
// contain. A pending message the record does contain is treated as
// confirmed. No-op when the record targets a different conversation.
func (s *Store) Reconcile(persisted *model.Conversation) {
	s.mu.Lock()
	if s.conversation == nil || persisted == nil || s.conversation.ID != persisted.ID {
		s.mu.Unlock()
		return
	}

	// Collect pending messages from the current copy before replacing it.
	var carry []*model.Message
	for _, msg := range s.conversation.Messages {
		if s.pendingIDs[msg.ID] && persisted.MessageByID(msg.ID) == nil {
			carry = append(carry, msg)
		}
	}

	s.conversation = persisted.Clone()
	remaining := make(map[string]bool, len(carry))
	for _, msg := range carry {
		s.conversation.AddMessage(msg)
		remaining[msg.ID] = true
	}
	s.pendingIDs = remaining
	snapshot := s.cloneLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers a callback invoked after every change to the
// displayed conversation, with a deep copy of the new state (nil when the
// display was cleared). Callbacks run on the mutating goroutine, outside
// the store lock; keep them fast.
func (s *Store) Subscribe(fn func(*model.Conversation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(snapshot *model.Conversation) {
	s.mu.Lock()
	subs := make([]func(*model.Conversation), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) cloneLocked() *model.Conversation {
	if s.conversation == nil {
		return nil
	}
	return s.conversation.Clone()
}
