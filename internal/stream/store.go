// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"sync"

	"github.com/jeranaias/scribe-tui/internal/model"
)

// =============================================================================
// STREAM STORE
// =============================================================================

// Store is the single source of truth for what each currently streaming
// assistant message looks like right now, decoupled from the persisted
// conversation so the UI can render partial tokens before anything is
// saved.
//
// Entries are keyed by conversation ID. Exactly one entry exists per
// conversation with an active stream; the submission driving that stream
// owns the entry. A second StartStreaming for the same conversation
// replaces the entry (the old accumulator is discarded).
//
// Thread-safety: all operations are protected by a mutex since deltas
// arrive from the stream goroutine while the UI loop reads snapshots.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry tracks one in-flight streaming message.
type entry struct {
	messageID string
	role      model.Role
	// content is append-only for the lifetime of the entry.
	content   strings.Builder
	toolCalls int
}

// Snapshot is an immutable view of one streaming entry. Reading two
// snapshots without an intervening append yields identical content.
type Snapshot struct {
	MessageID string
	Role      model.Role
	Content   string
	ToolCalls int
}

// NewStore creates an empty stream store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// StartStreaming registers a fresh entry for the conversation, resetting
// any previous one. The caller supplies a fresh unique message ID.
func (s *Store) StartStreaming(convID, messageID string, role model.Role) {
	s.mu.Lock()
	s.entries[convID] = &entry{messageID: messageID, role: role}
	s.mu.Unlock()
}

// AppendDelta concatenates text onto the conversation's accumulator.
// Returns false (and drops the delta) if no stream is active for the
// conversation — a delta with no owner has no message ID to land on.
func (s *Store) AppendDelta(convID, text string) bool {
	s.mu.Lock()
	e, ok := s.entries[convID]
	if ok {
		e.content.WriteString(text)
	}
	s.mu.Unlock()
	return ok
}

// RecordToolCall bumps the tool-call milestone counter for the
// conversation's active stream.
func (s *Store) RecordToolCall(convID string) {
	s.mu.Lock()
	e, ok := s.entries[convID]
	if ok {
		e.toolCalls++
	}
	s.mu.Unlock()
}

// CompleteStreaming terminates the stream successfully, removing the entry
// and returning its final snapshot. Persistence is the caller's job; the
// store never persists.
func (s *Store) CompleteStreaming(convID string) (Snapshot, bool) {
	s.mu.Lock()
	e, ok := s.entries[convID]
	var snap Snapshot
	if ok {
		snap = e.snapshot()
		delete(s.entries, convID)
	}
	s.mu.Unlock()
	return snap, ok
}

// ClearStreaming terminates the stream unconditionally, discarding the
// accumulator. Used on error, explicit cancellation, or conversation
// switch. Safe to call with no active stream.
func (s *Store) ClearStreaming(convID string) {
	s.mu.Lock()
	delete(s.entries, convID)
	s.mu.Unlock()
}

// =============================================================================
// READS
// =============================================================================

// Snapshot returns the current state of the conversation's stream.
func (s *Store) Snapshot(convID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[convID]
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(), true
}

// Active returns true if a stream is in flight for the conversation.
func (s *Store) Active(convID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[convID]
	return ok
}

// ActiveCount returns the number of in-flight streams across all
// conversations.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		MessageID: e.messageID,
		Role:      e.role,
		Content:   e.content.String(),
		ToolCalls: e.toolCalls,
	}
}
