// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// =============================================================================
// CONTENT TRACKER
// =============================================================================

// ContentTracker detects whether rendered content actually changed between
// updates. During streaming the same content can be offered for render many
// times per second; hashing lets callers skip redundant work (and lets the
// scroll coordinator ignore no-op updates instead of re-scrolling).
//
// SHA-256 is fast enough for message-sized content and, unlike a length
// check, catches in-place edits that keep the same length.
//
// Thread-safe.
type ContentTracker struct {
	mu       sync.Mutex
	lastHash string
	seen     bool
}

// NewContentTracker creates a tracker. The first Changed call always
// reports true.
func NewContentTracker() *ContentTracker {
	return &ContentTracker{}
}

// Changed reports whether content differs from the previously observed
// content, and records it as the new baseline when it does.
func (t *ContentTracker) Changed(content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := hashContent(content)
	if t.seen && h == t.lastHash {
		return false
	}
	t.lastHash = h
	t.seen = true
	return true
}

// Reset clears the baseline so the next Changed call reports true.
// Use when switching conversations.
func (t *ContentTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastHash = ""
	t.seen = false
}

// hashContent computes a SHA-256 hash of the content for change detection.
func hashContent(content string) string {
	if content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
