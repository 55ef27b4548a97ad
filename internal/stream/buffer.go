// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"sync"
	"time"
)

// =============================================================================
// TOKEN BUFFER
// =============================================================================

// TokenBuffer batches streamed deltas for rendering. A flush happens when
// either the batch size threshold is reached or enough time has passed
// since the last flush. Rendering every single token causes flicker and
// burns CPU at high token rates; batching caps the redraw rate without
// adding visible latency.
//
// Thread-safety: deltas arrive from the stream goroutine while flushes run
// on the UI loop, so all operations take the mutex.
type TokenBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize     int
	flushInterval time.Duration
}

// NewTokenBuffer creates a buffer with default settings: 15 tokens per
// batch, ~33ms minimum between flushes (30fps).
func NewTokenBuffer() *TokenBuffer {
	return NewTokenBufferWithConfig(15, 33*time.Millisecond)
}

// NewTokenBufferWithConfig creates a buffer with custom thresholds.
// Non-positive values fall back to the defaults.
func NewTokenBufferWithConfig(batchSize int, flushInterval time.Duration) *TokenBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if flushInterval <= 0 {
		flushInterval = 33 * time.Millisecond
	}
	return &TokenBuffer{
		batchSize:     batchSize,
		flushInterval: flushInterval,
		lastFlush:     time.Now(),
	}
}

// Write adds a delta to the buffer.
func (b *TokenBuffer) Write(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer.WriteString(token)
	b.tokenCount++
}

// Flush returns accumulated content if a threshold has been crossed.
// Returns ("", false) when nothing should be flushed yet.
func (b *TokenBuffer) Flush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer.Len() == 0 || !b.thresholdCrossedLocked() {
		return "", false
	}
	return b.drainLocked(), true
}

// ForceFlush drains everything regardless of thresholds. Use when a stream
// settles so no buffered tokens are lost.
func (b *TokenBuffer) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer.Len() == 0 {
		return "", false
	}
	return b.drainLocked(), true
}

// Reset discards buffered content without flushing. Use when canceling a
// stream or starting a new one.
func (b *TokenBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer.Reset()
	b.tokenCount = 0
	b.lastFlush = time.Now()
}

// Pending returns the number of tokens waiting to be flushed.
func (b *TokenBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokenCount
}

// thresholdCrossedLocked reports whether size or time justifies a flush.
// Caller must hold the lock.
func (b *TokenBuffer) thresholdCrossedLocked() bool {
	if b.tokenCount >= b.batchSize {
		return true
	}
	return time.Since(b.lastFlush) >= b.flushInterval
}

// drainLocked extracts the content and resets counters. Caller must hold
// the lock.
func (b *TokenBuffer) drainLocked() string {
	content := b.buffer.String()
	b.buffer.Reset()
	b.tokenCount = 0
	b.lastFlush = time.Now()
	return content
}
