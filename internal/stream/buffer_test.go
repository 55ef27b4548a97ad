// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTokenBufferFlushBySize(t *testing.T) {
	b := NewTokenBufferWithConfig(3, time.Hour)

	b.Write("A")
	b.Write("B")

	if _, ok := b.Flush(); ok {
		t.Error("Should not flush before reaching batch size")
	}

	b.Write("C")

	content, ok := b.Flush()
	if !ok {
		t.Fatal("Should flush after reaching batch size")
	}
	if content != "ABC" {
		t.Errorf("Expected 'ABC', got %q", content)
	}
	if b.Pending() != 0 {
		t.Errorf("Expected empty buffer after flush, got %d pending", b.Pending())
	}
}

func TestTokenBufferFlushByTime(t *testing.T) {
	b := NewTokenBufferWithConfig(1000, 10*time.Millisecond)

	b.Write("slow")
	time.Sleep(15 * time.Millisecond)

	content, ok := b.Flush()
	if !ok {
		t.Fatal("Should flush after the time threshold")
	}
	if content != "slow" {
		t.Errorf("Expected 'slow', got %q", content)
	}
}

func TestTokenBufferEmptyNeverFlushes(t *testing.T) {
	b := NewTokenBufferWithConfig(1, time.Nanosecond)

	time.Sleep(time.Millisecond)
	if _, ok := b.Flush(); ok {
		t.Error("Empty buffer must not flush")
	}
	if _, ok := b.ForceFlush(); ok {
		t.Error("Empty buffer must not force-flush")
	}
}

func TestTokenBufferForceFlush(t *testing.T) {
	b := NewTokenBufferWithConfig(1000, time.Hour)

	b.Write("remaining")
	content, ok := b.ForceFlush()
	if !ok || content != "remaining" {
		t.Errorf("ForceFlush should drain regardless of thresholds, got %q", content)
	}
}

func TestTokenBufferReset(t *testing.T) {
	b := NewTokenBuffer()
	b.Write("discard me")
	b.Reset()

	if b.Pending() != 0 {
		t.Error("Reset should discard buffered tokens")
	}
	if _, ok := b.ForceFlush(); ok {
		t.Error("Nothing should remain after reset")
	}
}

func TestTokenBufferDefaultsOnBadConfig(t *testing.T) {
	b := NewTokenBufferWithConfig(0, 0)

	for i := 0; i < 15; i++ {
		b.Write("x")
	}
	if content, ok := b.Flush(); !ok || content != strings.Repeat("x", 15) {
		t.Error("Default batch size of 15 should apply when config is non-positive")
	}
}

func TestTokenBufferConcurrentWrites(t *testing.T) {
	b := NewTokenBufferWithConfig(100000, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				b.Write("t")
			}
		}()
	}
	wg.Wait()

	content, _ := b.ForceFlush()
	if len(content) != 2000 {
		t.Errorf("Expected 2000 bytes, got %d", len(content))
	}
}

func TestContentTrackerDetectsChange(t *testing.T) {
	tr := NewContentTracker()

	if !tr.Changed("first render") {
		t.Error("First observation always counts as changed")
	}
	if tr.Changed("first render") {
		t.Error("Identical content must not count as changed")
	}
	if !tr.Changed("second render") {
		t.Error("New content must count as changed")
	}
}

func TestContentTrackerSameLengthEdit(t *testing.T) {
	tr := NewContentTracker()
	tr.Changed("abcd")

	if !tr.Changed("abce") {
		t.Error("Same-length edits must be detected")
	}
}

func TestContentTrackerReset(t *testing.T) {
	tr := NewContentTracker()
	tr.Changed("content")
	tr.Reset()

	if !tr.Changed("content") {
		t.Error("After reset the same content counts as changed again")
	}
}

func TestContentTrackerEmptyFirst(t *testing.T) {
	tr := NewContentTracker()

	if !tr.Changed("") {
		t.Error("First observation counts as changed even when empty")
	}
	if tr.Changed("") {
		t.Error("Repeated empty content is unchanged")
	}
}
