// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package scroll

import (
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/scribe-tui/internal/stream"
)

// fakeSurface records scroll calls and serves a scripted distance.
type fakeSurface struct {
	mu       sync.Mutex
	distance int
	scrolls  int
	smooth   []bool

	// distances, when non-empty, is consumed one entry per
	// DistanceFromBottom call. Lets settle-loop tests script content
	// that keeps growing after a jump.
	distances []int

	// sticky keeps the scripted distance across ScrollToBottom calls,
	// simulating content that grows faster than the surface can settle.
	sticky bool
}

func (f *fakeSurface) DistanceFromBottom() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.distances) > 0 {
		d := f.distances[0]
		f.distances = f.distances[1:]
		return d
	}
	return f.distance
}

func (f *fakeSurface) ScrollToBottom(smooth bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls++
	f.smooth = append(f.smooth, smooth)
	if !f.sticky {
		f.distance = 0
	}
}

func (f *fakeSurface) scrollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrolls
}

func snap(content string, toolCalls int) stream.Snapshot {
	return stream.Snapshot{MessageID: "msg_test", Role: "assistant", Content: content, ToolCalls: toolCalls}
}

// =============================================================================
// HYSTERESIS
// =============================================================================

func TestHysteresisPauseAndResume(t *testing.T) {
	c := NewCoordinator(&fakeSurface{})

	if c.Paused() {
		t.Fatal("should start unpaused")
	}

	// Past the pause threshold: user scrolled up.
	c.ObserveScroll(150)
	if !c.Paused() {
		t.Error("150 > 100 should pause")
	}

	// Same distance again: still paused, no flapping.
	c.ObserveScroll(150)
	if !c.Paused() {
		t.Error("repeated 150 should stay paused")
	}

	// Inside the dead band: state unchanged.
	c.ObserveScroll(60)
	if !c.Paused() {
		t.Error("60 is between thresholds, should stay paused")
	}

	// At or under the resume threshold: back to following.
	c.ObserveScroll(15)
	if c.Paused() {
		t.Error("15 <= 20 should resume")
	}
}

func TestHysteresisBoundaries(t *testing.T) {
	c := NewCoordinator(&fakeSurface{})

	c.ObserveScroll(100)
	if c.Paused() {
		t.Error("exactly 100 should not pause")
	}

	c.ObserveScroll(101)
	if !c.Paused() {
		t.Error("101 should pause")
	}

	c.ObserveScroll(21)
	if !c.Paused() {
		t.Error("21 should not resume")
	}

	c.ObserveScroll(20)
	if c.Paused() {
		t.Error("exactly 20 should resume")
	}
}

func TestDeadBandDoesNotResume(t *testing.T) {
	c := NewCoordinator(&fakeSurface{})
	surface := &fakeSurface{}
	c.surface = surface

	c.ObserveScroll(150)
	c.ObserveScroll(50)

	c.ObserveStream(snap("hello", 0))
	if surface.scrollCount() != 0 {
		t.Error("paused coordinator must not scroll on content change")
	}
}

// =============================================================================
// STREAM-DRIVEN SCROLLING
// =============================================================================

func TestContentChangeScrolls(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinator(surface)

	c.ObserveStream(snap("hello", 0))
	if surface.scrollCount() != 1 {
		t.Fatalf("expected 1 scroll, got %d", surface.scrollCount())
	}
}

func TestUnchangedContentDoesNotScroll(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinatorWithConfig(surface, Config{Throttle: time.Nanosecond})

	c.ObserveStream(snap("hello", 0))
	c.ObserveStream(snap("hello", 0))
	if surface.scrollCount() != 1 {
		t.Errorf("identical content should scroll once, got %d", surface.scrollCount())
	}
}

func TestThrottleCoalescesRapidDeltas(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinator(surface) // 300ms throttle

	// Burst of deltas well inside one throttle window.
	c.ObserveStream(snap("a", 0))
	c.ObserveStream(snap("ab", 0))
	c.ObserveStream(snap("abc", 0))
	c.ObserveStream(snap("abcd", 0))

	if got := surface.scrollCount(); got != 1 {
		t.Errorf("burst within throttle window should yield 1 scroll, got %d", got)
	}
}

func TestThrottleAllowsAfterWindow(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinatorWithConfig(surface, Config{Throttle: 20 * time.Millisecond})

	c.ObserveStream(snap("a", 0))
	time.Sleep(30 * time.Millisecond)
	c.ObserveStream(snap("ab", 0))

	if got := surface.scrollCount(); got != 2 {
		t.Errorf("expected 2 scrolls across throttle windows, got %d", got)
	}
}

func TestToolCallBypassesThrottle(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinator(surface)

	// Consume the throttle token.
	c.ObserveStream(snap("a", 0))
	if surface.scrollCount() != 1 {
		t.Fatal("setup scroll missing")
	}

	// Tool-call count changed: must scroll even though throttled.
	c.ObserveStream(snap("a", 1))
	if got := surface.scrollCount(); got != 2 {
		t.Errorf("tool-call milestone should bypass throttle, got %d scrolls", got)
	}

	// Same count again, same content: nothing.
	c.ObserveStream(snap("a", 1))
	if got := surface.scrollCount(); got != 2 {
		t.Errorf("repeated milestone should not scroll, got %d", got)
	}
}

func TestPausedSuppressesMilestones(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinator(surface)

	c.ObserveScroll(500)
	c.ObserveStream(snap("a", 3))
	if surface.scrollCount() != 0 {
		t.Error("paused coordinator must not scroll even for tool calls")
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

func TestResumeAndScroll(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinator(surface)

	c.ObserveScroll(500)
	if !c.Paused() {
		t.Fatal("setup: should be paused")
	}

	c.ResumeAndScroll()
	if c.Paused() {
		t.Error("ResumeAndScroll should clear pause")
	}
	if surface.scrollCount() != 1 {
		t.Error("ResumeAndScroll should scroll immediately")
	}
}

func TestSettleLoopRetriesUntilBottom(t *testing.T) {
	surface := &fakeSurface{
		// First two checks report residual distance, third reports settled.
		distances: []int{40, 12, 0},
	}
	c := NewCoordinator(surface)

	c.ScrollToBottomInstant()

	// One initial jump plus one retry per nonzero distance.
	if got := surface.scrollCount(); got != 3 {
		t.Errorf("expected 3 scrolls (1 initial + 2 retries), got %d", got)
	}
	for i, smooth := range surface.smooth {
		if smooth {
			t.Errorf("scroll %d: instant path must not request smooth", i)
		}
	}
}

func TestSettleLoopBounded(t *testing.T) {
	surface := &fakeSurface{distance: 99, sticky: true} // never settles
	c := NewCoordinator(surface)

	done := make(chan struct{})
	go func() {
		c.ScrollToBottomInstant()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("settle loop did not terminate")
	}

	if got := surface.scrollCount(); got != settleAttempts+1 {
		t.Errorf("expected %d scrolls, got %d", settleAttempts+1, got)
	}
}

func TestResetClearsState(t *testing.T) {
	surface := &fakeSurface{}
	c := NewCoordinatorWithConfig(surface, Config{Throttle: time.Nanosecond})

	c.ObserveScroll(500)
	c.ObserveStream(snap("hello", 2))
	c.Reset()

	if c.Paused() {
		t.Error("Reset should unpause")
	}

	// Same content as before the reset still scrolls: baseline cleared.
	time.Sleep(time.Millisecond)
	c.ObserveStream(snap("hello", 0))
	if surface.scrollCount() != 1 {
		t.Errorf("content after reset should scroll, got %d", surface.scrollCount())
	}
}
