// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll keeps the message view pinned to the newest content while
// a response streams in, without fighting a user who scrolled up to read
// history.
//
// The coordinator watches scroll positions reported by the view and stream
// content changes reported by the stream store. A hysteresis band decides
// when the user has taken over (far from the bottom) and when they have
// come back (at the bottom); two different thresholds avoid flapping at a
// single boundary. Programmatic scrolls during streaming are rate-limited
// so rapid token arrival does not overwhelm the render pipeline.
package scroll

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/scribe-tui/internal/stream"
)

// =============================================================================
// SURFACE BOUNDARY
// =============================================================================

// Surface is the scrollable view the coordinator drives. In the TUI this
// is the chat viewport; tests use a fake.
type Surface interface {
	// DistanceFromBottom returns how many lines of content lie below the
	// visible window. Zero means pinned to the newest content.
	DistanceFromBottom() int

	// ScrollToBottom moves the view to the newest content. smooth is a
	// rendering hint; surfaces that cannot animate may ignore it.
	ScrollToBottom(smooth bool)
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Defaults for the hysteresis band and throttle window.
const (
	// DefaultPauseThreshold is the distance from the bottom beyond which
	// auto-scroll pauses: the user is reading history.
	DefaultPauseThreshold = 100

	// DefaultResumeThreshold is the distance at or under which auto-scroll
	// resumes. Deliberately smaller than the pause threshold.
	DefaultResumeThreshold = 20

	// DefaultThrottle is the minimum interval between programmatic
	// scrolls triggered by content changes.
	DefaultThrottle = 300 * time.Millisecond

	// settleAttempts bounds the instant scroll-to-bottom retry loop that
	// rides out late content growth (viewport re-wrap, code blocks).
	settleAttempts = 10

	// settleMaxDelay caps the retry backoff.
	settleMaxDelay = 300 * time.Millisecond
)

// Config tunes a Coordinator. Zero values fall back to the defaults.
type Config struct {
	PauseThreshold  int
	ResumeThreshold int
	Throttle        time.Duration
}

// Coordinator implements the auto-scroll policy over one Surface.
//
// Thread-safety: observation calls may arrive from the stream goroutine
// (via the store change listener) while scroll positions arrive from the
// UI loop; state is mutex-guarded. Surface calls happen outside the lock.
type Coordinator struct {
	mu sync.Mutex

	surface Surface
	tracker *stream.ContentTracker
	limiter *rate.Limiter

	pauseThreshold  int
	resumeThreshold int

	paused        bool
	lastToolCalls int
}

// NewCoordinator creates a coordinator with default thresholds.
func NewCoordinator(surface Surface) *Coordinator {
	return NewCoordinatorWithConfig(surface, Config{})
}

// NewCoordinatorWithConfig creates a coordinator with custom thresholds.
func NewCoordinatorWithConfig(surface Surface, cfg Config) *Coordinator {
	if cfg.PauseThreshold <= 0 {
		cfg.PauseThreshold = DefaultPauseThreshold
	}
	if cfg.ResumeThreshold <= 0 {
		cfg.ResumeThreshold = DefaultResumeThreshold
	}
	if cfg.Throttle <= 0 {
		cfg.Throttle = DefaultThrottle
	}
	return &Coordinator{
		surface:         surface,
		tracker:         stream.NewContentTracker(),
		limiter:         rate.NewLimiter(rate.Every(cfg.Throttle), 1),
		pauseThreshold:  cfg.PauseThreshold,
		resumeThreshold: cfg.ResumeThreshold,
	}
}

// =============================================================================
// OBSERVATIONS
// =============================================================================

// ObserveScroll processes a scroll position change on the surface. Called
// for every native scroll event, user- or program-initiated.
//
// Hysteresis: distances beyond the pause threshold pause auto-scroll;
// distances at or under the resume threshold resume it; anything in
// between leaves the current state alone.
func (c *Coordinator) ObserveScroll(distanceFromBottom int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case distanceFromBottom > c.pauseThreshold:
		c.paused = true
	case distanceFromBottom <= c.resumeThreshold:
		c.paused = false
	}
}

// ObserveStream processes a stream store change for the displayed
// conversation. Scrolls to the bottom when content actually changed,
// auto-scroll is not paused, and the throttle allows it. Tool-call
// milestones always scroll regardless of the throttle.
func (c *Coordinator) ObserveStream(snap stream.Snapshot) {
	c.mu.Lock()

	milestone := snap.ToolCalls != c.lastToolCalls
	c.lastToolCalls = snap.ToolCalls

	changed := c.tracker.Changed(snap.Content)
	paused := c.paused

	shouldScroll := false
	if !paused {
		if milestone {
			shouldScroll = true
		} else if changed && c.limiter.Allow() {
			shouldScroll = true
		}
	}
	c.mu.Unlock()

	if shouldScroll {
		c.surface.ScrollToBottom(true)
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// ResumeAndScroll clears the paused flag and scrolls unconditionally.
// Backs the user-facing "scroll to latest" affordance.
func (c *Coordinator) ResumeAndScroll() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()

	c.surface.ScrollToBottom(true)
}

// ScrollToBottomInstant jumps to the bottom and then re-checks for a
// bounded number of attempts with increasing delay, to ride out content
// that grows asynchronously after the first jump. Blocks for at most
// roughly two seconds; run it off the UI loop.
func (c *Coordinator) ScrollToBottomInstant() {
	c.surface.ScrollToBottom(false)

	delay := 10 * time.Millisecond
	for attempt := 0; attempt < settleAttempts; attempt++ {
		if c.surface.DistanceFromBottom() == 0 {
			return
		}
		time.Sleep(delay)
		c.surface.ScrollToBottom(false)

		delay *= 2
		if delay > settleMaxDelay {
			delay = settleMaxDelay
		}
	}
}

// Reset clears pause state, the content baseline, and the milestone
// counter. Use when switching conversations.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	c.lastToolCalls = 0
	c.tracker.Reset()
}

// Paused reports whether auto-scroll is currently suspended.
func (c *Coordinator) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
