// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// CHAT VIEWPORT - scrollable message history
// =============================================================================

// ChatViewport wraps the bubbles viewport for the message history. It
// satisfies the scroll coordinator's Surface interface; pause/resume policy
// lives in the coordinator, not here.
type ChatViewport struct {
	mu sync.Mutex
	vp viewport.Model
}

// NewChatViewport creates a viewport with the given dimensions.
func NewChatViewport(width, height int) *ChatViewport {
	return &ChatViewport{
		vp: viewport.New(width, height),
	}
}

// SetSize resizes the viewport.
func (c *ChatViewport) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.Width = width
	c.vp.Height = height
}

// Width returns the current viewport width.
func (c *ChatViewport) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp.Width
}

// SetContent replaces the rendered conversation, keeping the scroll offset
// clamped to the new content length.
func (c *ChatViewport) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.SetContent(content)
}

// Update forwards key and mouse events to the underlying viewport.
func (c *ChatViewport) Update(msg tea.Msg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var cmd tea.Cmd
	c.vp, cmd = c.vp.Update(msg)
	return cmd
}

// View renders the visible window.
func (c *ChatViewport) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp.View()
}

// =============================================================================
// SCROLL SURFACE
// =============================================================================

// DistanceFromBottom returns how many content lines lie below the visible
// window. Zero means the newest content is on screen.
func (c *ChatViewport) DistanceFromBottom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	dist := c.vp.TotalLineCount() - c.vp.Height - c.vp.YOffset
	if dist < 0 {
		return 0
	}
	return dist
}

// ScrollToBottom jumps to the newest content. Terminal cells cannot animate,
// so the smooth hint is ignored.
func (c *ChatViewport) ScrollToBottom(_ bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.GotoBottom()
}

// AtBottom reports whether the newest content is visible.
func (c *ChatViewport) AtBottom() bool {
	return c.DistanceFromBottom() == 0
}

// HalfPageUp and HalfPageDown back the keyboard scroll bindings.
func (c *ChatViewport) HalfPageUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.HalfViewUp()
}

func (c *ChatViewport) HalfPageDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.HalfViewDown()
}

// GotoTop jumps to the oldest content.
func (c *ChatViewport) GotoTop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.GotoTop()
}
