// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the lifetime of one interactive run: when it
// started, what conversation is open, whether there are unsaved changes,
// and when the next auto-save is due.
package session

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks session state and drives periodic auto-save.
type Manager struct {
	mu sync.Mutex

	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	// conversationID is the conversation open in this session, used for
	// restore-on-startup.
	conversationID string

	autoSaveEnabled  bool
	autoSaveInterval time.Duration
	lastAutoSave     time.Time
	isDirty          bool

	onAutoSave func() error
}

// Config holds configuration for the session manager.
type Config struct {
	// AutoSaveEnabled enables automatic saving
	AutoSaveEnabled bool

	// AutoSaveInterval is how often to auto-save (default: 30 seconds)
	AutoSaveInterval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		AutoSaveEnabled:  true,
		AutoSaveInterval: 30 * time.Second,
	}
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	now := time.Now()
	interval := cfg.AutoSaveInterval
	if interval <= 0 {
		interval = DefaultConfig().AutoSaveInterval
	}
	return &Manager{
		sessionID:        generateSessionID(),
		startTime:        now,
		lastActivity:     now,
		autoSaveEnabled:  cfg.AutoSaveEnabled,
		autoSaveInterval: interval,
		lastAutoSave:     now,
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the current session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StartTime returns when the session started.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// SetConversationID records the conversation open in this session.
func (m *Manager) SetConversationID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversationID = id
}

// ConversationID returns the conversation open in this session, or empty.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity updates the last activity timestamp.
// This should be called on user input or other activity.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
}

// MarkDirty indicates the session has unsaved changes.
func (m *Manager) MarkDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isDirty = true
}

// MarkClean indicates the session has been saved.
func (m *Manager) MarkClean() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isDirty = false
	m.lastAutoSave = time.Now()
}

// IsDirty returns whether the session has unsaved changes.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isDirty
}

// =============================================================================
// AUTO-SAVE
// =============================================================================

// SetAutoSaveCallback sets the function called for auto-save.
func (m *Manager) SetAutoSaveCallback(fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAutoSave = fn
}

// ShouldAutoSave returns true if auto-save should trigger.
func (m *Manager) ShouldAutoSave() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.autoSaveEnabled || !m.isDirty {
		return false
	}

	return time.Since(m.lastAutoSave) >= m.autoSaveInterval
}

// Check runs the auto-save callback when one is due. The callback executes
// outside the lock; the session is marked clean only if it succeeds.
func (m *Manager) Check() {
	m.mu.Lock()
	shouldSave := m.autoSaveEnabled && m.isDirty &&
		time.Since(m.lastAutoSave) >= m.autoSaveInterval
	onAutoSave := m.onAutoSave
	m.mu.Unlock()

	if shouldSave && onAutoSave != nil {
		if err := onAutoSave(); err == nil {
			m.MarkClean()
		}
	}
}

// SetAutoSaveEnabled enables or disables auto-save.
func (m *Manager) SetAutoSaveEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoSaveEnabled = enabled
}

// SetAutoSaveInterval updates the auto-save interval.
func (m *Manager) SetAutoSaveInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoSaveInterval = d
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// TickMsg is sent periodically to check session state.
type TickMsg struct {
	Time time.Time
}

// AutoSaveMsg indicates auto-save should occur.
type AutoSaveMsg struct{}

// TickCmd returns a command that ticks periodically.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick processes a tick and returns appropriate messages.
func (m *Manager) HandleTick() tea.Cmd {
	var cmds []tea.Cmd

	if m.ShouldAutoSave() {
		cmds = append(cmds, func() tea.Msg {
			return AutoSaveMsg{}
		})
	}

	// Continue ticking
	cmds = append(cmds, TickCmd())

	return tea.Batch(cmds...)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + time.Now().Format("20060102_150405")
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID      string
	ConversationID string
	StartTime      time.Time
	Duration       time.Duration
	IdleTime       time.Duration
	IsDirty        bool
}

// GetStatus returns the current session status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	return Status{
		SessionID:      m.sessionID,
		ConversationID: m.conversationID,
		StartTime:      m.startTime,
		Duration:       now.Sub(m.startTime),
		IdleTime:       now.Sub(m.lastActivity),
		IsDirty:        m.isDirty,
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}
