// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.AutoSaveEnabled {
		t.Error("Default AutoSaveEnabled should be true")
	}
	if cfg.AutoSaveInterval != 30*time.Second {
		t.Errorf("Default AutoSaveInterval = %v, want 30s", cfg.AutoSaveInterval)
	}
}

// =============================================================================
// MANAGER CREATION TESTS
// =============================================================================

func TestNewManager(t *testing.T) {
	m := NewManager(DefaultConfig())

	if !strings.HasPrefix(m.SessionID(), "sess_") {
		t.Errorf("SessionID should start with 'sess_', got %q", m.SessionID())
	}
	if m.StartTime().IsZero() {
		t.Error("StartTime should not be zero")
	}
	if m.IsDirty() {
		t.Error("new session should start clean")
	}
}

func TestNewManagerZeroIntervalUsesDefault(t *testing.T) {
	m := NewManager(Config{AutoSaveEnabled: true})
	if m.autoSaveInterval != 30*time.Second {
		t.Errorf("interval = %v, want default 30s", m.autoSaveInterval)
	}
}

// =============================================================================
// SESSION STATE TESTS
// =============================================================================

func TestManager_SessionID(t *testing.T) {
	m := NewManager(DefaultConfig())
	id1 := m.SessionID()
	id2 := m.SessionID()

	if id1 != id2 {
		t.Error("SessionID should be consistent")
	}
	if id1 == "" {
		t.Error("SessionID should not be empty")
	}
}

func TestManager_IdleTime(t *testing.T) {
	m := NewManager(DefaultConfig())
	time.Sleep(10 * time.Millisecond)

	idle := m.IdleTime()
	if idle < 10*time.Millisecond {
		t.Errorf("IdleTime should be at least 10ms, got %v", idle)
	}

	m.RecordActivity()
	idle = m.IdleTime()
	if idle > 5*time.Millisecond {
		t.Errorf("IdleTime should be near zero after RecordActivity, got %v", idle)
	}
}

func TestManager_ConversationID(t *testing.T) {
	m := NewManager(DefaultConfig())
	if m.ConversationID() != "" {
		t.Error("new session has no conversation")
	}
	m.SetConversationID("conv_123")
	if m.ConversationID() != "conv_123" {
		t.Errorf("ConversationID = %q", m.ConversationID())
	}
}

// =============================================================================
// DIRTY TRACKING TESTS
// =============================================================================

func TestManager_DirtyTracking(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.MarkDirty()
	if !m.IsDirty() {
		t.Error("MarkDirty not reflected")
	}

	m.MarkClean()
	if m.IsDirty() {
		t.Error("MarkClean not reflected")
	}
}

// =============================================================================
// AUTO-SAVE TESTS
// =============================================================================

func TestManager_ShouldAutoSave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoSaveInterval = 10 * time.Millisecond
	m := NewManager(cfg)

	// Clean session never auto-saves.
	time.Sleep(15 * time.Millisecond)
	if m.ShouldAutoSave() {
		t.Error("clean session should not auto-save")
	}

	m.MarkDirty()
	if !m.ShouldAutoSave() {
		t.Error("dirty session past the interval should auto-save")
	}

	m.SetAutoSaveEnabled(false)
	if m.ShouldAutoSave() {
		t.Error("disabled auto-save should never trigger")
	}
}

func TestManager_CheckRunsAutoSave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoSaveInterval = time.Millisecond
	m := NewManager(cfg)

	saves := 0
	m.SetAutoSaveCallback(func() error {
		saves++
		return nil
	})

	m.MarkDirty()
	time.Sleep(5 * time.Millisecond)
	m.Check()

	if saves != 1 {
		t.Errorf("saves = %d, want 1", saves)
	}
	if m.IsDirty() {
		t.Error("successful auto-save should mark the session clean")
	}
}

func TestManager_CheckKeepsDirtyOnSaveFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoSaveInterval = time.Millisecond
	m := NewManager(cfg)

	m.SetAutoSaveCallback(func() error {
		return errors.New("disk full")
	})

	m.MarkDirty()
	time.Sleep(5 * time.Millisecond)
	m.Check()

	if !m.IsDirty() {
		t.Error("failed auto-save must leave the session dirty")
	}
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestManager_GetStatus(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.SetConversationID("conv_9")
	m.MarkDirty()

	status := m.GetStatus()
	if status.SessionID != m.SessionID() {
		t.Error("status session ID mismatch")
	}
	if status.ConversationID != "conv_9" {
		t.Errorf("status conversation = %q", status.ConversationID)
	}
	if !status.IsDirty {
		t.Error("status should report dirty")
	}
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordActivity()
			m.MarkDirty()
			m.IsDirty()
			m.GetStatus()
			m.MarkClean()
		}()
	}
	wg.Wait()
}

// =============================================================================
// FORMATTING TESTS
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{time.Minute, "1m"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
