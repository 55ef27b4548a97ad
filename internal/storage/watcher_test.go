// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"sync"
	"testing"
	"time"
)

// changeCollector records handler invocations thread-safely.
type changeCollector struct {
	mu      sync.Mutex
	changes []Change
}

func (c *changeCollector) handle(change Change) {
	c.mu.Lock()
	c.changes = append(c.changes, change)
	c.mu.Unlock()
}

func (c *changeCollector) snapshot() []Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Change, len(c.changes))
	copy(out, c.changes)
	return out
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(25 * time.Millisecond)
	}
	return cond()
}

func TestWatcherReportsExternalWrite(t *testing.T) {
	store := newTestStore(t)
	collector := &changeCollector{}

	w, err := NewWatcher(store, 100*time.Millisecond, collector.handle)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	conv := sampleConversation("watched")
	if _, err := store.Save(conv); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		for _, change := range collector.snapshot() {
			if change.ConversationID == conv.ID && change.Kind == ChangeWrite {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatalf("no write change observed, got %+v", collector.snapshot())
	}
}

func TestWatcherReportsRemove(t *testing.T) {
	store := newTestStore(t)
	conv := sampleConversation("doomed")
	if _, err := store.Save(conv); err != nil {
		t.Fatal(err)
	}

	collector := &changeCollector{}
	w, err := NewWatcher(store, 100*time.Millisecond, collector.handle)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := store.Delete(conv.ID); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		for _, change := range collector.snapshot() {
			if change.ConversationID == conv.ID && change.Kind == ChangeRemove {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatalf("no remove change observed, got %+v", collector.snapshot())
	}
}

func TestPollingWatcherDetectsChanges(t *testing.T) {
	store := newTestStore(t)
	collector := &changeCollector{}

	pw := NewPollingWatcher(store, 50*time.Millisecond, collector.handle)
	if err := pw.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer pw.Close()

	conv := sampleConversation("polled")
	if _, err := store.Save(conv); err != nil {
		t.Fatal(err)
	}

	ok := waitFor(t, 5*time.Second, func() bool {
		for _, change := range collector.snapshot() {
			if change.ConversationID == conv.ID && change.Kind == ChangeWrite {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatal("polling watcher missed the new conversation")
	}

	// Deletion shows up as a remove change.
	if err := store.Delete(conv.ID); err != nil {
		t.Fatal(err)
	}
	ok = waitFor(t, 5*time.Second, func() bool {
		for _, change := range collector.snapshot() {
			if change.ConversationID == conv.ID && change.Kind == ChangeRemove {
				return true
			}
		}
		return false
	})
	if !ok {
		t.Fatal("polling watcher missed the deletion")
	}
}
