// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// CHANGE EVENTS
// =============================================================================

// ChangeKind classifies what happened to a conversation file.
type ChangeKind int

const (
	ChangeWrite ChangeKind = iota
	ChangeRemove
)

// Change describes one debounced conversation file change. Another process
// (or the user editing files by hand) modified storage; the UI should
// reload the affected conversation.
type Change struct {
	Kind           ChangeKind
	ConversationID string
}

// ChangeHandler receives debounced change notifications. Called from the
// watcher goroutine.
type ChangeHandler func(Change)

// =============================================================================
// WATCHER
// =============================================================================

// Watcher observes the conversation directory for external modifications
// and reports them, debounced, to a handler. Uses fsnotify where the
// platform supports it; NewPollingWatcher is the fallback.
type Watcher struct {
	store    *ConversationStore
	handler  ChangeHandler
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // Conversation ID -> last change time
	removed map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher over the store's directory. Call Watch to
// start it.
func NewWatcher(store *ConversationStore, debounce time.Duration, handler ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		store:    store,
		handler:  handler,
		watcher:  fw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		removed:  make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for file changes.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(w.store.BaseDir); err != nil {
		return err
	}

	go w.processEvents()
	go w.processPending()

	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// processEvents consumes raw fsnotify events.
func (w *Watcher) processEvents() {
	defer func() {
		// A panic here would kill the whole process from a background
		// goroutine; swallow it and let the watcher die quietly.
		_ = recover()
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			id := w.store.ConversationIDFromPath(event.Name)
			if id == "" {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.markChanged(id, false)
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.markChanged(id, true)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal; keep watching.
		}
	}
}

func (w *Watcher) markChanged(id string, removed bool) {
	w.mu.Lock()
	w.pending[id] = time.Now()
	if removed {
		w.removed[id] = true
	} else {
		// A write after a remove means the file came back (atomic
		// rename-into-place looks like remove+create on some platforms).
		delete(w.removed, id)
	}
	w.mu.Unlock()
}

// processPending flushes debounced changes to the handler.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var toEmit []Change
			for id, changeTime := range w.pending {
				if now.Sub(changeTime) >= w.debounce {
					kind := ChangeWrite
					if w.removed[id] {
						kind = ChangeRemove
					}
					toEmit = append(toEmit, Change{Kind: kind, ConversationID: id})
					delete(w.pending, id)
					delete(w.removed, id)
				}
			}
			w.mu.Unlock()

			for _, change := range toEmit {
				w.handler(change)
			}
		}
	}
}

// =============================================================================
// POLLING WATCHER (FALLBACK)
// =============================================================================

// PollingWatcher reports conversation changes by periodically scanning the
// storage directory. Fallback for platforms where fsnotify fails.
type PollingWatcher struct {
	store    *ConversationStore
	handler  ChangeHandler
	interval time.Duration

	mu    sync.Mutex
	files map[string]time.Time // Conversation ID -> mod time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPollingWatcher creates a polling-based watcher.
func NewPollingWatcher(store *ConversationStore, interval time.Duration, handler ChangeHandler) *PollingWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &PollingWatcher{
		store:    store,
		handler:  handler,
		interval: interval,
		files:    make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Watch records the initial state and starts polling.
func (pw *PollingWatcher) Watch() error {
	initial, err := pw.scan()
	if err != nil {
		return err
	}

	pw.mu.Lock()
	pw.files = initial
	pw.mu.Unlock()

	go pw.poll()
	return nil
}

// Close stops polling.
func (pw *PollingWatcher) Close() error {
	pw.cancel()
	return nil
}

func (pw *PollingWatcher) scan() (map[string]time.Time, error) {
	entries, err := os.ReadDir(pw.store.BaseDir)
	if err != nil {
		return nil, err
	}

	files := make(map[string]time.Time)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		files[id] = info.ModTime()
	}
	return files, nil
}

func (pw *PollingWatcher) poll() {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-pw.ctx.Done():
			return
		case <-ticker.C:
			pw.checkChanges()
		}
	}
}

func (pw *PollingWatcher) checkChanges() {
	current, err := pw.scan()
	if err != nil {
		return
	}

	pw.mu.Lock()
	previous := pw.files
	pw.files = current
	pw.mu.Unlock()

	for id, modTime := range current {
		if old, exists := previous[id]; !exists || !old.Equal(modTime) {
			pw.handler(Change{Kind: ChangeWrite, ConversationID: id})
		}
	}

	for id := range previous {
		if _, exists := current[id]; !exists {
			pw.handler(Change{Kind: ChangeRemove, ConversationID: id})
		}
	}
}
