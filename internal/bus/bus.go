// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bus is a small in-process publish/subscribe layer. The submit
// coordinator announces persistence events on it so other regions of the
// UI (conversation list, token stats header) stay in sync without holding
// references to each other.
package bus

import "sync"

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies what happened.
type EventType string

const (
	// ConversationUpdated fires after any persistence step touches a
	// conversation: message added, title changed, starred toggled.
	ConversationUpdated EventType = "conversation_updated"

	// ConversationDeleted fires after a conversation is removed from
	// storage.
	ConversationDeleted EventType = "conversation_deleted"

	// StorageChanged fires when the storage watcher detects an external
	// change to the conversation directory.
	StorageChanged EventType = "storage_changed"
)

// Event carries a notification. ConversationID may be empty for
// StorageChanged events whose path could not be mapped to a conversation.
type Event struct {
	Type           EventType
	ConversationID string
}

// =============================================================================
// BUS
// =============================================================================

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine; keep them fast and never publish from inside one
// while holding your own locks.
type Handler func(Event)

// Bus fans published events out to subscribers.
//
// Thread-safety: safe for concurrent publish and subscribe. Handlers are
// invoked outside the bus lock.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers a handler for all events and returns an unsubscribe
// function. The unsubscribe function is idempotent.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Publish delivers an event to every subscriber. Delivery order is not
// guaranteed; handlers must not depend on it.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
