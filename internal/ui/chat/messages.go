// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat screen of the scribe TUI.
package chat

import (
	"time"

	"github.com/jeranaias/scribe-tui/internal/bus"
	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/storage"
)

// =============================================================================
// MESSAGE CATALOG - tea messages flowing through the chat model
// =============================================================================

// streamTickMsg drives the streaming render loop. While an exchange is in
// flight the model polls the stream store on every tick.
type streamTickMsg struct {
	Time time.Time
}

// submitFinishedMsg reports that a Submit call returned, successfully or
// not. Streaming-phase failures surface as inline messages, so Err is only
// set for pre-stream problems.
type submitFinishedMsg struct {
	Err error
}

// ConversationRestoredMsg reopens a conversation at startup. Sent from
// outside the program by the session-restore goroutine.
type ConversationRestoredMsg struct {
	Conversation *model.Conversation
}

// conversationLoadedMsg carries a conversation read from storage.
type conversationLoadedMsg struct {
	Conversation *model.Conversation
	Err          error
}

// conversationsListedMsg carries the conversation picker contents.
type conversationsListedMsg struct {
	Items []storage.ConversationMeta
	Err   error
}

// storageEventMsg forwards a bus event into the update loop.
type storageEventMsg struct {
	Event bus.Event
}

// statusMsg sets a transient status-line notice.
type statusMsg struct {
	Text    string
	IsError bool
}

// clearNoticeMsg clears the transient notice after its display window.
type clearNoticeMsg struct{}

// exportedMsg reports the outcome of a conversation export.
type exportedMsg struct {
	Path string
	Err  error
}
