// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// attachments and streaming events.
//
// Messages are immutable once persisted, with two exceptions: the Starred
// flag may be toggled at any time, and an assistant message under
// construction accumulates streamed content until it is finalized.
//
// The types in this package carry no synchronization of their own. The
// stream package owns concurrent access to in-flight message state; a
// Conversation held by the view-state store is only touched from the UI
// loop.
package model
