// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the scribe TUI:
// the chat viewport, message bubbles, markdown and code rendering, the
// composer input, the status bar, and the thinking spinner. Components hold
// no application state beyond what they render; orchestration lives in the
// chat model.
package components
