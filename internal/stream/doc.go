// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the streaming message pipeline: the in-flight
// message store, the orchestrator that drives a provider token stream into
// it, and the render-side batching helpers.
//
// The store is keyed by conversation ID with one entry exclusively owned by
// the submission in flight for that conversation. Starting a new stream for
// a conversation replaces that conversation's entry only; other
// conversations are unaffected.
//
// The orchestrator converts streaming-phase failures into a final message
// (partial content plus a readable error, or the error alone) instead of
// returning an error, so a stream that produced anything at all always
// leaves the user something to read.
package stream
