// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for scribe.
//
// Conversations live as one JSON file each under the base directory; the
// file is the source of truth and all writes go through atomic
// rename-into-place. On top of the files sit three optional layers:
//
//   - SearchIndex: a derived SQLite FTS index over message content
//   - ResourceStore: managed copies of uploaded attachment files
//   - Watcher: fsnotify-based change notifications for external edits
//
// # Usage
//
// Create a store and save a conversation:
//
//	store, err := storage.NewConversationStore()
//	id, err := store.Save(conversation)
//
// List and load conversations:
//
//	metas, err := store.List()
//	conv, err := store.Load(metas[0].ID)
//
// # Storage Location
//
// Conversations are stored in ~/.scribe/conversations/ as JSON files;
// resources in ~/.scribe/resources/.
package storage
