// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/scribe-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrIndexClosed = errors.New("search index closed")
)

// =============================================================================
// SCHEMA
// =============================================================================

// SchemaVersion tracks the database schema version for migrations.
const SchemaVersion = 1

// Schema for the conversation search index with FTS (Full Text Search).
const indexSchema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Conversations table: searchable conversation metadata
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    project_id TEXT,
    updated_at INTEGER NOT NULL  -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
CREATE INDEX IF NOT EXISTS idx_conversations_project ON conversations(project_id);

-- Messages table: one row per persisted message
CREATE TABLE IF NOT EXISTS messages (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY(conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);

-- Full-text search virtual table for message content
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content='messages',
    content_rowid='seq',
    tokenize='porter unicode61'
);

-- Triggers to keep FTS table in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.seq, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.seq, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.seq, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.seq, new.content);
END;
`

// =============================================================================
// SEARCH INDEX
// =============================================================================

// SearchIndex maintains a SQLite FTS index of message content for fast
// full-text search across all conversations. The JSON files remain the
// source of truth; the index is derived state and can be rebuilt.
type SearchIndex struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// SearchHit is one full-text match.
type SearchHit struct {
	ConversationID string
	Title          string
	MessageID      string
	Role           string
	Snippet        string
}

// NewSearchIndex opens (or creates) the index database at dbPath.
func NewSearchIndex(dbPath string) (*SearchIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)",
		fmt.Sprint(SchemaVersion),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	return &SearchIndex{db: db}, nil
}

// Close releases the database handle.
func (idx *SearchIndex) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true
	return idx.db.Close()
}

// =============================================================================
// INDEXING
// =============================================================================

// IndexConversation replaces the indexed rows for one conversation with
// the given state. Call after every save.
func (idx *SearchIndex) IndexConversation(ctx context.Context, conv *model.Conversation) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Cascade removes old message rows, triggers clean the FTS table.
	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", conv.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO conversations (id, title, project_id, updated_at) VALUES (?, ?, ?, ?)",
		conv.ID, conv.Title, conv.ProjectID, conv.UpdatedAt.Unix(),
	); err != nil {
		return err
	}

	for _, msg := range conv.Messages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
			msg.ID, conv.ID, string(msg.Role), msg.Content, msg.Timestamp.Unix(),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RemoveConversation drops a conversation from the index.
func (idx *SearchIndex) RemoveConversation(ctx context.Context, conversationID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	_, err := idx.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", conversationID)
	return err
}

// Rebuild re-indexes every conversation in the store from scratch.
func (idx *SearchIndex) Rebuild(ctx context.Context, store *ConversationStore) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	for _, meta := range metas {
		conv, err := store.Load(meta.ID)
		if err != nil {
			continue // Skip corrupted files
		}
		if err := idx.IndexConversation(ctx, conv); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SEARCH
// =============================================================================

// Search runs a full-text query over message content and returns matches
// ranked by relevance, newest conversations first among equal ranks.
func (idx *SearchIndex) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil, ErrIndexClosed
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT m.conversation_id, c.title, m.id, m.role,
		       snippet(messages_fts, 0, '[', ']', '…', 12)
		FROM messages_fts
		JOIN messages m ON m.seq = messages_fts.rowid
		JOIN conversations c ON c.id = m.conversation_id
		WHERE messages_fts MATCH ?
		ORDER BY rank, c.updated_at DESC
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		if err := rows.Scan(&hit.ConversationID, &hit.Title, &hit.MessageID, &hit.Role, &hit.Snippet); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}
