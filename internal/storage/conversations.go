// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for scribe.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// CONVERSATION METADATA
// =============================================================================

// ConversationMeta contains metadata for listing conversations without
// loading full message bodies.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ProjectID    string    `json:"project_id,omitempty"`
	Model        string    `json:"model,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"` // First user message truncated
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore handles conversation persistence. Conversations are
// stored one JSON file per conversation under BaseDir; the file on disk is
// the source of truth, in-memory copies are working state.
type ConversationStore struct {
	// BaseDir is the directory for storing conversations
	// Default: ~/.scribe/conversations/
	BaseDir string

	// MaxConversations limits stored conversations (0 = unlimited)
	MaxConversations int
}

// NewConversationStore creates a store rooted at the default directory.
func NewConversationStore() (*ConversationStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	return NewConversationStoreWithDir(filepath.Join(homeDir, ".scribe", "conversations"))
}

// NewConversationStoreWithDir creates a store with a custom directory.
func NewConversationStoreWithDir(baseDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &ConversationStore{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a conversation and returns its ID.
func (s *ConversationStore) Save(conv *model.Conversation) (string, error) {
	if conv.ID == "" {
		conv.ID = model.NewConversationID()
	}

	// Derive a title from the first user message if none set
	if conv.Title == "" {
		conv.Title = deriveTitle(conv)
	}

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	filePath := s.filePath(conv.ID)
	if err := util.AtomicWriteFile(filePath, data, 0644); err != nil {
		return "", err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}

	return conv.ID, nil
}

// AppendMessage loads a conversation, appends the message, and saves it
// back. The read-modify-write keeps the file the source of truth even when
// the in-memory copy was updated optimistically first.
func (s *ConversationStore) AppendMessage(conversationID string, msg *model.Message) (*model.Conversation, error) {
	conv, err := s.Load(conversationID)
	if err != nil {
		return nil, err
	}

	conv.AddMessage(msg)
	if _, err := s.Save(conv); err != nil {
		return nil, err
	}

	return conv, nil
}

// deriveTitle creates a title from the first user message.
func deriveTitle(conv *model.Conversation) string {
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleUser && msg.Content != "" {
			content := strings.ReplaceAll(msg.Content, "\n", " ")
			content = strings.ReplaceAll(content, "\r", "")
			return util.TruncateRunes(content, 50)
		}
	}
	return "New conversation"
}

// enforceLimit removes oldest conversations if over limit.
func (s *ConversationStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	// Sort by updated time (oldest first)
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})

	excess := len(metas) - s.MaxConversations
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation by ID.
func (s *ConversationStore) Load(id string) (*model.Conversation, error) {
	filePath := s.filePath(id)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}

	return &conv, nil
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns metadata for all saved conversations (most recent first).
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ConversationMeta{}, nil
		}
		return nil, err
	}

	var metas []ConversationMeta

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		conv, err := s.Load(id)
		if err != nil {
			continue // Skip corrupted files
		}

		preview := ""
		if first := firstUserMessage(conv); first != nil {
			preview = util.TruncateRunes(first.Content, 80)
		}

		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.Title,
			ProjectID:    conv.ProjectID,
			Model:        conv.ActiveModel,
			Provider:     conv.ActiveProvider,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Preview:      preview,
		})
	}

	// Sort by updated time (most recent first)
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	return metas, nil
}

// ListByProject returns conversations belonging to a project, most recent
// first. An empty projectID returns conversations with no project.
func (s *ConversationStore) ListByProject(projectID string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var results []ConversationMeta
	for _, meta := range all {
		if meta.ProjectID == projectID {
			results = append(results, meta)
		}
	}
	return results, nil
}

// Search finds conversations whose title or preview matches the query
// (case-insensitive).
func (s *ConversationStore) Search(query string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []ConversationMeta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}

	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation by ID.
func (s *ConversationStore) Delete(id string) error {
	filePath := s.filePath(id)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}

	return nil
}

// Clear removes all saved conversations.
func (s *ConversationStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// filePath returns the file path for a conversation ID.
func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// ConversationIDFromPath maps a storage file path back to a conversation
// id, or "" when the path is not a conversation file. Used by the watcher.
func (s *ConversationStore) ConversationIDFromPath(path string) string {
	if filepath.Dir(path) != filepath.Clean(s.BaseDir) {
		return ""
	}
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".json") {
		return ""
	}
	return strings.TrimSuffix(name, ".json")
}

func firstUserMessage(conv *model.Conversation) *model.Message {
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleUser && msg.Content != "" {
			return msg
		}
	}
	return nil
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
