// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package manager composes the provider client, conversation storage,
// resource uploads, and the event bus behind one service facade. The
// submit coordinator and the stream orchestrator talk to this package
// only; they never touch storage or the wire protocol directly.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/scribe-tui/internal/bus"
	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/provider"
	"github.com/jeranaias/scribe-tui/internal/storage"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoConversation = errors.New("conversation required")
	ErrEmptyContent   = errors.New("message content is empty")
)

// maxInlineAttachment caps how much of a text attachment is inlined into
// the prompt.
const maxInlineAttachment = 32 * 1024

// =============================================================================
// SETTINGS
// =============================================================================

// Settings is the subset of configuration the chat pipeline reads.
type Settings struct {
	Provider     string
	Model        string
	SystemPrompt string

	// TitleModel is used for title generation; empty means Model.
	TitleModel string

	// AutoTitle enables best-effort title generation after the first
	// completed exchange.
	AutoTitle bool
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager is the service facade for the chat pipeline.
//
// Thread-safety: all methods are safe for concurrent use; the underlying
// stores and client carry their own synchronization.
type Manager struct {
	client    *provider.Client
	store     *storage.ConversationStore
	resources *storage.ResourceStore
	index     *storage.SearchIndex // nil disables search indexing
	events    *bus.Bus
	settings  Settings
	logger    *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSearchIndex attaches a search index kept in sync on every persist.
func WithSearchIndex(idx *storage.SearchIndex) Option {
	return func(m *Manager) { m.index = idx }
}

// WithLogger replaces the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New creates a manager over the given collaborators.
func New(client *provider.Client, store *storage.ConversationStore, resources *storage.ResourceStore, events *bus.Bus, settings Settings, opts ...Option) *Manager {
	if settings.Provider == "" {
		settings.Provider = client.Name()
	}
	if settings.Model == "" {
		settings.Model = client.DefaultModel()
	}

	m := &Manager{
		client:    client,
		store:     store,
		resources: resources,
		events:    events,
		settings:  settings,
		logger:    log.New(os.Stderr, "manager: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Settings returns the manager's settings snapshot.
func (m *Manager) Settings() Settings {
	return m.settings
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// CreateConversation creates and persists an empty conversation.
func (m *Manager) CreateConversation(ctx context.Context, title, projectID string) (*model.Conversation, error) {
	conv := model.NewConversationForProject(projectID)
	conv.Title = title
	conv.ActiveProvider = m.settings.Provider
	conv.ActiveModel = m.settings.Model

	if _, err := m.store.Save(conv); err != nil {
		return nil, err
	}

	m.indexConversation(ctx, conv)
	m.publish(bus.Event{Type: bus.ConversationUpdated, ConversationID: conv.ID})
	return conv, nil
}

// ReadConversation loads a conversation from storage.
func (m *Manager) ReadConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return m.store.Load(conversationID)
}

// SaveConversation writes a full conversation record back to storage and
// reindexes it. Used by the auto-save path to flush working-copy state.
func (m *Manager) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	if _, err := m.store.Save(conv); err != nil {
		return err
	}

	m.indexConversation(ctx, conv)
	m.publish(bus.Event{Type: bus.ConversationUpdated, ConversationID: conv.ID})
	return nil
}

// AddMessage persists a message to a conversation and returns the updated
// record.
func (m *Manager) AddMessage(ctx context.Context, conversationID string, msg *model.Message) (*model.Conversation, error) {
	conv, err := m.store.AppendMessage(conversationID, msg)
	if err != nil {
		return nil, err
	}

	m.indexConversation(ctx, conv)
	m.publish(bus.Event{Type: bus.ConversationUpdated, ConversationID: conv.ID})
	return conv, nil
}

// UpdateConversationTitle sets a conversation's title.
func (m *Manager) UpdateConversationTitle(ctx context.Context, conversationID, title string) error {
	conv, err := m.store.Load(conversationID)
	if err != nil {
		return err
	}

	conv.SetTitle(title)
	if _, err := m.store.Save(conv); err != nil {
		return err
	}

	m.indexConversation(ctx, conv)
	m.publish(bus.Event{Type: bus.ConversationUpdated, ConversationID: conv.ID})
	return nil
}

// DeleteConversation removes a conversation from storage and the index.
func (m *Manager) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := m.store.Delete(conversationID); err != nil {
		return err
	}

	if m.index != nil {
		if err := m.index.RemoveConversation(ctx, conversationID); err != nil {
			m.logger.Printf("warning: failed to deindex %s: %v", conversationID, err)
		}
	}
	m.publish(bus.Event{Type: bus.ConversationDeleted, ConversationID: conversationID})
	return nil
}

// ListConversations returns metadata for all conversations.
func (m *Manager) ListConversations(ctx context.Context) ([]storage.ConversationMeta, error) {
	return m.store.List()
}

// SearchConversations returns metadata for conversations matching the
// query. Uses the full-text index when attached, falling back to the
// store's title/preview scan otherwise or when the index query fails.
func (m *Manager) SearchConversations(ctx context.Context, query string) ([]storage.ConversationMeta, error) {
	if m.index != nil {
		hits, err := m.index.Search(ctx, query, 50)
		if err == nil {
			return m.metasForHits(ctx, hits)
		}
		m.logger.Printf("warning: index search failed, falling back to scan: %v", err)
	}
	return m.store.Search(query)
}

// metasForHits resolves full-text hits to conversation metadata,
// deduplicating by conversation and preserving hit order.
func (m *Manager) metasForHits(ctx context.Context, hits []storage.SearchHit) ([]storage.ConversationMeta, error) {
	all, err := m.store.List()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]storage.ConversationMeta, len(all))
	for _, meta := range all {
		byID[meta.ID] = meta
	}

	seen := make(map[string]bool, len(hits))
	var results []storage.ConversationMeta
	for _, hit := range hits {
		if seen[hit.ConversationID] {
			continue
		}
		seen[hit.ConversationID] = true
		if meta, ok := byID[hit.ConversationID]; ok {
			results = append(results, meta)
		}
	}
	return results, nil
}

// SetMessageStarred flips the star flag on one message and persists the
// conversation.
func (m *Manager) SetMessageStarred(ctx context.Context, conversationID, messageID string, starred bool) error {
	conv, err := m.store.Load(conversationID)
	if err != nil {
		return err
	}

	msg := conv.MessageByID(messageID)
	if msg == nil {
		return fmt.Errorf("message %s not found in %s", messageID, conversationID)
	}
	msg.Starred = starred

	if _, err := m.store.Save(conv); err != nil {
		return err
	}
	m.publish(bus.Event{Type: bus.ConversationUpdated, ConversationID: conv.ID})
	return nil
}

// =============================================================================
// UPLOADS
// =============================================================================

// UploadFilesAndCreateResources copies attachment files into managed
// storage and returns their resource records.
func (m *Manager) UploadFilesAndCreateResources(ctx context.Context, paths []string) ([]model.Resource, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	return m.resources.StoreAll(paths)
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamChat opens a streaming completion for the conversation plus the
// new user content and returns the event channel. The channel is closed
// after a complete or error event. Implements the orchestrator's
// ChatStreamer contract.
func (m *Manager) StreamChat(ctx context.Context, conv *model.Conversation, projectID, content string, attachments []model.Resource) (<-chan model.StreamEvent, error) {
	if conv == nil {
		return nil, ErrNoConversation
	}
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return nil, ErrEmptyContent
	}

	modelName := conv.ActiveModel
	if modelName == "" {
		modelName = m.settings.Model
	}
	providerName := conv.ActiveProvider
	if providerName == "" {
		providerName = m.settings.Provider
	}

	wire := m.buildWireMessages(conv, content, attachments)
	chunks := m.client.ChatStreamChan(ctx, modelName, wire)

	events := make(chan model.StreamEvent)
	go func() {
		defer close(events)

		var accumulated strings.Builder
		started := time.Now()
		var firstToken time.Time

		emit := func(ev model.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for chunk := range chunks {
			if chunk.Error != nil {
				emit(model.StreamEvent{Type: model.StreamError, Err: chunk.Error})
				return
			}

			for _, call := range chunk.ToolCalls {
				if !emit(model.StreamEvent{Type: model.StreamToolCall, ToolName: call.Function.Name}) {
					return
				}
			}

			if chunk.Content != "" {
				if firstToken.IsZero() {
					firstToken = time.Now()
				}
				accumulated.WriteString(chunk.Content)
				if !emit(model.StreamEvent{Type: model.StreamDelta, Text: chunk.Content}) {
					return
				}
			}

			if chunk.Done {
				final := model.NewAssistantMessage(providerName, modelName)
				final.Content = accumulated.String()
				final.TokenCount = chunk.CompletionTokens
				final.TotalDuration = chunk.TotalDuration
				if chunk.TotalDuration == 0 {
					final.TotalDuration = time.Since(started)
				}
				if !firstToken.IsZero() {
					final.TTFT = firstToken.Sub(started)
				}
				if chunk.EvalDuration > 0 {
					final.TokensPerSec = float64(chunk.CompletionTokens) / chunk.EvalDuration.Seconds()
				}

				emit(model.StreamEvent{
					Type:    model.StreamComplete,
					Message: final,
					Usage: &model.Usage{
						PromptTokens:     chunk.PromptTokens,
						CompletionTokens: chunk.CompletionTokens,
						TotalTokens:      chunk.PromptTokens + chunk.CompletionTokens,
					},
				})
				return
			}
		}
	}()

	return events, nil
}

// buildWireMessages flattens the conversation history plus the new user
// turn into wire messages. Text attachments are inlined, capped per file.
func (m *Manager) buildWireMessages(conv *model.Conversation, content string, attachments []model.Resource) []provider.Message {
	var wire []provider.Message

	if m.settings.SystemPrompt != "" {
		wire = append(wire, provider.NewSystemMessage(m.settings.SystemPrompt))
	}

	for _, msg := range conv.Messages {
		// Inline error messages would poison the context.
		if msg.IsError {
			continue
		}
		wire = append(wire, provider.Message{Role: string(msg.Role), Content: msg.Content})
	}

	userTurn := content
	for _, res := range attachments {
		if inline := inlineAttachment(res); inline != "" {
			userTurn += "\n\n" + inline
		}
	}
	wire = append(wire, provider.NewUserMessage(userTurn))

	return wire
}

// inlineAttachment renders an attachment for the prompt, or "" when the
// file cannot be read.
func inlineAttachment(res model.Resource) string {
	data, err := os.ReadFile(res.StoredPath)
	if err != nil {
		return ""
	}
	text := string(data)
	if len(text) > maxInlineAttachment {
		text = util.TruncateRunesNoEllipsis(text, maxInlineAttachment) + "\n[truncated]"
	}
	return "[Attached file: " + res.Name + "]\n" + text
}

// =============================================================================
// TITLE GENERATION
// =============================================================================

// GenerateTitle asks the model for a short conversation title and applies
// it. Best-effort: callers log failures and move on.
func (m *Manager) GenerateTitle(ctx context.Context, conversationID string) error {
	conv, err := m.store.Load(conversationID)
	if err != nil {
		return err
	}

	var first *model.Message
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleUser && msg.Content != "" {
			first = msg
			break
		}
	}
	if first == nil {
		return nil
	}

	titleModel := m.settings.TitleModel
	if titleModel == "" {
		titleModel = m.settings.Model
	}

	prompt := "Write a title of at most six words for a conversation that starts with this message. Reply with the title only.\n\n" + first.Content
	resp, err := m.client.Chat(ctx, titleModel, []provider.Message{provider.NewUserMessage(prompt)})
	if err != nil {
		return err
	}

	title := strings.TrimSpace(resp.Message.Content)
	title = strings.Trim(title, `"`)
	if title == "" {
		return nil
	}

	return m.UpdateConversationTitle(ctx, conversationID, util.TruncateRunes(title, 60))
}

// =============================================================================
// INTERNAL
// =============================================================================

func (m *Manager) indexConversation(ctx context.Context, conv *model.Conversation) {
	if m.index == nil {
		return
	}
	if err := m.index.IndexConversation(ctx, conv); err != nil {
		m.logger.Printf("warning: failed to index %s: %v", conv.ID, err)
	}
}

func (m *Manager) publish(ev bus.Event) {
	if m.events != nil {
		m.events.Publish(ev)
	}
}
