// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package submit runs the full lifecycle of one chat turn: ensure a
// conversation exists, persist the user message, splice it into the view
// optimistically, stream the assistant response, and persist the outcome.
// Only one submission runs at a time; a second Submit while one is in
// flight is dropped without effect.
package submit

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/stream"
	"github.com/jeranaias/scribe-tui/internal/viewstate"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Service is the persistence and provider facade the coordinator drives.
type Service interface {
	CreateConversation(ctx context.Context, title, projectID string) (*model.Conversation, error)
	AddMessage(ctx context.Context, conversationID string, msg *model.Message) (*model.Conversation, error)
	UploadFilesAndCreateResources(ctx context.Context, paths []string) ([]model.Resource, error)
	GenerateTitle(ctx context.Context, conversationID string) error
}

// Request carries one user submission.
type Request struct {
	Content         string
	AttachmentPaths []string
	Callbacks       stream.Callbacks
}

// =============================================================================
// COORDINATOR
// =============================================================================

// titleTimeout bounds the best-effort title generation that runs after the
// first exchange of a new conversation.
const titleTimeout = 15 * time.Second

// Coordinator serializes chat submissions. The abort handle installed by
// Submit is held until the stream fully settles, so Cancel during the
// persistence tail is still honored by the next checkpoint.
type Coordinator struct {
	service      Service
	view         *viewstate.Store
	orchestrator *stream.Orchestrator
	logger       *log.Logger

	mu       sync.Mutex
	inFlight bool
	cancel   context.CancelFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger replaces the default stderr logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator creates a submit coordinator.
func NewCoordinator(service Service, view *viewstate.Store, orchestrator *stream.Orchestrator, opts ...Option) *Coordinator {
	c := &Coordinator{
		service:      service,
		view:         view,
		orchestrator: orchestrator,
		logger:       log.New(os.Stderr, "submit: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InFlight reports whether a submission is currently running.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Cancel aborts the in-flight submission, if any. Partial assistant output
// accumulated so far is preserved as a normal message.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Submit runs one chat turn to completion. Blank content and concurrent
// submissions are dropped silently. Submit blocks until the turn settles;
// callers wanting asynchrony run it in a goroutine.
func (c *Coordinator) Submit(ctx context.Context, req Request) error {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil
	}

	streamCtx, cancel := context.WithCancel(ctx)

	// Claim the in-flight slot; a concurrent submission finds it taken and
	// drops out without side effects.
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.inFlight = true
	c.cancel = cancel
	c.mu.Unlock()

	// The abort handle outlives the stream: it is released only after the
	// turn has fully settled, including the persistence tail.
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	conv, wasNew, err := c.ensureConversation(streamCtx)
	if err != nil {
		return err
	}

	attachments, err := c.service.UploadFilesAndCreateResources(streamCtx, req.AttachmentPaths)
	if err != nil {
		return err
	}

	userMsg := model.NewUserMessage(content)
	userMsg.Attachments = attachments

	// A user-message persistence failure halts the turn before the stream
	// opens. The message stays visible as pending; there is no retry.
	if err := c.persistAndSplice(streamCtx, conv.ID, userMsg); err != nil {
		return err
	}

	result, err := c.orchestrator.StreamChat(streamCtx, stream.Request{
		Conversation: conv,
		ProjectID:    conv.ProjectID,
		Content:      content,
		Attachments:  attachments,
		Provider:     conv.ActiveProvider,
		Model:        conv.ActiveModel,
		Callbacks:    req.Callbacks,
	})
	if err != nil {
		return err
	}

	// Nil means the stream was aborted before any content arrived; there is
	// nothing to show or persist.
	if result.FinalMessage != nil {
		// The persistence tail runs under its own context so an abort that
		// already salvaged partial output does not also lose the save.
		tail, tailCancel := context.WithTimeout(context.Background(), titleTimeout)
		defer tailCancel()
		if err := c.persistAndSplice(tail, conv.ID, result.FinalMessage); err != nil {
			// The assistant turn is already on screen as pending; the turn
			// is over either way, so the failure is logged, not returned.
			return nil
		}

		if wasNew {
			if err := c.service.GenerateTitle(tail, conv.ID); err != nil {
				c.logger.Printf("title generation failed for %s: %v", conv.ID, err)
			}
		}
	}

	return nil
}

// =============================================================================
// TURN STEPS
// =============================================================================

// ensureConversation resolves the conversation this turn belongs to,
// creating one from the pending descriptor (or from scratch) when none is
// active yet. Reports whether the conversation was created by this call.
func (c *Coordinator) ensureConversation(ctx context.Context) (*model.Conversation, bool, error) {
	if conv := c.view.ActiveConversation(); conv != nil {
		return conv, conv.IsEmpty(), nil
	}

	var title, projectID string
	if pending := c.view.TakePending(); pending != nil {
		title = pending.Title
		projectID = pending.ProjectID
	} else {
		projectID = c.view.ActiveProject()
	}

	conv, err := c.service.CreateConversation(ctx, title, projectID)
	if err != nil {
		return nil, false, err
	}
	c.view.SetActiveConversation(conv)
	return conv, true, nil
}

// persistAndSplice shows msg optimistically, persists it, and reconciles
// the view against the persisted record. A persistence failure leaves the
// message visible as pending and is reported to the caller.
func (c *Coordinator) persistAndSplice(ctx context.Context, conversationID string, msg *model.Message) error {
	c.view.SpliceMessage(conversationID, msg)

	persisted, err := c.service.AddMessage(ctx, conversationID, msg)
	if err != nil {
		c.logger.Printf("persist message %s: %v", msg.ID, err)
		return err
	}

	c.view.Confirm(msg.ID)
	c.view.Reconcile(persisted)
	return nil
}
