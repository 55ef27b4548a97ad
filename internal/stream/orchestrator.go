// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"

	"github.com/jeranaias/scribe-tui/internal/model"
)

// =============================================================================
// PROVIDER BOUNDARY
// =============================================================================

// ChatStreamer is the provider-side collaborator: it opens a token stream
// for one exchange. The returned channel is closed by the provider when the
// stream ends, whether by completion, error event, or context cancellation.
type ChatStreamer interface {
	StreamChat(ctx context.Context, conv *model.Conversation, projectID, content string, attachments []model.Resource) (<-chan model.StreamEvent, error)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Callbacks are optional per-event hooks. Nil callbacks are skipped.
type Callbacks struct {
	OnDelta          func(text string)
	OnComplete       func(msg *model.Message, usage *model.Usage)
	OnError          func(err error)
	OnScrollToBottom func()
}

// Request describes one streaming exchange.
type Request struct {
	Conversation *model.Conversation
	ProjectID    string
	Content      string
	Attachments  []model.Resource
	Provider     string
	Model        string
	Callbacks    Callbacks
}

// Result is the single outcome of a StreamChat call. FinalMessage is nil
// only when the stream ended with nothing at all to salvage (e.g. aborted
// before the first delta).
type Result struct {
	FinalMessage *model.Message
	Usage        *model.Usage
}

// Orchestrator adapts provider token streams into Store updates and
// produces a final, persistable assistant message per exchange.
type Orchestrator struct {
	store    *Store
	streamer ChatStreamer
}

// NewOrchestrator creates an orchestrator over the given store and
// provider.
func NewOrchestrator(store *Store, streamer ChatStreamer) *Orchestrator {
	return &Orchestrator{store: store, streamer: streamer}
}

// Store returns the stream store the orchestrator writes into.
func (o *Orchestrator) Store() *Store {
	return o.store
}

// StreamChat drives one exchange. It returns exactly one Result per call
// and never returns an error for streaming-phase failures — those are
// converted into the result's final message. Errors before the stream
// opens (caller-side problems) are returned as errors.
//
// Cancellation selects against the event channel, so an abort is observed
// with bounded latency even when the provider has gone quiet. Abort
// preserves partial output: anything accumulated so far becomes a normal
// (non-error) assistant message. A completion captured before the abort
// was observed wins unchanged.
func (o *Orchestrator) StreamChat(ctx context.Context, req Request) (Result, error) {
	convID := req.Conversation.ID

	shell := model.NewAssistantMessage(req.Provider, req.Model)
	stats := model.NewStatistics()

	events, err := o.streamer.StreamChat(ctx, req.Conversation, req.ProjectID, req.Content, req.Attachments)
	if err != nil {
		return Result{}, err
	}

	o.store.StartStreaming(convID, shell.ID, model.RoleAssistant)

	var (
		finalMessage *model.Message
		finalUsage   *model.Usage
		streamErr    error
	)

	cb := req.Callbacks

loop:
	for {
		// Abort checkpoint before waiting. Once an event has been taken
		// off the channel it is always processed; a delta the provider
		// already yielded must not be lost to a racing cancel.
		if ctx.Err() != nil {
			break loop
		}

		var ev model.StreamEvent
		select {
		case <-ctx.Done():
			break loop
		case received, open := <-events:
			if !open {
				break loop
			}
			ev = received
		}

		switch ev.Type {
		case model.StreamDelta:
			if ev.Text == "" {
				continue
			}
			stats.RecordFirstToken()
			o.store.AppendDelta(convID, ev.Text)
			if cb.OnDelta != nil {
				cb.OnDelta(ev.Text)
			}
			if cb.OnScrollToBottom != nil {
				cb.OnScrollToBottom()
			}

		case model.StreamToolCall:
			o.store.RecordToolCall(convID)

		case model.StreamComplete:
			finalMessage = o.finalizeComplete(convID, shell, ev, stats)
			finalUsage = ev.Usage
			if cb.OnComplete != nil {
				cb.OnComplete(finalMessage, finalUsage)
			}
			break loop

		case model.StreamError:
			streamErr = ev.Err
			if cb.OnError != nil {
				cb.OnError(ev.Err)
			}
			break loop
		}
	}

	// Post-loop checkpoint: the loop may have exited on channel close or
	// on the pre-event abort check without a captured completion.
	if finalMessage == nil {
		if streamErr != nil {
			finalMessage = o.finalizeError(convID, shell, streamErr)
		} else {
			finalMessage = o.finalizeAbort(convID, shell, stats)
		}
	} else {
		// Completion already captured; abort handling must not rebuild
		// it from the accumulator.
		o.store.ClearStreaming(convID)
	}

	return Result{FinalMessage: finalMessage, Usage: finalUsage}, nil
}

// =============================================================================
// SETTLEMENT PATHS
// =============================================================================

// finalizeComplete builds the final message from a completion event,
// preferring the provider's assembled message content and falling back to
// the accumulator if the provider sent none.
func (o *Orchestrator) finalizeComplete(convID string, shell *model.Message, ev model.StreamEvent, stats *model.Statistics) *model.Message {
	snap, _ := o.store.Snapshot(convID)

	msg := shell
	if ev.Message != nil && ev.Message.Content != "" {
		msg.Content = ev.Message.Content
	} else {
		msg.Content = snap.Content
	}

	tokens := 0
	if ev.Usage != nil {
		tokens = ev.Usage.CompletionTokens
	}
	stats.Finalize(tokens)
	msg.ApplyStats(stats)

	return msg
}

// finalizeAbort salvages whatever partial content accumulated before the
// abort. Cancellation is not an error: the salvaged message is a normal
// assistant message. Returns nil when there is nothing to salvage.
func (o *Orchestrator) finalizeAbort(convID string, shell *model.Message, stats *model.Statistics) *model.Message {
	snap, ok := o.store.Snapshot(convID)
	o.store.ClearStreaming(convID)

	if !ok || snap.Content == "" {
		return nil
	}

	shell.Content = snap.Content
	stats.Finalize(shell.EstimateTokens())
	shell.ApplyStats(stats)
	return shell
}

// finalizeError converts an upstream failure into a readable assistant
// message: partial content (if any) followed by the error text, flagged
// IsError. The user always sees something — never a silent failure.
func (o *Orchestrator) finalizeError(convID string, shell *model.Message, streamErr error) *model.Message {
	snap, _ := o.store.Snapshot(convID)
	o.store.ClearStreaming(convID)

	errText := "Something went wrong while generating a response: " + streamErr.Error()

	shell.IsError = true
	if snap.Content != "" {
		shell.Content = snap.Content + "\n\n" + errText
	} else {
		shell.Content = errText
	}
	return shell
}
