// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/scribe-tui/internal/bus"
	"github.com/jeranaias/scribe-tui/internal/config"
	"github.com/jeranaias/scribe-tui/internal/manager"
	"github.com/jeranaias/scribe-tui/internal/provider"
	"github.com/jeranaias/scribe-tui/internal/storage"
)

// =============================================================================
// ENVIRONMENT - shared wiring for every command
// =============================================================================

// Env bundles the application stack a command needs: configuration, the
// provider client, storage, and the manager facade.
type Env struct {
	Cfg       *config.Config
	Client    *provider.Client
	Store     *storage.ConversationStore
	Resources *storage.ResourceStore
	Index     *storage.SearchIndex
	Events    *bus.Bus
	Manager   *manager.Manager
}

// BuildEnv loads configuration and wires the stack. The search index is
// optional; an index that fails to open degrades to scan-based search.
func BuildEnv() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		configDir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(configDir, "data")
	}

	store, err := storage.NewConversationStoreWithDir(filepath.Join(dataDir, "conversations"))
	if err != nil {
		return nil, fmt.Errorf("open conversation store: %w", err)
	}
	store.MaxConversations = cfg.Storage.MaxConversations

	resources, err := storage.NewResourceStoreWithDir(filepath.Join(dataDir, "resources"))
	if err != nil {
		return nil, fmt.Errorf("open resource store: %w", err)
	}

	client := provider.NewClientWithConfig(&provider.Config{
		Name:         cfg.Provider.Name,
		BaseURL:      cfg.Provider.BaseURL,
		Timeout:      time.Duration(cfg.Provider.TimeoutSecs) * time.Second,
		DefaultModel: cfg.Provider.Model,
	})

	events := bus.New()

	var opts []manager.Option
	var index *storage.SearchIndex
	if cfg.Storage.SearchIndex {
		idx, err := storage.NewSearchIndex(filepath.Join(dataDir, "index.db"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: search index unavailable: %v\n", err)
		} else {
			index = idx
			opts = append(opts, manager.WithSearchIndex(idx))
		}
	}

	mgr := manager.New(client, store, resources, events, manager.Settings{
		Provider:     cfg.Provider.Name,
		Model:        cfg.Provider.Model,
		TitleModel:   cfg.Provider.TitleModel,
		SystemPrompt: cfg.Provider.SystemPrompt,
		AutoTitle:    cfg.Provider.AutoTitle,
	}, opts...)

	return &Env{
		Cfg:       cfg,
		Client:    client,
		Store:     store,
		Resources: resources,
		Index:     index,
		Events:    events,
		Manager:   mgr,
	}, nil
}

// Close releases held resources.
func (e *Env) Close() {
	if e.Index != nil {
		e.Index.Close()
	}
}

// =============================================================================
// TERMINAL HELPERS
// =============================================================================

// isTTY reports whether stdout is a terminal.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, or 80 when unavailable.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// exitf prints an error to stderr and exits non-zero.
func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "scribe: "+format+"\n", args...)
	os.Exit(1)
}
