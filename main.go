// scribe - a terminal AI chat assistant backed by local models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/scribe-tui/internal/bus"
	"github.com/jeranaias/scribe-tui/internal/cli"
	"github.com/jeranaias/scribe-tui/internal/storage"
	"github.com/jeranaias/scribe-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI()
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdRepl:
		cli.HandleRepl(args)
	case cli.CmdList:
		cli.HandleList(args)
	case cli.CmdSearch:
		cli.HandleSearch(args)
	case cli.CmdExport:
		cli.HandleExport(args)
	case cli.CmdModels:
		cli.HandleModels(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp(args)
	}
}

func runTUI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "scribe: the TUI needs a terminal; try `scribe ask <prompt>` for piped use")
		os.Exit(1)
	}

	env, err := cli.BuildEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
	defer env.Close()

	// External storage changes (another scribe process, hand-edited files)
	// flow through the bus so the open conversation reconciles.
	watcher, err := storage.NewWatcher(env.Store,
		time.Duration(env.Cfg.Storage.WatchDebounceMs)*time.Millisecond,
		func(change storage.Change) {
			evType := bus.StorageChanged
			if change.Kind == storage.ChangeRemove {
				evType = bus.ConversationDeleted
			}
			env.Events.Publish(bus.Event{Type: evType, ConversationID: change.ConversationID})
		})
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	model := chat.New(chat.Deps{
		Config:  env.Cfg,
		Manager: env.Manager,
		Events:  env.Events,
	})
	defer model.Close()

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Reopen the most recent conversation once the program is running.
	if env.Cfg.Session.RestoreLast {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			items, err := env.Manager.ListConversations(ctx)
			if err != nil || len(items) == 0 {
				return
			}
			conv, err := env.Manager.ReadConversation(ctx, items[0].ID)
			if err != nil {
				return
			}
			program.Send(chat.ConversationRestoredMsg{Conversation: conv})
		}()
	}

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}
