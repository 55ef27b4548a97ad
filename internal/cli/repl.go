// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/stream"
	"github.com/jeranaias/scribe-tui/internal/ui/styles"
)

var (
	replPromptStyle  = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	replBannerStyle  = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	replInfoStyle    = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	replCommandStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
)

// =============================================================================
// REPL - line-mode chat without the TUI
// =============================================================================

// HandleRepl runs an interactive line-mode chat session. Conversations are
// persisted the same way the TUI persists them, so a REPL session shows up
// in `scribe list` afterwards.
func HandleRepl(args []string) {
	parsed := NewArgParser(args)

	env, err := BuildEnv()
	if err != nil {
		exitf("%v", err)
	}
	defer env.Close()

	modelName := parsed.Flag("model", "m")
	if modelName == "" {
		modelName = env.Cfg.Provider.Model
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer saveReplHistory(line, historyPath)

	fmt.Println(replBannerStyle.Render("scribe repl"))
	fmt.Println(replInfoStyle.Render("model: " + modelName + "  |  /help for commands, ctrl+d to exit"))
	fmt.Println()

	ctx := context.Background()
	var conv *model.Conversation

	for {
		input, err := line.Prompt(replPromptStyle.Render("> "))
		if err != nil {
			// liner.ErrPromptAborted on ctrl+c, io.EOF on ctrl+d.
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch {
		case input == "/quit" || input == "/q" || input == "/exit":
			return
		case input == "/new":
			conv = nil
			fmt.Println(replInfoStyle.Render("started a new conversation"))
			continue
		case input == "/help" || input == "/h":
			printReplHelp()
			continue
		case strings.HasPrefix(input, "/model"):
			arg := strings.TrimSpace(strings.TrimPrefix(input, "/model"))
			if arg == "" {
				fmt.Println(replInfoStyle.Render("model: " + modelName))
			} else {
				modelName = arg
				fmt.Println(replInfoStyle.Render("switched to " + modelName))
			}
			continue
		case strings.HasPrefix(input, "/"):
			fmt.Println(replInfoStyle.Render("unknown command, /help for the list"))
			continue
		}

		if conv == nil {
			conv, err = env.Manager.CreateConversation(ctx, "", "")
			if err != nil {
				exitf("create conversation: %v", err)
			}
			conv.ActiveModel = modelName
		}

		if err := replExchange(ctx, env, conv, input); err != nil {
			fmt.Println(styles.RenderError(err.Error()))
		}
	}
}

// replExchange runs one user turn: persist, stream the reply to stdout,
// persist the reply.
func replExchange(ctx context.Context, env *Env, conv *model.Conversation, content string) error {
	// Stream against the history as it was before this turn; the manager
	// appends the user turn to the wire messages itself.
	history := conv.Clone()

	userMsg := model.NewUserMessage(content)
	persisted, err := env.Manager.AddMessage(ctx, conv.ID, userMsg)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	*conv = *persisted

	events, err := env.Manager.StreamChat(ctx, history, "", content, nil)
	if err != nil {
		return err
	}

	fmt.Println()
	buf := stream.NewTokenBuffer()
	var final *model.Message
	for ev := range events {
		switch ev.Type {
		case model.StreamDelta:
			buf.Write(ev.Text)
			if batch, ok := buf.Flush(); ok {
				fmt.Print(batch)
			}
		case model.StreamComplete:
			final = ev.Message
		case model.StreamError:
			if batch, ok := buf.ForceFlush(); ok {
				fmt.Print(batch)
			}
			fmt.Println()
			return ev.Err
		}
	}
	if batch, ok := buf.ForceFlush(); ok {
		fmt.Print(batch)
	}
	fmt.Println()

	if final != nil {
		if stats := final.FormatStats(); stats != "" {
			fmt.Println(replInfoStyle.Render(stats))
		}
		fmt.Println()
		if persisted, err := env.Manager.AddMessage(ctx, conv.ID, final); err == nil {
			*conv = *persisted
		}
	}
	return nil
}

func printReplHelp() {
	for _, entry := range [][2]string{
		{"/new", "start a new conversation"},
		{"/model [name]", "show or switch the model"},
		{"/help", "show this help"},
		{"/quit", "exit (or ctrl+d)"},
	} {
		fmt.Printf("  %s  %s\n",
			replCommandStyle.Render(fmt.Sprintf("%-14s", entry[0])),
			replInfoStyle.Render(entry[1]))
	}
}

func replHistoryPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".scribe", "repl_history")
}

func saveReplHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
