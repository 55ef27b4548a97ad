// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/scribe-tui/internal/config"
	"github.com/jeranaias/scribe-tui/internal/storage"
	"github.com/jeranaias/scribe-tui/internal/ui/styles"
	"github.com/jeranaias/scribe-tui/internal/util"
)

var (
	listHeaderStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	listMetaStyle   = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// =============================================================================
// LIST / SEARCH
// =============================================================================

// HandleList prints saved conversations, newest first.
func HandleList(args []string) {
	env, err := BuildEnv()
	if err != nil {
		exitf("%v", err)
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := env.Manager.ListConversations(ctx)
	if err != nil {
		exitf("list: %v", err)
	}
	printMetas(items, "no conversations yet")
}

// HandleSearch prints conversations matching the query.
func HandleSearch(args []string) {
	parsed := NewArgParser(args)
	query := parsed.PositionalText()
	if query == "" {
		exitf("usage: scribe search <query>")
	}

	env, err := BuildEnv()
	if err != nil {
		exitf("%v", err)
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := env.Manager.SearchConversations(ctx, query)
	if err != nil {
		exitf("search: %v", err)
	}
	printMetas(items, "no matches")
}

func printMetas(items []storage.ConversationMeta, emptyHint string) {
	if len(items) == 0 {
		fmt.Println(listMetaStyle.Render(emptyHint))
		return
	}

	width := terminalWidth()
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Println(listHeaderStyle.Render(runewidth.Truncate(title, width-22, "...")))

		meta := "  " + item.ID +
			"  " + item.UpdatedAt.Format("2006-01-02 15:04") +
			"  " + util.IntToString(item.MessageCount) + " msgs"
		fmt.Println(listMetaStyle.Render(meta))
		if item.Preview != "" {
			fmt.Println(listMetaStyle.Render("  " + runewidth.Truncate(item.Preview, width-4, "...")))
		}
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// HandleExport writes a conversation as markdown to a file, or to stdout
// when no path is given.
func HandleExport(args []string) {
	parsed := NewArgParser(args)
	positional := parsed.Positional()
	if len(positional) == 0 {
		exitf("usage: scribe export <conversation-id> [path]")
	}

	env, err := BuildEnv()
	if err != nil {
		exitf("%v", err)
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conv, err := env.Manager.ReadConversation(ctx, positional[0])
	if err != nil {
		exitf("export: %v", err)
	}

	content := storage.ExportMarkdown(conv)
	if len(positional) > 1 {
		if err := util.AtomicWriteFile(positional[1], []byte(content), 0o644); err != nil {
			exitf("export: %v", err)
		}
		fmt.Println("exported to " + positional[1])
		return
	}
	fmt.Print(content)
}

// =============================================================================
// MODELS
// =============================================================================

// HandleModels lists the models available on the backend.
func HandleModels(args []string) {
	env, err := BuildEnv()
	if err != nil {
		exitf("%v", err)
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := env.Client.ListModels(ctx)
	if err != nil {
		exitf("models: %v", err)
	}
	if len(models) == 0 {
		fmt.Println(listMetaStyle.Render("no models installed"))
		return
	}
	for _, m := range models {
		line := m.Name
		if m.Name == env.Cfg.Provider.Model {
			line += "  " + styles.StatusIndicators.Starred + " active"
		}
		fmt.Println(line)
	}
}

// =============================================================================
// CONFIG
// =============================================================================

// HandleConfig shows the configuration, its path, or writes the defaults.
func HandleConfig(args []string) {
	parsed := NewArgParser(args)
	positional := parsed.Positional()
	sub := ""
	if len(positional) > 0 {
		sub = positional[0]
	}

	switch sub {
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			exitf("%v", err)
		}
		fmt.Println(path)

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			exitf("%v", err)
		}
		if _, err := os.Stat(path); err == nil && !parsed.BoolFlag("force") {
			exitf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			exitf("write config: %v", err)
		}
		fmt.Println("wrote " + path)

	case "", "show":
		cfg, err := config.Load()
		if err != nil {
			exitf("%v", err)
		}
		fmt.Printf("provider:  %s (%s)\n", cfg.Provider.Name, cfg.Provider.BaseURL)
		fmt.Printf("model:     %s\n", cfg.Provider.Model)
		fmt.Printf("data dir:  %s\n", dataDirDisplay(cfg))
		fmt.Printf("index:     %v\n", cfg.Storage.SearchIndex)
		fmt.Printf("theme:     %s\n", cfg.UI.Theme)

	default:
		exitf("usage: scribe config [show|path|init]")
	}
}

func dataDirDisplay(cfg *config.Config) string {
	if cfg.Storage.DataDir != "" {
		return cfg.Storage.DataDir
	}
	if dir, err := config.ConfigDir(); err == nil {
		return dir + "/data"
	}
	return "~/.scribe/data"
}
