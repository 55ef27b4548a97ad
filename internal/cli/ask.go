// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/scribe-tui/internal/provider"
	"github.com/jeranaias/scribe-tui/internal/stream"
)

// maxAskFileBytes caps how much of an attached file is inlined.
const maxAskFileBytes = 64 * 1024

// =============================================================================
// ASK - one-shot question
// =============================================================================

// HandleAsk answers a single prompt and exits. The prompt comes from the
// positional arguments, or from stdin when piped. Output streams as it is
// generated; when stdout is a terminal the final answer is re-rendered as
// markdown.
func HandleAsk(args []string) {
	parsed := NewArgParser(args)

	prompt := parsed.PositionalText()
	if prompt == "" {
		if stdinPiped() {
			data, err := io.ReadAll(io.LimitReader(os.Stdin, maxAskFileBytes))
			if err != nil {
				exitf("read stdin: %v", err)
			}
			prompt = strings.TrimSpace(string(data))
		}
		if prompt == "" {
			exitf("usage: scribe ask <prompt>")
		}
	}

	env, err := BuildEnv()
	if err != nil {
		exitf("%v", err)
	}
	defer env.Close()

	for _, path := range parsed.FlagValues("file", "f") {
		content, err := readFileForContext(path)
		if err != nil {
			exitf("%v", err)
		}
		prompt += "\n\n" + content
	}

	modelName := parsed.Flag("model", "m")
	if modelName == "" {
		modelName = env.Cfg.Provider.Model
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var messages []provider.Message
	if env.Cfg.Provider.SystemPrompt != "" {
		messages = append(messages, provider.Message{
			Role:    "system",
			Content: env.Cfg.Provider.SystemPrompt,
		})
	}
	messages = append(messages, provider.Message{Role: "user", Content: prompt})

	render := isTTY() && !parsed.BoolFlag("no-render")

	// Raw output is batched so high token rates don't turn into one write
	// syscall per token.
	buf := stream.NewTokenBuffer()

	var answer strings.Builder
	err = env.Client.ChatStream(ctx, modelName, messages, func(chunk provider.StreamChunk) {
		if chunk.Content == "" {
			return
		}
		answer.WriteString(chunk.Content)
		if !render {
			buf.Write(chunk.Content)
			if batch, ok := buf.Flush(); ok {
				fmt.Print(batch)
			}
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted: print what arrived and exit quietly.
			if !render {
				if batch, ok := buf.ForceFlush(); ok {
					fmt.Print(batch)
				}
				fmt.Println()
			}
			os.Exit(130)
		}
		exitf("%v", err)
	}

	if render {
		fmt.Println(renderMarkdown(answer.String()))
	} else {
		if batch, ok := buf.ForceFlush(); ok {
			fmt.Print(batch)
		}
		fmt.Println()
	}
}

// renderMarkdown renders for the terminal, falling back to the raw text.
func renderMarkdown(content string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(terminalWidth(), 100)),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// readFileForContext loads a file and frames it for the prompt.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("attach %s: %w", path, err)
	}
	if info.Size() > maxAskFileBytes {
		return "", fmt.Errorf("attach %s: file larger than %d bytes", path, maxAskFileBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("attach %s: %w", path, err)
	}
	return fmt.Sprintf("[File: %s]\n```\n%s\n```", filepath.Base(path), strings.TrimRight(string(data), "\n")), nil
}

func stdinPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}
