// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements scribe's command-line surface: argument routing
// and the non-TUI commands (one-shot ask, line-mode REPL, conversation
// listing, search, and export).
package cli

import (
	"fmt"
	"os"
)

// Version information, set at build time by the linker.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command identifies the requested top-level command.
type Command int

const (
	CmdTUI Command = iota // default: interactive chat screen
	CmdAsk
	CmdRepl
	CmdList
	CmdSearch
	CmdExport
	CmdModels
	CmdConfig
	CmdVersion
	CmdHelp
)

// Parse maps os.Args onto a command and its remaining arguments. No
// arguments means the TUI.
func Parse() (Command, []string) {
	if len(os.Args) < 2 {
		return CmdTUI, nil
	}

	rest := os.Args[2:]
	switch os.Args[1] {
	case "ask":
		return CmdAsk, rest
	case "repl", "chat":
		return CmdRepl, rest
	case "list", "ls":
		return CmdList, rest
	case "search":
		return CmdSearch, rest
	case "export":
		return CmdExport, rest
	case "models":
		return CmdModels, rest
	case "config":
		return CmdConfig, rest
	case "version", "--version", "-v":
		return CmdVersion, rest
	case "help", "--help", "-h":
		return CmdHelp, rest
	default:
		// Unknown word: treat the whole tail as an ask prompt so
		// `scribe why is the sky blue` just works.
		return CmdAsk, os.Args[1:]
	}
}

// HandleVersion prints build information.
func HandleVersion(args []string) {
	fmt.Printf("scribe %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}

// HandleHelp prints command usage.
func HandleHelp(args []string) {
	fmt.Print(`scribe - terminal AI chat assistant

Usage:
  scribe                      open the chat TUI
  scribe ask <prompt>         one-shot question, streamed to stdout
  scribe repl                 line-mode chat without the TUI
  scribe list                 list saved conversations
  scribe search <query>       full-text search across conversations
  scribe export <id> [path]   export a conversation as markdown
  scribe models               list models available on the backend
  scribe config [init|path]   show or initialize configuration
  scribe version              print version information

Ask flags:
  -m, --model NAME    override the configured model
  -f, --file PATH     attach a file to the prompt (repeatable)
  --no-render         skip markdown rendering, print raw text

Environment:
  SCRIBE_MODEL        override the configured model
  SCRIBE_OLLAMA_URL   override the backend URL
  SCRIBE_DATA_DIR     override the data directory
`)
}
