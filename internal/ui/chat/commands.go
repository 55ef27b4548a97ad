// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/storage"
	"github.com/jeranaias/scribe-tui/internal/util"
)

// =============================================================================
// INPUT PARSING
// =============================================================================

// Command is a parsed slash command.
type Command struct {
	Name string
	Args string
}

// parseSlashCommand recognizes "/name args" input. Returns ok=false for
// regular chat content, including content that merely starts with "/ ".
func parseSlashCommand(input string) (Command, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) < 2 {
		return Command{}, false
	}
	rest := trimmed[1:]
	if rest[0] == ' ' {
		return Command{}, false
	}

	name, args, _ := strings.Cut(rest, " ")
	return Command{
		Name: strings.ToLower(name),
		Args: strings.TrimSpace(args),
	}, true
}

// parseAttachments extracts @path tokens from chat input. The paths are
// removed from the returned content; a token is only treated as an
// attachment when the file exists, so emails and handles pass through.
func parseAttachments(input string) (string, []string) {
	var (
		kept  []string
		paths []string
	)
	for _, token := range strings.Fields(input) {
		if strings.HasPrefix(token, "@") && len(token) > 1 {
			path := expandHome(token[1:])
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				paths = append(paths, path)
				continue
			}
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " "), paths
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

// helpText lists the slash commands, shown by /help.
const helpText = `/new [title]     start a new conversation
/list            open the conversation picker
/open <id>       open a conversation by id
/search <query>  search conversations
/title <text>    rename the current conversation
/star            star or unstar the last assistant reply
/export [path]   export the conversation as markdown
/delete          delete the current conversation
/help            show this help
/quit            exit scribe`

// runCommand executes a parsed slash command and returns the follow-up
// command for the update loop.
func (m *Model) runCommand(cmd Command) tea.Cmd {
	switch cmd.Name {
	case "new":
		return m.startNewConversation(cmd.Args)

	case "list":
		m.mode = modeList
		return m.loadConversationList("")

	case "open":
		if cmd.Args == "" {
			return notice("usage: /open <conversation-id>", true)
		}
		return m.openConversation(cmd.Args)

	case "search":
		if cmd.Args == "" {
			return notice("usage: /search <query>", true)
		}
		m.mode = modeList
		return m.loadConversationList(cmd.Args)

	case "title":
		if cmd.Args == "" {
			return notice("usage: /title <text>", true)
		}
		return m.renameConversation(cmd.Args)

	case "star":
		return m.toggleStar()

	case "export":
		return m.exportConversation(cmd.Args)

	case "delete":
		return m.deleteConversation()

	case "help":
		m.showHelp = !m.showHelp
		return nil

	case "quit", "exit":
		return tea.Quit

	default:
		return notice("unknown command: /"+cmd.Name, true)
	}
}

// notice returns a command emitting a transient status message.
func notice(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{Text: text, IsError: isError}
	}
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// startNewConversation clears the active conversation and defers creation
// until the first message is submitted.
func (m *Model) startNewConversation(title string) tea.Cmd {
	m.view.SetActiveConversation(nil)
	m.view.SetPending(m.pendingFor(title))
	m.session.SetConversationID("")
	m.scroll.Reset()
	m.refreshContent()
	return notice("new conversation", false)
}

func (m *Model) loadConversationList(query string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var (
			items []storage.ConversationMeta
			err   error
		)
		if query == "" {
			items, err = mgr.ListConversations(ctx)
		} else {
			items, err = mgr.SearchConversations(ctx, query)
		}
		return conversationsListedMsg{Items: items, Err: err}
	}
}

func (m *Model) openConversation(id string) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		conv, err := mgr.ReadConversation(ctx, id)
		return conversationLoadedMsg{Conversation: conv, Err: err}
	}
}

func (m *Model) renameConversation(title string) tea.Cmd {
	conv := m.view.ActiveConversation()
	if conv == nil {
		return notice("no active conversation", true)
	}
	mgr := m.manager
	title = util.TruncateRunes(title, 60)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := mgr.UpdateConversationTitle(ctx, conv.ID, title); err != nil {
			return statusMsg{Text: "rename failed: " + err.Error(), IsError: true}
		}
		return statusMsg{Text: "renamed to " + title}
	}
}

// toggleStar flips the star on the most recent assistant message.
func (m *Model) toggleStar() tea.Cmd {
	conv := m.view.ActiveConversation()
	if conv == nil {
		return notice("no active conversation", true)
	}

	var target *model.Message
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == model.RoleAssistant && !conv.Messages[i].IsError {
			target = conv.Messages[i]
			break
		}
	}
	if target == nil {
		return notice("nothing to star yet", true)
	}

	mgr := m.manager
	convID := conv.ID
	msgID := target.ID
	starred := !target.Starred
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := mgr.SetMessageStarred(ctx, convID, msgID, starred); err != nil {
			return statusMsg{Text: "star failed: " + err.Error(), IsError: true}
		}
		if starred {
			return statusMsg{Text: "starred"}
		}
		return statusMsg{Text: "unstarred"}
	}
}

func (m *Model) exportConversation(path string) tea.Cmd {
	conv := m.view.ActiveConversation()
	if conv == nil || conv.IsEmpty() {
		return notice("nothing to export", true)
	}

	if path == "" {
		path = conv.ID + ".md"
	}
	path = expandHome(path)

	snapshot := conv
	return func() tea.Msg {
		content := storage.ExportMarkdown(snapshot)
		if err := util.AtomicWriteFile(path, []byte(content), 0o644); err != nil {
			return exportedMsg{Err: err}
		}
		return exportedMsg{Path: path}
	}
}

func (m *Model) deleteConversation() tea.Cmd {
	conv := m.view.ActiveConversation()
	if conv == nil {
		return notice("no active conversation", true)
	}

	mgr := m.manager
	convID := conv.ID
	m.view.SetActiveConversation(nil)
	m.session.SetConversationID("")
	m.scroll.Reset()
	m.refreshContent()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := mgr.DeleteConversation(ctx, convID); err != nil {
			return statusMsg{Text: "delete failed: " + err.Error(), IsError: true}
		}
		return statusMsg{Text: "conversation deleted"}
	}
}
