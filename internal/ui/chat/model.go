// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/scribe-tui/internal/bus"
	"github.com/jeranaias/scribe-tui/internal/config"
	"github.com/jeranaias/scribe-tui/internal/manager"
	"github.com/jeranaias/scribe-tui/internal/model"
	"github.com/jeranaias/scribe-tui/internal/scroll"
	"github.com/jeranaias/scribe-tui/internal/session"
	"github.com/jeranaias/scribe-tui/internal/storage"
	"github.com/jeranaias/scribe-tui/internal/stream"
	"github.com/jeranaias/scribe-tui/internal/submit"
	"github.com/jeranaias/scribe-tui/internal/ui/components"
	"github.com/jeranaias/scribe-tui/internal/ui/styles"
	"github.com/jeranaias/scribe-tui/internal/viewstate"
)

// streamTickInterval is the render cadence while tokens are arriving.
const streamTickInterval = 33 * time.Millisecond

// noticeDuration is how long transient status notices stay visible.
const noticeDuration = 4 * time.Second

// =============================================================================
// SCREEN MODE
// =============================================================================

type screenMode int

const (
	modeChat screenMode = iota
	modeList
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the bubbletea model for the chat screen. It owns the pipeline
// wiring: submissions go through the submit coordinator, streamed tokens
// land in the stream store and are polled on a fixed tick, and the scroll
// coordinator decides when the viewport follows new content.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme
	keys  KeyMap

	// Pipeline
	manager   *manager.Manager
	submitter *submit.Coordinator
	streams   *stream.Store
	scroll    *scroll.Coordinator
	view      *viewstate.Store
	session   *session.Manager
	events    *bus.Bus

	// Components
	viewport  *components.ChatViewport
	input     *components.InputArea
	statusBar *components.StatusBar
	spinner   *components.Spinner
	list      *components.MessageList

	// Layout
	width  int
	height int
	ready  bool

	// Screen state
	mode      screenMode
	showHelp  bool
	notice    string
	noticeErr bool
	streaming bool

	// Conversation picker state
	pickerItems    []storage.ConversationMeta
	pickerSelected int
	pickerQuery    string

	// busCh carries bus events into the update loop.
	busCh       chan bus.Event
	unsubscribe func()
}

// Deps bundles the collaborators the chat screen needs.
type Deps struct {
	Config  *config.Config
	Manager *manager.Manager
	Events  *bus.Bus
}

// New wires the chat screen. The stream store, orchestrator, scroll and
// submit coordinators are created here; everything else comes in through
// Deps.
func New(deps Deps) *Model {
	theme := styles.NewTheme()

	streamStore := stream.NewStore()
	orchestrator := stream.NewOrchestrator(streamStore, deps.Manager)

	view := viewstate.NewStore()
	coordinator := submit.NewCoordinator(deps.Manager, view, orchestrator)

	vp := components.NewChatViewport(80, 20)
	scrollCfg := scroll.Config{
		PauseThreshold:  deps.Config.Scroll.PauseThreshold,
		ResumeThreshold: deps.Config.Scroll.ResumeThreshold,
		Throttle:        time.Duration(deps.Config.Scroll.ThrottleMs) * time.Millisecond,
	}

	list := components.NewMessageList(theme)
	list.ShowStats = deps.Config.UI.ShowStats
	list.CodeTheme = deps.Config.UI.CodeTheme
	list.IsPending = view.IsPending

	sess := session.NewManager(session.DefaultConfig())
	sess.SetAutoSaveCallback(func() error {
		conv := view.ActiveConversation()
		if conv == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return deps.Manager.SaveConversation(ctx, conv)
	})

	m := &Model{
		cfg:       deps.Config,
		theme:     theme,
		keys:      DefaultKeyMap(),
		manager:   deps.Manager,
		submitter: coordinator,
		streams:   streamStore,
		scroll:    scroll.NewCoordinatorWithConfig(vp, scrollCfg),
		view:      view,
		session:   sess,
		events:    deps.Events,
		viewport:  vp,
		input:     components.NewInputArea(theme),
		statusBar: components.NewStatusBar(theme),
		spinner:   components.NewSpinner(theme),
		list:      list,
		width:     80,
		height:    24,
		busCh:     make(chan bus.Event, 16),
	}

	m.statusBar.Provider = deps.Config.Provider.Name
	m.statusBar.ModelName = deps.Config.Provider.Model

	m.unsubscribe = deps.Events.Subscribe(func(ev bus.Event) {
		select {
		case m.busCh <- ev:
		default: // drop rather than block the publisher
		}
	})

	return m
}

// Init starts the input focus, session ticker, and bus listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Focus(),
		session.TickCmd(),
		m.waitForBusEvent(),
	)
}

// Close releases the bus subscription. Call after the program exits.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// waitForBusEvent blocks on the bus channel and forwards one event.
func (m *Model) waitForBusEvent() tea.Cmd {
	return func() tea.Msg {
		return storageEventMsg{Event: <-m.busCh}
	}
}

func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return streamTickMsg{Time: t}
	})
}

// =============================================================================
// UPDATE
// =============================================================================

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		cmd := m.viewport.Update(msg)
		m.scroll.ObserveScroll(m.viewport.DistanceFromBottom())
		m.syncScrollPaused()
		return m, cmd

	case streamTickMsg:
		return m.handleStreamTick()

	case submitFinishedMsg:
		return m.handleSubmitFinished(msg)

	case ConversationRestoredMsg:
		// Don't clobber a conversation the user already started.
		if m.view.ActiveConversationID() == "" && !m.submitter.InFlight() {
			m.activateConversation(msg.Conversation)
		}
		return m, nil

	case conversationLoadedMsg:
		if msg.Err != nil {
			return m, notice("open failed: "+msg.Err.Error(), true)
		}
		m.activateConversation(msg.Conversation)
		return m, nil

	case conversationsListedMsg:
		if msg.Err != nil {
			m.mode = modeChat
			return m, notice("list failed: "+msg.Err.Error(), true)
		}
		m.pickerItems = msg.Items
		m.pickerSelected = 0
		return m, nil

	case storageEventMsg:
		cmd := m.handleStorageEvent(msg.Event)
		return m, tea.Batch(cmd, m.waitForBusEvent())

	case statusMsg:
		m.notice = msg.Text
		m.noticeErr = msg.IsError
		return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg {
			return clearNoticeMsg{}
		})

	case clearNoticeMsg:
		m.notice = ""
		m.noticeErr = false
		return m, nil

	case exportedMsg:
		if msg.Err != nil {
			return m, notice("export failed: "+msg.Err.Error(), true)
		}
		return m, notice("exported to "+msg.Path, false)

	case session.TickMsg:
		m.session.RecordActivity()
		return m, m.session.HandleTick()

	case session.AutoSaveMsg:
		m.session.Check()
		return m, nil
	}

	// Remaining messages (spinner frames) go to the spinner.
	if cmd := m.spinner.Update(msg); cmd != nil {
		return m, cmd
	}
	return m, nil
}

// resize propagates the new terminal size to every component.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	chromeHeight := 7 // header, input box, counter, status bar, padding
	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.SetSize(width, vpHeight)
	m.input.SetWidth(width)
	m.statusBar.Width = width
	m.list.Width = width - 2
	m.refreshContent()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeList {
		return m.handleListKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.submitter.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.submitter.InFlight() {
			m.submitter.Cancel()
			return m, notice("generation stopped", false)
		}
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.NewChat):
		return m, m.startNewConversation("")

	case key.Matches(msg, m.keys.OpenList):
		m.mode = modeList
		return m, m.loadConversationList("")

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfPageUp()
		m.scroll.ObserveScroll(m.viewport.DistanceFromBottom())
		m.syncScrollPaused()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfPageDown()
		m.scroll.ObserveScroll(m.viewport.DistanceFromBottom())
		m.syncScrollPaused()
		return m, nil

	case key.Matches(msg, m.keys.JumpTop):
		m.viewport.GotoTop()
		m.scroll.ObserveScroll(m.viewport.DistanceFromBottom())
		m.syncScrollPaused()
		return m, nil

	case key.Matches(msg, m.keys.JumpBottom):
		m.scroll.ResumeAndScroll()
		m.syncScrollPaused()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	return m, m.input.Update(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.pickerSelected > 0 {
			m.pickerSelected--
		}
	case "down", "j":
		if m.pickerSelected < len(m.pickerItems)-1 {
			m.pickerSelected++
		}
	case "enter":
		if m.pickerSelected < len(m.pickerItems) {
			id := m.pickerItems[m.pickerSelected].ID
			m.mode = modeChat
			return m, m.openConversation(id)
		}
		m.mode = modeChat
	case "esc", "q":
		m.mode = modeChat
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// =============================================================================
// SUBMIT
// =============================================================================

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	raw := m.input.Value()
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}

	if cmd, ok := parseSlashCommand(raw); ok {
		m.input.Reset()
		return m, m.runCommand(cmd)
	}

	// A submit while a response is streaming is dropped; the composer
	// keeps the text so nothing is lost.
	if m.submitter.InFlight() {
		return m, notice("still generating, esc to stop", true)
	}

	content, attachments := parseAttachments(raw)
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.statusBar.Status = components.StatusThinking
	m.scroll.Reset()

	req := submit.Request{
		Content:         content,
		AttachmentPaths: attachments,
	}
	submitter := m.submitter
	submitCmd := func() tea.Msg {
		return submitFinishedMsg{Err: submitter.Submit(context.Background(), req)}
	}

	return m, tea.Batch(m.spinner.Start(), submitCmd, streamTickCmd())
}

// =============================================================================
// STREAMING
// =============================================================================

func (m *Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.streaming {
		return m, nil
	}

	convID := m.view.ActiveConversationID()
	if snap, ok := m.streams.Snapshot(convID); ok {
		if snap.Content != "" || snap.ToolCalls > 0 {
			m.spinner.Stop()
			m.statusBar.Status = components.StatusStreaming
		}
		m.refreshContent()
		m.scroll.ObserveStream(snap)
		m.syncScrollPaused()
	}
	return m, streamTickCmd()
}

func (m *Model) handleSubmitFinished(msg submitFinishedMsg) (tea.Model, tea.Cmd) {
	m.streaming = false
	m.spinner.Stop()
	m.statusBar.Status = components.StatusReady
	m.session.MarkDirty()
	m.refreshContent()

	convID := m.view.ActiveConversationID()
	if convID != "" {
		m.session.SetConversationID(convID)
	}

	var cmds []tea.Cmd
	if msg.Err != nil {
		cmds = append(cmds, notice(msg.Err.Error(), true))
	}
	if !m.scroll.Paused() {
		m.scroll.ResumeAndScroll()
	}
	if conv := m.view.ActiveConversation(); conv != nil {
		m.statusBar.Title = conv.Title
		if last := conv.LastMessage(); last != nil && last.Role == model.RoleAssistant {
			m.statusBar.TokenCount = last.TokenCount
		}
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// STORAGE EVENTS
// =============================================================================

// handleStorageEvent reconciles the displayed conversation when its
// persisted record changes, including changes made by other writers
// observed through the storage watcher.
func (m *Model) handleStorageEvent(ev bus.Event) tea.Cmd {
	activeID := m.view.ActiveConversationID()
	if activeID == "" || ev.ConversationID != activeID {
		return nil
	}

	switch ev.Type {
	case bus.ConversationDeleted:
		m.view.SetActiveConversation(nil)
		m.refreshContent()
		return notice("conversation was deleted", true)

	case bus.ConversationUpdated, bus.StorageChanged:
		mgr := m.manager
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			conv, err := mgr.ReadConversation(ctx, activeID)
			if err != nil {
				return statusMsg{Text: "reload failed: " + err.Error(), IsError: true}
			}
			m.view.Reconcile(conv)
			return statusMsg{Text: ""}
		}
	}
	return nil
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// activateConversation swaps the displayed conversation and resets scroll.
func (m *Model) activateConversation(conv *model.Conversation) {
	m.view.SetActiveConversation(conv)
	m.scroll.Reset()
	m.refreshContent()
	if conv != nil {
		m.session.SetConversationID(conv.ID)
		m.statusBar.Title = conv.Title
		go m.scroll.ScrollToBottomInstant()
	} else {
		m.statusBar.Title = ""
	}
}

// pendingFor builds the deferred-creation record for a new conversation.
func (m *Model) pendingFor(title string) viewstate.PendingConversation {
	return viewstate.PendingConversation{
		Title:     title,
		ProjectID: m.view.ActiveProject(),
		Provider:  m.cfg.Provider.Name,
		Model:     m.cfg.Provider.Model,
	}
}

// refreshContent re-renders the message list into the viewport.
func (m *Model) refreshContent() {
	conv := m.view.ActiveConversation()
	if conv != nil {
		m.list.Messages = conv.Messages
	} else {
		m.list.Messages = nil
	}

	m.list.StreamingMessage = nil
	if m.streaming && conv != nil {
		if snap, ok := m.streams.Snapshot(conv.ID); ok && snap.Content != "" {
			tail := model.NewAssistantMessage(m.cfg.Provider.Name, m.cfg.Provider.Model)
			tail.Content = snap.Content
			m.list.StreamingMessage = tail
		}
	}

	m.viewport.SetContent(m.list.Render())
}

func (m *Model) syncScrollPaused() {
	m.statusBar.ScrollPaused = m.scroll.Paused()
}
