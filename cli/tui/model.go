package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.dalton.dog/bubbleup"
	"go.uber.org/zap"

	"github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/cli/tui/styles"
	"github.com/malonaz/botchat/internal/auth"
	"github.com/malonaz/botchat/internal/clipboard"
	"github.com/malonaz/botchat/internal/configuration"
	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/internal/history"
	"github.com/malonaz/botchat/internal/markdown"
	"github.com/malonaz/botchat/internal/theme"
)

const (
	FocusChatList FocusedComponent = iota
	FocusTextarea
	FocusViewport
)

var log *zap.SugaredLogger

type FocusedComponent int

// Session is the signed-in user's session.
type Session interface {
	User() *auth.User
	SignOut(ctx context.Context) error
}

// Model represents the Bubble Tea model for the chat client: a chat list and a chat window.
type Model struct {
	// Core dependencies
	ctx       context.Context
	config    *configuration.Config
	service   *chat.Service
	session   Session
	themes    *theme.Manager
	clipboard clipboard.Writer
	history   *history.History

	// Data
	chats     *chat.Resource[*chat.Chat]
	messages  *chat.Resource[*chat.Message]
	selection chat.Selection
	composer  chat.Composer
	// Drafts of failed sends, by chat, restored when their chat is selected again.
	drafts    map[string]string
	// Displayed messages, in display order, with their parsed documents.
	displayed []*chat.Message
	documents map[string]*markdown.Document

	// Line offsets of each message and of each block within each message, in the viewport.
	messageViewportOffsets []int
	blockViewportOffsets   [][]int

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *markdown.Renderer
	styles   *styles.Styles

	// UI state
	width            int
	height           int
	ready            bool
	quitting         bool
	signedOut        bool
	windowFocused    bool
	sidebar          bool
	focusedComponent FocusedComponent
	chatCursor       int
	creating         bool
	createErr        error
	err              error

	// Alert notifications.
	alert bubbleup.AlertModel

	// Delete confirmation state
	pendingDelete   string
	awaitingConfirm bool

	// Program reference for sending messages from goroutines
	program   *tea.Program
	programMu sync.Mutex

	// Input history
	historyNavigating bool

	// Tracks the index of the message we're currently navigating. (-1 if none is selected).
	navigationMessageIndex int
	navigationBlockIndex   int // Index within the current message's blocks. (-1 selects the whole message).
}

// New creates a new chat client model.
func New(
	ctx context.Context,
	config *configuration.Config,
	service *chat.Service,
	session Session,
	themes *theme.Manager,
	clipboardWriter clipboard.Writer,
	inputHistory *history.History,
) (*Model, error) {
	log = debug.GetLogger()

	ta := textarea.New()
	ta.Placeholder = "Type your message... (Ctrl+J to send, Tab to switch focus, Alt+P/N for history, Ctrl+C to quit)"
	ta.CharLimit = 0
	ta.SetWidth(styles.DefaultTextareaWidth)
	ta.SetHeight(styles.MinTextareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.Prompt = ""

	s := styles.New(themes.Current())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	renderer, err := markdown.NewRenderer(styles.DefaultTextareaWidth, themes.Current())
	if err != nil {
		return nil, err
	}

	m := &Model{
		ctx:                    ctx,
		config:                 config,
		service:                service,
		session:                session,
		themes:                 themes,
		clipboard:              clipboardWriter,
		history:                inputHistory,
		chats:                  service.NewChatsResource(),
		messages:               service.NewMessagesResource(),
		drafts:                 map[string]string{},
		documents:              map[string]*markdown.Document{},
		textarea:               ta,
		spinner:                sp,
		renderer:               renderer,
		styles:                 s,
		windowFocused:          true,
		sidebar:                true,
		focusedComponent:       FocusChatList,
		alert:                  *bubbleup.NewAlertModel(25, true, 1),
		navigationMessageIndex: -1,
		navigationBlockIndex:   -1,
	}
	return m, nil
}

// SetProgram sets the tea.Program reference for async message sending.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// getProgram safely gets the program reference.
func (m *Model) getProgram() *tea.Program {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	return m.program
}

// dispatch delivers resource events to the update loop.
func (m *Model) dispatch(event any) {
	if p := m.getProgram(); p != nil {
		p.Send(event)
	}
}

// Init opens the chat list and, if a chat was selected beforehand, its messages.
func (m *Model) Init() tea.Cmd {
	m.chats.Open(m.ctx, m.userScope(), m.dispatch)
	if m.selection.ID() != "" {
		m.messages.Open(m.ctx, m.selection.Scope(), m.dispatch)
		m.focus(FocusTextarea)
	}
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.alert.Init(),
	)
}

// Open selects `chatID` when the program starts.
func (m *Model) Open(chatID string) {
	m.selection.Select(chatID)
}

// SignedOut reports whether the program ended because the user signed out.
func (m *Model) SignedOut() bool { return m.signedOut }

// Close cancels the live feeds.
func (m *Model) Close() {
	m.chats.Close()
	m.messages.Close()
}

func (m *Model) userScope() chat.Scope {
	user := m.session.User()
	if user == nil {
		return chat.NoScope
	}
	return chat.Scope(user.ID)
}

// selectChat opens the messages of `chatID`, clearing whatever was displayed.
func (m *Model) selectChat(chatID string) {
	if !m.selection.Select(chatID) {
		return
	}
	m.messages.Open(m.ctx, m.selection.Scope(), m.dispatch)
	m.displayed = nil
	if draft, ok := m.drafts[chatID]; ok && m.textarea.Value() == "" {
		delete(m.drafts, chatID)
		m.textarea.SetValue(draft)
		m.adjustTextareaHeight()
	}
	m.resetNavigation()
	m.refreshMessages()
	m.viewport.GotoBottom()
}

// clearSelection closes the message list.
func (m *Model) clearSelection() {
	m.selection.Clear()
	m.messages.Open(m.ctx, chat.NoScope, m.dispatch)
	m.displayed = nil
	m.resetNavigation()
	m.refreshMessages()
	m.sidebar = true
	m.focus(FocusChatList)
}

func (m *Model) resetNavigation() {
	m.navigationMessageIndex = -1
	m.navigationBlockIndex = -1
}

// chatItems returns the reconciled chat list.
func (m *Model) chatItems() []*chat.Chat {
	return m.chats.View().Items
}

// cursorChat returns the chat under the list cursor.
func (m *Model) cursorChat() *chat.Chat {
	items := m.chatItems()
	if m.chatCursor < 0 || m.chatCursor >= len(items) {
		return nil
	}
	return items[m.chatCursor]
}

func (m *Model) clampChatCursor() {
	items := m.chatItems()
	if m.chatCursor >= len(items) {
		m.chatCursor = len(items) - 1
	}
	if m.chatCursor < 0 {
		m.chatCursor = 0
	}
}

// document returns the parsed blocks of a message. User messages are a single plain text block.
func (m *Model) document(message *chat.Message) *markdown.Document {
	if !message.IsBot {
		return &markdown.Document{Blocks: []markdown.Block{&markdown.TextBlock{Text: message.Content}}}
	}
	if document, ok := m.documents[message.ID]; ok {
		return document
	}
	document := markdown.Parse(message.Content)
	m.documents[message.ID] = document
	return document
}

// getSelectedContent returns the content of the currently selected message or block.
func (m *Model) getSelectedContent() (string, string) {
	if m.navigationMessageIndex < 0 || m.navigationMessageIndex >= len(m.displayed) {
		return "", ""
	}
	message := m.displayed[m.navigationMessageIndex]
	if m.navigationBlockIndex != -1 {
		blocks := m.document(message).Blocks
		if m.navigationBlockIndex >= 0 && m.navigationBlockIndex < len(blocks) {
			return blocks[m.navigationBlockIndex].Content(), blocks[m.navigationBlockIndex].Extension()
		}
		return "", ""
	}
	return message.Content, "md"
}

func (m *Model) focus(component FocusedComponent) {
	m.focusedComponent = component
	if component == FocusTextarea && m.windowFocused {
		m.textarea.Focus()
		return
	}
	m.textarea.Blur()
}

// setTheme switches every themed component to `t`.
func (m *Model) setTheme(t theme.Theme) error {
	if err := m.renderer.SetTheme(t); err != nil {
		return err
	}
	m.styles = styles.New(t)
	m.spinner.Style = m.styles.Spinner
	m.refreshMessages()
	return nil
}
