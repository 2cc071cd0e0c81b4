package tui

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"go.dalton.dog/bubbleup"

	"github.com/malonaz/botchat/chat"
)

type KeyMapSession struct {
	Quit          key.Binding
	CycleFocus    key.Binding
	ToggleSidebar key.Binding
	ToggleTheme   key.Binding
	SignOut       key.Binding
	Dismiss       key.Binding
}

type KeyMapChatList struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	New     key.Binding
	Delete  key.Binding
	Refresh key.Binding
}

type KeyMapViewport struct {
	ToTop               key.Binding
	ToBottom            key.Binding
	ToPreviousMessage   key.Binding
	ToNextMessage       key.Binding
	ToPreviousBlock     key.Binding
	ToNextBlock         key.Binding
	ToPreviousCodeBlock key.Binding
	ToNextCodeBlock     key.Binding
	ScrollUp            key.Binding
	ScrollDown          key.Binding
	OpenInEditor        key.Binding
	Copy                key.Binding
}

type InputKeyMap struct {
	Send                 key.Binding
	PreviousHistoryEntry key.Binding
	NextHistoryEntry     key.Binding
}

type KeyMapConfirm struct {
	Yes key.Binding
	No  key.Binding
}

var keyMapSession = KeyMapSession{
	Quit:          key.NewBinding(key.WithKeys("ctrl+c")),
	CycleFocus:    key.NewBinding(key.WithKeys("tab")),
	ToggleSidebar: key.NewBinding(key.WithKeys("alt+b")),
	ToggleTheme:   key.NewBinding(key.WithKeys("alt+t")),
	SignOut:       key.NewBinding(key.WithKeys("alt+q")),
	Dismiss:       key.NewBinding(key.WithKeys("esc")),
}

var keyMapChatList = KeyMapChatList{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Open:    key.NewBinding(key.WithKeys("enter")),
	New:     key.NewBinding(key.WithKeys("n")),
	Delete:  key.NewBinding(key.WithKeys("d")),
	Refresh: key.NewBinding(key.WithKeys("r")),
}

var keyMapViewport = KeyMapViewport{
	ToTop: key.NewBinding(
		key.WithKeys("alt+<"),
	),
	ToBottom: key.NewBinding(
		key.WithKeys("alt+>"),
	),

	// Message navigation.
	ToPreviousMessage: key.NewBinding(
		key.WithKeys("alt+{"),
	),
	ToNextMessage: key.NewBinding(
		key.WithKeys("alt+}"),
	),

	// Block navigation.
	ToPreviousBlock: key.NewBinding(
		key.WithKeys("alt+["),
	),
	ToNextBlock: key.NewBinding(
		key.WithKeys("alt+]"),
	),
	ToPreviousCodeBlock: key.NewBinding(
		key.WithKeys("alt+("),
	),
	ToNextCodeBlock: key.NewBinding(
		key.WithKeys("alt+)"),
	),

	// Scrolling.
	ScrollUp: key.NewBinding(
		key.WithKeys("ctrl+p"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("ctrl+n"),
	),

	Copy: key.NewBinding(
		key.WithKeys("alt+w"),
	),
	OpenInEditor: key.NewBinding(
		key.WithKeys("ctrl+o"),
	),
}

var inputKeyMap = InputKeyMap{
	Send: key.NewBinding(
		key.WithKeys("ctrl+j"),
	),
	PreviousHistoryEntry: key.NewBinding(
		key.WithKeys("alt+p"),
	),
	NextHistoryEntry: key.NewBinding(
		key.WithKeys("alt+n"),
	),
}

var keyMapConfirm = KeyMapConfirm{
	Yes: key.NewBinding(key.WithKeys("y", "Y")),
	No:  key.NewBinding(key.WithKeys("n", "N", "esc")),
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Always update the alert model with every message
	outAlert, alertCmd := m.alert.Update(msg)
	m.alert = outAlert.(bubbleup.AlertModel)
	if alertCmd != nil {
		cmds = append(cmds, alertCmd)
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case cursor.BlinkMsg:
		if m.focusedComponent == FocusTextarea {
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.FocusMsg:
		m.windowFocused = true
		if m.focusedComponent == FocusTextarea {
			m.textarea.Focus()
			cmds = append(cmds, textarea.Blink)
		}
		return m, tea.Batch(cmds...)

	case tea.BlurMsg:
		m.windowFocused = false
		m.textarea.Blur()
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalculateLayout()
		return m, tea.Batch(cmds...)

	case chat.Event[*chat.Chat]:
		if m.chats.Apply(msg) {
			if msg.Err != nil {
				log.Warnw("chat list", "source", msg.Source, "error", msg.Err)
			}
			m.clampChatCursor()
		}

	case chat.Event[*chat.Message]:
		if m.messages.Apply(msg) {
			if msg.Err != nil {
				log.Warnw("messages", "chat", m.selection.ID(), "source", msg.Source, "error", msg.Err)
			}
			cmds = append(cmds, m.applyMessages()...)
		}

	case chatCreatedMsg:
		m.creating = false
		if msg.err != nil {
			log.Errorw("creating chat", "error", msg.err)
			m.createErr = msg.err
			break
		}
		m.createErr = nil
		m.chats.Refetch(m.dispatch)
		m.chatCursor = 0
		m.selectChat(msg.chat.ID)
		m.focus(FocusTextarea)
		cmds = append(cmds, textarea.Blink)

	case chatDeletedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, chat.ErrNotConfirmed) {
				m.err = msg.err
			}
			break
		}
		if m.selection.Deleted(msg.chatID) {
			m.clearSelection()
		}
		m.chats.Refetch(m.dispatch)

	case messageSentMsg:
		m.finishSend(msg)

	case signedOutMsg:
		if msg.err != nil {
			log.Warnw("signing out", "error", msg.err)
		}
		m.signedOut = true
		m.quitting = true
		m.Close()
		return m, tea.Quit

	case editorClosedMsg:
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			m.recalculateLayout()
			return m, tea.Batch(append(cmds, cmd)...)
		}
	}

	switch msg.(type) {
	case tea.KeyMsg:
		switch m.focusedComponent {
		case FocusTextarea:
			if !m.composer.Typing() && !m.awaitingConfirm {
				var cmd tea.Cmd
				m.textarea, cmd = m.textarea.Update(msg)
				cmds = append(cmds, cmd)
				m.adjustTextareaHeight()
			}
		case FocusViewport:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.recalculateLayout()
	return m, tea.Batch(cmds...)
}

// applyMessages re-derives the displayed messages after the message resource changed.
func (m *Model) applyMessages() []tea.Cmd {
	previous := m.displayed
	m.displayed = chat.DisplayOrder(m.messages.View().Items)
	if m.navigationMessageIndex >= len(m.displayed) {
		m.resetNavigation()
	}

	wasAtBottom := m.viewport.AtBottom()
	m.refreshMessages()
	if wasAtBottom || len(previous) == 0 {
		m.viewport.GotoBottom()
		return nil
	}
	for _, message := range chat.NewSince(previous, m.displayed) {
		if message.IsBot {
			return []tea.Cmd{m.alert.NewAlertCmd(bubbleup.InfoKey, "New reply")}
		}
	}
	return nil
}

// handleKey handles key presses that are not plain text input. It returns false for keys that go to
// the focused component.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.awaitingConfirm {
		switch {
		case key.Matches(msg, keyMapConfirm.Yes):
			return m.confirmDelete(), true
		case key.Matches(msg, keyMapConfirm.No):
			m.cancelDelete()
			return nil, true
		case key.Matches(msg, keyMapSession.Quit):
			break
		default:
			return nil, true
		}
	}

	switch {
	case key.Matches(msg, keyMapSession.Quit):
		m.quitting = true
		m.Close()
		return tea.Quit, true

	case key.Matches(msg, keyMapSession.CycleFocus):
		return m.cycleFocus(), true

	case key.Matches(msg, keyMapSession.ToggleSidebar):
		m.sidebar = !m.sidebar
		if !m.sidebar && m.focusedComponent == FocusChatList {
			m.focus(FocusViewport)
		}
		m.recalculateLayout()
		m.refreshMessages()
		return nil, true

	case key.Matches(msg, keyMapSession.ToggleTheme):
		t, err := m.themes.Toggle()
		if err == nil {
			err = m.setTheme(t)
		}
		if err != nil {
			m.err = err
		}
		return nil, true

	case key.Matches(msg, keyMapSession.SignOut):
		return m.signOut(), true

	case key.Matches(msg, keyMapSession.Dismiss):
		m.err = nil
		m.createErr = nil
		if m.historyNavigating {
			m.history.Reset()
			m.historyNavigating = false
		}
		return nil, true
	}

	switch m.focusedComponent {
	case FocusChatList:
		return m.handleChatListKey(msg), true
	case FocusTextarea:
		return m.handleInputKey(msg)
	case FocusViewport:
		return m.handleViewportKey(msg)
	}
	return nil, false
}

func (m *Model) handleChatListKey(msg tea.KeyMsg) tea.Cmd {
	km := keyMapChatList
	switch {
	case key.Matches(msg, km.Up):
		m.cursorUp()
	case key.Matches(msg, km.Down):
		m.cursorDown()
	case key.Matches(msg, km.Open):
		if c := m.cursorChat(); c != nil {
			m.selectChat(c.ID)
			m.focus(FocusTextarea)
			return textarea.Blink
		}
	case key.Matches(msg, km.New):
		return m.createChat()
	case key.Matches(msg, km.Delete):
		m.promptDelete()
	case key.Matches(msg, km.Refresh):
		m.chats.Refetch(m.dispatch)
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := inputKeyMap
	switch {
	case key.Matches(msg, km.Send):
		return m.sendMessage(), true

	case key.Matches(msg, km.PreviousHistoryEntry):
		if m.composer.Typing() {
			return nil, true
		}
		if entry, ok := m.history.Previous(m.textarea.Value()); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil, true

	case key.Matches(msg, km.NextHistoryEntry):
		if m.composer.Typing() {
			return nil, true
		}
		if entry, ok := m.history.Next(); ok {
			m.textarea.SetValue(entry)
			m.historyNavigating = true
			m.adjustTextareaHeight()
		}
		return nil, true
	}

	if m.historyNavigating {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyRunes, tea.KeyBackspace, tea.KeyDelete:
			m.history.Reset()
			m.historyNavigating = false
		}
	}
	return nil, false
}

func (m *Model) handleViewportKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := keyMapViewport
	navigate := func(moved bool, scroll func()) (tea.Cmd, bool) {
		if moved {
			m.refreshMessages()
			scroll()
		}
		return nil, true
	}

	switch {
	case key.Matches(msg, km.ToTop):
		return navigate(m.toTop(), m.scrollToNavigatedBlock)
	case key.Matches(msg, km.ToBottom):
		return navigate(m.toBottom(), m.scrollToNavigatedBlock)
	case key.Matches(msg, km.ToPreviousMessage):
		return navigate(m.toPreviousMessage(), m.scrollToNavigatedMessage)
	case key.Matches(msg, km.ToNextMessage):
		return navigate(m.toNextMessage(), m.scrollToNavigatedMessage)
	case key.Matches(msg, km.ToPreviousBlock):
		return navigate(m.toPreviousBlock(), m.scrollToNavigatedBlock)
	case key.Matches(msg, km.ToNextBlock):
		return navigate(m.toNextBlock(), m.scrollToNavigatedBlock)
	case key.Matches(msg, km.ToPreviousCodeBlock):
		return navigate(m.toPreviousCodeBlock(), m.scrollToNavigatedBlock)
	case key.Matches(msg, km.ToNextCodeBlock):
		return navigate(m.toNextCodeBlock(), m.scrollToNavigatedBlock)

	case key.Matches(msg, km.ScrollUp):
		m.viewport.LineUp(3)
		return nil, true
	case key.Matches(msg, km.ScrollDown):
		m.viewport.LineDown(3)
		return nil, true

	case key.Matches(msg, km.OpenInEditor):
		if m.navigationMessageIndex == -1 {
			return nil, true
		}
		content, ext := m.getSelectedContent()
		return m.openInEditor(content, ext), true

	case key.Matches(msg, km.Copy):
		if m.navigationMessageIndex == -1 {
			return nil, true
		}
		if err := m.copySelection(); err != nil {
			log.Errorw("copying to clipboard", "error", err)
			return m.alert.NewAlertCmd(bubbleup.ErrorKey, "Copy failed"), true
		}
		return m.alert.NewAlertCmd(bubbleup.InfoKey, "Copied to clipboard!"), true
	}
	return nil, false
}

// cycleFocus moves focus to the next component: chat list, input, then messages.
func (m *Model) cycleFocus() tea.Cmd {
	order := []FocusedComponent{}
	if m.sidebar {
		order = append(order, FocusChatList)
	}
	if m.selection.ID() != "" {
		order = append(order, FocusTextarea, FocusViewport)
	}
	if len(order) == 0 {
		return nil
	}

	next := order[0]
	for i, component := range order {
		if component == m.focusedComponent {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.focus(next)

	switch next {
	case FocusViewport:
		if m.navigationMessageIndex == -1 {
			m.toBottom()
		}
		m.refreshMessages()
		m.scrollToNavigatedMessage()
	case FocusTextarea:
		m.refreshMessages()
		return textarea.Blink
	}
	return nil
}
