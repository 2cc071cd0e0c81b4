package tui

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/malonaz/botchat/chat"
)

// sendMessage begins a send attempt: the input is cleared and the typing indicator shown until the
// message is persisted and a reply requested.
func (m *Model) sendMessage() tea.Cmd {
	chatID := m.selection.ID()
	if chatID == "" {
		return nil
	}
	m.composer.SetInput(m.textarea.Value())
	text, ok := m.composer.Begin()
	if !ok {
		return nil
	}

	if err := m.history.Add(text); err != nil {
		log.Warnw("saving input history", "error", err)
	}
	m.historyNavigating = false
	m.textarea.Reset()
	m.resetNavigation()
	m.recalculateLayout()
	m.viewport.GotoBottom()

	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		result, err := service.SendMessage(ctx, chatID, text)
		return messageSentMsg{chatID: chatID, result: result, err: err}
	}
}

// finishSend settles the send attempt. A failed attempt puts the composed text back into its own chat:
// when another chat was opened meanwhile, the draft waits until that chat is selected again.
func (m *Model) finishSend(msg messageSentMsg) {
	m.composer.Finish(msg.result, msg.err)
	switch m.composer.State() {
	case chat.Failed:
		log.Errorw("sending message", "chat", msg.chatID, "error", msg.err)
		if msg.chatID != m.selection.ID() {
			m.drafts[msg.chatID] = m.composer.Input()
			m.composer = chat.Composer{}
			m.err = errors.Wrapf(msg.err, "sending message to %s", chat.Title(msg.chatID))
			break
		}
		m.textarea.SetValue(m.composer.Input())
		m.adjustTextareaHeight()
	case chat.Settled:
		if reply := m.composer.Reply(); reply.Failed() {
			log.Warnw("assistant reply not requested", "chat", msg.chatID, "error", reply.Err)
		}
	}
	m.recalculateLayout()
}

func (m *Model) createChat() tea.Cmd {
	if m.creating {
		return nil
	}
	m.creating = true
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		created, err := service.CreateChat(ctx)
		return chatCreatedMsg{chat: created, err: err}
	}
}

// deleteChat deletes a chat the user already confirmed in the dialog.
func (m *Model) deleteChat(chatID string) tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		err := service.DeleteChat(ctx, chatID, chat.Answered(true))
		return chatDeletedMsg{chatID: chatID, err: err}
	}
}

// promptDelete opens the confirmation dialog for the chat under the cursor.
func (m *Model) promptDelete() {
	c := m.cursorChat()
	if c == nil {
		return
	}
	m.pendingDelete = c.ID
	m.awaitingConfirm = true
}

func (m *Model) cancelDelete() {
	m.pendingDelete = ""
	m.awaitingConfirm = false
}

func (m *Model) confirmDelete() tea.Cmd {
	chatID := m.pendingDelete
	m.cancelDelete()
	if chatID == "" {
		return nil
	}
	return m.deleteChat(chatID)
}

func (m *Model) signOut() tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return signedOutMsg{err: session.SignOut(ctx)}
	}
}

func (m *Model) copySelection() error {
	content, _ := m.getSelectedContent()
	if content == "" {
		return nil
	}
	return m.clipboard.Write(content)
}

func (m *Model) openInEditor(content, ext string) tea.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vim"
	}

	tmpFile, err := os.CreateTemp("", "botchat-message-*."+ext)
	if err != nil {
		return func() tea.Msg {
			return editorClosedMsg{err: errors.Wrap(err, "creating temp file")}
		}
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.WriteString(content); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return func() tea.Msg {
			return editorClosedMsg{err: errors.Wrap(err, "writing temp file")}
		}
	}
	tmpFile.Close()

	// Handles "emacs -nw", "code --wait", etc.
	parts := strings.Fields(editor)
	args := append(parts[1:], tmpPath)
	cmd := exec.Command(parts[0], args...)

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		os.Remove(tmpPath)
		if err != nil {
			return editorClosedMsg{err: errors.Wrap(err, "running editor")}
		}
		return editorClosedMsg{}
	})
}
