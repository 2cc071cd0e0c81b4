package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/cli/tui/styles"
)

const (
	noChatsText       = "No chats yet."
	emptyChatText     = "Start a conversation"
	noSelectionText   = "Select a chat, or press n in the chat list to start a new one."
	typingText        = "Assistant is typing..."
	confirmHelpText   = "Press Y to confirm, N or Esc to cancel"
	chatListHelpText  = "↑/↓ move • enter open • n new • d delete • r refresh"
	viewportHelpText  = "alt+[/] blocks • alt+{/} messages • alt+(/) code • alt+w copy • ctrl+o editor"
	globalHelpText    = "tab focus • alt+b sidebar • alt+t theme • alt+q sign out"
	chatListItemLines = 3
)

// View renders the model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var main strings.Builder
	main.WriteString(m.styles.Viewport.Render(m.viewport.View()))
	main.WriteString("\n")
	main.WriteString(m.renderFooter())

	body := main.String()
	if m.sidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderChatList(), body)
	}

	return m.alert.Render(lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body))
}

func (m *Model) renderHeader() string {
	left := " 🤖 botchat"
	if chatID := m.selection.ID(); chatID != "" {
		left += " │ 💬 " + chat.Title(chatID)
	}
	left += fmt.Sprintf(" │ 🎨 %s ", m.styles.Theme)

	right := ""
	if user := m.session.User(); user != nil {
		right = m.styles.Avatar.Render(user.Initial()) + m.styles.Status.Render(" "+user.Name()+" ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.styles.Title.Render(left+strings.Repeat(" ", gap)) + right
}

func (m *Model) renderChatList() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.ChatListHeader.Render("Chats  (n) new"))
	b.WriteString("\n")

	if m.createErr != nil {
		b.WriteString(s.Banner.Width(styles.ChatListWidth - s.Banner.GetHorizontalFrameSize()).Render(chat.CreateFailedText))
		b.WriteString("\n")
	}
	if m.creating {
		b.WriteString(s.DimText.Render("Creating chat..."))
		b.WriteString("\n")
	}

	view := m.chats.View()
	switch {
	case view.Loading:
		b.WriteString(s.DimText.Render("Loading..."))
		b.WriteString("\n")
	case len(view.Items) == 0 && view.Err == nil:
		b.WriteString(s.EmptyState.Render(noChatsText))
		b.WriteString("\n")
	}
	if view.Err != nil {
		b.WriteString(s.Error.Width(styles.ChatListWidth).Render(fmt.Sprintf("Error: %v", view.Err)))
		b.WriteString("\n")
	}

	available := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(b.String())
	visible := max(available/chatListItemLines, 1)
	start := 0
	if m.chatCursor >= visible {
		start = m.chatCursor - visible + 1
	}
	end := min(start+visible, len(view.Items))

	now := time.Now()
	previewLength := min(m.config.Chat.PreviewLength, styles.ChatListWidth-6)
	for i := start; i < end; i++ {
		c := view.Items[i]
		title := chat.Title(c.ID)
		date := chat.RelativeDate(c.UpdatedAt, now)
		gap := max(styles.ChatListWidth-2-lipgloss.Width(title)-lipgloss.Width(date), 1)
		line := title + strings.Repeat(" ", gap) + s.ChatDate.Render(date)
		preview := s.ChatPreview.Render(chat.Preview(c, previewLength))

		style := s.ChatItem
		switch {
		case i == m.chatCursor && m.focusedComponent == FocusChatList:
			style = s.ChatItemSelected
		case c.ID == m.selection.ID():
			style = s.ChatItemOpen
		}
		b.WriteString(style.Width(styles.ChatListWidth - style.GetHorizontalBorderSize()).Render(line + "\n" + preview))
		b.WriteString("\n\n")
	}

	listStyle := s.ChatList
	if m.focusedComponent == FocusChatList {
		listStyle = s.ChatListFocused
	}
	height := max(m.height-lipgloss.Height(m.renderHeader()), 1)
	return listStyle.Width(styles.ChatListWidth).Height(height).MaxHeight(height).Render(strings.TrimRight(b.String(), "\n"))
}

// renderMessages renders the displayed messages and records where each message and block starts.
func (m *Model) renderMessages() string {
	s := m.styles
	m.messageViewportOffsets = m.messageViewportOffsets[:0]
	m.blockViewportOffsets = m.blockViewportOffsets[:0]

	if m.selection.ID() == "" {
		return s.EmptyState.Render(noSelectionText)
	}
	view := m.messages.View()
	if len(m.displayed) == 0 {
		if view.Loading {
			return s.EmptyState.Render("Loading messages...")
		}
		return s.EmptyState.Render(emptyChatText)
	}

	textWidth := m.renderer.Width()
	var b strings.Builder
	line := 0
	for i, message := range m.displayed {
		if i > 0 {
			b.WriteString("\n\n")
			line += 2
		}
		m.messageViewportOffsets = append(m.messageViewportOffsets, line)

		timestamp := s.Timestamp.Render(chat.Timestamp(message.CreatedAt))
		style := s.BotMessage
		header := s.BotLabel.Render("🤖 Assistant") + " " + timestamp
		if !message.IsBot {
			style = s.UserMessage
			header = lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, timestamp+" "+s.UserLabel.Render("You 👤"))
		}
		b.WriteString(header)
		b.WriteString("\n")
		line++

		selected := m.navigationMessageIndex == i
		switch {
		case selected:
			style = s.MessageSelected(style)
		case m.navigationMessageIndex != -1:
			style = s.MessageDimmed(style)
		}

		blocks := m.document(message).Blocks
		rendered := make([]string, 0, len(blocks))
		offsets := make([]int, 0, len(blocks))
		inner := line + 1 // Top border.
		for j, block := range blocks {
			var text string
			if message.IsBot {
				text = m.renderer.RenderBlock(fmt.Sprintf("%s/%d", message.ID, j), block)
			} else {
				text = lipgloss.NewStyle().Width(textWidth).Render(block.Content())
			}
			indicator := strings.Repeat(" ", styles.BlockIndicatorWidth)
			if selected && (m.navigationBlockIndex == j || m.navigationBlockIndex == -1) {
				indicator = s.BlockIndicator.Render(styles.BlockIndicator)
			}
			text = prefixLines(text, indicator)
			offsets = append(offsets, inner)
			inner += lipgloss.Height(text)
			rendered = append(rendered, text)
		}
		m.blockViewportOffsets = append(m.blockViewportOffsets, offsets)

		box := style.Render(strings.Join(rendered, "\n"))
		b.WriteString(box)
		line += lipgloss.Height(box)
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	s := m.styles
	var lines []string

	switch {
	case m.awaitingConfirm:
		lines = append(lines, m.renderConfirmDialog(), s.Help.Render(confirmHelpText))
	case m.selection.ID() == "":
	case m.composer.Typing():
		lines = append(lines, fmt.Sprintf("%s %s", m.spinner.View(), typingText))
	default:
		lines = append(lines, s.TextArea.Render(m.textarea.View()))
	}

	switch m.composer.State() {
	case chat.Failed:
		lines = append(lines, s.Error.Render(fmt.Sprintf("Failed to send message: %v", m.composer.Err())))
	case chat.Settled:
		if reply := m.composer.Reply(); reply.Failed() {
			lines = append(lines, s.Warning.Render(fmt.Sprintf("⚠️ The assistant could not be asked to reply: %v", reply.Err)))
		}
	}
	if err := m.messages.View().Err; err != nil {
		lines = append(lines, s.Error.Render(fmt.Sprintf("Error: %v", err)))
	}
	if m.err != nil {
		lines = append(lines, s.Error.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	help := globalHelpText
	switch m.focusedComponent {
	case FocusChatList:
		help = chatListHelpText + " • " + help
	case FocusViewport:
		help = viewportHelpText + " • " + help
	}
	lines = append(lines, s.Help.Width(m.mainWidth()).Render(help))
	return strings.Join(lines, "\n")
}

func (m *Model) renderConfirmDialog() string {
	var b strings.Builder
	b.WriteString(m.styles.ConfirmTitle.Render("🗑 " + chat.DeleteQuestion))
	b.WriteString("\n\n")
	b.WriteString(m.styles.DimText.Render(chat.Title(m.pendingDelete)))
	return m.styles.ConfirmBox.Render(b.String())
}

func prefixLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
