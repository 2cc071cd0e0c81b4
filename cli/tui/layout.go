package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/malonaz/botchat/cli/tui/styles"
)

// adjustTextareaHeight resizes the textarea based on content line count.
func (m *Model) adjustTextareaHeight() {
	lineCount := strings.Count(m.textarea.Value(), "\n") + 1
	newHeight := min(max(lineCount, styles.MinTextareaHeight), styles.MaxTextareaHeight)

	oldHeight := m.textarea.Height()
	if oldHeight == newHeight {
		return
	}
	m.textarea.SetHeight(newHeight)
	m.recalculateLayout()
	if m.ready {
		m.viewport.LineDown(newHeight - oldHeight)
	}
}

// chatListWidth returns the width taken by the chat list, 0 when the sidebar is hidden.
func (m *Model) chatListWidth() int {
	if !m.sidebar {
		return 0
	}
	return styles.ChatListWidth + m.styles.ChatList.GetHorizontalFrameSize()
}

// mainWidth returns the width of the chat window.
func (m *Model) mainWidth() int {
	return max(m.width-m.chatListWidth(), 1)
}

// recalculateLayout adjusts viewport and textarea dimensions based on current state.
func (m *Model) recalculateLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	mainWidth := m.mainWidth()
	m.textarea.SetWidth(mainWidth - m.styles.TextArea.GetHorizontalFrameSize())

	viewportHeight := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	viewportHeight = max(viewportHeight, styles.MinViewportHeight)

	// Account for message frame size and block indicator width.
	rendererWidth := max(mainWidth-m.styles.MessageHorizontalFrameSize()-styles.BlockIndicatorWidth, 10)
	widthChanged := rendererWidth != m.renderer.Width()
	if err := m.renderer.SetWidth(rendererWidth); err != nil {
		log.Errorw("resizing renderer", "width", rendererWidth, "error", err)
	}

	if !m.ready {
		m.viewport = viewport.New(mainWidth, viewportHeight)
		m.ready = true
		m.refreshMessages()
		m.viewport.GotoBottom()
		return
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = viewportHeight
	if widthChanged {
		m.refreshMessages()
	}
}

// refreshMessages re-renders the message list into the viewport.
func (m *Model) refreshMessages() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
}

// scrollIntoView scrolls the viewport to `startLine` unless lines [startLine, endLine] are fully visible.
func (m *Model) scrollIntoView(startLine, endLine int) {
	top := m.viewport.YOffset
	bottom := top + m.viewport.Height
	if startLine >= top && endLine < bottom {
		return
	}
	m.viewport.SetYOffset(startLine)
}

// endOfMessage returns the last line of the ith message.
func (m *Model) endOfMessage(i int) int {
	if i+1 < len(m.messageViewportOffsets) {
		return m.messageViewportOffsets[i+1] - 1
	}
	return m.viewport.TotalLineCount()
}

// scrollToNavigatedMessage scrolls the viewport to show the currently navigated message.
func (m *Model) scrollToNavigatedMessage() {
	i := m.navigationMessageIndex
	if i < 0 || i >= len(m.messageViewportOffsets) {
		return
	}
	m.scrollIntoView(m.messageViewportOffsets[i], m.endOfMessage(i))
}

// scrollToNavigatedBlock scrolls the viewport to show the currently navigated block.
func (m *Model) scrollToNavigatedBlock() {
	i, j := m.navigationMessageIndex, m.navigationBlockIndex
	if i < 0 || i >= len(m.blockViewportOffsets) {
		return
	}
	offsets := m.blockViewportOffsets[i]
	if j < 0 || j >= len(offsets) {
		m.scrollToNavigatedMessage()
		return
	}
	endLine := m.endOfMessage(i)
	if j+1 < len(offsets) {
		endLine = offsets[j+1] - 1
	}
	m.scrollIntoView(offsets[j], endLine)
}
