package tui

import "github.com/malonaz/botchat/internal/markdown"

// Message navigation works on the displayed messages. A selected message has a selected block, so
// the copy key copies a code block exactly as fenced, or a whole paragraph of text.
// Every function returns true if navigation occurred and a re-render is needed.

// blockCount returns the number of blocks of the ith displayed message, at least 1.
func (m *Model) blockCount(i int) int {
	if i < 0 || i >= len(m.displayed) {
		return 1
	}
	if n := len(m.document(m.displayed[i]).Blocks); n > 0 {
		return n
	}
	return 1
}

func (m *Model) navigateTo(messageIndex, blockIndex int) bool {
	if m.navigationMessageIndex == messageIndex && m.navigationBlockIndex == blockIndex {
		return false
	}
	m.navigationMessageIndex = messageIndex
	m.navigationBlockIndex = blockIndex
	return true
}

// toTop navigates to the first block of the first message.
func (m *Model) toTop() bool {
	if len(m.displayed) == 0 {
		return false
	}
	return m.navigateTo(0, 0)
}

// toBottom navigates to the last block of the last message.
func (m *Model) toBottom() bool {
	if len(m.displayed) == 0 {
		return false
	}
	last := len(m.displayed) - 1
	return m.navigateTo(last, m.blockCount(last)-1)
}

// toPreviousMessage navigates to the last block of the previous message, starting from the last
// message when nothing is selected.
func (m *Model) toPreviousMessage() bool {
	switch {
	case len(m.displayed) == 0:
		return false
	case m.navigationMessageIndex == -1:
		return m.toBottom()
	case m.navigationMessageIndex == 0:
		return false
	}
	previous := m.navigationMessageIndex - 1
	return m.navigateTo(previous, m.blockCount(previous)-1)
}

// toNextMessage navigates to the first block of the next message.
func (m *Model) toNextMessage() bool {
	if m.navigationMessageIndex == -1 || m.navigationMessageIndex >= len(m.displayed)-1 {
		return false
	}
	return m.navigateTo(m.navigationMessageIndex+1, 0)
}

// toPreviousBlock moves up one block, crossing into the previous message at its first block.
func (m *Model) toPreviousBlock() bool {
	switch {
	case len(m.displayed) == 0:
		return false
	case m.navigationMessageIndex == -1:
		return m.toBottom()
	case m.navigationBlockIndex == -1:
		return m.navigateTo(m.navigationMessageIndex, m.blockCount(m.navigationMessageIndex)-1)
	case m.navigationBlockIndex > 0:
		return m.navigateTo(m.navigationMessageIndex, m.navigationBlockIndex-1)
	}
	return m.toPreviousMessage()
}

// toNextBlock moves down one block, crossing into the next message at its last block.
func (m *Model) toNextBlock() bool {
	switch {
	case m.navigationMessageIndex == -1:
		return false
	case m.navigationBlockIndex == -1:
		return m.navigateTo(m.navigationMessageIndex, 0)
	case m.navigationBlockIndex < m.blockCount(m.navigationMessageIndex)-1:
		return m.navigateTo(m.navigationMessageIndex, m.navigationBlockIndex+1)
	}
	return m.toNextMessage()
}

// toNextCodeBlock jumps to the next code block after the current position, in any later message.
func (m *Model) toNextCodeBlock() bool {
	messageIndex, blockIndex := m.navigationMessageIndex, m.navigationBlockIndex
	if messageIndex == -1 {
		messageIndex, blockIndex = 0, -1
	}
	for i := messageIndex; i < len(m.displayed); i++ {
		for j, block := range m.document(m.displayed[i]).Blocks {
			if i == messageIndex && j <= blockIndex {
				continue
			}
			if _, ok := block.(*markdown.CodeBlock); ok {
				return m.navigateTo(i, j)
			}
		}
	}
	return false
}

// toPreviousCodeBlock jumps to the closest code block before the current position.
func (m *Model) toPreviousCodeBlock() bool {
	messageIndex, blockIndex := m.navigationMessageIndex, m.navigationBlockIndex
	if messageIndex == -1 {
		messageIndex, blockIndex = len(m.displayed)-1, len(m.displayed)
		if messageIndex >= 0 {
			blockIndex = m.blockCount(messageIndex)
		}
	}
	for i := messageIndex; i >= 0; i-- {
		blocks := m.document(m.displayed[i]).Blocks
		for j := len(blocks) - 1; j >= 0; j-- {
			if i == messageIndex && blockIndex != -1 && j >= blockIndex {
				continue
			}
			if _, ok := blocks[j].(*markdown.CodeBlock); ok {
				return m.navigateTo(i, j)
			}
		}
	}
	return false
}

// cursorUp moves the chat list cursor up.
func (m *Model) cursorUp() bool {
	if m.chatCursor == 0 {
		return false
	}
	m.chatCursor--
	return true
}

// cursorDown moves the chat list cursor down.
func (m *Model) cursorDown() bool {
	if m.chatCursor >= len(m.chatItems())-1 {
		return false
	}
	m.chatCursor++
	return true
}
