package chat

// Selection is the chat currently open. The zero value selects nothing.
type Selection struct {
	chatID string
}

// ID returns the selected chat id, or "".
func (s *Selection) ID() string { return s.chatID }

// Scope returns the message scope for the selection.
func (s *Selection) Scope() Scope { return Scope(s.chatID) }

// Select opens `chatID`. It returns false when it was already selected.
func (s *Selection) Select(chatID string) bool {
	if s.chatID == chatID {
		return false
	}
	s.chatID = chatID
	return true
}

// Clear selects nothing.
func (s *Selection) Clear() { s.chatID = "" }

// Deleted records that `chatID` was deleted, clearing the selection if it was selected.
// It returns true when the selection changed.
func (s *Selection) Deleted(chatID string) bool {
	if chatID == "" || s.chatID != chatID {
		return false
	}
	s.Clear()
	return true
}
