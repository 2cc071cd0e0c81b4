package chat

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultPreviewLength is the number of characters of the latest message shown in the chat list.
	DefaultPreviewLength = 50
	// EmptyChatPreview is shown for chats without messages.
	EmptyChatPreview = "New chat"
	// CreateFailedText is shown when a chat could not be created.
	CreateFailedText = "Failed to create new chat. Please try again."

	botPrefix  = "🤖 "
	userPrefix = "👤 "
	day        = 24 * time.Hour
)

// Title returns the display title of a chat: its id's last 8 characters.
func Title(chatID string) string {
	if len(chatID) > 8 {
		chatID = chatID[len(chatID)-8:]
	}
	return "Chat #" + chatID
}

// Preview returns the chat list line for a chat: the author marker and the start of its latest message.
func Preview(c *Chat, maxLength int) string {
	latest := c.Latest()
	if latest == nil {
		return EmptyChatPreview
	}
	prefix := userPrefix
	if latest.IsBot {
		prefix = botPrefix
	}
	return prefix + Truncate(latest.Content, maxLength)
}

// Truncate cuts `s` to `maxLength` characters, marking the cut with "...".
func Truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultPreviewLength
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength]) + "..."
}

// RelativeDate describes `t` relative to `now` in whole days, rounded up:
// "Today", "Yesterday", "N days ago" within a week, and the date beyond.
func RelativeDate(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(float64(elapsed) / float64(day)))
	switch {
	case days <= 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days-1)
	}
	return t.Local().Format("1/2/2006")
}

// Timestamp formats a message time for display, in local time.
func Timestamp(t time.Time) string {
	return t.Local().Format("15:04")
}
