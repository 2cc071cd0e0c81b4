package chat

import "time"

// Chat is a conversation owned by exactly one user.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Listing a chat only loads its most recent message. Fetching a single chat loads all of them, oldest first.
	Messages []*Message `json:"messages,omitempty"`
}

// Latest returns the preview message of a listed chat, or nil for an empty chat.
func (c *Chat) Latest() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[0]
}

// Message is a single message within a chat.
type Message struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
	// Empty for bot messages.
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	IsBot     bool      `json:"is_bot"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReplyStatus is the outcome of asking the assistant to reply.
type ReplyStatus struct {
	// Set when the workflow accepted the request.
	OK bool
	// Optional message returned by the workflow.
	Message string
	// Why the workflow could not be triggered. Nil when OK.
	Err error
}

// Failed reports whether the assistant will not reply.
func (r ReplyStatus) Failed() bool { return !r.OK }

// SendResult is returned for a message that was persisted.
type SendResult struct {
	Message *Message
	Reply   ReplyStatus
}
