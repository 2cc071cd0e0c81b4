package webserver

import (
	"html/template"

	"github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/internal/markdown"
)

// MessageViewModel is a message as shown in the browser.
type MessageViewModel struct {
	ID    string
	IsBot bool
	Time  string
	// Plain text of user messages. The template escapes it.
	Text string
	// Rendered Markdown of bot messages, with a copy button per code block.
	HTML template.HTML
}

func buildMessages(messages []*chat.Message) []MessageViewModel {
	views := make([]MessageViewModel, 0, len(messages))
	for _, message := range messages {
		view := MessageViewModel{
			ID:    message.ID,
			IsBot: message.IsBot,
			Time:  chat.Timestamp(message.CreatedAt),
		}
		if !message.IsBot {
			view.Text = message.Content
			views = append(views, view)
			continue
		}
		rendered, err := markdown.Parse(message.Content).HTML()
		if err != nil {
			debug.GetLogger().Warnw("rendering message", "message", message.ID, "error", err)
			view.Text = message.Content
		}
		view.HTML = rendered
		views = append(views, view)
	}
	return views
}
