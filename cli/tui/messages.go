package tui

import (
	"github.com/malonaz/botchat/chat"
)

type chatCreatedMsg struct {
	chat *chat.Chat
	err  error
}

type chatDeletedMsg struct {
	chatID string
	err    error
}

type messageSentMsg struct {
	chatID string
	result *chat.SendResult
	err    error
}

type signedOutMsg struct {
	err error
}

type editorClosedMsg struct {
	err error
}
