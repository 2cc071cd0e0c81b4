package chat

import "context"

const (
	// ChatsResource names the chat list resource.
	ChatsResource = "chats"
	// MessagesResource names the message list resource.
	MessagesResource = "messages"
)

// ChatsLoader follows the signed-in user's chat list. The scope is the user id, so signing in as
// someone else restarts the resource.
func (s *Service) ChatsLoader() Loader[*Chat] { return chatsLoader{s} }

// MessagesLoader follows the messages of the chat named by the scope.
func (s *Service) MessagesLoader() Loader[*Message] { return messagesLoader{s} }

// NewChatsResource returns the chat list resource.
func (s *Service) NewChatsResource() *Resource[*Chat] {
	return NewResource(ChatsResource, s.ChatsLoader())
}

// NewMessagesResource returns the message list resource.
func (s *Service) NewMessagesResource() *Resource[*Message] {
	return NewResource(MessagesResource, s.MessagesLoader())
}

type chatsLoader struct{ s *Service }

func (l chatsLoader) Fetch(ctx context.Context, _ Scope) ([]*Chat, error) {
	return l.s.ListChats(ctx)
}

func (l chatsLoader) Subscribe(ctx context.Context, _ Scope) (<-chan Push[*Chat], error) {
	return l.s.SubscribeChats(ctx)
}

type messagesLoader struct{ s *Service }

func (l messagesLoader) Fetch(ctx context.Context, scope Scope) ([]*Message, error) {
	return l.s.ListMessages(ctx, string(scope))
}

func (l messagesLoader) Subscribe(ctx context.Context, scope Scope) (<-chan Push[*Message], error) {
	return l.s.SubscribeMessages(ctx, string(scope))
}
