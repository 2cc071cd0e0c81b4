package chat

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/internal/graphql"
)

var (
	// ErrUnauthenticated is returned by mutations attempted without a signed-in user.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrNotConfirmed is returned when the user declines a destructive operation.
	ErrNotConfirmed = errors.New("not confirmed")
	// ErrChatNotFound is returned when a chat does not exist or belongs to someone else.
	ErrChatNotFound = errors.New("chat not found")
	// ErrEmptyMessage is returned when sending a message with no content.
	ErrEmptyMessage = errors.New("message is empty")
)

// Backend executes GraphQL operations.
type Backend interface {
	Do(ctx context.Context, req *graphql.Request, out any) error
	Subscribe(ctx context.Context, req *graphql.Request) (<-chan graphql.Event, error)
}

// Identity reports the signed-in user. An empty id means nobody is signed in.
type Identity interface {
	UserID() string
}

// Confirm asks the user a yes/no question.
type Confirm func(question string) bool

// Answered returns a Confirm replaying an answer that was collected elsewhere, e.g. by a dialog.
func Answered(answer bool) Confirm {
	return func(string) bool { return answer }
}

// DeleteQuestion is asked before deleting a chat.
const DeleteQuestion = "Are you sure you want to delete this chat?"

// Service exposes the chat backend: reads, live feeds and mutations.
type Service struct {
	backend  Backend
	identity Identity
	log      *zap.SugaredLogger
}

// NewService instantiates and returns a new chat service.
func NewService(backend Backend, identity Identity) *Service {
	return &Service{
		backend:  backend,
		identity: identity,
		log:      debug.GetLogger(),
	}
}

// ListChats returns the user's chats, most recently updated first, each with its latest message.
func (s *Service) ListChats(ctx context.Context) ([]*Chat, error) {
	var data struct {
		Chats []*Chat `json:"chats"`
	}
	if err := s.backend.Do(ctx, &graphql.Request{Query: getChatsQuery, OperationName: "GetChats"}, &data); err != nil {
		return nil, errors.Wrap(err, "listing chats")
	}
	return data.Chats, nil
}

// ListMessages returns the messages of a chat, oldest first.
func (s *Service) ListMessages(ctx context.Context, chatID string) ([]*Message, error) {
	var data struct {
		Messages []*Message `json:"messages"`
	}
	request := &graphql.Request{
		Query:         getChatMessagesQuery,
		OperationName: "GetChatMessages",
		Variables:     map[string]any{"chat_id": chatID},
	}
	if err := s.backend.Do(ctx, request, &data); err != nil {
		return nil, errors.Wrap(err, "listing messages")
	}
	return data.Messages, nil
}

// GetChat returns a chat with all of its messages.
func (s *Service) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	var data struct {
		Chat *Chat `json:"chats_by_pk"`
	}
	request := &graphql.Request{
		Query:         getChatWithMessagesQuery,
		OperationName: "GetChatWithMessages",
		Variables:     map[string]any{"chat_id": chatID},
	}
	if err := s.backend.Do(ctx, request, &data); err != nil {
		return nil, errors.Wrap(err, "getting chat")
	}
	if data.Chat == nil {
		return nil, errors.Wrap(ErrChatNotFound, chatID)
	}
	return data.Chat, nil
}

// SubscribeChats follows the user's chat list. Each push is the full list.
func (s *Service) SubscribeChats(ctx context.Context) (<-chan Push[*Chat], error) {
	events, err := s.backend.Subscribe(ctx, &graphql.Request{Query: subscribeToChatsSubscription, OperationName: "SubscribeToChats"})
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to chats")
	}
	return relay[*Chat](ctx, events, "chats"), nil
}

// SubscribeMessages follows the messages of a chat. Each push is the full, ordered list.
func (s *Service) SubscribeMessages(ctx context.Context, chatID string) (<-chan Push[*Message], error) {
	request := &graphql.Request{
		Query:         subscribeToMessagesSubscription,
		OperationName: "SubscribeToMessages",
		Variables:     map[string]any{"chat_id": chatID},
	}
	events, err := s.backend.Subscribe(ctx, request)
	if err != nil {
		return nil, errors.Wrap(err, "subscribing to messages")
	}
	return relay[*Message](ctx, events, "messages"), nil
}

// CreateChat creates an empty chat owned by the signed-in user. Callers refetch the chat list.
func (s *Service) CreateChat(ctx context.Context) (*Chat, error) {
	userID := s.identity.UserID()
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	var data struct {
		Chat *Chat `json:"insert_chats_one"`
	}
	if err := s.backend.Do(ctx, &graphql.Request{Query: createChatMutation, OperationName: "CreateChat"}, &data); err != nil {
		s.log.Errorw("creating chat", "user", userID, "error", err)
		return nil, errors.Wrap(err, "creating chat")
	}
	if data.Chat == nil || data.Chat.ID == "" {
		return nil, errors.New("creating chat: no chat returned")
	}
	s.log.Infow("created chat", "chat", data.Chat.ID, "user", userID)
	return data.Chat, nil
}

// DeleteChat deletes a chat and, through the backend, its messages. Nothing is sent unless `confirm`
// accepts. Callers clear their selection and refetch the chat list.
func (s *Service) DeleteChat(ctx context.Context, chatID string, confirm Confirm) error {
	if s.identity.UserID() == "" {
		return ErrUnauthenticated
	}
	if confirm == nil || !confirm(DeleteQuestion) {
		return ErrNotConfirmed
	}
	var data struct {
		Deleted *struct {
			ID string `json:"id"`
		} `json:"delete_chats_by_pk"`
	}
	request := &graphql.Request{
		Query:         deleteChatMutation,
		OperationName: "DeleteChat",
		Variables:     map[string]any{"chat_id": chatID},
	}
	if err := s.backend.Do(ctx, request, &data); err != nil {
		s.log.Errorw("deleting chat", "chat", chatID, "error", err)
		return errors.Wrap(err, "deleting chat")
	}
	if data.Deleted == nil {
		return errors.Wrap(ErrChatNotFound, chatID)
	}
	s.log.Infow("deleted chat", "chat", chatID)
	return nil
}

// SendMessage persists `text` as a user message, then asks the workflow for a bot reply.
// An error means the message was not persisted. A failed trigger only shows up in the result's Reply.
func (s *Service) SendMessage(ctx context.Context, chatID, text string) (*SendResult, error) {
	userID := s.identity.UserID()
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	var created struct {
		Message *Message `json:"insert_messages_one"`
	}
	request := &graphql.Request{
		Query:         createMessageMutation,
		OperationName: "CreateMessage",
		Variables: map[string]any{
			"object": map[string]any{
				"chat_id": chatID,
				"content": content,
				"is_bot":  false,
			},
		},
	}
	if err := s.backend.Do(ctx, request, &created); err != nil {
		s.log.Errorw("persisting message", "chat", chatID, "error", err)
		return nil, errors.Wrap(err, "persisting message")
	}
	if created.Message == nil {
		return nil, errors.New("persisting message: no message returned")
	}

	return &SendResult{
		Message: created.Message,
		Reply:   s.requestReply(ctx, chatID, content, userID),
	}, nil
}

func (s *Service) requestReply(ctx context.Context, chatID, content, userID string) ReplyStatus {
	var data struct {
		Output *struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
			Error   string `json:"error"`
		} `json:"sendMessage"`
	}
	request := &graphql.Request{
		Query:         sendMessageAction,
		OperationName: "SendMessage",
		Variables: map[string]any{
			"chat_id":           chatID,
			"message":           content,
			"session_variables": map[string]any{"x_hasura_user_id": userID},
		},
	}
	if err := s.backend.Do(ctx, request, &data); err != nil {
		s.log.Warnw("triggering reply", "chat", chatID, "error", err)
		return ReplyStatus{Err: errors.Wrap(err, "triggering reply")}
	}
	if data.Output == nil {
		return ReplyStatus{Err: errors.New("triggering reply: no result returned")}
	}
	if !data.Output.Success {
		reason := data.Output.Error
		if reason == "" {
			reason = "workflow reported a failure"
		}
		s.log.Warnw("reply workflow failed", "chat", chatID, "reason", reason)
		return ReplyStatus{Message: data.Output.Message, Err: errors.New(reason)}
	}
	return ReplyStatus{OK: true, Message: data.Output.Message}
}
