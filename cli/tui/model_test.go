package tui

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/internal/auth"
	"github.com/malonaz/botchat/internal/configuration"
	"github.com/malonaz/botchat/internal/graphql"
	"github.com/malonaz/botchat/internal/history"
	"github.com/malonaz/botchat/internal/theme"
	"github.com/malonaz/botchat/store"
)

type fakeSession struct {
	user      *auth.User
	signedOut bool
}

func (s *fakeSession) User() *auth.User { return s.user }

func (s *fakeSession) UserID() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *fakeSession) SignOut(context.Context) error {
	s.signedOut = true
	s.user = nil
	return nil
}

type fakeBackend struct {
	mu         sync.Mutex
	operations []string
	responses  map[string]string
	failures   map[string]error
}

func (f *fakeBackend) Do(_ context.Context, req *graphql.Request, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.operations = append(f.operations, req.OperationName)
	if err := f.failures[req.OperationName]; err != nil {
		return err
	}
	if response := f.responses[req.OperationName]; response != "" && out != nil {
		return json.Unmarshal([]byte(response), out)
	}
	return nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, req *graphql.Request) (<-chan graphql.Event, error) {
	events := make(chan graphql.Event)
	go func() {
		<-ctx.Done()
		close(events)
	}()
	return events, nil
}

func (f *fakeBackend) count(operation string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.operations {
		if o == operation {
			n++
		}
	}
	return n
}

type fakeClipboard struct {
	writes []string
}

func (c *fakeClipboard) Write(text string) error {
	c.writes = append(c.writes, text)
	return nil
}

type fixture struct {
	model     *Model
	backend   *fakeBackend
	session   *fakeSession
	clipboard *fakeClipboard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "botchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	themes, err := theme.Load(s)
	require.NoError(t, err)
	inputHistory, err := history.New("")
	require.NoError(t, err)

	backend := &fakeBackend{responses: map[string]string{}, failures: map[string]error{}}
	session := &fakeSession{user: &auth.User{ID: "user-1", Email: "ada@example.com"}}
	clipboard := &fakeClipboard{}
	config := &configuration.Config{Chat: &configuration.ChatConfig{PreviewLength: 50}}

	m, err := New(context.Background(), config, chat.NewService(backend, session), session, themes, clipboard, inputHistory)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &fixture{model: m, backend: backend, session: session, clipboard: clipboard}
}

func (f *fixture) chats(chats ...*chat.Chat) {
	f.model.Update(chat.Event[*chat.Chat]{
		Resource:   chat.ChatsResource,
		Generation: f.model.chats.State().Generation,
		Source:     chat.FeedSource,
		Items:      chats,
	})
}

func (f *fixture) messages(messages ...*chat.Message) {
	f.model.Update(chat.Event[*chat.Message]{
		Resource:   chat.MessagesResource,
		Generation: f.model.messages.State().Generation,
		Source:     chat.FeedSource,
		Items:      messages,
	})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChatListEmptyState(t *testing.T) {
	f := newFixture(t)
	f.chats()
	assert.Contains(t, f.model.View(), noChatsText)
}

func TestChatListShowsTitlesAndPreviews(t *testing.T) {
	f := newFixture(t)
	f.chats(&chat.Chat{
		ID:        "00000000-0000-0000-0000-0000abcdef12",
		UpdatedAt: time.Now(),
		Messages:  []*chat.Message{{ID: "m1", Content: "Hello there", IsBot: true}},
	})
	view := f.model.View()
	assert.Contains(t, view, "Chat #abcdef12")
	assert.Contains(t, view, "Hello there")
	assert.Contains(t, view, "Today")
}

func TestOpenChatAndRenderMessagesInOrder(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.chats(&chat.Chat{ID: "chat-1", UpdatedAt: now})
	f.model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "chat-1", f.model.selection.ID())
	require.Equal(t, FocusTextarea, f.model.focusedComponent)
	assert.Contains(t, f.model.View(), "Loading messages...")
	f.messages()
	assert.Contains(t, f.model.View(), emptyChatText)

	f.messages(
		&chat.Message{ID: "b", ChatID: "chat-1", Content: "second", IsBot: true, CreatedAt: now},
		&chat.Message{ID: "a", ChatID: "chat-1", Content: "first", CreatedAt: now.Add(-time.Minute)},
	)
	require.Len(t, f.model.displayed, 2)
	assert.Equal(t, "a", f.model.displayed[0].ID)
	assert.Equal(t, "b", f.model.displayed[1].ID)
}

func TestSwitchingChatClearsMessages(t *testing.T) {
	f := newFixture(t)
	f.chats(&chat.Chat{ID: "chat-1"}, &chat.Chat{ID: "chat-2"})
	f.model.selectChat("chat-1")
	f.messages(&chat.Message{ID: "a", ChatID: "chat-1", Content: "first"})
	require.Len(t, f.model.displayed, 1)

	stale := chat.Event[*chat.Message]{
		Resource:   chat.MessagesResource,
		Generation: f.model.messages.State().Generation,
		Source:     chat.FeedSource,
		Items:      []*chat.Message{{ID: "late", ChatID: "chat-1"}},
	}
	f.model.selectChat("chat-2")
	assert.Empty(t, f.model.displayed)
	f.model.Update(stale)
	assert.Empty(t, f.model.displayed)
}

func TestSendMessageFailureRestoresInput(t *testing.T) {
	f := newFixture(t)
	f.backend.failures["CreateMessage"] = errors.New("boom")
	f.model.selectChat("chat-1")
	f.model.focus(FocusTextarea)
	f.model.textarea.SetValue("Hello")

	cmd := f.model.sendMessage()
	require.NotNil(t, cmd)
	assert.Equal(t, "", f.model.textarea.Value())
	assert.True(t, f.model.composer.Typing())
	assert.Contains(t, f.model.View(), typingText)

	f.model.Update(cmd())
	assert.False(t, f.model.composer.Typing())
	assert.Equal(t, "Hello", f.model.textarea.Value())
	assert.Equal(t, 0, f.backend.count("SendMessage"))
	assert.Contains(t, f.model.View(), "Failed to send message")
}

func TestSendFailureAfterSwitchingChatsKeepsDraftWithItsChat(t *testing.T) {
	f := newFixture(t)
	f.backend.failures["CreateMessage"] = errors.New("boom")
	f.model.selectChat("chat-1")
	f.model.focus(FocusTextarea)
	f.model.textarea.SetValue("For chat one")

	cmd := f.model.sendMessage()
	require.NotNil(t, cmd)
	msg := cmd()
	f.model.selectChat("chat-2")
	f.model.Update(msg)

	assert.Equal(t, "", f.model.textarea.Value())
	assert.Equal(t, chat.Composing, f.model.composer.State())
	assert.Contains(t, f.model.View(), "sending message to Chat #chat-1")

	f.model.selectChat("chat-1")
	assert.Equal(t, "For chat one", f.model.textarea.Value())
}

func TestSendMessageReplyFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.backend.responses["CreateMessage"] = `{"insert_messages_one": {"id": "m1", "chat_id": "chat-1", "content": "Hello"}}`
	f.backend.responses["SendMessage"] = `{"sendMessage": {"success": false, "error": "workflow down"}}`
	f.model.selectChat("chat-1")
	f.model.focus(FocusTextarea)
	f.model.textarea.SetValue("Hello")

	cmd := f.model.sendMessage()
	require.NotNil(t, cmd)
	f.model.Update(cmd())
	assert.Equal(t, chat.Settled, f.model.composer.State())
	assert.Equal(t, "", f.model.textarea.Value())
	assert.Contains(t, f.model.View(), "workflow down")
}

func TestDeleteSelectedChatClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.backend.responses["DeleteChat"] = `{"delete_chats_by_pk": {"id": "chat-1"}}`
	f.chats(&chat.Chat{ID: "chat-1"})
	f.model.selectChat("chat-1")
	f.model.focus(FocusChatList)

	f.model.Update(keyRunes("d"))
	require.True(t, f.model.awaitingConfirm)
	assert.Contains(t, f.model.View(), chat.DeleteQuestion)

	cmd := f.model.confirmDelete()
	require.NotNil(t, cmd)
	f.model.Update(cmd())
	assert.Equal(t, "", f.model.selection.ID())
	assert.Equal(t, 1, f.backend.count("DeleteChat"))
}

func TestDeleteDeclinedIssuesNothing(t *testing.T) {
	f := newFixture(t)
	f.chats(&chat.Chat{ID: "chat-1"})
	f.model.Update(keyRunes("d"))
	require.True(t, f.model.awaitingConfirm)
	f.model.Update(keyRunes("n"))
	assert.False(t, f.model.awaitingConfirm)
	assert.Equal(t, 0, f.backend.count("DeleteChat"))
}

func TestCreateChatFailureShowsBanner(t *testing.T) {
	f := newFixture(t)
	f.backend.failures["CreateChat"] = errors.New("boom")
	cmd := f.model.createChat()
	require.NotNil(t, cmd)
	f.model.Update(cmd())
	assert.Error(t, f.model.createErr)
	assert.Contains(t, f.model.View(), "Failed to create new chat.")
}

func TestCreateChatSelectsIt(t *testing.T) {
	f := newFixture(t)
	f.backend.responses["CreateChat"] = `{"insert_chats_one": {"id": "chat-9"}}`
	cmd := f.model.createChat()
	require.NotNil(t, cmd)
	f.model.Update(cmd())
	assert.Equal(t, "chat-9", f.model.selection.ID())
	assert.Nil(t, f.model.createErr)
}

func TestCopyCodeBlocksInOrder(t *testing.T) {
	f := newFixture(t)
	f.model.selectChat("chat-1")
	f.messages(&chat.Message{
		ID:      "m1",
		ChatID:  "chat-1",
		IsBot:   true,
		Content: "Two blocks:\n\n```\na\n```\n\nand\n\n```go\nb\n```\n",
	})
	f.model.focus(FocusViewport)

	require.True(t, f.model.toNextCodeBlock())
	require.NoError(t, f.model.copySelection())
	require.True(t, f.model.toNextCodeBlock())
	require.NoError(t, f.model.copySelection())
	assert.Equal(t, []string{"a", "b"}, f.clipboard.writes)
}

func TestToggleThemeTwice(t *testing.T) {
	f := newFixture(t)
	original := f.model.themes.Current()
	toggle := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t"), Alt: true}
	f.model.Update(toggle)
	assert.Equal(t, original.Opposite(), f.model.styles.Theme)
	f.model.Update(toggle)
	assert.Equal(t, original, f.model.styles.Theme)
}

func TestToggleSidebar(t *testing.T) {
	f := newFixture(t)
	width := f.model.viewport.Width
	f.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b"), Alt: true})
	assert.False(t, f.model.sidebar)
	assert.Greater(t, f.model.viewport.Width, width)
}

func TestSignOutQuits(t *testing.T) {
	f := newFixture(t)
	cmd := f.model.signOut()
	f.model.Update(cmd())
	assert.True(t, f.session.signedOut)
	assert.True(t, f.model.SignedOut())
}
