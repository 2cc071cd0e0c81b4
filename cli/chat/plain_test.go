package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	botchat "github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/internal/graphql"
	"github.com/malonaz/botchat/internal/history"
	"github.com/malonaz/botchat/internal/markdown"
	"github.com/malonaz/botchat/internal/theme"
)

type staticIdentity string

func (i staticIdentity) UserID() string { return string(i) }

type fakeBackend struct {
	operations []string
	responses  map[string]string
	failures   map[string]error
}

func (f *fakeBackend) Do(_ context.Context, req *graphql.Request, out any) error {
	f.operations = append(f.operations, req.OperationName)
	if err := f.failures[req.OperationName]; err != nil {
		return err
	}
	if response := f.responses[req.OperationName]; response != "" && out != nil {
		return json.Unmarshal([]byte(response), out)
	}
	return nil
}

func (f *fakeBackend) Subscribe(context.Context, *graphql.Request) (<-chan graphql.Event, error) {
	return nil, errors.New("not supported")
}

type fakeClipboard struct {
	writes []string
}

func (c *fakeClipboard) Write(text string) error {
	c.writes = append(c.writes, text)
	return nil
}

func newPlain(t *testing.T) (*plain, *fakeBackend, *fakeClipboard) {
	t.Helper()
	backend := &fakeBackend{responses: map[string]string{}, failures: map[string]error{}}
	clipboard := &fakeClipboard{}
	inputHistory, err := history.New("")
	require.NoError(t, err)
	renderer, err := markdown.NewRenderer(80, theme.Dark)
	require.NoError(t, err)
	deps := &Dependencies{
		Service:   botchat.NewService(backend, staticIdentity("user-1")),
		Clipboard: clipboard,
		History:   inputHistory,
	}
	return &plain{deps: deps, chatID: "chat-1", renderer: renderer}, backend, clipboard
}

func TestParseCommand(t *testing.T) {
	for _, tc := range []struct {
		input string
		name  string
		arg   string
	}{
		{input: "hello", name: "", arg: ""},
		{input: "/copy 2", name: "copy", arg: "2"},
		{input: "  /QUIT ", name: "quit", arg: ""},
		{input: "/copy 1\nand more", name: "", arg: ""},
	} {
		t.Run(tc.input, func(t *testing.T) {
			name, arg := parseCommand(tc.input)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.arg, arg)
		})
	}
}

func TestPlainSendFailureKeepsDraft(t *testing.T) {
	p, backend, _ := newPlain(t)
	backend.failures["CreateMessage"] = errors.New("boom")

	err := p.send(context.Background(), "Hello")
	require.Error(t, err)
	assert.Equal(t, botchat.Failed, p.composer.State())
	assert.Equal(t, "Hello", p.composer.Input())
	assert.Equal(t, []string{"CreateMessage"}, backend.operations)
}

func TestPlainSendSuccessClearsDraft(t *testing.T) {
	p, backend, _ := newPlain(t)
	backend.responses["CreateMessage"] = `{"insert_messages_one": {"id": "m1", "chat_id": "chat-1", "content": "Hello"}}`
	backend.responses["SendMessage"] = `{"sendMessage": {"success": true}}`

	require.NoError(t, p.send(context.Background(), "Hello"))
	assert.Equal(t, botchat.Settled, p.composer.State())
	assert.Equal(t, "", p.composer.Input())
	assert.Equal(t, []string{"Hello"}, p.deps.History.Entries())
}

func TestPlainSendWaitsForOutputLock(t *testing.T) {
	p, backend, _ := newPlain(t)
	backend.responses["CreateMessage"] = `{"insert_messages_one": {"id": "m1", "chat_id": "chat-1", "content": "Hello"}}`
	backend.responses["SendMessage"] = `{"sendMessage": {"success": true}}`

	p.mu.Lock()
	done := make(chan error, 1)
	go func() { done <- p.send(context.Background(), "Hello") }()
	sent := func() bool { return len(done) > 0 }
	assert.Never(t, sent, 50*time.Millisecond, time.Millisecond)
	p.mu.Unlock()

	require.Eventually(t, sent, time.Second, time.Millisecond)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"CreateMessage", "SendMessage"}, backend.operations)
}

func TestPlainBlankInputIsIgnored(t *testing.T) {
	p, backend, _ := newPlain(t)
	require.NoError(t, p.send(context.Background(), "   "))
	assert.Empty(t, backend.operations)
}

func TestPlainCopyCodeBlock(t *testing.T) {
	p, _, clipboard := newPlain(t)
	p.show([]*botchat.Message{
		{ID: "m1", Content: "```\nold\n```", IsBot: true},
		{ID: "m2", Content: "question"},
		{ID: "m3", Content: "```\na\n```\n\n```sh\nb\n```", IsBot: true},
	})

	require.NoError(t, p.copy("2"))
	assert.Equal(t, []string{"b"}, clipboard.writes)
	assert.Error(t, p.copy("3"))
	assert.Error(t, p.copy("x"))
}

func TestPlainShowPrintsOnlyNewMessages(t *testing.T) {
	p, _, _ := newPlain(t)
	p.show([]*botchat.Message{{ID: "a", Content: "first"}})
	p.show([]*botchat.Message{{ID: "a", Content: "first"}, {ID: "b", Content: "second"}})
	require.Len(t, p.shown, 2)
	assert.Equal(t, "b", p.shown[1].ID)
}

func TestPlainQuit(t *testing.T) {
	p, _, _ := newPlain(t)
	quit, err := p.handle(context.Background(), "/quit")
	require.NoError(t, err)
	assert.True(t, quit)

	_, err = p.handle(context.Background(), "/nope")
	assert.Error(t, err)
}
