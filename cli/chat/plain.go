package chat

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	botchat "github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/internal/cli"
	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/internal/markdown"
)

const plainHelpText = "ctrl+j send • /copy N copy code block N of the last reply • /quit exit"

// plain is the line based chat interface.
type plain struct {
	deps     *Dependencies
	chatID   string
	renderer *markdown.Renderer
	composer botchat.Composer

	// Guards printing and `shown`: the live feed prints from its own goroutine.
	mu    sync.Mutex
	shown []*botchat.Message
}

func runPlain(ctx context.Context, deps *Dependencies, chatID string) error {
	c, err := deps.Service.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	renderer, err := markdown.NewRenderer(cli.Width(), deps.Themes.Current())
	if err != nil {
		return errors.Wrap(err, "creating renderer")
	}
	p := &plain{deps: deps, chatID: chatID, renderer: renderer}

	cli.Title(botchat.Title(chatID))
	cli.Faint(plainHelpText)
	p.show(c.Messages)
	if len(c.Messages) == 0 {
		cli.Faint("Start a conversation")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if pushes, err := deps.Service.SubscribeMessages(ctx, chatID); err != nil {
		cli.Warning("Live updates unavailable: %v", err)
	} else {
		go p.follow(pushes)
	}

	for {
		text, err := cli.PromptUser(deps.History.Entries(), p.composer.Input())
		if errors.Is(err, cli.ErrInterrupted) {
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := p.handle(ctx, text)
		if err != nil {
			p.mu.Lock()
			cli.Error("%v", err)
			p.mu.Unlock()
		}
		if quit {
			return nil
		}
	}
}

// handle processes one submitted input: a slash command or a message.
func (p *plain) handle(ctx context.Context, text string) (bool, error) {
	name, arg := parseCommand(text)
	if name == "" {
		return false, p.send(ctx, text)
	}
	p.composer.SetInput("")
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		cli.Faint(plainHelpText)
		return false, nil
	case "copy":
		return false, p.copy(arg)
	}
	return false, errors.Errorf("unknown command /%s", name)
}

// send runs one attempt of the send flow. A failed attempt leaves the text in the composer, so the
// next prompt starts with it.
func (p *plain) send(ctx context.Context, text string) error {
	p.composer.SetInput(text)
	content, ok := p.composer.Begin()
	if !ok {
		p.composer.SetInput("")
		return nil
	}
	if err := p.deps.History.Add(content); err != nil {
		debug.GetLogger().Warnw("saving input history", "error", err)
	}
	p.mu.Lock()
	cli.Faint("Assistant is typing...")
	p.mu.Unlock()
	result, err := p.deps.Service.SendMessage(ctx, p.chatID, content)
	p.composer.Finish(result, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.composer.State() {
	case botchat.Failed:
		return errors.Wrap(p.composer.Err(), "failed to send message")
	case botchat.Settled:
		if reply := p.composer.Reply(); reply.Failed() {
			cli.Warning("The assistant could not be asked to reply: %v", reply.Err)
		}
		p.composer.SetInput("")
	}
	return nil
}

// copy writes code block `arg` (1-based) of the latest bot message to the clipboard.
func (p *plain) copy(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return errors.Errorf("usage: /copy N, with N a code block number")
	}
	p.mu.Lock()
	var latest *botchat.Message
	for i := len(p.shown) - 1; i >= 0; i-- {
		if p.shown[i].IsBot {
			latest = p.shown[i]
			break
		}
	}
	p.mu.Unlock()
	if latest == nil {
		return errors.New("no reply to copy from")
	}

	blocks := markdown.Parse(latest.Content).CodeBlocks()
	if n > len(blocks) {
		return errors.Errorf("the last reply has %d code block(s)", len(blocks))
	}
	if err := p.deps.Clipboard.Write(blocks[n-1].Content()); err != nil {
		return errors.Wrap(err, "copying")
	}
	cli.Info("Copied to clipboard!")
	return nil
}

// follow prints messages pushed by the live feed until it closes.
func (p *plain) follow(pushes <-chan botchat.Push[*botchat.Message]) {
	for push := range pushes {
		if push.Err != nil {
			p.mu.Lock()
			cli.Warning("Live updates failed: %v", push.Err)
			p.mu.Unlock()
			continue
		}
		p.show(push.Items)
	}
}

// show prints the messages that were not printed yet, in display order.
func (p *plain) show(messages []*botchat.Message) {
	ordered := botchat.DisplayOrder(messages)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, message := range botchat.NewSince(p.shown, ordered) {
		timestamp := botchat.Timestamp(message.CreatedAt)
		if message.IsBot {
			cli.BotMessage(timestamp, p.renderer.Render(message.ID, markdown.Parse(message.Content)))
			continue
		}
		cli.UserMessage(timestamp, message.Content)
	}
	p.shown = ordered
}

// parseCommand splits "/name arg" inputs. Regular messages return an empty name.
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || strings.Contains(text, "\n") {
		return "", ""
	}
	name, arg, _ := strings.Cut(text[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}
