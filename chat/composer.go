package chat

import "strings"

// ComposerState is the state of a send attempt.
type ComposerState int

const (
	// Composing accepts input.
	Composing ComposerState = iota
	// Submitting waits for the message to be persisted and the reply to be requested.
	Submitting
	// Settled means the message was persisted.
	Settled
	// Failed means the message was not persisted and the input was restored.
	Failed
)

func (s ComposerState) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	}
	return "composing"
}

// Composer holds the message being written and drives the optimistic send flow:
// composing -> submitting -> settled | failed.
type Composer struct {
	input   string
	pending string
	state   ComposerState
	err     error
	reply   ReplyStatus
}

// Input returns the text being composed.
func (c *Composer) Input() string { return c.input }

// SetInput replaces the text being composed.
func (c *Composer) SetInput(input string) { c.input = input }

// State returns the state of the latest attempt.
func (c *Composer) State() ComposerState { return c.state }

// Typing reports whether the "assistant is composing" indicator is shown.
func (c *Composer) Typing() bool { return c.state == Submitting }

// Err returns why the latest attempt failed.
func (c *Composer) Err() error { return c.err }

// Reply returns the reply status of the latest settled attempt.
func (c *Composer) Reply() ReplyStatus { return c.reply }

// CanSubmit reports whether submitting is allowed: there is text and nothing is in flight.
func (c *Composer) CanSubmit() bool {
	return c.state != Submitting && strings.TrimSpace(c.input) != ""
}

// Begin starts an attempt. The input is cleared right away and the trimmed text to send is returned.
func (c *Composer) Begin() (string, bool) {
	if !c.CanSubmit() {
		return "", false
	}
	c.pending = c.input
	c.input = ""
	c.state = Submitting
	c.err = nil
	c.reply = ReplyStatus{}
	return strings.TrimSpace(c.pending), true
}

// Finish ends the attempt with the outcome of Service.SendMessage. When the message was not
// persisted the composed text is put back exactly as it was.
func (c *Composer) Finish(result *SendResult, err error) {
	if c.state != Submitting {
		return
	}
	if err != nil {
		c.state = Failed
		c.err = err
		c.input = c.pending
		c.pending = ""
		return
	}
	c.state = Settled
	c.pending = ""
	if result != nil {
		c.reply = result.Reply
	}
}
