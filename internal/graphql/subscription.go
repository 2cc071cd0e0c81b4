package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	subprotocol = "graphql-transport-ws"

	typeConnectionInit = "connection_init"
	typeConnectionAck  = "connection_ack"
	typeSubscribe      = "subscribe"
	typeNext           = "next"
	typeError          = "error"
	typeComplete       = "complete"
	typePing           = "ping"
	typePong           = "pong"

	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	ackWait      = 10 * time.Second
	maxFrameSize = 1 << 20
)

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one value pushed by a subscription. Exactly one of Data and Err is set.
type Event struct {
	Data json.RawMessage
	Err  error
}

// Decode unmarshals the event's data into out.
func (e Event) Decode(out any) error {
	if e.Err != nil {
		return e.Err
	}
	return errors.Wrap(json.Unmarshal(e.Data, out), "unmarshaling event data")
}

type subscription struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	events chan Event
	ctx    context.Context
}

// Subscribe opens a dedicated connection for `req` and streams its payloads until ctx is cancelled,
// the server completes the operation or the connection drops. The channel is closed afterwards.
func (c *Client) Subscribe(ctx context.Context, req *Request) (<-chan Event, error) {
	authorization, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, http.Header{})
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", c.wsURL)
	}
	if err := handshake(conn, authorization); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "initializing connection")
	}

	s := &subscription{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 16),
		events: make(chan Event, 16),
		ctx:    ctx,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "marshaling request")
	}
	if err := writeJSON(conn, &message{ID: s.id, Type: typeSubscribe, Payload: payload}); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "subscribing")
	}
	c.log.Debugw("subscribed", "operation", req.OperationName, "id", s.id)

	done := make(chan struct{})
	go c.writePump(s, done)
	go c.readPump(s, done)
	return s.events, nil
}

func handshake(conn *websocket.Conn, authorization string) error {
	initMessage := &message{Type: typeConnectionInit}
	if authorization != "" {
		payload, err := json.Marshal(map[string]any{"headers": map[string]string{"Authorization": authorization}})
		if err != nil {
			return errors.Wrap(err, "marshaling connection payload")
		}
		initMessage.Payload = payload
	}
	if err := writeJSON(conn, initMessage); err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(ackWait))
	defer conn.SetReadDeadline(time.Time{})
	for {
		msg := &message{}
		if err := conn.ReadJSON(msg); err != nil {
			return errors.Wrap(err, "waiting for connection_ack")
		}
		switch msg.Type {
		case typeConnectionAck:
			return nil
		case typePing:
			if err := writeJSON(conn, &message{Type: typePong}); err != nil {
				return err
			}
		default:
			return errors.Errorf("unexpected %q before connection_ack", msg.Type)
		}
	}
}

func writeJSON(conn *websocket.Conn, msg *message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return errors.Wrapf(conn.WriteJSON(msg), "writing %s", msg.Type)
}

// emit delivers an event unless the subscriber has gone away.
func (s *subscription) emit(event Event) bool {
	select {
	case s.events <- event:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *subscription) enqueue(msg *message, done <-chan struct{}) {
	bytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case s.send <- bytes:
	case <-done:
	}
}

func (c *Client) readPump(s *subscription, done chan struct{}) {
	defer func() {
		close(done)
		close(s.events)
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				c.log.Warnw("subscription connection lost", "id", s.id, "error", err)
				s.emit(Event{Err: errors.Wrap(err, "reading subscription")})
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg := &message{}
		if err := json.Unmarshal(data, msg); err != nil {
			c.log.Warnw("malformed subscription frame", "id", s.id, "error", err)
			continue
		}
		switch msg.Type {
		case typeNext:
			if msg.ID != s.id {
				continue
			}
			resp := &response{}
			if err := json.Unmarshal(msg.Payload, resp); err != nil {
				if !s.emit(Event{Err: errors.Wrap(err, "unmarshaling payload")}) {
					return
				}
				continue
			}
			event := Event{Data: resp.Data}
			if len(resp.Errors) > 0 {
				event = Event{Err: resp.Errors}
			}
			if !s.emit(event) {
				return
			}
		case typeError:
			var errs Errors
			if err := json.Unmarshal(msg.Payload, &errs); err != nil || len(errs) == 0 {
				errs = Errors{{Message: string(msg.Payload)}}
			}
			s.emit(Event{Err: errs})
			return
		case typeComplete:
			s.emit(Event{Err: ErrClosed})
			return
		case typePing:
			s.enqueue(&message{Type: typePong}, done)
		}
	}
}

func (c *Client) writePump(s *subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case bytes := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			writeJSON(s.conn, &message{ID: s.id, Type: typeComplete})
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.log.Debugw("unsubscribed", "id", s.id)
			return

		case <-done:
			return
		}
	}
}
