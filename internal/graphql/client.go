package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/malonaz/botchat/internal/debug"
)

// Request is a single GraphQL operation.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// TokenSource supplies the bearer token attached to every request. An empty token means anonymous.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client talks to a GraphQL server: queries and mutations over HTTP, subscriptions over WebSocket.
type Client struct {
	url        string
	wsURL      string
	tokens     TokenSource
	httpClient *http.Client
	dialer     *websocket.Dialer
	log        *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every HTTP request and the WebSocket handshake. 0 disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
		c.dialer.HandshakeTimeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient returns a client for the given endpoints.
func NewClient(url, wsURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		url:        url,
		wsURL:      wsURL,
		tokens:     tokens,
		httpClient: &http.Client{},
		dialer: &websocket.Dialer{
			Proxy:        http.ProxyFromEnvironment,
			Subprotocols: []string{subprotocol},
		},
		log: debug.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting access token")
	}
	if token == "" {
		return "", nil
	}
	return "Bearer " + token, nil
}

// Do executes a query or mutation and decodes its `data` into out (when non-nil).
// Server reported errors are returned as Errors.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, "marshaling request")
	}
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")
	authorization, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	if authorization != "" {
		httpRequest.Header.Set("Authorization", authorization)
	}

	c.log.Debugw("graphql request", "operation", req.OperationName)
	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return errors.Wrapf(err, "executing %s", req.OperationName)
	}
	defer httpResponse.Body.Close()

	raw, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	resp := &response{}
	if err := json.Unmarshal(raw, resp); err != nil {
		if httpResponse.StatusCode != http.StatusOK {
			return errors.Errorf("%s: unexpected status %d: %s", req.OperationName, httpResponse.StatusCode, truncate(raw, 200))
		}
		return errors.Wrap(err, "unmarshaling response")
	}
	if len(resp.Errors) > 0 {
		c.log.Debugw("graphql errors", "operation", req.OperationName, "errors", resp.Errors.Error())
		return resp.Errors
	}
	if httpResponse.StatusCode != http.StatusOK {
		return errors.Errorf("%s: unexpected status %d", req.OperationName, httpResponse.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return errors.Wrapf(err, "unmarshaling %s data", req.OperationName)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
