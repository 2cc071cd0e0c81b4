package configuration

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v10"
	"github.com/pkg/errors"

	"github.com/malonaz/botchat/internal/file"
)

// Seconds.
const defaultRequestTimeout = 30

// defaultConfig returns the configuration written on first use. It is also merged into partial files.
func defaultConfig() *Config {
	return &Config{
		GraphqlURL:     "https://local.graphql.nhost.run/v1",
		AuthURL:        "https://local.auth.nhost.run/v1",
		Database:       "~/.config/botchat/botchat.db",
		RequestTimeout: defaultRequestTimeout,
		HistoryFile:    "~/.config/botchat/history",
		LogFile:        "/tmp/botchat-debug.log",

		Chat: &ChatConfig{
			PreviewLength: 50,
			Provider:      "discord",
		},

		Web: &WebConfig{
			Port: 8080,
		},
	}
}

// Config holds configuration for the botchat tool.
type Config struct {
	// Endpoint serving GraphQL queries and mutations.
	GraphqlURL string `json:"graphql_url" env:"BOTCHAT_GRAPHQL_URL"`
	// Endpoint serving GraphQL subscriptions. Derived from GraphqlURL when empty.
	GraphqlWSURL string `json:"graphql_ws_url,omitempty" env:"BOTCHAT_GRAPHQL_WS_URL"`
	// Base url of the auth service.
	AuthURL string `json:"auth_url" env:"BOTCHAT_AUTH_URL"`
	// Local sqlite database holding preferences and the persisted session.
	Database string `json:"database" env:"BOTCHAT_DATABASE"`
	// Timeout in seconds applied to every HTTP request. Zero means the default, negative values disable it.
	RequestTimeout int    `json:"request_timeout" env:"BOTCHAT_REQUEST_TIMEOUT"`
	HistoryFile    string `json:"history_file"`
	LogFile        string `json:"log_file" env:"BOTCHAT_LOG_FILE"`

	Chat *ChatConfig `json:"chat"`
	Web  *WebConfig  `json:"web"`
}

// ChatConfig holds configuration for chat views.
type ChatConfig struct {
	// Maximum number of characters of the latest message shown in the chat list.
	PreviewLength int `json:"preview_length"`
	// Federated sign-in provider offered by `botchat login --provider`.
	Provider string `json:"provider"`
}

// WebConfig holds configuration for the local web client.
type WebConfig struct {
	Port int `json:"port"`
}

// Timeout returns the request timeout as a duration. A zero duration disables it.
func (c *Config) Timeout() time.Duration {
	switch {
	case c.RequestTimeout < 0:
		return 0
	case c.RequestTimeout == 0:
		return defaultRequestTimeout * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// WebsocketURL returns the subscription endpoint.
func (c *Config) WebsocketURL() string {
	if c.GraphqlWSURL != "" {
		return c.GraphqlWSURL
	}
	switch {
	case strings.HasPrefix(c.GraphqlURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.GraphqlURL, "https://")
	case strings.HasPrefix(c.GraphqlURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.GraphqlURL, "http://")
	}
	return c.GraphqlURL
}

// Parse a configuration file.
func Parse(path string) (*Config, error) {
	path, err := file.ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if err := mergo.Merge(config, defaultConfig()); err != nil {
		return nil, errors.Wrap(err, "merging default config")
	}
	if err := env.Parse(config); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}

	for _, path := range []*string{&config.Database, &config.HistoryFile, &config.LogFile} {
		expanded, err := file.ExpandPath(*path)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding %s", *path)
		}
		*path = expanded
	}
	if err := config.validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return config, nil
}

func (c *Config) validate() error {
	for name, value := range map[string]string{"graphql_url": c.GraphqlURL, "auth_url": c.AuthURL, "graphql_ws_url": c.WebsocketURL()} {
		if _, err := url.ParseRequestURI(value); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}
	if c.Chat.PreviewLength <= 0 {
		return errors.New("chat.preview_length must be positive")
	}
	return nil
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	err = os.WriteFile(path, bytes, 0644)
	if err != nil {
		return errors.Wrap(err, "writing file")
	}

	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	if err := file.EnsureParentDir(path); err != nil {
		return err
	}

	if err := defaultConfig().save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}
