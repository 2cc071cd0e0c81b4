package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/cli/account"
	chatcmd "github.com/malonaz/botchat/cli/chat"
	themecmd "github.com/malonaz/botchat/cli/theme"
	"github.com/malonaz/botchat/internal/auth"
	"github.com/malonaz/botchat/internal/clipboard"
	"github.com/malonaz/botchat/internal/configuration"
	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/internal/graphql"
	"github.com/malonaz/botchat/internal/history"
	"github.com/malonaz/botchat/internal/theme"
	"github.com/malonaz/botchat/store"
	"github.com/malonaz/botchat/webserver"
)

const configFilepath = "~/.config/botchat/config.json"

var rootCmd = &cobra.Command{
	Use:          "botchat",
	Short:        "A terminal client for your assistant chats",
	Version:      "1.0",
	SilenceUsage: true,
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}
	debug.SetPath(config.LogFile)
	log := debug.GetLogger()
	defer log.Sync()

	// Create store
	store, err := store.New(config.Database)
	if err != nil {
		panic(err)
	}
	// Ensure store is closed when the program exits normally
	defer store.Close()

	session, err := auth.NewSession(config.AuthURL, store, auth.WithTimeout(config.Timeout()))
	if err != nil {
		panic(err)
	}
	client := graphql.NewClient(config.GraphqlURL, config.WebsocketURL(), session, graphql.WithTimeout(config.Timeout()))
	service := chat.NewService(client, session)

	themes, err := theme.Load(store)
	if err != nil {
		panic(err)
	}
	inputHistory, err := history.New(config.HistoryFile)
	if err != nil {
		panic(err)
	}

	deps := &chatcmd.Dependencies{
		Config:    config,
		Service:   service,
		Session:   session,
		Themes:    themes,
		Clipboard: &clipboard.System{},
		History:   inputHistory,
	}
	rootCmd.AddCommand(chatcmd.NewCmd(deps))
	rootCmd.AddCommand(chatcmd.NewChatsCmd(deps))
	rootCmd.AddCommand(account.NewLoginCmd(config, session))
	rootCmd.AddCommand(account.NewSignUpCmd(session))
	rootCmd.AddCommand(account.NewLogoutCmd(session))
	rootCmd.AddCommand(account.NewWhoAmICmd(session))
	rootCmd.AddCommand(themecmd.NewCmd(themes))
	rootCmd.AddCommand(webserver.NewServeCmd(config, service, session, themes))

	if err := rootCmd.Execute(); err != nil {
		log.Errorw("command failed", "error", err)
		store.Close()
		os.Exit(1)
	}
}
