package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	botchat "github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/cli/tui"
	"github.com/malonaz/botchat/internal/auth"
	"github.com/malonaz/botchat/internal/cli"
	"github.com/malonaz/botchat/internal/clipboard"
	"github.com/malonaz/botchat/internal/configuration"
	"github.com/malonaz/botchat/internal/history"
	"github.com/malonaz/botchat/internal/theme"
)

// Dependencies of the chat commands.
type Dependencies struct {
	Config    *configuration.Config
	Service   *botchat.Service
	Session   *auth.Session
	Themes    *theme.Manager
	Clipboard clipboard.Writer
	History   *history.History
}

// NewCmd instantiates and returns the chat command.
func NewCmd(deps *Dependencies) *cobra.Command {
	var opts struct {
		Plain    bool
		New      bool
		Continue bool
	}
	cmd := &cobra.Command{
		Use:   "chat [chat-id]",
		Short: "Chat with the assistant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if deps.Session.User() == nil {
				return errors.Wrap(auth.ErrNotSignedIn, "run `botchat login` first")
			}

			// Resolve the chat to open.
			var chatID string
			switch {
			case len(args) == 1:
				chatID = args[0]
			case opts.New:
				created, err := deps.Service.CreateChat(ctx)
				cobra.CheckErr(err)
				chatID = created.ID
			case opts.Continue:
				chats, err := deps.Service.ListChats(ctx)
				cobra.CheckErr(err)
				if len(chats) == 0 {
					cobra.CheckErr(fmt.Errorf("no chat to continue"))
				}
				chatID = chats[0].ID
			}

			if opts.Plain {
				if chatID == "" {
					return fmt.Errorf("--plain requires a chat id, --new or --continue")
				}
				return runPlain(ctx, deps, chatID)
			}

			// Create the model
			m, err := tui.New(ctx, deps.Config, deps.Service, deps.Session, deps.Themes, deps.Clipboard, deps.History)
			if err != nil {
				return err
			}
			defer m.Close()
			if chatID != "" {
				m.Open(chatID)
			}

			// Create the Bubble Tea program
			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)

			// Set the program reference so live feeds reach the update loop.
			m.SetProgram(p)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running chat: %w", err)
			}
			if m.SignedOut() {
				cli.Info("Signed out.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Use a line based interface instead of the full screen one")
	cmd.Flags().BoolVar(&opts.New, "new", false, "Start a new chat")
	cmd.Flags().BoolVarP(&opts.Continue, "continue", "c", false, "Continue the most recently updated chat")
	cmd.MarkFlagsMutuallyExclusive("new", "continue")
	return cmd
}
