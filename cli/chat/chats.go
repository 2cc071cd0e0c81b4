package chat

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	botchat "github.com/malonaz/botchat/chat"
	"github.com/malonaz/botchat/internal/cli"
)

// NewChatsCmd instantiates and returns the chats command and its subcommands.
func NewChatsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage chats",
	}
	cmd.AddCommand(newListChatsCmd(deps), newCreateChatCmd(deps), newDeleteChatCmd(deps))
	return cmd
}

func newListChatsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your chats, most recently updated first",
		Run: func(cmd *cobra.Command, args []string) {
			chats, err := deps.Service.ListChats(cmd.Context())
			cobra.CheckErr(err)
			if len(chats) == 0 {
				cli.Faint("No chats yet.")
				return
			}
			now := time.Now()
			for _, c := range chats {
				cli.Title("%s  %s", botchat.Title(c.ID), botchat.RelativeDate(c.UpdatedAt, now))
				fmt.Println(botchat.Preview(c, deps.Config.Chat.PreviewLength))
				cli.Faint("id: %s", c.ID)
			}
		},
	}
}

func newCreateChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create an empty chat",
		Run: func(cmd *cobra.Command, args []string) {
			created, err := deps.Service.CreateChat(cmd.Context())
			if err != nil {
				cli.Error("%s", botchat.CreateFailedText)
			}
			cobra.CheckErr(err)
			cli.Info("Created %s (%s)", botchat.Title(created.ID), created.ID)
		},
	}
}

func newDeleteChatCmd(deps *Dependencies) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat and its messages",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			confirm := botchat.Confirm(cli.QueryUser)
			if force {
				confirm = botchat.Answered(true)
			}
			err := deps.Service.DeleteChat(cmd.Context(), args[0], confirm)
			if errors.Is(err, botchat.ErrNotConfirmed) {
				cli.Faint("Cancelled.")
				return
			}
			cobra.CheckErr(err)
			cli.Info("Deleted %s", botchat.Title(args[0]))
		},
	}
	cmd.Flags().BoolVarP(&force, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
