package theme

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malonaz/botchat/internal/cli"
	"github.com/malonaz/botchat/internal/theme"
)

// NewCmd instantiates and returns the theme command. Without arguments it prints the current theme.
func NewCmd(themes *theme.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(theme.Light), string(theme.Dark), "toggle"},
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				fmt.Println(themes.Current())
				return
			}
			if args[0] == "toggle" {
				t, err := themes.Toggle()
				cobra.CheckErr(err)
				cli.Info("Theme set to %s.", t)
				return
			}
			t, err := theme.Parse(args[0])
			cobra.CheckErr(err)
			cobra.CheckErr(themes.Set(t))
			cli.Info("Theme set to %s.", t)
		},
	}
	return cmd
}
