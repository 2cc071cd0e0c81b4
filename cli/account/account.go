package account

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malonaz/botchat/internal/auth"
	"github.com/malonaz/botchat/internal/cli"
	"github.com/malonaz/botchat/internal/configuration"
)

// NewLoginCmd instantiates and returns the login command.
func NewLoginCmd(config *configuration.Config, session *auth.Session) *cobra.Command {
	var opts struct {
		Email    string
		Provider bool
	}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Run: func(cmd *cobra.Command, args []string) {
			if opts.Provider {
				cli.Info("Open this link to sign in with %s:", config.Chat.Provider)
				fmt.Println(session.ProviderURL(config.Chat.Provider, ""))
				return
			}
			if user := session.User(); user != nil {
				cli.Faint("Already signed in as %s.", user.Name())
				return
			}

			email := opts.Email
			if email == "" {
				var err error
				email, err = cli.Input("Email", true)
				cobra.CheckErr(err)
			}
			password, err := cli.Password("Password")
			cobra.CheckErr(err)

			user, err := session.SignIn(cmd.Context(), email, password)
			cobra.CheckErr(err)
			cli.Info("Signed in as %s.", user.Name())
		},
	}
	cmd.Flags().StringVarP(&opts.Email, "email", "e", "", "Email address")
	cmd.Flags().BoolVar(&opts.Provider, "provider", false, "Print the federated sign-in link instead")
	return cmd
}

// NewSignUpCmd instantiates and returns the signup command.
func NewSignUpCmd(session *auth.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Run: func(cmd *cobra.Command, args []string) {
			email, err := cli.Input("Email", true)
			cobra.CheckErr(err)
			displayName, err := cli.Input("Display name (optional)", false)
			cobra.CheckErr(err)
			password, err := cli.Password("Password")
			cobra.CheckErr(err)

			result, err := session.SignUp(cmd.Context(), email, password, displayName)
			cobra.CheckErr(err)
			if result.VerificationPending {
				cli.Info("Account created. Please check your email to verify your account, then run `botchat login`.")
				return
			}
			cli.Info("Signed in as %s.", result.User.Name())
		},
	}
}

// NewLogoutCmd instantiates and returns the logout command.
func NewLogoutCmd(session *auth.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Run: func(cmd *cobra.Command, args []string) {
			if session.User() == nil {
				cli.Faint("Not signed in.")
				return
			}
			if err := session.SignOut(cmd.Context()); err != nil {
				cli.Warning("The local session was cleared but the server could not be reached: %v", err)
				return
			}
			cli.Info("Signed out.")
		},
	}
}

// NewWhoAmICmd instantiates and returns the whoami command.
func NewWhoAmICmd(session *auth.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Run: func(cmd *cobra.Command, args []string) {
			user := session.User()
			if user == nil {
				cli.Faint("Not signed in.")
				return
			}
			cli.Title("%s %s", user.Initial(), user.Name())
			fmt.Printf("id:    %s\n", user.ID)
			fmt.Printf("email: %s\n", user.Email)
		},
	}
}
