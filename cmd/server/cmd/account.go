package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/localevents/internal/client"
)

func newRegisterCommand(global *globalOptions) *cobra.Command {
	var reg client.Registration
	var organizer bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create an account and store the issued token in the session file.

The password is read from the terminal without echo, or from the first
line of stdin when stdin is not a terminal.

Examples:
  localevents register --name "Dana" --email dana@example.com
  localevents register --name "Olu" --email olu@example.com --organizer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			reg.Password = password
			if organizer {
				reg.Role = "organizer"
			}
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				session, err := c.Register(ctx, reg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s (%s)\n", session.Name, session.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().BoolVar(&organizer, "organizer", false, "register as an event organizer")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCommand(global *globalOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				session, err := c.Login(ctx, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", session.Name, session.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				c.Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}
