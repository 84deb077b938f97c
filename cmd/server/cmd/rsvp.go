package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/localevents/internal/client"
)

func newRSVPCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rsvp <event-id>",
		Short: "Reserve a spot at an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				count, err := c.RSVP(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "You're going! %d attending\n", count)
				return nil
			})
		},
	}
}

func newCancelRSVPCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-rsvp <event-id>",
		Short: "Give up your spot at an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				count, err := c.CancelRSVP(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "RSVP cancelled. %d attending\n", count)
				return nil
			})
		},
	}
}

func newAttendeesCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attendees <event-id>",
		Short: "List who is going to one of your events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				roster, err := c.Attendees(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(roster) == 0 {
					fmt.Fprintln(out, "No attendees yet.")
					return nil
				}
				for i, rsvp := range roster {
					name, email := rsvp.UserID, ""
					if rsvp.User != nil {
						if rsvp.User.Name != "" {
							name = rsvp.User.Name
						}
						email = rsvp.User.Email
					}
					fmt.Fprintf(out, "%d. %s", i+1, name)
					if email != "" {
						fmt.Fprintf(out, " <%s>", email)
					}
					fmt.Fprintf(out, "  RSVPed %s\n", rsvp.CreatedAt.Local().Format(displayTime))
				}
				return nil
			})
		},
	}
}

func newMyRSVPsCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "my-rsvps",
		Short: "List the events you are going to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				upcoming, past, err := c.MyRSVPs(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				at := now()
				printSection(out, "Upcoming", upcoming, c.Session(), at)
				fmt.Fprintln(out)
				printSection(out, "Past", past, c.Session(), at)
				return nil
			})
		},
	}
}

func printSection(w io.Writer, title string, list []client.Event, session *client.Session, at time.Time) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(list))
	if len(list) == 0 {
		fmt.Fprintln(w, "   none")
		return
	}
	for i, event := range list {
		printEventLine(w, i+1, event, session, at)
	}
}
