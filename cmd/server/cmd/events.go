package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/localevents/internal/client"
)

func newEventsCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Browse and manage events",
		Long: `Browse upcoming events and, as an organizer, manage your own.

Examples:
  # Upcoming events in Austin
  localevents events list --city austin

  # Events on a given day
  localevents events list --date "next saturday"

  # Create an event (organizers only)
  localevents events create --title "Board games" --date "friday 7pm" \
      --location "Austin Public Library" --max-attendees 12`,
	}
	cmd.AddCommand(
		newEventsListCommand(global),
		newEventsShowCommand(global),
		newEventsCreateCommand(global),
		newEventsUpdateCommand(global),
		newEventsDeleteCommand(global),
	)
	return cmd
}

func newEventsListCommand(global *globalOptions) *cobra.Command {
	var (
		opts   client.ListOptions
		date   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				day, err := parseDay(date, now())
				if err != nil {
					return err
				}
				opts.Date = day
			}
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				list, err := c.ListEvents(ctx, opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if format == "json" {
					return writeJSON(out, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out, "No events found.")
					return nil
				}
				fmt.Fprintf(out, "Found %d event(s):\n\n", len(list))
				at := now()
				for i, event := range list {
					printEventLine(out, i+1, event, c.Session(), at)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "match title or description")
	cmd.Flags().StringVar(&opts.City, "city", "", "match location")
	cmd.Flags().StringVar(&date, "date", "", "only events on this day (YYYY-MM-DD or natural language)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum number of events (server default and cap 200)")
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json)")
	return cmd
}

func newEventsShowCommand(global *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				event, err := c.GetEvent(ctx, args[0])
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd.OutOrStdout(), event)
				}
				printEventDetail(cmd.OutOrStdout(), *event, c.Session(), now())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json)")
	return cmd
}

func requireOrganizer(session *client.Session) error {
	if !session.Authenticated() {
		return client.ErrNotSignedIn
	}
	if !session.IsOrganizer() {
		return errors.New("only organizers can manage events")
	}
	return nil
}

func newEventsCreateCommand(global *globalOptions) *cobra.Command {
	var (
		input        client.NewEvent
		date         string
		maxAttendees int
		category     string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new event (organizers only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseWhen(date, now())
			if err != nil {
				return err
			}
			input.Date = when.UTC().Format(time.RFC3339)
			if cmd.Flags().Changed("max-attendees") {
				input.MaxAttendees = &maxAttendees
			}
			if cmd.Flags().Changed("category") {
				input.Category = &category
			}
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireOrganizer(c.Session()); err != nil {
					return err
				}
				event, err := c.CreateEvent(ctx, input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created event %s\n", event.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "event title")
	cmd.Flags().StringVar(&input.Description, "description", "", "event description")
	cmd.Flags().StringVar(&date, "date", "", "start time (RFC 3339, YYYY-MM-DD HH:MM, or natural language)")
	cmd.Flags().StringVar(&input.Location, "location", "", "venue or address")
	cmd.Flags().IntVar(&maxAttendees, "max-attendees", 0, "capacity (omit for unlimited)")
	cmd.Flags().StringVar(&category, "category", "", "category label")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func newEventsUpdateCommand(global *globalOptions) *cobra.Command {
	var (
		title, description, date, location, category string
		maxAttendees                                 int
		update                                       client.EventUpdate
	)
	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Edit one of your events",
		Long: `Edit one of your events. Only the flags you pass are changed.

Use --unlimited to remove the capacity limit and --clear-category to drop
the category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("title") {
				update.Title = &title
			}
			if flags.Changed("description") {
				update.Description = &description
			}
			if flags.Changed("location") {
				update.Location = &location
			}
			if flags.Changed("date") {
				when, err := parseWhen(date, now())
				if err != nil {
					return err
				}
				formatted := when.UTC().Format(time.RFC3339)
				update.Date = &formatted
			}
			if flags.Changed("max-attendees") {
				update.MaxAttendees = &maxAttendees
			}
			if flags.Changed("category") {
				update.Category = &category
			}
			if update.Empty() {
				return errors.New("nothing to update; pass at least one field flag")
			}
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireOrganizer(c.Session()); err != nil {
					return err
				}
				event, err := c.UpdateEvent(ctx, args[0], update)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated event %s\n", event.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&date, "date", "", "new start time")
	cmd.Flags().StringVar(&location, "location", "", "new location")
	cmd.Flags().IntVar(&maxAttendees, "max-attendees", 0, "new capacity")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().BoolVar(&update.ClearMaxAttendees, "unlimited", false, "remove the capacity limit")
	cmd.Flags().BoolVar(&update.ClearCategory, "clear-category", false, "remove the category")
	cmd.MarkFlagsMutuallyExclusive("max-attendees", "unlimited")
	cmd.MarkFlagsMutuallyExclusive("category", "clear-category")
	return cmd
}

func newEventsDeleteCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete one of your events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return global.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireOrganizer(c.Session()); err != nil {
					return err
				}
				if err := c.DeleteEvent(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %s\n", args[0])
				return nil
			})
		},
	}
}
