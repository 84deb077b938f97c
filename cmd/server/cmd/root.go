package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalOptions holds persistent flags shared by every subcommand.
type globalOptions struct {
	logLevel    string
	logFormat   string
	apiURL      string
	sessionPath string
}

func defaultAPIURL() string {
	if url := os.Getenv("LOCALEVENTS_API"); url != "" {
		return url
	}
	return "http://localhost:5000/api"
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "localevents",
		Short: "Local events server - community event listings and RSVPs",
		Long: `Local events server publishes community events and tracks RSVPs.

Organizers create, edit and delete their events. Signed-in users RSVP,
cancel, and list what they have signed up for. Capacity limits and the
one-RSVP-per-user rule are enforced by the server.

The same binary runs the HTTP API (serve) and acts as a command-line
client for it (register, login, events, rsvp, my-rsvps).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts, serveOptions{})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")
	flags.StringVar(&opts.apiURL, "api", defaultAPIURL(), "API base URL used by client commands (env LOCALEVENTS_API)")
	flags.StringVar(&opts.sessionPath, "session", "", "session file path (default: user config dir)")

	root.AddCommand(
		newServeCommand(opts),
		newVersionCommand(),
		newHealthcheckCommand(),
		newMigrateCommand(),
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newEventsCommand(opts),
		newRSVPCommand(opts),
		newCancelRSVPCommand(opts),
		newAttendeesCommand(opts),
		newMyRSVPsCommand(opts),
	)
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
