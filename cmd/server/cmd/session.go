package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Togather-Foundation/localevents/internal/client"
)

// Test seams for the password prompt.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// now is the clock used by client commands.
var now = time.Now

func (g *globalOptions) sessionStore() (*client.FileSessionStore, error) {
	path := g.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return nil, err
		}
	}
	return client.NewFileSessionStore(path), nil
}

// withClient loads the stored session, runs fn against a client for it and
// saves whatever session the client ends up with.
func (g *globalOptions) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	store, err := g.sessionStore()
	if err != nil {
		return err
	}
	session, err := store.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	hadToken := session.Authenticated()
	c := client.New(g.apiURL, session, client.WithClock(now))
	runErr := fn(ctx, c)
	if err := store.Save(c.Session()); err != nil {
		return errors.Join(runErr, err)
	}
	return explain(runErr, hadToken)
}

// explain turns a few transport-level failures into actionable messages.
func explain(err error, hadToken bool) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrNotSignedIn):
		return errors.New("not signed in; run `localevents login` first")
	case hadToken && client.StatusOf(err) == http.StatusUnauthorized:
		return fmt.Errorf("%w; your session may have expired, run `localevents login`", err)
	}
	return err
}

// promptPassword reads a password without echo on a terminal, or a single
// line from stdin otherwise.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if isTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := readPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

var exactLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseWhen accepts RFC 3339, a few ISO-like layouts in local time, or a
// natural-language phrase such as "next friday 7pm".
func parseWhen(input string, ref time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range exactLayouts {
		if t, err := time.ParseInLocation(layout, input, ref.Location()); err == nil {
			return t, nil
		}
	}

	parsed, err := dps.Parse(&dps.Configuration{
		CurrentTime:         ref,
		PreferredDateSource: dps.Future,
	}, input)
	if err != nil || parsed.Time.IsZero() {
		return time.Time{}, fmt.Errorf("could not understand date %q", input)
	}
	return parsed.Time, nil
}

// parseDay normalizes a day filter to YYYY-MM-DD.
func parseDay(input string, ref time.Time) (string, error) {
	t, err := parseWhen(input, ref)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
