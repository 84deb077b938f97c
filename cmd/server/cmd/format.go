package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Togather-Foundation/localevents/internal/client"
)

const displayTime = "Mon Jan 2 2006 15:04"

func writeJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

func capacityLabel(e client.Event) string {
	if e.MaxAttendees == nil {
		return fmt.Sprintf("%d going", len(e.RSVPs))
	}
	return fmt.Sprintf("%d/%d going", len(e.RSVPs), *e.MaxAttendees)
}

// eventFlags marks the session user's relationship to an event.
func eventFlags(e client.Event, session *client.Session, at time.Time) string {
	var flags []string
	if e.IsPast(at) {
		flags = append(flags, "past")
	} else if e.SpotsLeft() == 0 {
		flags = append(flags, "full")
	}
	if session.Authenticated() {
		if e.Organizer.ID == session.UserID {
			flags = append(flags, "yours")
		}
		if e.HasRSVP(session.UserID) {
			flags = append(flags, "going")
		}
	}
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ", ") + "]"
}

func printEventLine(w io.Writer, n int, e client.Event, session *client.Session, at time.Time) {
	fmt.Fprintf(w, "%d. %s%s\n", n, e.Title, eventFlags(e, session, at))
	fmt.Fprintf(w, "   %s  %s  %s  (%s)\n", e.ID, e.Date.Local().Format(displayTime), e.Location, capacityLabel(e))
}

func printEventDetail(w io.Writer, e client.Event, session *client.Session, at time.Time) {
	fmt.Fprintf(w, "%s%s\n", e.Title, eventFlags(e, session, at))
	fmt.Fprintf(w, "   ID:          %s\n", e.ID)
	fmt.Fprintf(w, "   When:        %s\n", e.Date.Local().Format(displayTime))
	fmt.Fprintf(w, "   Where:       %s\n", e.Location)
	if e.Organizer.Name != "" {
		fmt.Fprintf(w, "   Organizer:   %s\n", e.Organizer.Name)
	}
	if e.Category != nil {
		fmt.Fprintf(w, "   Category:    %s\n", *e.Category)
	}
	fmt.Fprintf(w, "   Attendance:  %s\n", capacityLabel(e))
	if e.Description != "" {
		fmt.Fprintf(w, "   Description: %s\n", e.Description)
	}
}
