package events_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
	"github.com/Togather-Foundation/localevents/internal/storage/memory"
)

var (
	organizer = events.Caller{ID: "org-1", Organizer: true}
	rival     = events.Caller{ID: "org-2", Organizer: true}
	alice     = events.Caller{ID: "user-a"}
	bob       = events.Caller{ID: "user-b"}
	carol     = events.Caller{ID: "user-c"}
)

func newService(t *testing.T) (*events.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	for _, u := range []users.CreateParams{
		{ID: organizer.ID, Name: "Olga", Email: "olga@example.com", Role: "organizer"},
		{ID: alice.ID, Name: "Alice", Email: "alice@example.com", Role: "attendee"},
		{ID: bob.ID, Name: "Bob", Email: "bob@example.com", Role: "attendee"},
	} {
		_, err := store.Create(context.Background(), u)
		require.NoError(t, err)
	}
	return events.NewService(store, store), store
}

func createEvent(t *testing.T, svc *events.Service, capacity *int) *events.Event {
	t.Helper()
	event, err := svc.CreateEvent(context.Background(), organizer, events.CreateInput{
		Title:        "Meetup",
		Date:         "2030-06-01T18:00",
		Location:     "Austin, TX",
		MaxAttendees: capacity,
	})
	require.NoError(t, err)
	return event
}

func intPtr(v int) *int { return &v }

func TestCreateEvent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, organizer, events.CreateInput{
		Title:       "  <b>Jazz</b> Night ",
		Description: "Live music",
		Date:        "2030-06-01T18:00:00Z",
		Location:    "Austin",
		Category:    strPtr("  "),
	})
	require.NoError(t, err)
	require.NotEmpty(t, event.ID)
	require.Equal(t, "Jazz Night", event.Title)
	require.Equal(t, organizer.ID, event.OrganizerID)
	require.Nil(t, event.Category)
	require.Nil(t, event.MaxAttendees)
	require.Empty(t, event.RSVPs)
	require.Equal(t, time.Date(2030, 6, 1, 18, 0, 0, 0, time.UTC), event.Date)
}

func TestCreateEventRejections(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	valid := events.CreateInput{Title: "T", Date: "2030-01-01", Location: "L"}

	_, err := svc.CreateEvent(ctx, alice, valid)
	require.ErrorIs(t, err, events.ErrForbidden)
	require.ErrorIs(t, err, events.ErrOrganizerOnly)

	tests := []struct {
		name   string
		mutate func(in *events.CreateInput)
		want   error
	}{
		{"missing title", func(in *events.CreateInput) { in.Title = "" }, events.ErrMissingFields},
		{"missing location", func(in *events.CreateInput) { in.Location = "   " }, events.ErrMissingFields},
		{"missing date", func(in *events.CreateInput) { in.Date = "" }, events.ErrMissingFields},
		{"zero capacity", func(in *events.CreateInput) { in.MaxAttendees = intPtr(0) }, events.ErrInvalidCapacity},
		{"negative capacity", func(in *events.CreateInput) { in.MaxAttendees = intPtr(-3) }, events.ErrInvalidCapacity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)
			_, err := svc.CreateEvent(ctx, organizer, input)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, events.ErrInvalidInput)
		})
	}

	input := valid
	input.Date = "next tuesday"
	_, err = svc.CreateEvent(ctx, organizer, input)
	require.ErrorIs(t, err, events.ErrInvalidInput)
}

func TestCapacityScenario(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, intPtr(2))

	count, err := svc.AddRsvp(ctx, alice, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = svc.AddRsvp(ctx, bob, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, err = svc.AddRsvp(ctx, carol, event.ID)
	require.ErrorIs(t, err, events.ErrEventFull)
	require.ErrorIs(t, err, events.ErrConflict)

	count, err = svc.CancelRsvp(ctx, alice, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = svc.AddRsvp(ctx, carol, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRsvpRoundTripAndDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, nil)

	_, err := svc.AddRsvp(ctx, bob, event.ID)
	require.NoError(t, err)

	count, err := svc.AddRsvp(ctx, alice, event.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	_, err = svc.AddRsvp(ctx, alice, event.ID)
	require.ErrorIs(t, err, events.ErrAlreadyRSVPed)

	count, err = svc.CancelRsvp(ctx, alice, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = svc.CancelRsvp(ctx, alice, event.ID)
	require.ErrorIs(t, err, events.ErrNotRSVPed)

	view, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, view.Attendees, 1)

	_, err = svc.AddRsvp(ctx, alice, "missing")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestConcurrentRsvpsAtLastSeat(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, intPtr(5))

	for i := 0; i < 4; i++ {
		_, err := svc.AddRsvp(ctx, events.Caller{ID: fmt.Sprintf("seed-%d", i)}, event.ID)
		require.NoError(t, err)
	}

	var won atomic.Int64
	var g errgroup.Group
	for i := 0; i < 64; i++ {
		caller := events.Caller{ID: fmt.Sprintf("racer-%d", i)}
		g.Go(func() error {
			_, err := svc.AddRsvp(ctx, caller, event.ID)
			if err == nil {
				won.Add(1)
				return nil
			}
			if errors.Is(err, events.ErrEventFull) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, won.Load())

	view, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, view.Attendees, 5)
}

func TestOwnerOnlyOperations(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, nil)

	_, err := svc.UpdateEvent(ctx, rival, event.ID, events.EventPatch{})
	require.ErrorIs(t, err, events.ErrForbidden)

	err = svc.DeleteEvent(ctx, alice, event.ID)
	require.ErrorIs(t, err, events.ErrForbidden)
	_, err = svc.GetEvent(ctx, event.ID)
	require.NoError(t, err, "refused delete must keep the event")

	_, err = svc.ListAttendees(ctx, rival, event.ID)
	require.ErrorIs(t, err, events.ErrForbidden)

	_, err = svc.UpdateEvent(ctx, organizer, "missing", events.EventPatch{})
	require.ErrorIs(t, err, events.ErrNotFound)
	require.ErrorIs(t, svc.DeleteEvent(ctx, organizer, "missing"), events.ErrNotFound)
	_, err = svc.ListAttendees(ctx, organizer, "missing")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestUpdateEventPatchSemantics(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, organizer, events.CreateInput{
		Title:        "Meetup",
		Description:  "Bring snacks",
		Date:         "2030-06-01T18:00",
		Location:     "Austin",
		MaxAttendees: intPtr(10),
		Category:     strPtr("tech"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(ctx, organizer, created.ID, events.EventPatch{
		Title:        events.Field[string]{Set: true, Value: "Renamed"},
		MaxAttendees: events.Field[int]{Set: true, Null: true},
		Category:     events.Field[string]{Set: true, Null: true},
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Equal(t, "Bring snacks", updated.Description)
	require.Equal(t, "Austin", updated.Location)
	require.Nil(t, updated.MaxAttendees)
	require.Nil(t, updated.Category)

	_, err = svc.UpdateEvent(ctx, organizer, created.ID, events.EventPatch{
		Title: events.Field[string]{Set: true, Null: true},
	})
	require.ErrorIs(t, err, events.ErrInvalidInput)

	_, err = svc.UpdateEvent(ctx, organizer, created.ID, events.EventPatch{
		MaxAttendees: events.Field[int]{Set: true, Value: 0},
	})
	require.ErrorIs(t, err, events.ErrInvalidCapacity)
}

func TestUpdateEventAcceptsMultibyteTitleFromCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	title := strings.Repeat("é", 150)

	event, err := svc.CreateEvent(ctx, organizer, events.CreateInput{
		Title:    title,
		Date:     "2030-06-01T18:00",
		Location: "Montréal",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(ctx, organizer, event.ID, events.EventPatch{
		Title: events.Field[string]{Set: true, Value: title},
	})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
}

func TestUpdateEventRejectsCapacityBelowRoster(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, intPtr(5))

	for _, caller := range []events.Caller{alice, bob, carol} {
		_, err := svc.AddRsvp(ctx, caller, event.ID)
		require.NoError(t, err)
	}

	_, err := svc.UpdateEvent(ctx, organizer, event.ID, events.EventPatch{
		MaxAttendees: events.Field[int]{Set: true, Value: 2},
	})
	require.ErrorIs(t, err, events.ErrCapacityBelowRoster)

	updated, err := svc.UpdateEvent(ctx, organizer, event.ID, events.EventPatch{
		MaxAttendees: events.Field[int]{Set: true, Value: 3},
	})
	require.NoError(t, err)
	require.Equal(t, 3, *updated.MaxAttendees)
	require.Len(t, updated.RSVPs, 3)
}

func TestDeleteEventDropsRoster(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, nil)

	for _, caller := range []events.Caller{alice, bob, carol} {
		_, err := svc.AddRsvp(ctx, caller, event.ID)
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteEvent(ctx, organizer, event.ID))

	_, err := svc.GetEvent(ctx, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
	_, err = svc.CancelRsvp(ctx, alice, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestDeleteEventRacesRSVPs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, nil)

	var g errgroup.Group
	for i := range 20 {
		caller := events.Caller{ID: fmt.Sprintf("racer-%d", i)}
		g.Go(func() error {
			// Each RSVP lands before the delete or finds the event gone.
			if _, err := svc.AddRsvp(ctx, caller, event.ID); err != nil && !errors.Is(err, events.ErrNotFound) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error { return svc.DeleteEvent(ctx, organizer, event.ID) })
	require.NoError(t, g.Wait())

	_, err := svc.GetEvent(ctx, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestListAttendeesResolvesUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	event := createEvent(t, svc, nil)

	for _, caller := range []events.Caller{alice, carol} {
		_, err := svc.AddRsvp(ctx, caller, event.ID)
		require.NoError(t, err)
	}

	roster, err := svc.ListAttendees(ctx, organizer, event.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.Equal(t, alice.ID, roster[0].UserID)
	require.NotNil(t, roster[0].User)
	require.Equal(t, "Alice", roster[0].User.Name)
	// carol has no account in the directory
	require.Nil(t, roster[1].User)
}

func TestListAndGetEvents(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	inputs := []events.CreateInput{
		{Title: "Late show", Date: "2025-06-01T23:30", Location: "austin"},
		{Title: "Early show", Date: "2025-06-01T08:00", Location: "Austin, TX"},
		{Title: "Next day", Date: "2025-06-02T00:00", Location: "Austin"},
		{Title: "Elsewhere", Date: "2025-06-01T12:00", Location: "Dallas"},
	}
	for _, in := range inputs {
		_, err := svc.CreateEvent(ctx, organizer, in)
		require.NoError(t, err)
	}

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	views, err := svc.ListEvents(ctx, events.Filters{City: "AUSTIN", Day: &day})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "Early show", views[0].Title)
	require.Equal(t, "Late show", views[1].Title)
	require.NotNil(t, views[0].Organizer)
	require.Equal(t, "Olga", views[0].Organizer.Name)

	_, err = svc.AddRsvp(ctx, bob, views[0].ID)
	require.NoError(t, err)

	view, err := svc.GetEvent(ctx, views[0].ID)
	require.NoError(t, err)
	require.Len(t, view.Attendees, 1)
	require.Equal(t, "bob@example.com", view.Attendees[0].User.Email)
	require.True(t, view.IsPast(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func strPtr(v string) *string { return &v }
