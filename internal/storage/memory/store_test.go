package memory

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
)

func insertEvent(t *testing.T, store *Store, id string, date time.Time, capacity *int) {
	t.Helper()
	_, err := store.Insert(context.Background(), events.CreateParams{
		ID:           id,
		Title:        "Event " + id,
		OrganizerID:  "org-1",
		Location:     "Lisbon",
		Date:         date,
		MaxAttendees: capacity,
	})
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }

func TestAppendRSVPCapacityRace(t *testing.T) {
	store := New()
	ctx := context.Background()
	insertEvent(t, store, "E1", time.Now().Add(24*time.Hour), intPtr(10))

	var ok, full atomic.Int64
	var g errgroup.Group
	for i := 0; i < 100; i++ {
		userID := fmt.Sprintf("user-%d", i)
		g.Go(func() error {
			_, err := store.AppendRSVP(ctx, "E1", events.RSVP{UserID: userID, CreatedAt: time.Now()})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, events.ErrEventFull):
				full.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 10, ok.Load())
	require.EqualValues(t, 90, full.Load())

	event, err := store.Get(ctx, "E1")
	require.NoError(t, err)
	require.Len(t, event.RSVPs, 10)
}

func TestAppendRSVPSameUserRace(t *testing.T) {
	store := New()
	ctx := context.Background()
	insertEvent(t, store, "E1", time.Now().Add(24*time.Hour), nil)

	var ok, dup atomic.Int64
	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			_, err := store.AppendRSVP(ctx, "E1", events.RSVP{UserID: "same-user"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, events.ErrAlreadyRSVPed):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, 49, dup.Load())
}

func TestRemoveRSVP(t *testing.T) {
	store := New()
	ctx := context.Background()
	insertEvent(t, store, "E1", time.Now(), nil)

	count, err := store.AppendRSVP(ctx, "E1", events.RSVP{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = store.RemoveRSVP(ctx, "E1", "u1")
	require.NoError(t, err)
	require.Equal(t, 0, count)

	_, err = store.RemoveRSVP(ctx, "E1", "u1")
	require.ErrorIs(t, err, events.ErrNotRSVPed)

	_, err = store.RemoveRSVP(ctx, "missing", "u1")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestRemoveThenRSVPNotFound(t *testing.T) {
	store := New()
	ctx := context.Background()
	insertEvent(t, store, "E1", time.Now(), nil)

	_, err := store.AppendRSVP(ctx, "E1", events.RSVP{UserID: "u1"})
	require.NoError(t, err)

	removed, err := store.Remove(ctx, "E1", nil)
	require.NoError(t, err)
	require.Len(t, removed.RSVPs, 1)
	_, err = store.Remove(ctx, "E1", nil)
	require.ErrorIs(t, err, events.ErrNotFound)

	_, err = store.AppendRSVP(ctx, "E1", events.RSVP{UserID: "u1"})
	require.ErrorIs(t, err, events.ErrNotFound)
	_, err = store.Get(ctx, "E1")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestRemoveGuardKeepsEvent(t *testing.T) {
	store := New()
	ctx := context.Background()
	insertEvent(t, store, "E1", time.Now(), nil)

	denied := errors.New("denied")
	var seen string
	_, err := store.Remove(ctx, "E1", func(current events.Event) error {
		seen = current.ID
		return denied
	})
	require.ErrorIs(t, err, denied)
	require.Equal(t, "E1", seen)

	_, err = store.Get(ctx, "E1")
	require.NoError(t, err)
}

func TestUpdateKeepsRosterAndRejectsOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	insertEvent(t, store, "E1", time.Now(), nil)
	_, err := store.AppendRSVP(ctx, "E1", events.RSVP{UserID: "u1"})
	require.NoError(t, err)

	updated, err := store.Update(ctx, "E1", func(event *events.Event) error {
		event.Title = "Renamed"
		event.RSVPs = nil
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Len(t, updated.RSVPs, 1)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "E1", func(event *events.Event) error {
		event.Title = "Ignored"
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, err := store.Get(ctx, "E1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", current.Title)
}

func TestFindFiltersAndSorts(t *testing.T) {
	store := New()
	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Insert(ctx, events.CreateParams{ID: "A", Title: "Jazz Night", Location: "Lisbon", Date: day.Add(20 * time.Hour)})
	require.NoError(t, err)
	_, err = store.Insert(ctx, events.CreateParams{ID: "B", Title: "Morning jazz", Location: "Porto", Date: day.Add(9 * time.Hour)})
	require.NoError(t, err)
	_, err = store.Insert(ctx, events.CreateParams{ID: "C", Title: "Book club", Location: "Lisbon", Date: day.Add(30 * time.Hour)})
	require.NoError(t, err)

	all, err := store.Find(ctx, events.Filters{})
	require.NoError(t, err)
	require.Equal(t, []string{"B", "A", "C"}, eventIDs(all))

	jazz, err := store.Find(ctx, events.Filters{Query: "JAZZ"})
	require.NoError(t, err)
	require.Equal(t, []string{"B", "A"}, eventIDs(jazz))

	lisbon, err := store.Find(ctx, events.Filters{City: "lisbon", Day: &day})
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, eventIDs(lisbon))

	limited, err := store.Find(ctx, events.Filters{Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"B"}, eventIDs(limited))
}

func TestFindCapsResults(t *testing.T) {
	store := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < events.MaxListResults+5; i++ {
		insertEvent(t, store, fmt.Sprintf("E%03d", i), base.Add(time.Duration(i)*time.Hour), nil)
	}

	found, err := store.Find(ctx, events.Filters{})
	require.NoError(t, err)
	require.Len(t, found, events.MaxListResults)
}

func TestUsersAndDirectory(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, err := store.Create(ctx, users.CreateParams{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "organizer"})
	require.NoError(t, err)
	_, err = store.Create(ctx, users.CreateParams{ID: "u2", Name: "Other", Email: "ADA@example.com"})
	require.ErrorIs(t, err, users.ErrEmailTaken)

	got, err := store.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)

	_, err = store.GetByID(ctx, "nope")
	require.ErrorIs(t, err, users.ErrUserNotFound)

	people, err := store.LookupPeople(ctx, []string{"u1", "ghost"})
	require.NoError(t, err)
	require.Equal(t, map[string]events.Person{"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com"}}, people)
}

func eventIDs(list []events.Event) []string {
	out := make([]string, 0, len(list))
	for _, event := range list {
		out = append(out, event.ID)
	}
	return out
}
