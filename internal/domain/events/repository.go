package events

import (
	"context"
	"time"
)

// MaxListResults caps every Find call regardless of filters.
const MaxListResults = 200

type Event struct {
	ID           string
	Title        string
	Description  string
	OrganizerID  string
	Location     string
	Date         time.Time
	MaxAttendees *int
	Category     *string
	RSVPs        []RSVP
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RSVP is a roster entry embedded in its Event.
type RSVP struct {
	UserID    string
	CreatedAt time.Time
}

// Person is the display identity of a user (organizer or attendee).
type Person struct {
	ID    string
	Name  string
	Email string
}

// IsPast reports whether the event date is before now. It is derived at
// read time and never persisted.
func (e Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// HasRSVP reports whether userID already holds a spot on the roster.
func (e Event) HasRSVP(userID string) bool {
	for _, rsvp := range e.RSVPs {
		if rsvp.UserID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the roster has reached maxAttendees.
func (e Event) IsFull() bool {
	return e.MaxAttendees != nil && len(e.RSVPs) >= *e.MaxAttendees
}

// Filters narrows Find. Empty fields match everything.
type Filters struct {
	// Query is a case-insensitive substring match on the title.
	Query string
	// City is a case-insensitive substring match on the location.
	City string
	// Day selects events whose date falls in [Day, Day+24h).
	Day *time.Time
	// Limit defaults to and is capped at MaxListResults.
	Limit int
}

type CreateParams struct {
	ID           string
	Title        string
	Description  string
	OrganizerID  string
	Location     string
	Date         time.Time
	MaxAttendees *int
	Category     *string
	CreatedAt    time.Time
}

// Mutator edits a locked copy of an event. Returning an error aborts the
// update and leaves the stored event untouched.
type Mutator func(event *Event) error

// Guard inspects the locked event before a delete. Returning an error keeps
// the event.
type Guard func(event Event) error

// Repository is the Event Store. It is a plain record store: business rules
// live in Service, but the roster operations are conditional so that the
// uniqueness and capacity checks happen in the same indivisible step as the
// write.
type Repository interface {
	Insert(ctx context.Context, params CreateParams) (*Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Find(ctx context.Context, filters Filters) ([]Event, error)
	// Update loads the event, applies mutate, and persists the result
	// atomically with respect to every other write on the same event.
	Update(ctx context.Context, id string, mutate Mutator) (*Event, error)
	// Remove deletes the event together with its embedded roster if guard
	// (when non-nil) accepts it. The check and the delete are one atomic
	// step. It returns the event as it was just before deletion.
	Remove(ctx context.Context, id string, guard Guard) (*Event, error)
	// AppendRSVP adds rsvp iff the user has no entry yet and the event is
	// below capacity. It returns the new roster size, or ErrNotFound,
	// ErrAlreadyRSVPed, ErrEventFull.
	AppendRSVP(ctx context.Context, eventID string, rsvp RSVP) (int, error)
	// RemoveRSVP drops the user's entry. It returns the new roster size, or
	// ErrNotFound, ErrNotRSVPed.
	RemoveRSVP(ctx context.Context, eventID string, userID string) (int, error)
}

// Directory resolves user ids to display identities. Unknown ids are simply
// absent from the result.
type Directory interface {
	LookupPeople(ctx context.Context, ids []string) (map[string]Person, error)
}
