package handlers

import (
	"time"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
)

type personResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type rsvpEntry struct {
	UserID    string          `json:"userId"`
	User      *personResponse `json:"user,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type eventResponse struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Organizer    personResponse `json:"organizer"`
	Location     string         `json:"location"`
	Date         time.Time      `json:"date"`
	MaxAttendees *int           `json:"maxAttendees"`
	Category     *string        `json:"category"`
	RSVPs        []rsvpEntry    `json:"rsvps"`
	IsPast       bool           `json:"isPast"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type attendeesResponse struct {
	Attendees []rsvpEntry `json:"attendees"`
}

func toPerson(id string, person *events.Person) personResponse {
	if person == nil {
		return personResponse{ID: id}
	}
	return personResponse{ID: person.ID, Name: person.Name, Email: person.Email}
}

func toEntries(list []events.Attendee) []rsvpEntry {
	out := make([]rsvpEntry, 0, len(list))
	for _, attendee := range list {
		entry := rsvpEntry{UserID: attendee.UserID, CreatedAt: attendee.CreatedAt}
		if attendee.User != nil {
			person := toPerson(attendee.UserID, attendee.User)
			entry.User = &person
		}
		out = append(out, entry)
	}
	return out
}

// toEventResponse renders a bare event; only the organizer id is known.
func toEventResponse(event *events.Event, now time.Time) eventResponse {
	entries := make([]rsvpEntry, 0, len(event.RSVPs))
	for _, rsvp := range event.RSVPs {
		entries = append(entries, rsvpEntry{UserID: rsvp.UserID, CreatedAt: rsvp.CreatedAt})
	}
	return eventResponse{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		Organizer:    personResponse{ID: event.OrganizerID},
		Location:     event.Location,
		Date:         event.Date.UTC(),
		MaxAttendees: event.MaxAttendees,
		Category:     event.Category,
		RSVPs:        entries,
		IsPast:       event.IsPast(now),
		CreatedAt:    event.CreatedAt.UTC(),
		UpdatedAt:    event.UpdatedAt.UTC(),
	}
}

func toViewResponse(view events.EventView, now time.Time) eventResponse {
	out := toEventResponse(&view.Event, now)
	out.Organizer = toPerson(view.OrganizerID, view.Organizer)
	out.RSVPs = toEntries(view.Attendees)
	return out
}
