package client

import (
	"encoding/json"
	"time"
)

type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type RSVP struct {
	UserID    string    `json:"userId"`
	User      *Person   `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Organizer    Person    `json:"organizer"`
	Location     string    `json:"location"`
	Date         time.Time `json:"date"`
	MaxAttendees *int      `json:"maxAttendees"`
	Category     *string   `json:"category"`
	RSVPs        []RSVP    `json:"rsvps"`
	Past         bool      `json:"isPast"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsPast compares the event date to now rather than trusting the flag the
// server computed when the response was produced.
func (e Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

func (e Event) HasRSVP(userID string) bool {
	for _, rsvp := range e.RSVPs {
		if rsvp.UserID == userID {
			return true
		}
	}
	return false
}

// SpotsLeft returns -1 for unlimited events.
func (e Event) SpotsLeft() int {
	if e.MaxAttendees == nil {
		return -1
	}
	left := *e.MaxAttendees - len(e.RSVPs)
	if left < 0 {
		return 0
	}
	return left
}

type NewEvent struct {
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	Date         string  `json:"date"`
	Location     string  `json:"location"`
	MaxAttendees *int    `json:"maxAttendees,omitempty"`
	Category     *string `json:"category,omitempty"`
}

// EventUpdate carries only the fields to change. Clear* sends an explicit
// null for the optional fields.
type EventUpdate struct {
	Title             *string
	Description       *string
	Date              *string
	Location          *string
	MaxAttendees      *int
	Category          *string
	ClearMaxAttendees bool
	ClearCategory     bool
}

func (u EventUpdate) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if u.Title != nil {
		body["title"] = *u.Title
	}
	if u.Description != nil {
		body["description"] = *u.Description
	}
	if u.Date != nil {
		body["date"] = *u.Date
	}
	if u.Location != nil {
		body["location"] = *u.Location
	}
	switch {
	case u.ClearMaxAttendees:
		body["maxAttendees"] = nil
	case u.MaxAttendees != nil:
		body["maxAttendees"] = *u.MaxAttendees
	}
	switch {
	case u.ClearCategory:
		body["category"] = nil
	case u.Category != nil:
		body["category"] = *u.Category
	}
	return json.Marshal(body)
}

func (u EventUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Date == nil && u.Location == nil &&
		u.MaxAttendees == nil && u.Category == nil && !u.ClearMaxAttendees && !u.ClearCategory
}

type ListOptions struct {
	Query string
	City  string
	Date  string // YYYY-MM-DD
	Limit int
}

type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}
