package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Togather-Foundation/localevents/internal/sanitize"
)

// Field records whether a JSON member was present and whether it was null,
// so a patch can tell "leave alone" from "clear".
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Present reports whether the member carried a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// EventPatch is a partial update. Absent members are left unchanged.
type EventPatch struct {
	Title        Field[string] `json:"title"`
	Description  Field[string] `json:"description"`
	Date         Field[string] `json:"date"`
	Location     Field[string] `json:"location"`
	MaxAttendees Field[int]    `json:"maxAttendees"`
	Category     Field[string] `json:"category"`
}

// Empty reports whether the patch names no field at all.
func (p EventPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Date.Set &&
		!p.Location.Set && !p.MaxAttendees.Set && !p.Category.Set
}

// changeSet is a validated patch ready to be applied under the store lock.
type changeSet struct {
	title        *string
	description  *string
	date         *time.Time
	location     *string
	setCapacity  bool
	maxAttendees *int
	setCategory  bool
	category     *string
}

func (p EventPatch) resolve() (changeSet, error) {
	var cs changeSet

	if p.Title.Set {
		title := sanitize.Text(p.Title.Value)
		if p.Title.Null || title == "" {
			return cs, invalidInput("title cannot be empty")
		}
		if tooLong(title, maxTitleLength) {
			return cs, invalidInput("title is too long")
		}
		cs.title = &title
	}

	if p.Description.Set {
		description := ""
		if p.Description.Present() {
			description = sanitize.Text(p.Description.Value)
		}
		if tooLong(description, maxDescriptionLength) {
			return cs, invalidInput("description is too long")
		}
		cs.description = &description
	}

	if p.Date.Set {
		if p.Date.Null || strings.TrimSpace(p.Date.Value) == "" {
			return cs, invalidInput("date cannot be empty")
		}
		date, err := ParseDate(p.Date.Value)
		if err != nil {
			return cs, invalidInput("date must be a valid date")
		}
		cs.date = &date
	}

	if p.Location.Set {
		location := sanitize.Text(p.Location.Value)
		if p.Location.Null || location == "" {
			return cs, invalidInput("location cannot be empty")
		}
		if tooLong(location, maxLocationLength) {
			return cs, invalidInput("location is too long")
		}
		cs.location = &location
	}

	if p.MaxAttendees.Set {
		cs.setCapacity = true
		if p.MaxAttendees.Present() {
			if p.MaxAttendees.Value <= 0 {
				return cs, ErrInvalidCapacity
			}
			capacity := p.MaxAttendees.Value
			cs.maxAttendees = &capacity
		}
	}

	if p.Category.Set {
		cs.setCategory = true
		if p.Category.Present() {
			cs.category = optionalText(&p.Category.Value)
			if cs.category != nil && tooLong(*cs.category, maxCategoryLength) {
				return cs, invalidInput("category is too long")
			}
		}
	}

	return cs, nil
}

// tooLong measures in characters, matching the validator's max tag used on
// create.
func tooLong(value string, limit int) bool {
	return utf8.RuneCountInString(value) > limit
}

func (cs changeSet) apply(event *Event) error {
	if cs.setCapacity && cs.maxAttendees != nil && len(event.RSVPs) > *cs.maxAttendees {
		return ErrCapacityBelowRoster
	}
	if cs.title != nil {
		event.Title = *cs.title
	}
	if cs.description != nil {
		event.Description = *cs.description
	}
	if cs.date != nil {
		event.Date = *cs.date
	}
	if cs.location != nil {
		event.Location = *cs.location
	}
	if cs.setCapacity {
		event.MaxAttendees = cs.maxAttendees
	}
	if cs.setCategory {
		event.Category = cs.category
	}
	return nil
}
