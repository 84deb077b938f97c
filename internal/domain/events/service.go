package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/localevents/internal/domain/ids"
	"github.com/Togather-Foundation/localevents/internal/sanitize"
)

const (
	maxTitleLength       = 200
	maxLocationLength    = 200
	maxCategoryLength    = 64
	maxDescriptionLength = 5000
)

var ErrInvalidCapacity = &RuleError{Kind: ErrInvalidInput, Message: "maxAttendees must be a positive integer"}

// Caller is the verified identity on whose behalf an operation runs.
type Caller struct {
	ID        string
	Organizer bool
}

// Attendee is a roster entry with the user's identity resolved when known.
type Attendee struct {
	UserID    string
	User      *Person
	CreatedAt time.Time
}

// EventView is an event with its organizer resolved. Attendees mirrors the
// roster; User is populated only where the operation resolves attendees.
type EventView struct {
	Event
	Organizer *Person
	Attendees []Attendee
}

type CreateInput struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Description  string  `json:"description" validate:"max=5000"`
	Date         string  `json:"date" validate:"required"`
	Location     string  `json:"location" validate:"required,max=200"`
	MaxAttendees *int    `json:"maxAttendees" validate:"omitempty,gt=0"`
	Category     *string `json:"category" validate:"omitempty,max=64"`
}

type Service struct {
	repo     Repository
	people   Directory
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, people Directory) *Service {
	return &Service{
		repo:     repo,
		people:   people,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

func (s *Service) CreateEvent(ctx context.Context, caller Caller, input CreateInput) (*Event, error) {
	if !caller.Organizer {
		return nil, ErrOrganizerOnly
	}

	input.Title = sanitize.Text(input.Title)
	input.Description = sanitize.Text(input.Description)
	input.Location = sanitize.Text(input.Location)
	input.Category = optionalText(input.Category)

	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	date, err := ParseDate(input.Date)
	if err != nil {
		return nil, invalidInput("date must be a valid date")
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	event, err := s.repo.Insert(ctx, CreateParams{
		ID:           id,
		Title:        input.Title,
		Description:  input.Description,
		OrganizerID:  caller.ID,
		Location:     input.Location,
		Date:         date,
		MaxAttendees: input.MaxAttendees,
		Category:     input.Category,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("event_id", event.ID).
		Str("organizer_id", caller.ID).
		Msg("event created")
	return event, nil
}

func (s *Service) UpdateEvent(ctx context.Context, caller Caller, id string, patch EventPatch) (*Event, error) {
	changes, resolveErr := patch.resolve()

	event, err := s.repo.Update(ctx, id, func(current *Event) error {
		if current.OrganizerID != caller.ID {
			return ErrNotOwner
		}
		if resolveErr != nil {
			return resolveErr
		}
		return changes.apply(current)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) DeleteEvent(ctx context.Context, caller Caller, id string) error {
	removed, err := s.repo.Remove(ctx, id, func(current Event) error {
		if current.OrganizerID != caller.ID {
			return ErrNotOwner
		}
		return nil
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("event_id", id).
		Int("rsvps_dropped", len(removed.RSVPs)).
		Msg("event deleted")
	return nil
}

// AddRsvp appends the caller to the roster and returns the new roster size.
// Duplicate and capacity checks are made by the store atomically with the
// append.
func (s *Service) AddRsvp(ctx context.Context, caller Caller, id string) (int, error) {
	return s.repo.AppendRSVP(ctx, id, RSVP{UserID: caller.ID, CreatedAt: s.now().UTC()})
}

// CancelRsvp removes the caller from the roster and returns the new size.
func (s *Service) CancelRsvp(ctx context.Context, caller Caller, id string) (int, error) {
	return s.repo.RemoveRSVP(ctx, id, caller.ID)
}

func (s *Service) ListAttendees(ctx context.Context, caller Caller, id string) ([]Attendee, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != caller.ID {
		return nil, ErrNotOwner
	}

	people, err := s.lookup(ctx, rosterIDs(event.RSVPs))
	if err != nil {
		return nil, err
	}
	return attendees(event.RSVPs, people), nil
}

// ListEvents returns matching events sorted by date ascending with their
// organizers resolved. Rosters are returned unresolved.
func (s *Service) ListEvents(ctx context.Context, filters Filters) ([]EventView, error) {
	filters.Limit = filters.EffectiveLimit()

	found, err := s.repo.Find(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}

	organizerIDs := make([]string, 0, len(found))
	for _, event := range found {
		organizerIDs = append(organizerIDs, event.OrganizerID)
	}
	people, err := s.lookup(ctx, organizerIDs)
	if err != nil {
		return nil, err
	}

	views := make([]EventView, 0, len(found))
	for _, event := range found {
		views = append(views, EventView{
			Event:     event,
			Organizer: personPtr(people, event.OrganizerID),
			Attendees: attendees(event.RSVPs, nil),
		})
	}
	return views, nil
}

// GetEvent returns one event with its organizer and every attendee resolved.
func (s *Service) GetEvent(ctx context.Context, id string) (*EventView, error) {
	event, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	people, err := s.lookup(ctx, append([]string{event.OrganizerID}, rosterIDs(event.RSVPs)...))
	if err != nil {
		return nil, err
	}

	return &EventView{
		Event:     *event,
		Organizer: personPtr(people, event.OrganizerID),
		Attendees: attendees(event.RSVPs, people),
	}, nil
}

func (s *Service) lookup(ctx context.Context, userIDs []string) (map[string]Person, error) {
	if s.people == nil || len(userIDs) == 0 {
		return map[string]Person{}, nil
	}
	people, err := s.people.LookupPeople(ctx, dedupe(userIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve people: %w", err)
	}
	return people, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidInput("invalid event")
	}
	for _, fe := range fieldErrs {
		switch {
		case fe.Tag() == "required":
			return ErrMissingFields
		case fe.Field() == "MaxAttendees":
			return ErrInvalidCapacity
		case fe.Tag() == "max":
			return invalidInput(lowerFirst(fe.Field()) + " is too long")
		}
	}
	return invalidInput("invalid event")
}

func optionalText(value *string) *string {
	cleaned := sanitize.TextPtr(value)
	if cleaned == nil || *cleaned == "" {
		return nil
	}
	return cleaned
}

func rosterIDs(rsvps []RSVP) []string {
	out := make([]string, 0, len(rsvps))
	for _, rsvp := range rsvps {
		out = append(out, rsvp.UserID)
	}
	return out
}

func attendees(rsvps []RSVP, people map[string]Person) []Attendee {
	out := make([]Attendee, 0, len(rsvps))
	for _, rsvp := range rsvps {
		out = append(out, Attendee{
			UserID:    rsvp.UserID,
			User:      personPtr(people, rsvp.UserID),
			CreatedAt: rsvp.CreatedAt,
		})
	}
	return out
}

func personPtr(people map[string]Person, id string) *Person {
	person, ok := people[id]
	if !ok {
		return nil
	}
	return &person
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	return string(value[0]+('a'-'A')) + value[1:]
}
