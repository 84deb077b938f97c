// Package memory is an in-process Event Store. Each event carries its own
// mutex, so check-then-act sequences on one event are serialized without
// blocking work on other events.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
	"github.com/Togather-Foundation/localevents/internal/storage"
)

var (
	_ storage.Repository = (*Store)(nil)
	_ events.Repository  = (*Store)(nil)
	_ users.Repository   = (*Store)(nil)
	_ events.Directory   = (*Store)(nil)
)

type record struct {
	mu      sync.Mutex
	event   events.Event
	deleted bool
}

type Store struct {
	mu      sync.RWMutex
	events  map[string]*record
	users   map[string]users.User
	byEmail map[string]string
	now     func() time.Time
}

func New() *Store {
	return &Store{
		events:  map[string]*record{},
		users:   map[string]users.User{},
		byEmail: map[string]string{},
		now:     time.Now,
	}
}

func (s *Store) Events() events.Repository { return s }

func (s *Store) Users() users.Repository { return s }

func (s *Store) People() events.Directory { return s }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) Insert(_ context.Context, params events.CreateParams) (*events.Event, error) {
	created := params.CreatedAt
	if created.IsZero() {
		created = s.now().UTC()
	}
	event := events.Event{
		ID:           params.ID,
		Title:        params.Title,
		Description:  params.Description,
		OrganizerID:  params.OrganizerID,
		Location:     params.Location,
		Date:         params.Date,
		MaxAttendees: copyInt(params.MaxAttendees),
		Category:     copyString(params.Category),
		RSVPs:        []events.RSVP{},
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	s.mu.Lock()
	s.events[event.ID] = &record{event: event}
	s.mu.Unlock()

	out := clone(event)
	return &out, nil
}

func (s *Store) Get(_ context.Context, id string) (*events.Event, error) {
	rec, ok := s.lookup(id)
	if !ok {
		return nil, events.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, events.ErrNotFound
	}
	out := clone(rec.event)
	return &out, nil
}

func (s *Store) Find(_ context.Context, filters events.Filters) ([]events.Event, error) {
	s.mu.RLock()
	records := make([]*record, 0, len(s.events))
	for _, rec := range s.events {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	matched := make([]events.Event, 0)
	for _, rec := range records {
		rec.mu.Lock()
		if !rec.deleted && filters.Matches(rec.event) {
			matched = append(matched, clone(rec.event))
		}
		rec.mu.Unlock()
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})

	if limit := filters.EffectiveLimit(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) Update(_ context.Context, id string, mutate events.Mutator) (*events.Event, error) {
	rec, ok := s.lookup(id)
	if !ok {
		return nil, events.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, events.ErrNotFound
	}

	working := clone(rec.event)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.ID = rec.event.ID
	working.OrganizerID = rec.event.OrganizerID
	working.RSVPs = rec.event.RSVPs
	working.CreatedAt = rec.event.CreatedAt
	working.UpdatedAt = s.now().UTC()
	rec.event = working

	out := clone(working)
	return &out, nil
}

// Remove runs guard and the delete under the event's lock, so no RSVP or
// update can land between the check and the removal.
func (s *Store) Remove(_ context.Context, id string, guard events.Guard) (*events.Event, error) {
	rec, ok := s.lookup(id)
	if !ok {
		return nil, events.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, events.ErrNotFound
	}
	if guard != nil {
		if err := guard(clone(rec.event)); err != nil {
			return nil, err
		}
	}
	rec.deleted = true

	s.mu.Lock()
	if s.events[id] == rec {
		delete(s.events, id)
	}
	s.mu.Unlock()

	out := clone(rec.event)
	return &out, nil
}

func (s *Store) AppendRSVP(_ context.Context, eventID string, rsvp events.RSVP) (int, error) {
	rec, ok := s.lookup(eventID)
	if !ok {
		return 0, events.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return 0, events.ErrNotFound
	}
	if rec.event.HasRSVP(rsvp.UserID) {
		return 0, events.ErrAlreadyRSVPed
	}
	if rec.event.IsFull() {
		return 0, events.ErrEventFull
	}

	rec.event.RSVPs = append(rec.event.RSVPs, rsvp)
	return len(rec.event.RSVPs), nil
}

func (s *Store) RemoveRSVP(_ context.Context, eventID string, userID string) (int, error) {
	rec, ok := s.lookup(eventID)
	if !ok {
		return 0, events.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return 0, events.ErrNotFound
	}

	kept := make([]events.RSVP, 0, len(rec.event.RSVPs))
	for _, entry := range rec.event.RSVPs {
		if entry.UserID != userID {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(rec.event.RSVPs) {
		return 0, events.ErrNotRSVPed
	}

	rec.event.RSVPs = kept
	return len(kept), nil
}

func (s *Store) lookup(id string) (*record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.events[id]
	return rec, ok
}

// Users

func (s *Store) Create(_ context.Context, params users.CreateParams) (*users.User, error) {
	key := strings.ToLower(params.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[key]; taken {
		return nil, users.ErrEmailTaken
	}
	user := users.User(params)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users[user.ID] = user
	s.byEmail[key] = user.ID
	return &user, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *Store) GetByID(_ context.Context, id string) (*users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) LookupPeople(_ context.Context, ids []string) (map[string]events.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]events.Person, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out[id] = events.Person{ID: user.ID, Name: user.Name, Email: user.Email}
		}
	}
	return out, nil
}

func clone(event events.Event) events.Event {
	out := event
	out.MaxAttendees = copyInt(event.MaxAttendees)
	out.Category = copyString(event.Category)
	out.RSVPs = append([]events.RSVP(nil), event.RSVPs...)
	if out.RSVPs == nil {
		out.RSVPs = []events.RSVP{}
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
