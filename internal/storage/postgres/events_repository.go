package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/metrics"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

// rsvpDoc is the JSONB shape of one roster entry.
type rsvpDoc struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

const eventColumns = `id, title, description, organizer_id::text, location, starts_at,
       max_attendees, category, rsvps, created_at, updated_at`

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event    events.Event
		capacity *int32
		rawRSVPs []byte
	)
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.OrganizerID,
		&event.Location,
		&event.Date,
		&capacity,
		&event.Category,
		&rawRSVPs,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if capacity != nil {
		value := int(*capacity)
		event.MaxAttendees = &value
	}

	var docs []rsvpDoc
	if err := json.Unmarshal(rawRSVPs, &docs); err != nil {
		return nil, fmt.Errorf("decode rsvps for event %s: %w", event.ID, err)
	}
	event.RSVPs = make([]events.RSVP, 0, len(docs))
	for _, doc := range docs {
		event.RSVPs = append(event.RSVPs, events.RSVP{UserID: doc.UserID, CreatedAt: doc.CreatedAt.UTC()})
	}

	event.Date = event.Date.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	event.UpdatedAt = event.UpdatedAt.UTC()
	return &event, nil
}

func (r *EventRepository) Insert(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO events (id, title, description, organizer_id, location, starts_at,
                    max_attendees, category, rsvps, created_at, updated_at)
VALUES ($1, $2, $3, $4::uuid, $5, $6, $7, $8, '[]'::jsonb, $9, $9)
RETURNING `+eventColumns,
		params.ID,
		params.Title,
		params.Description,
		params.OrganizerID,
		params.Location,
		params.Date,
		params.MaxAttendees,
		params.Category,
		createdAt,
	)
	event, err := scanEvent(row)
	if err != nil {
		if unknownOrganizer(err) {
			return nil, events.ErrUnknownOrganizer
		}
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (*events.Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Find(ctx context.Context, filters events.Filters) ([]events.Event, error) {
	var dayStart, dayEnd *time.Time
	if start, end, ok := filters.DayRange(); ok {
		dayStart, dayEnd = &start, &end
	}

	start := time.Now()
	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
   AND ($2 = '' OR location ILIKE '%' || $2 || '%')
   AND ($3::timestamptz IS NULL OR (starts_at >= $3 AND starts_at < $4::timestamptz))
 ORDER BY starts_at ASC, id ASC
 LIMIT $5`,
		escapeILIKEPattern(filters.Query),
		escapeILIKEPattern(filters.City),
		dayStart,
		dayEnd,
		filters.EffectiveLimit(),
	)
	metrics.RecordQuery("find_events", start, err)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer rows.Close()

	found := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		found = append(found, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return found, nil
}

// Update locks the row for the duration of mutate. Only descriptive fields
// are written back; the roster is owned by AppendRSVP and RemoveRSVP.
func (r *EventRepository) Update(ctx context.Context, id string, mutate events.Mutator) (*events.Event, error) {
	return inTx(ctx, r.pool, func(q queryer) (*events.Event, error) {
		current, err := lockEvent(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if err := mutate(current); err != nil {
			return nil, err
		}

		row := q.QueryRow(ctx, `
UPDATE events
   SET title = $2,
       description = $3,
       location = $4,
       starts_at = $5,
       max_attendees = $6,
       category = $7,
       updated_at = now()
 WHERE id = $1
RETURNING `+eventColumns,
			id,
			current.Title,
			current.Description,
			current.Location,
			current.Date,
			current.MaxAttendees,
			current.Category,
		)
		updated, err := scanEvent(row)
		if err != nil {
			return nil, fmt.Errorf("update event: %w", err)
		}
		return updated, nil
	})
}

// Remove holds the row lock from the guard check through the delete, so a
// concurrent RSVP waits and then finds the event gone.
func (r *EventRepository) Remove(ctx context.Context, id string, guard events.Guard) (*events.Event, error) {
	return inTx(ctx, r.pool, func(q queryer) (*events.Event, error) {
		current, err := lockEvent(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if guard != nil {
			if err := guard(*current); err != nil {
				return nil, err
			}
		}
		if _, err := q.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return nil, fmt.Errorf("delete event: %w", err)
		}
		return current, nil
	})
}

func lockEvent(ctx context.Context, q queryer, id string) (*events.Event, error) {
	current, err := scanEvent(q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return current, nil
}

// AppendRSVP locks the event row and appends in one statement. The
// duplicate and capacity predicates are evaluated against the locked row,
// so concurrent callers are serialized by the row lock.
func (r *EventRepository) AppendRSVP(ctx context.Context, eventID string, rsvp events.RSVP) (int, error) {
	createdAt := rsvp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var (
		found     bool
		duplicate *bool
		count     *int32
	)
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
WITH target AS (
  SELECT id, rsvps, max_attendees
    FROM events
   WHERE id = $1
     FOR UPDATE
), appended AS (
  UPDATE events e
     SET rsvps = e.rsvps || jsonb_build_array(jsonb_build_object('user_id', $2::text, 'created_at', $3::timestamptz))
    FROM target t
   WHERE e.id = t.id
     AND NOT t.rsvps @> jsonb_build_array(jsonb_build_object('user_id', $2::text))
     AND (t.max_attendees IS NULL OR jsonb_array_length(t.rsvps) < t.max_attendees)
  RETURNING jsonb_array_length(e.rsvps) AS rsvp_count
)
SELECT EXISTS (SELECT 1 FROM target),
       (SELECT t.rsvps @> jsonb_build_array(jsonb_build_object('user_id', $2::text)) FROM target t),
       (SELECT rsvp_count FROM appended)`,
		eventID, rsvp.UserID, createdAt,
	).Scan(&found, &duplicate, &count)
	metrics.RecordQuery("append_rsvp", start, err)
	if err != nil {
		return 0, fmt.Errorf("append rsvp: %w", err)
	}

	switch {
	case !found:
		return 0, events.ErrNotFound
	case count != nil:
		return int(*count), nil
	case duplicate != nil && *duplicate:
		return 0, events.ErrAlreadyRSVPed
	default:
		return 0, events.ErrEventFull
	}
}

func (r *EventRepository) RemoveRSVP(ctx context.Context, eventID string, userID string) (int, error) {
	var (
		found bool
		count *int32
	)
	start := time.Now()
	err := r.pool.QueryRow(ctx, `
WITH target AS (
  SELECT id, rsvps
    FROM events
   WHERE id = $1
     FOR UPDATE
), removed AS (
  UPDATE events e
     SET rsvps = COALESCE((
           SELECT jsonb_agg(entry ORDER BY position)
             FROM jsonb_array_elements(t.rsvps) WITH ORDINALITY AS roster(entry, position)
            WHERE entry->>'user_id' <> $2::text
         ), '[]'::jsonb)
    FROM target t
   WHERE e.id = t.id
     AND t.rsvps @> jsonb_build_array(jsonb_build_object('user_id', $2::text))
  RETURNING jsonb_array_length(e.rsvps) AS rsvp_count
)
SELECT EXISTS (SELECT 1 FROM target),
       (SELECT rsvp_count FROM removed)`,
		eventID, userID,
	).Scan(&found, &count)
	metrics.RecordQuery("remove_rsvp", start, err)
	if err != nil {
		return 0, fmt.Errorf("remove rsvp: %w", err)
	}

	switch {
	case !found:
		return 0, events.ErrNotFound
	case count == nil:
		return 0, events.ErrNotRSVPed
	default:
		return int(*count), nil
	}
}
