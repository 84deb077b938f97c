package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
)

var (
	_ users.Repository = (*UserRepository)(nil)
	_ events.Directory = (*UserRepository)(nil)
)

type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id::text, name, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (*users.User, error) {
	var user users.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (id, name, email, password_hash, role, created_at)
VALUES ($1::uuid, $2, $3, $4, $5, COALESCE($6, now()))
RETURNING `+userColumns,
		params.ID,
		params.Name,
		params.Email,
		params.PasswordHash,
		params.Role,
		nullTime(params.CreatedAt),
	)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// LookupPeople resolves display identities in one round trip. Ids that are
// not valid UUIDs simply do not match.
func (r *UserRepository) LookupPeople(ctx context.Context, ids []string) (map[string]events.Person, error) {
	people := make(map[string]events.Person, len(ids))
	if len(ids) == 0 {
		return people, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id::text, name, email FROM users WHERE id::text = ANY($1::text[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup people: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var person events.Person
		if err := rows.Scan(&person.ID, &person.Name, &person.Email); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people[person.ID] = person
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}
