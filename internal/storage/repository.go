package storage

import (
	"context"

	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
)

// Repository groups data access by domain. Both the PostgreSQL and the
// in-memory backends implement it.
type Repository interface {
	Events() events.Repository
	Users() users.Repository
	People() events.Directory

	Ping(ctx context.Context) error
	Close()
}
