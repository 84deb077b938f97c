package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

var ilikeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeILIKEPattern escapes LIKE metacharacters so user input is matched
// literally. Queries use the default backslash escape.
func escapeILIKEPattern(value string) string {
	return ilikeEscaper.Replace(value)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// unknownOrganizer reports whether an event insert failed because
// organizer_id is not a registered user: not a UUID, or absent from users.
func unknownOrganizer(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case foreignKeyViolation:
		return pgErr.ConstraintName == "events_organizer_id_fkey"
	case invalidTextRepresentation:
		return true
	}
	return false
}

func nullTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	return &value
}
