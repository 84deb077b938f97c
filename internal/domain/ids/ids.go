package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
	ErrInvalidUUID = errors.New("invalid UUID")
)

// NewULID generates a new ULID string. Event identifiers are ULIDs so that
// they sort by creation time.
func NewULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID returns true when value is a valid ULID (case-insensitive Crockford Base32).
func IsULID(value string) bool {
	return ulidRegex.MatchString(strings.TrimSpace(value))
}

// ValidateULID validates a ULID string.
func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}

// NormalizeULID upper-cases a ULID so lookups are case-insensitive.
func NormalizeULID(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// NewUUID returns a random (v4) UUID string, used for user identifiers.
func NewUUID() string {
	return uuid.NewString()
}

func ValidateUUID(value string) error {
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return ErrInvalidUUID
	}
	return nil
}
