package handlers

import (
	"errors"
	"net/http"

	"github.com/Togather-Foundation/localevents/internal/api/problem"
	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
)

// statusFor maps a domain error onto its HTTP status. Anything unclassified
// is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, events.ErrNotFound), errors.Is(err, users.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, events.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, events.ErrInvalidInput), errors.Is(err, users.ErrInvalidInput), errors.Is(err, users.ErrEmailTaken):
		return http.StatusBadRequest
	case errors.Is(err, events.ErrConflict):
		// Conflicts keep 400 for compatibility with existing clients.
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing message for err. Rule and filter
// errors already carry one.
func messageFor(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return problem.ServerErrorMessage
	}
	var rule *events.RuleError
	if errors.As(err, &rule) {
		return rule.Message
	}
	if errors.Is(err, events.ErrNotFound) {
		return "Event not found"
	}
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		return "User already exists"
	case errors.Is(err, users.ErrInvalidCredentials):
		return "Invalid credentials"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	status := statusFor(err)
	problem.Write(w, r, status, messageFor(err, status), err, env)
}

// outcome labels a result for the operation counters.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch statusFor(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusBadRequest:
		if errors.Is(err, events.ErrConflict) {
			return "conflict"
		}
		return "invalid"
	default:
		return "error"
	}
}
