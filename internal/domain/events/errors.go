package events

import "errors"

// Error kinds. Every error returned by Service that is not an internal
// failure matches exactly one of these with errors.Is.
var (
	ErrNotFound     = errors.New("event not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("rsvp conflict")
)

var (
	ErrAlreadyRSVPed = &RuleError{Kind: ErrConflict, Message: "Already RSVPed"}
	ErrEventFull     = &RuleError{Kind: ErrConflict, Message: "Event is full"}
	ErrNotRSVPed     = &RuleError{Kind: ErrConflict, Message: "You are not RSVPed"}

	ErrOrganizerOnly       = &RuleError{Kind: ErrForbidden, Message: "Only organizers can create events"}
	ErrNotOwner            = &RuleError{Kind: ErrForbidden, Message: "Only the event organizer can do that"}
	ErrUnknownOrganizer    = &RuleError{Kind: ErrForbidden, Message: "Organizer account not found"}
	ErrMissingFields       = &RuleError{Kind: ErrInvalidInput, Message: "title, date and location are required"}
	ErrCapacityBelowRoster = &RuleError{Kind: ErrInvalidInput, Message: "maxAttendees cannot be lower than the current number of RSVPs"}
)

// RuleError is a business-rule failure with a client-safe message.
type RuleError struct {
	Kind    error
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func (e *RuleError) Unwrap() error {
	return e.Kind
}

func invalidInput(message string) error {
	return &RuleError{Kind: ErrInvalidInput, Message: message}
}
