package auth

import "strings"

type Role string

const (
	RoleAttendee  Role = "attendee"
	RoleOrganizer Role = "organizer"
)

// NormalizeRole maps stored or requested role names onto a known role.
// Anything that is not "organizer" is treated as an attendee, which also
// covers the legacy "user" role sent by older clients.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleOrganizer):
		return RoleOrganizer
	default:
		return RoleAttendee
	}
}
