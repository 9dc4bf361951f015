package domain

import "slices"

// Role codes stored in the roles table.
const (
	RoleAdmin     = "admin"
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

// Principal is the authenticated caller. Controllers read it from the request
// context and pass it to services as an explicit argument.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the principal carries the given role code.
func (p Principal) HasRole(code string) bool {
	return slices.Contains(p.Roles, code)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }
