package model

import "strings"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Caller is the authenticated identity every core operation runs as. The
// contact fields are optional; they come from the identity token when it
// carries them.
type Caller struct {
	UserID         string
	OrganizationID string
	Role           Role
	Email          string
	FirstName      string
	LastName       string
}

// Profile returns the caller's contact details, or false when the identity
// carried no email to reach them at.
func (c Caller) Profile() (UserSummary, bool) {
	if c.Email == "" {
		return UserSummary{}, false
	}
	return UserSummary{ID: c.UserID, Email: c.Email, FirstName: c.FirstName, LastName: c.LastName}, true
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// CanAccess reports whether the caller may read or mutate an appointment
// owned by userID within their organization.
func (c Caller) CanAccess(userID string) bool {
	return c.IsAdmin() || c.UserID == userID
}
