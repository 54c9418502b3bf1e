package domain

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RolePartner, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies the caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

// CanManageBusinesses reports whether the actor may list or redeem for businesses.
func (a Actor) CanManageBusinesses() bool {
	return a.Role == RolePartner || a.Role == RoleAdmin
}

// User holds the penalty state of an account.
type User struct {
	ID           string
	PenaltyCount int
	PenaltyUntil *time.Time
}

// PenaltyActive reports whether the user is blocked from reserving at now.
func (u User) PenaltyActive(now time.Time) bool {
	return u.PenaltyUntil != nil && u.PenaltyUntil.After(now)
}
