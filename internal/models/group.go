package models

import "time"

// Role is a member's permission level within a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group represents a set of users sharing transactions and proposals.
// Groups are never hard-deleted while proposals reference them.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// CreatedBy is the founding user, who starts out as admin.
	CreatedBy string

	// Members is the membership list with roles.
	Members []Member

	CreatedAt time.Time
}

// Member is one (group, user, role) membership.
type Member struct {
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// AdminCount returns the number of admins in members.
func AdminCount(members []Member) int {
	n := 0
	for _, m := range members {
		if m.Role == RoleAdmin {
			n++
		}
	}
	return n
}
