package models

import "fmt"

// Role represents a user's role within their organization.
type Role string

const (
	RoleAdmin   Role = "admin"   // full access to everything in the tenant
	RoleManager Role = "manager" // department-level access
	RoleUser    Role = "user"    // standard employee access
	RoleViewer  Role = "viewer"  // read-only access
)

// roleRanks orders roles by privilege. User and viewer are peers below
// manager for "at least" checks, but a floor of RoleUser still excludes
// viewers.
var roleRanks = map[Role]int{
	RoleViewer:  0,
	RoleUser:    1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// Rank returns the privilege rank of the role, -1 for unknown roles.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether r carries at least the privilege of floor.
// Unknown roles never satisfy any floor.
func (r Role) AtLeast(floor Role) bool {
	rank := r.Rank()
	floorRank := floor.Rank()
	if rank < 0 || floorRank < 0 {
		return false
	}
	return rank >= floorRank
}

// ParseRole converts an inbound string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}
