// Package access resolves who a caller is and which attendance data they may
// see. Resolution happens before any attendance row is read.
package access

import "strings"

// Role is the closed set of caller roles.
type Role string

// Roles.
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r, true
	default:
		return "", false
	}
}

// Elevated reports whether the role may see data beyond its own.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// Identity carries every role hint known about a caller.
type Identity struct {
	UserID int64
	// ProfileRole is the role stored on the user record.
	ProfileRole string
	// ClaimRole is the role asserted by the access token.
	ClaimRole   string
	IsSuperuser bool
}

// ResolveRole picks the caller role with a fixed precedence: a valid profile
// role, then a valid claim role, then admin for superusers, then student.
func ResolveRole(id Identity) Role {
	if r, ok := ParseRole(id.ProfileRole); ok {
		return r
	}
	if r, ok := ParseRole(id.ClaimRole); ok {
		return r
	}
	if id.IsSuperuser {
		return RoleAdmin
	}
	return RoleStudent
}

// Principal is a caller with a resolved role.
type Principal struct {
	UserID int64
	Role   Role
}

// NewPrincipal resolves the role of id.
func NewPrincipal(id Identity) Principal {
	return Principal{UserID: id.UserID, Role: ResolveRole(id)}
}
