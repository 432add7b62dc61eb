package types

// Role is the authorization level assigned to a user. Exactly one role is
// held per user.
type Role int

const (
	// RoleStudent may access student resources only.
	RoleStudent Role = 0

	// RoleTeacher may access teacher resources.
	RoleTeacher Role = 1

	// RoleAdmin may access teacher and admin resources, including user
	// management.
	RoleAdmin Role = 2
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleTeacher:
		return "teacher"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// In reports whether r is a member of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
