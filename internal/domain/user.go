package domain

import "time"

// Role is the fixed access level assigned at registration.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw role string onto the closed Role set.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser, RoleAgent, RoleAdmin:
		return Role(raw), true
	default:
		return "", false
	}
}

// Registrable reports whether the role may be chosen on the public
// registration form. Admins are provisioned out of band.
func (r Role) Registrable() bool {
	switch r {
	case RoleUser, RoleAgent:
		return true
	case RoleAdmin:
		return false
	default:
		return false
	}
}

// IsStaff reports whether the role works the shared ticket queue.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAgent, RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// User is an account that can sign in to the helpdesk.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

// IdentityOf builds the session identity for a stored user.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
