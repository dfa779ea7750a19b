package domain

import (
	"strings"
	"time"
)

// Role is the authorization role of a client account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// Client mirrors the persisted representation in the clients table.
type Client struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Company       *string
	Phone         *string
	AvatarURL     *string
	EmailVerified bool
	Role          Role
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the client may use the admin console.
func (c Client) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// FullName joins first and last name.
func (c Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ProfileUpdate carries a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Company   *string
	Phone     *string
	AvatarURL *string
}

// IsEmpty reports whether the update changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Company == nil && u.Phone == nil && u.AvatarURL == nil
}

// NormalizeEmail lower-cases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
