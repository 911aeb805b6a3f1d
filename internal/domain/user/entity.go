package user

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"    // Sees organization-wide attendance and activity
	RoleEmployee Role = "employee" // Regular user, counted in attendance stats
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	ID        string
	Email     *string
	FirstName *string
	LastName  *string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	return JoinName(u.FirstName, u.LastName)
}

// Identity is the caller as asserted by a verified access token.
type Identity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	Role      Role
}

// IsAdmin checks if the caller is an administrator
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// ToUser converts the identity into the user row it provisions.
func (i Identity) ToUser() User {
	return User{
		ID:        i.UserID,
		Email:     nonEmpty(i.Email),
		FirstName: nonEmpty(i.FirstName),
		LastName:  nonEmpty(i.LastName),
		Role:      i.Role,
	}
}

// JoinName joins optional first and last names with a space.
func JoinName(first, last *string) string {
	parts := make([]string, 0, 2)
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
