package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Role int

// UserRole constants
const (
	RoleUser  Role = 1
	RoleAdmin Role = 2
)

// Valid reports whether the role is a known one
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// String returns the role name
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole accepts either a role name ("user", "admin") or its numeric value
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Role(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return Role(n), nil
}

// User represents a user in the system
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`    // Never serialize password hash
	Role         Role      `json:"role"` // 1=User, 2=Admin, default=1
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest represents a registration payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents credentials. Login is either an email or a username.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// UpdateRoleRequest represents a role change payload.
// Role may be sent as a number (1, 2) or a name ("user", "admin").
type UpdateRoleRequest struct {
	Role RoleValue `json:"role"`
}

// RoleValue decodes a role from a JSON number or string
type RoleValue string

// UnmarshalJSON keeps the raw token so that numbers and strings both parse
func (v *RoleValue) UnmarshalJSON(data []byte) error {
	*v = RoleValue(strings.Trim(string(data), `"`))
	return nil
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserListFilter narrows the users list
type UserListFilter struct {
	Page   int
	Count  int
	Role   *Role
	Search string
}
