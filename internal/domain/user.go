package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role enumerates the closed set of account roles. Every authorization
// decision point handles all three explicitly so a new role is a
// compile-time-visible change.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleGlobalAdmin Role = "globaladmin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleGlobalAdmin:
		return RoleGlobalAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// IsAdmin reports whether the role carries any administrative rights.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleGlobalAdmin
}

// UserStatus enumerates account states.
type UserStatus string

const (
	UserStatusActive  UserStatus = "ACTIVE"
	UserStatusBlocked UserStatus = "BLOCKED"
)

// User is the account aggregate. PostalCode is derived from the free-text
// location at write time and stored normalized.
type User struct {
	ID           string
	Name         string
	Username     string
	Email        string
	Phone        string
	Location     string
	PostalCode   string
	PasswordHash string
	Role         Role
	Status       UserStatus
	MemberSince  time.Time
	LastActive   time.Time
}

// Blocked reports whether the account is blocked from mutating operations.
func (u *User) Blocked() bool {
	return u != nil && u.Status == UserStatusBlocked
}
