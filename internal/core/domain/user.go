package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role discriminates the kinds of identity owned by the User service.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidCredentials, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Identity models an authenticated actor in the system. Client, staff and
// admin accounts share this single shape; Role tells them apart.
type Identity struct {
	ID           uuid.UUID `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsClient reports whether the identity is replicated to the Ticket service.
func (i *Identity) IsClient() bool {
	return i != nil && i.Role == RoleClient
}

// SessionClaims is what a verified session token proves about its bearer.
type SessionClaims struct {
	Login     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
