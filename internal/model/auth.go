package model

import "github.com/google/uuid"

// Roles carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// IsAdmin reports whether the caller holds the administrative role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Owns reports whether the caller owns the given resource owner ID.
func (i Identity) Owns(userID uuid.UUID) bool {
	return i.UserID == userID
}
