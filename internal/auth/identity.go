package auth

import "github.com/google/uuid"

// RoleAdmin may trigger certificate issuance.
const RoleAdmin = "admin"

// Identity is the current user as resolved from the identity provider's token.
// Services take it as an explicit parameter; nil means anonymous.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

// DisplayName is how the identity appears in logs: name, else email.
func (i *Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
