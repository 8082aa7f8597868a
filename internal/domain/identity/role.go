package identity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
)

// Role is the operational role of a user within the retail chain
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleCashier    Role = "cashier"
)

// ParseRole parses a role name, case-insensitively
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Unknown role: "+s)
	}
	return role, nil
}

// IsValid returns true if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleSupervisor, RoleCashier:
		return true
	}
	return false
}

// IsPrivileged reports whether the role may act on any branch,
// including the central distribution center.
func (r Role) IsPrivileged() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanReviewReturns reports whether the role may approve or reject returns
func (r Role) CanReviewReturns() bool {
	return r.IsPrivileged() || r == RoleSupervisor
}

func (r Role) String() string {
	return string(r)
}

// Actor identifies the user performing an operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// NewActor creates an actor, rejecting anonymous users and unknown roles
func NewActor(userID uuid.UUID, role Role) (Actor, error) {
	if userID == uuid.Nil {
		return Actor{}, shared.ErrUnauthorized
	}
	if !role.IsValid() {
		return Actor{}, shared.NewForbiddenError("Unknown role: " + string(role))
	}
	return Actor{UserID: userID, Role: role}, nil
}
