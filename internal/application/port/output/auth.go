package output

import "context"

// Role of an actor
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Actor is the identity stamped onto activity records and checked for
// admin-gated operations
type Actor struct {
	Name string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AuthPort resolves the acting user for a request
type AuthPort interface {
	// CurrentActor returns the actor for the current invocation. Returns an
	// error wrapping apperr.ErrUnauthorized when no actor is configured.
	CurrentActor(ctx context.Context) (Actor, error)
}
