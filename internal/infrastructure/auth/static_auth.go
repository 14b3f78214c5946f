// Package auth resolves the acting user from configuration. In this
// deployment the actor comes from settings or environment rather than a
// session, but use cases only see the AuthPort contract.
package auth

import (
	"context"
	"fmt"

	"github.com/anchorworks/sprintflow/internal/application/port/output"
	"github.com/anchorworks/sprintflow/internal/domain/apperr"
)

// StaticAuth implements output.AuthPort with a fixed actor
type StaticAuth struct {
	actor output.Actor
}

// NewStaticAuth creates an auth port for the given name and role
func NewStaticAuth(name string, role output.Role) *StaticAuth {
	return &StaticAuth{actor: output.Actor{Name: name, Role: role}}
}

// CurrentActor returns the configured actor
func (a *StaticAuth) CurrentActor(ctx context.Context) (output.Actor, error) {
	if a.actor.Name == "" {
		return output.Actor{}, fmt.Errorf("%w: no actor configured", apperr.ErrUnauthorized)
	}
	return a.actor, nil
}
