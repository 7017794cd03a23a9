// Package auth resolves caller identity and decides whether privileged
// review-pipeline operations are permitted.
package auth

import (
	"context"

	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/rs/zerolog"
)

// CallerContext is the caller's identity and role set, resolved once at the
// request boundary and passed explicitly into every core operation.
type CallerContext struct {
	Authenticated bool
	UserID        string
	Roles         []string
}

// HasRole reports whether the required role is in the role set
func HasRole(roles []string, required string) bool {
	for _, r := range roles {
		if r == required {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller has the admin role
func (c *CallerContext) IsAdmin() bool {
	return c.Authenticated && HasRole(c.Roles, models.RoleAdmin)
}

// Authority resolves caller contexts against the authoritative user store.
// Roles are re-fetched per request; a role asserted by the client (or cached
// in a token) is never trusted.
type Authority struct {
	users repository.UserRepository
	log   zerolog.Logger
}

// NewAuthority creates a new Authority
func NewAuthority(users repository.UserRepository, log zerolog.Logger) *Authority {
	return &Authority{
		users: users,
		log:   log.With().Str("component", "auth").Logger(),
	}
}

// Resolve builds the caller context for a user id. Unknown or inactive users
// resolve to an unauthenticated context; the caller cannot tell which check
// failed.
func (a *Authority) Resolve(ctx context.Context, userID string) (*CallerContext, error) {
	if userID == "" {
		return &CallerContext{}, nil
	}

	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		a.log.Debug().Str("user_id", userID).Msg("Caller did not resolve to an active profile")
		return &CallerContext{}, nil
	}

	return &CallerContext{
		Authenticated: true,
		UserID:        user.ID,
		Roles:         user.Roles,
	}, nil
}

// RequireRole fails closed: missing authentication and a missing role both
// produce the same ErrUnauthorized.
func (c *CallerContext) RequireRole(required string) error {
	if !c.Authenticated || !HasRole(c.Roles, required) {
		return models.ErrUnauthorized
	}
	return nil
}
