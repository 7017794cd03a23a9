package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/newsroom-publishing-api/internal/validation"
	"github.com/rs/zerolog"
)

// InviteWriterRequest is the payload for creating a writer profile
type InviteWriterRequest struct {
	Email        string   `json:"email" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Roles        []string `json:"roles,omitempty"`
	CMSAuthorRef string   `json:"cms_author_ref,omitempty"`
}

// userService is the concrete implementation of UserService
type userService struct {
	users repository.UserRepository
	log   zerolog.Logger
}

// newUserService creates a new UserService
func newUserService(users repository.UserRepository, log zerolog.Logger) *userService {
	return &userService{
		users: users,
		log:   log.With().Str("service", "user").Logger(),
	}
}

// InviteWriter creates a new writer profile. Admin only; the role list is
// validated against the known roles so an invite can never mint an
// arbitrary role.
func (s *userService) InviteWriter(ctx context.Context, caller *auth.CallerContext, invite *InviteWriterRequest) (*models.User, error) {
	if err := caller.RequireRole(models.RoleAdmin); err != nil {
		return nil, err
	}

	roles := invite.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleWriter}
	}
	if verrs := validation.ValidateInvite(invite.Email, invite.Name, roles); len(verrs) > 0 {
		return nil, &validation.InvalidPayloadError{Errors: verrs}
	}

	exists, err := s.users.EmailExists(ctx, invite.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrConflict
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        invite.Email,
		Name:         invite.Name,
		Roles:        roles,
		CMSAuthorRef: invite.CMSAuthorRef,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).
		Strs("roles", user.Roles).Msg("Writer invited")
	return user, nil
}
