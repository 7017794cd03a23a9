package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/rs/zerolog"
)

const listMineLimit = 100

// draftService is the concrete implementation of DraftService
type draftService struct {
	drafts repository.DraftRepository
	users  repository.UserRepository
	log    zerolog.Logger
}

// newDraftService creates a new DraftService
func newDraftService(drafts repository.DraftRepository, users repository.UserRepository, log zerolog.Logger) *draftService {
	return &draftService{
		drafts: drafts,
		users:  users,
		log:    log.With().Str("service", "draft").Logger(),
	}
}

// Create seeds a new draft for the caller. The CMS author reference is taken
// from the caller's profile, never from the payload.
func (s *draftService) Create(ctx context.Context, caller *auth.CallerContext, seed *models.DraftUpdate) (*models.Draft, error) {
	if err := caller.RequireRole(models.RoleWriter); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author profile: %w", err)
	}
	if user == nil {
		return nil, models.ErrUnauthorized
	}

	draft := &models.Draft{
		ID:        uuid.New().String(),
		AuthorID:  caller.UserID,
		AuthorRef: user.CMSAuthorRef,
		Status:    models.StatusDraft,
		CreatedAt: time.Now().UTC(),
	}
	if seed != nil {
		applyUpdate(draft, seed)
	}

	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, err
	}

	s.log.Info().Str("draft_id", draft.ID).Str("author_id", draft.AuthorID).Msg("Draft created")
	return s.drafts.GetByID(ctx, draft.ID)
}

// Get returns one draft. Only the author or an admin may read it.
func (s *draftService) Get(ctx context.Context, caller *auth.CallerContext, id string) (*models.Draft, error) {
	if !caller.Authenticated {
		return nil, models.ErrUnauthorized
	}

	draft, err := s.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, models.ErrNotFound
	}
	if draft.AuthorID != caller.UserID && !caller.IsAdmin() {
		return nil, models.ErrUnauthorized
	}
	return draft, nil
}

// Autosave merges the provided fields into the caller's draft. Status is not
// touchable through this path, and the underlying update only matches drafts
// still in "draft": a draft locked for review reports ErrConflict instead of
// being silently modified.
func (s *draftService) Autosave(ctx context.Context, caller *auth.CallerContext, id string, upd *models.DraftUpdate) (*models.Draft, error) {
	draft, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if draft.AuthorID != caller.UserID {
		return nil, models.ErrUnauthorized
	}

	matched, err := s.drafts.Autosave(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, models.ErrConflict
	}

	return s.drafts.GetByID(ctx, id)
}

// ListMine returns the caller's drafts, most recently updated first
func (s *draftService) ListMine(ctx context.Context, caller *auth.CallerContext) ([]*models.Draft, error) {
	if !caller.Authenticated {
		return nil, models.ErrUnauthorized
	}
	return s.drafts.ListByAuthor(ctx, caller.UserID, listMineLimit)
}

// applyUpdate copies the non-nil seed fields onto a fresh draft
func applyUpdate(draft *models.Draft, upd *models.DraftUpdate) {
	if upd.Title != nil {
		draft.Title = *upd.Title
	}
	if upd.Subtitle != nil {
		draft.Subtitle = upd.Subtitle
	}
	if upd.Excerpt != nil {
		draft.Excerpt = upd.Excerpt
	}
	if upd.Body != nil {
		draft.Body = upd.Body
	}
	if upd.Tags != nil {
		draft.Tags = upd.Tags
	}
	if upd.ReadTime != nil {
		draft.ReadTime = upd.ReadTime
	}
	if upd.WordCount != nil {
		draft.WordCount = upd.WordCount
	}
	if upd.FeaturedImageRef != nil {
		draft.FeaturedImageRef = upd.FeaturedImageRef
	}
}
