package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/rs/zerolog"
)

// reviewService is the concrete implementation of ReviewService. Transition
// legality comes from the models transition table; every transition is a
// conditioned update so two racing requests cannot both succeed.
type reviewService struct {
	drafts    repository.DraftRepository
	publisher Publisher
	cfg       *config.ReviewConfig
	log       zerolog.Logger

	// Retry processor state
	procCtx    context.Context
	procCancel context.CancelFunc
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
	sem        chan struct{}
}

const retryWorkers = 4

// newReviewService creates a new ReviewService
func newReviewService(drafts repository.DraftRepository, publisher Publisher, cfg *config.ReviewConfig, log zerolog.Logger) *reviewService {
	return &reviewService{
		drafts:    drafts,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("service", "review").Logger(),
		sem:       make(chan struct{}, retryWorkers),
	}
}

// Submit moves the caller's draft from "draft" to "submitted". Only the
// draft's author may submit it.
func (s *reviewService) Submit(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	if !caller.Authenticated {
		return nil, models.ErrUnauthorized
	}

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, models.ErrNotFound
	}
	if draft.AuthorID != caller.UserID {
		return nil, models.ErrUnauthorized
	}
	if _, err := models.NextStatus(draft.Status, models.ActionSubmit); err != nil {
		return nil, err
	}

	matched, err := s.drafts.MarkSubmitted(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, models.ErrConflict
	}

	s.log.Info().Str("draft_id", draftID).Msg("Draft submitted for review")
	return s.drafts.GetByID(ctx, draftID)
}

// Reject moves a submitted draft to "rejected". Terminal: no transition
// leaves "rejected".
func (s *reviewService) Reject(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	draft, err := s.loadForReview(ctx, caller, draftID, models.ActionReject)
	if err != nil {
		return nil, err
	}

	matched, err := s.drafts.MarkReviewed(ctx, draft.ID, caller.UserID, models.StatusRejected)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, models.ErrConflict
	}

	s.log.Info().Str("draft_id", draftID).Str("reviewer_id", caller.UserID).Msg("Draft rejected")
	return s.drafts.GetByID(ctx, draftID)
}

// Approve runs the two-phase approval:
//
//  1. Lock phase: conditioned update from "submitted" to "approved" with
//     reviewer and timestamp. A concurrent approval or rejection makes this
//     match zero rows, which surfaces as ErrConflict, never a double publish.
//  2. Publish phase: create the CMS document and flip to "published". On any
//     publish failure the draft stays "approved" — a recoverable state that
//     RetryPublish (or the retry processor) can finish without re-running
//     authorization.
func (s *reviewService) Approve(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	draft, err := s.loadForReview(ctx, caller, draftID, models.ActionApprove)
	if err != nil {
		return nil, err
	}

	matched, err := s.drafts.MarkReviewed(ctx, draft.ID, caller.UserID, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, models.ErrConflict
	}
	s.log.Info().Str("draft_id", draftID).Str("reviewer_id", caller.UserID).Msg("Draft approved, publishing")

	locked, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := s.publishLocked(ctx, locked); err != nil {
		s.log.Error().Err(err).Str("draft_id", draftID).Msg("Publish phase failed, draft remains approved")
		return nil, fmt.Errorf("draft approved but publishing failed: %w", err)
	}

	return s.drafts.GetByID(ctx, draftID)
}

// RetryPublish re-runs the publish phase for a draft stuck in "approved"
func (s *reviewService) RetryPublish(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	if err := caller.RequireRole(models.RoleAdmin); err != nil {
		return nil, err
	}

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, models.ErrNotFound
	}
	if _, err := models.NextStatus(draft.Status, models.ActionPublish); err != nil {
		return nil, err
	}

	if err := s.publishLocked(ctx, draft); err != nil {
		return nil, err
	}
	return s.drafts.GetByID(ctx, draftID)
}

// ListSubmitted returns the review queue
func (s *reviewService) ListSubmitted(ctx context.Context, caller *auth.CallerContext) ([]*models.ReviewQueueEntry, error) {
	if err := caller.RequireRole(models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.drafts.ListSubmitted(ctx, s.cfg.ListLimit)
}

// GetReviewDetail returns one draft's full body plus its submitter's email.
// Authorization is enforced here as well, not only on the mutating calls.
func (s *reviewService) GetReviewDetail(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.ReviewDetail, error) {
	if err := caller.RequireRole(models.RoleAdmin); err != nil {
		return nil, err
	}

	detail, err := s.drafts.GetDetail(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, models.ErrNotFound
	}
	return detail, nil
}

// CountByStatus returns draft counts per status
func (s *reviewService) CountByStatus(ctx context.Context) (map[models.DraftStatus]int, error) {
	return s.drafts.CountByStatus(ctx)
}

// loadForReview authorizes an admin review action and validates the
// transition before any mutation
func (s *reviewService) loadForReview(ctx context.Context, caller *auth.CallerContext, draftID string, action models.ReviewAction) (*models.Draft, error) {
	if err := caller.RequireRole(models.RoleAdmin); err != nil {
		return nil, err
	}

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, models.ErrNotFound
	}
	if _, err := models.NextStatus(draft.Status, action); err != nil {
		return nil, err
	}
	return draft, nil
}

// publishLocked runs the publish phase for a draft already locked in
// "approved". The document id is claimed on the draft row before the CMS is
// touched: the conditioned update admits exactly one claimant, so concurrent
// retries all address the same CMS document. Creation is createIfNotExists
// on that id, so re-running the phase after any crash is safe.
func (s *reviewService) publishLocked(ctx context.Context, draft *models.Draft) error {
	var docID string

	if draft.CMSDocumentID != nil && *draft.CMSDocumentID != "" {
		docID = *draft.CMSDocumentID
	} else {
		candidate := uuid.New().String()
		claimed, err := s.drafts.RecordCMSDocument(ctx, draft.ID, candidate)
		if err != nil {
			return err
		}
		if claimed {
			docID = candidate
		} else {
			// Lost the claim. Reuse whatever the winner recorded.
			current, err := s.drafts.GetByID(ctx, draft.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return models.ErrNotFound
			}
			if current.CMSDocumentID == nil || *current.CMSDocumentID == "" {
				return models.ErrConflict
			}
			docID = *current.CMSDocumentID
		}
	}

	toPublish := *draft
	toPublish.CMSDocumentID = &docID
	if _, err := s.publisher.Publish(ctx, &toPublish); err != nil {
		return err
	}

	matched, err := s.drafts.MarkPublished(ctx, draft.ID, docID)
	if err != nil {
		return err
	}
	if !matched {
		return models.ErrConflict
	}

	s.log.Info().Str("draft_id", draft.ID).Str("cms_document_id", docID).Msg("Draft published")
	return nil
}
