package service

import (
	"context"

	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/cms"
	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/rs/zerolog"
)

// DraftService defines writer-facing draft operations. Every operation takes
// the caller context resolved at the request boundary; nothing re-derives
// identity inside business logic.
type DraftService interface {
	Create(ctx context.Context, caller *auth.CallerContext, seed *models.DraftUpdate) (*models.Draft, error)
	Get(ctx context.Context, caller *auth.CallerContext, id string) (*models.Draft, error)
	Autosave(ctx context.Context, caller *auth.CallerContext, id string, upd *models.DraftUpdate) (*models.Draft, error)
	ListMine(ctx context.Context, caller *auth.CallerContext) ([]*models.Draft, error)
}

// ReviewService defines the review state machine operations
type ReviewService interface {
	Submit(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	Approve(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	Reject(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	RetryPublish(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	ListSubmitted(ctx context.Context, caller *auth.CallerContext) ([]*models.ReviewQueueEntry, error)
	GetReviewDetail(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.ReviewDetail, error)
	CountByStatus(ctx context.Context) (map[models.DraftStatus]int, error)
	StartRetryProcessor(ctx context.Context)
	StopRetryProcessor()
}

// UserService defines profile administration operations
type UserService interface {
	InviteWriter(ctx context.Context, caller *auth.CallerContext, invite *InviteWriterRequest) (*models.User, error)
}

// Publisher creates the public CMS document for a locked (approved) draft
type Publisher interface {
	Publish(ctx context.Context, draft *models.Draft) (string, error)
}

// Services holds all service interfaces
type Services struct {
	Draft  DraftService
	Review ReviewService
	User   UserService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cmsClient cms.Client, cfg *config.Config, log zerolog.Logger) *Services {
	publisher := NewPublisher(cmsClient, log)

	return &Services{
		Draft:  newDraftService(repos.Draft, repos.User, log),
		Review: newReviewService(repos.Draft, publisher, &cfg.Review, log),
		User:   newUserService(repos.User, log),
	}
}
