package repository

import (
	"context"
	"time"

	"github.com/newsroom-publishing-api/internal/database"
	"github.com/newsroom-publishing-api/internal/models"
)

// DraftRepository defines the interface for staging-store draft operations.
// Status never changes through Create or Autosave; the Mark* methods are
// conditioned updates (compare-and-swap on status) used only by the review
// service, and report whether a row matched.
type DraftRepository interface {
	Create(ctx context.Context, draft *models.Draft) error
	GetByID(ctx context.Context, id string) (*models.Draft, error)
	GetDetail(ctx context.Context, id string) (*models.ReviewDetail, error)
	Autosave(ctx context.Context, id string, upd *models.DraftUpdate) (bool, error)
	ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Draft, error)
	ListSubmitted(ctx context.Context, limit int) ([]*models.ReviewQueueEntry, error)
	ListStuckApproved(ctx context.Context, olderThan time.Duration) ([]*models.Draft, error)
	MarkSubmitted(ctx context.Context, id string) (bool, error)
	MarkReviewed(ctx context.Context, id, reviewerID string, to models.DraftStatus) (bool, error)
	RecordCMSDocument(ctx context.Context, id, cmsDocumentID string) (bool, error)
	MarkPublished(ctx context.Context, id, cmsDocumentID string) (bool, error)
	CountByStatus(ctx context.Context) (map[models.DraftStatus]int, error)
}

// UserRepository defines the interface for user profile operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Draft DraftRepository
	User  UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Draft: NewDraftRepo(db),
		User:  NewUserRepo(db),
	}
}
