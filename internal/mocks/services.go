package mocks

import (
	"context"

	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/service"
)

// MockDraftService is a mock implementation of DraftService
type MockDraftService struct {
	CreateFunc   func(ctx context.Context, caller *auth.CallerContext, seed *models.DraftUpdate) (*models.Draft, error)
	GetFunc      func(ctx context.Context, caller *auth.CallerContext, id string) (*models.Draft, error)
	AutosaveFunc func(ctx context.Context, caller *auth.CallerContext, id string, upd *models.DraftUpdate) (*models.Draft, error)
	ListMineFunc func(ctx context.Context, caller *auth.CallerContext) ([]*models.Draft, error)
}

// Verify interface compliance
var _ service.DraftService = (*MockDraftService)(nil)

func (m *MockDraftService) Create(ctx context.Context, caller *auth.CallerContext, seed *models.DraftUpdate) (*models.Draft, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, caller, seed)
	}
	return &models.Draft{ID: "test-draft-id", Status: models.StatusDraft}, nil
}

func (m *MockDraftService) Get(ctx context.Context, caller *auth.CallerContext, id string) (*models.Draft, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, caller, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDraftService) Autosave(ctx context.Context, caller *auth.CallerContext, id string, upd *models.DraftUpdate) (*models.Draft, error) {
	if m.AutosaveFunc != nil {
		return m.AutosaveFunc(ctx, caller, id, upd)
	}
	return nil, models.ErrNotFound
}

func (m *MockDraftService) ListMine(ctx context.Context, caller *auth.CallerContext) ([]*models.Draft, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, caller)
	}
	return nil, nil
}

// MockReviewService is a mock implementation of ReviewService
type MockReviewService struct {
	SubmitFunc          func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	ApproveFunc         func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	RejectFunc          func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	RetryPublishFunc    func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error)
	ListSubmittedFunc   func(ctx context.Context, caller *auth.CallerContext) ([]*models.ReviewQueueEntry, error)
	GetReviewDetailFunc func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.ReviewDetail, error)
	Counts              map[models.DraftStatus]int
}

// Verify interface compliance
var _ service.ReviewService = (*MockReviewService)(nil)

func (m *MockReviewService) Submit(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, caller, draftID)
	}
	return nil, models.ErrNotFound
}

func (m *MockReviewService) Approve(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, caller, draftID)
	}
	return nil, models.ErrNotFound
}

func (m *MockReviewService) Reject(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, caller, draftID)
	}
	return nil, models.ErrNotFound
}

func (m *MockReviewService) RetryPublish(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
	if m.RetryPublishFunc != nil {
		return m.RetryPublishFunc(ctx, caller, draftID)
	}
	return nil, models.ErrNotFound
}

func (m *MockReviewService) ListSubmitted(ctx context.Context, caller *auth.CallerContext) ([]*models.ReviewQueueEntry, error) {
	if m.ListSubmittedFunc != nil {
		return m.ListSubmittedFunc(ctx, caller)
	}
	return nil, nil
}

func (m *MockReviewService) GetReviewDetail(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.ReviewDetail, error) {
	if m.GetReviewDetailFunc != nil {
		return m.GetReviewDetailFunc(ctx, caller, draftID)
	}
	return nil, models.ErrNotFound
}

func (m *MockReviewService) CountByStatus(ctx context.Context) (map[models.DraftStatus]int, error) {
	return m.Counts, nil
}

func (m *MockReviewService) StartRetryProcessor(ctx context.Context) {}

func (m *MockReviewService) StopRetryProcessor() {}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	InviteWriterFunc func(ctx context.Context, caller *auth.CallerContext, invite *service.InviteWriterRequest) (*models.User, error)
}

// Verify interface compliance
var _ service.UserService = (*MockUserService)(nil)

func (m *MockUserService) InviteWriter(ctx context.Context, caller *auth.CallerContext, invite *service.InviteWriterRequest) (*models.User, error) {
	if m.InviteWriterFunc != nil {
		return m.InviteWriterFunc(ctx, caller, invite)
	}
	return &models.User{ID: "test-user-id", Email: invite.Email, Roles: []string{models.RoleWriter}}, nil
}
