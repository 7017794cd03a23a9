package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
)

// MockDraftRepository is an in-memory implementation of DraftRepository.
// The Mark* methods implement real compare-and-swap semantics under a mutex
// so concurrent-approval tests exercise the same guarantees as the SQL
// conditioned updates.
type MockDraftRepository struct {
	mu     sync.Mutex
	Drafts map[string]*models.Draft

	GetError  error
	SaveError error
}

// Verify interface compliance
var _ repository.DraftRepository = (*MockDraftRepository)(nil)

func NewMockDraftRepository() *MockDraftRepository {
	return &MockDraftRepository{
		Drafts: make(map[string]*models.Draft),
	}
}

func (m *MockDraftRepository) Create(ctx context.Context, draft *models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	copied := *draft
	copied.UpdatedAt = time.Now()
	m.Drafts[draft.ID] = &copied
	return nil
}

func (m *MockDraftRepository) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	draft, ok := m.Drafts[id]
	if !ok {
		return nil, nil
	}
	copied := *draft
	return &copied, nil
}

func (m *MockDraftRepository) GetDetail(ctx context.Context, id string) (*models.ReviewDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.Drafts[id]
	if !ok {
		return nil, nil
	}
	return &models.ReviewDetail{Draft: *draft, SubmitterEmail: draft.AuthorID + "@test.com"}, nil
}

func (m *MockDraftRepository) Autosave(ctx context.Context, id string, upd *models.DraftUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return false, m.SaveError
	}
	draft, ok := m.Drafts[id]
	if !ok || draft.Status != models.StatusDraft {
		return false, nil
	}
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
	draft.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockDraftRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var drafts []*models.Draft
	for _, d := range m.Drafts {
		if d.AuthorID == authorID {
			copied := *d
			drafts = append(drafts, &copied)
		}
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	if limit > 0 && len(drafts) > limit {
		drafts = drafts[:limit]
	}
	return drafts, nil
}

func (m *MockDraftRepository) ListSubmitted(ctx context.Context, limit int) ([]*models.ReviewQueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []*models.ReviewQueueEntry
	for _, d := range m.Drafts {
		if d.Status != models.StatusSubmitted {
			continue
		}
		entries = append(entries, &models.ReviewQueueEntry{
			ID:             d.ID,
			Title:          d.Title,
			SubmitterEmail: d.AuthorID + "@test.com",
			WordCount:      d.WordCount,
			SubmittedAt:    d.SubmittedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SubmittedAt == nil || entries[j].SubmittedAt == nil {
			return false
		}
		return entries[i].SubmittedAt.After(*entries[j].SubmittedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MockDraftRepository) ListStuckApproved(ctx context.Context, olderThan time.Duration) ([]*models.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var drafts []*models.Draft
	for _, d := range m.Drafts {
		if d.Status == models.StatusApproved && d.ApprovedAt != nil && d.ApprovedAt.Before(cutoff) {
			copied := *d
			drafts = append(drafts, &copied)
		}
	}
	return drafts, nil
}

func (m *MockDraftRepository) MarkSubmitted(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return false, m.SaveError
	}
	draft, ok := m.Drafts[id]
	if !ok || draft.Status != models.StatusDraft {
		return false, nil
	}
	now := time.Now()
	draft.Status = models.StatusSubmitted
	draft.SubmittedAt = &now
	draft.UpdatedAt = now
	return true, nil
}

func (m *MockDraftRepository) MarkReviewed(ctx context.Context, id, reviewerID string, to models.DraftStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return false, m.SaveError
	}
	draft, ok := m.Drafts[id]
	if !ok || draft.Status != models.StatusSubmitted {
		return false, nil
	}
	now := time.Now()
	draft.Status = to
	draft.ReviewerID = &reviewerID
	switch to {
	case models.StatusApproved:
		draft.ApprovedAt = &now
	case models.StatusRejected:
		draft.RejectedAt = &now
	}
	draft.UpdatedAt = now
	return true, nil
}

func (m *MockDraftRepository) RecordCMSDocument(ctx context.Context, id, cmsDocumentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.Drafts[id]
	if !ok || draft.Status != models.StatusApproved || draft.CMSDocumentID != nil {
		return false, nil
	}
	draft.CMSDocumentID = &cmsDocumentID
	return true, nil
}

func (m *MockDraftRepository) MarkPublished(ctx context.Context, id, cmsDocumentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return false, m.SaveError
	}
	draft, ok := m.Drafts[id]
	if !ok || draft.Status != models.StatusApproved {
		return false, nil
	}
	now := time.Now()
	draft.Status = models.StatusPublished
	draft.CMSDocumentID = &cmsDocumentID
	draft.PublishedAt = &now
	draft.UpdatedAt = now
	return true, nil
}

func (m *MockDraftRepository) CountByStatus(ctx context.Context) (map[models.DraftStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.DraftStatus]int)
	for _, d := range m.Drafts {
		counts[d.Status]++
	}
	return counts, nil
}

// MockUserRepository is an in-memory implementation of UserRepository
type MockUserRepository struct {
	Users       map[string]*models.User
	EmailToUser map[string]*models.User
	GetError    error
	InsertError error
}

// Verify interface compliance
var _ repository.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:       make(map[string]*models.User),
		EmailToUser: make(map[string]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.Users[user.ID] = user
	m.EmailToUser[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Users[id], nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.EmailToUser[email], nil
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, exists := m.EmailToUser[email]
	return exists, nil
}
