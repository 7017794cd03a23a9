package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/newsroom-publishing-api/internal/cms"
	"github.com/newsroom-publishing-api/internal/models"
)

// MockCMSClient is an in-memory implementation of the CMS client. It
// enforces slug uniqueness the way the real destination does, and counts
// creations so duplicate-publish tests can assert at-most-once behavior.
type MockCMSClient struct {
	mu          sync.Mutex
	Documents   map[string]*models.PublishedDocument // by document id
	SlugToDoc   map[string]string                    // slug -> document id
	CreateCalls int
	CreateError error
	nextID      int
}

// Verify interface compliance
var _ cms.Client = (*MockCMSClient)(nil)

func NewMockCMSClient() *MockCMSClient {
	return &MockCMSClient{
		Documents: make(map[string]*models.PublishedDocument),
		SlugToDoc: make(map[string]string),
	}
}

func (m *MockCMSClient) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.SlugToDoc[slug]
	return exists, nil
}

func (m *MockCMSClient) CreateDocument(ctx context.Context, doc *models.PublishedDocument) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateError != nil {
		return "", m.CreateError
	}

	id := doc.ID
	if id == "" {
		m.nextID++
		id = fmt.Sprintf("cms-doc-%d", m.nextID)
	}
	// createIfNotExists: repeating the call for an existing id is a no-op
	if _, exists := m.Documents[id]; exists {
		return id, nil
	}
	if holder, taken := m.SlugToDoc[doc.Slug.Current]; taken && holder != id {
		return "", &models.PublishConflictError{Slug: doc.Slug.Current}
	}

	m.Documents[id] = doc
	m.SlugToDoc[doc.Slug.Current] = id
	return id, nil
}
