package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom-publishing-api/internal/api"
	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/mocks"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/service"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func setupRouter(services *service.Services) *gin.Engine {
	userRepo := mocks.NewMockUserRepository()
	userRepo.Users["writer-1"] = &models.User{
		ID: "writer-1", Email: "writer@test.com", Roles: []string{models.RoleWriter}, Active: true,
	}
	userRepo.Users["admin-1"] = &models.User{
		ID: "admin-1", Email: "admin@test.com", Roles: []string{models.RoleAdmin}, Active: true,
	}

	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: testSecret}}
	authority := auth.NewAuthority(userRepo, zerolog.Nop())
	return api.NewRouter(services, authority, cfg, zerolog.Nop())
}

func defaultServices() *service.Services {
	return &service.Services{
		Draft:  &mocks.MockDraftService{},
		Review: &mocks.MockReviewService{},
		User:   &mocks.MockUserService{},
	}
}

func doRequest(router *gin.Engine, method, path, userID string, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		token, _ := auth.IssueToken(userID, testSecret, time.Hour)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(defaultServices())

	w := doRequest(router, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Expected healthy status, got %s", w.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	services := defaultServices()
	services.Review = &mocks.MockReviewService{
		Counts: map[models.DraftStatus]int{models.StatusDraft: 3, models.StatusPublished: 1},
	}
	router := setupRouter(services)

	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Drafts map[string]int `json:"drafts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Drafts["draft"] != 3 || resp.Drafts["published"] != 1 {
		t.Errorf("Unexpected counts: %v", resp.Drafts)
	}
}

func TestCreateDraft_PassesResolvedCaller(t *testing.T) {
	var seen *auth.CallerContext
	services := defaultServices()
	services.Draft = &mocks.MockDraftService{
		CreateFunc: func(ctx context.Context, caller *auth.CallerContext, seed *models.DraftUpdate) (*models.Draft, error) {
			seen = caller
			return &models.Draft{ID: "d1", AuthorID: caller.UserID, Status: models.StatusDraft}, nil
		},
	}
	router := setupRouter(services)

	w := doRequest(router, http.MethodPost, "/v1/drafts", "writer-1", `{"title":"New Draft"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if seen == nil || !seen.Authenticated || seen.UserID != "writer-1" {
		t.Errorf("Caller should be resolved from the token, got %+v", seen)
	}
	if !auth.HasRole(seen.Roles, models.RoleWriter) {
		t.Error("Roles should come from the user store")
	}
}

func TestCreateDraft_UnauthenticatedCallerReachesServiceUnresolved(t *testing.T) {
	services := defaultServices()
	services.Draft = &mocks.MockDraftService{
		CreateFunc: func(ctx context.Context, caller *auth.CallerContext, seed *models.DraftUpdate) (*models.Draft, error) {
			if !caller.Authenticated {
				return nil, models.ErrUnauthorized
			}
			return &models.Draft{ID: "d1"}, nil
		},
	}
	router := setupRouter(services)

	// No token at all
	w := doRequest(router, http.MethodPost, "/v1/drafts", "", `{"title":"New Draft"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without token, got %d", w.Code)
	}

	// Valid token for an unknown user resolves to the same outcome
	w = doRequest(router, http.MethodPost, "/v1/drafts", "ghost-user", `{"title":"New Draft"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for unknown user, got %d", w.Code)
	}
}

func TestCreateDraft_InvalidPayload(t *testing.T) {
	router := setupRouter(defaultServices())

	longTitle := strings.Repeat("x", 201)
	w := doRequest(router, http.MethodPost, "/v1/drafts", "writer-1", `{"title":"`+longTitle+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized title, got %d", w.Code)
	}
}

func TestUpdateStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"forbidden", models.ErrUnauthorized, http.StatusForbidden, ""},
		{"not found", models.ErrNotFound, http.StatusNotFound, ""},
		{"conflict", models.ErrConflict, http.StatusConflict, "conflict"},
		{"publish conflict", &models.PublishConflictError{Slug: "hello-world"}, http.StatusConflict, "publish_conflict"},
		{"invalid transition", &models.InvalidTransitionError{Status: models.StatusPublished, Action: models.ActionApprove}, http.StatusUnprocessableEntity, "invalid_transition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			services := defaultServices()
			services.Review = &mocks.MockReviewService{
				ApproveFunc: func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
					return nil, tt.err
				},
			}
			router := setupRouter(services)

			w := doRequest(router, http.MethodPost, "/v1/review/d1/status", "admin-1", `{"status":"approved"}`)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantKind != "" && !strings.Contains(w.Body.String(), tt.wantKind) {
				t.Errorf("Expected kind %q in body, got %s", tt.wantKind, w.Body.String())
			}
		})
	}
}

func TestUpdateStatus_ValidatesPayload(t *testing.T) {
	router := setupRouter(defaultServices())

	w := doRequest(router, http.MethodPost, "/v1/review/d1/status", "admin-1", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing status, got %d", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/v1/review/d1/status", "admin-1", `{"status":"published"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-reviewable status, got %d", w.Code)
	}
}

func TestUpdateStatus_RoutesToRejection(t *testing.T) {
	var rejected bool
	services := defaultServices()
	services.Review = &mocks.MockReviewService{
		RejectFunc: func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
			rejected = true
			return &models.Draft{ID: draftID, Status: models.StatusRejected}, nil
		},
	}
	router := setupRouter(services)

	w := doRequest(router, http.MethodPost, "/v1/review/d1/status", "admin-1", `{"status":"rejected"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !rejected {
		t.Error("Reject should be invoked for status rejected")
	}
}

func TestGetQueue(t *testing.T) {
	now := time.Now()
	services := defaultServices()
	services.Review = &mocks.MockReviewService{
		ListSubmittedFunc: func(ctx context.Context, caller *auth.CallerContext) ([]*models.ReviewQueueEntry, error) {
			return []*models.ReviewQueueEntry{
				{ID: "d1", Title: "Pending", SubmitterEmail: "writer@test.com", SubmittedAt: &now},
			}, nil
		},
	}
	router := setupRouter(services)

	w := doRequest(router, http.MethodGet, "/v1/review/queue", "admin-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Queue []models.ReviewQueueEntry `json:"queue"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp.Queue) != 1 || resp.Queue[0].ID != "d1" {
		t.Errorf("Unexpected queue: %+v", resp.Queue)
	}
}

func TestGetQueue_EmptyIsArray(t *testing.T) {
	router := setupRouter(defaultServices())

	w := doRequest(router, http.MethodGet, "/v1/review/queue", "admin-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"queue":[]`) {
		t.Errorf("Empty queue should serialize as [], got %s", w.Body.String())
	}
}

func TestRetryPublish(t *testing.T) {
	services := defaultServices()
	services.Review = &mocks.MockReviewService{
		RetryPublishFunc: func(ctx context.Context, caller *auth.CallerContext, draftID string) (*models.Draft, error) {
			docID := "cms-doc-1"
			return &models.Draft{ID: draftID, Status: models.StatusPublished, CMSDocumentID: &docID}, nil
		},
	}
	router := setupRouter(services)

	w := doRequest(router, http.MethodPost, "/v1/review/d1/retry-publish", "admin-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "published") {
		t.Errorf("Expected published draft in body, got %s", w.Body.String())
	}
}

func TestInviteWriter(t *testing.T) {
	router := setupRouter(defaultServices())

	w := doRequest(router, http.MethodPost, "/v1/writers/invite", "admin-1", `{"email":"new@test.com","name":"New Writer"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/v1/writers/invite", "admin-1", `{"name":"No Email"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing email, got %d", w.Code)
	}
}

func TestExpiredTokenIsIgnored(t *testing.T) {
	services := defaultServices()
	services.Draft = &mocks.MockDraftService{
		ListMineFunc: func(ctx context.Context, caller *auth.CallerContext) ([]*models.Draft, error) {
			if !caller.Authenticated {
				return nil, models.ErrUnauthorized
			}
			return nil, nil
		},
	}
	router := setupRouter(services)

	token, _ := auth.IssueToken("writer-1", testSecret, -time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/v1/drafts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expired token should resolve to no identity, got %d", w.Code)
	}
}
