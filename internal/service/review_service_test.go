package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/newsroom-publishing-api/internal/auth"
	"github.com/newsroom-publishing-api/internal/config"
	"github.com/newsroom-publishing-api/internal/mocks"
	"github.com/newsroom-publishing-api/internal/models"
	"github.com/newsroom-publishing-api/internal/repository"
	"github.com/newsroom-publishing-api/internal/service"
	"github.com/rs/zerolog"
)

var (
	adminCaller  = &auth.CallerContext{Authenticated: true, UserID: "admin-1", Roles: []string{models.RoleAdmin}}
	writerCaller = &auth.CallerContext{Authenticated: true, UserID: "writer-1", Roles: []string{models.RoleWriter}}
	otherWriter  = &auth.CallerContext{Authenticated: true, UserID: "writer-2", Roles: []string{models.RoleWriter}}
	anonymous    = &auth.CallerContext{}
)

func testConfig() *config.Config {
	return &config.Config{
		Review: config.ReviewConfig{
			RetryAfter:    time.Minute,
			RetryInterval: time.Second,
			ListLimit:     50,
		},
	}
}

func setupServices() (*service.Services, *mocks.MockDraftRepository, *mocks.MockUserRepository, *mocks.MockCMSClient) {
	draftRepo := mocks.NewMockDraftRepository()
	userRepo := mocks.NewMockUserRepository()
	cmsClient := mocks.NewMockCMSClient()

	writer := &models.User{
		ID: "writer-1", Email: "writer@test.com", Name: "Writer One",
		Roles: []string{models.RoleWriter}, CMSAuthorRef: "author-abc", Active: true,
	}
	admin := &models.User{
		ID: "admin-1", Email: "admin@test.com", Name: "Admin One",
		Roles: []string{models.RoleAdmin}, Active: true,
	}
	userRepo.Users[writer.ID] = writer
	userRepo.EmailToUser[writer.Email] = writer
	userRepo.Users[admin.ID] = admin
	userRepo.EmailToUser[admin.Email] = admin

	repos := &repository.Repositories{Draft: draftRepo, User: userRepo}
	services := service.NewServices(repos, cmsClient, testConfig(), zerolog.Nop())
	return services, draftRepo, userRepo, cmsClient
}

func seedDraft(repo *mocks.MockDraftRepository, id string, status models.DraftStatus, title string) *models.Draft {
	now := time.Now()
	draft := &models.Draft{
		ID:        id,
		AuthorID:  "writer-1",
		AuthorRef: "author-abc",
		Title:     title,
		Status:    status,
		CreatedAt: now,
	}
	switch status {
	case models.StatusSubmitted:
		draft.SubmittedAt = &now
	case models.StatusApproved:
		earlier := now.Add(-5 * time.Minute)
		draft.SubmittedAt = &earlier
		draft.ApprovedAt = &earlier
		reviewer := "admin-1"
		draft.ReviewerID = &reviewer
	case models.StatusPublished:
		draft.PublishedAt = &now
		docID := "cms-doc-existing"
		draft.CMSDocumentID = &docID
	}
	repo.Create(context.Background(), draft)
	return repo.Drafts[id]
}

func TestSubmit_MovesDraftToSubmitted(t *testing.T) {
	services, draftRepo, _, _ := setupServices()
	seedDraft(draftRepo, "d1", models.StatusDraft, "Hello World")

	draft, err := services.Review.Submit(context.Background(), writerCaller, "d1")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if draft.Status != models.StatusSubmitted {
		t.Errorf("Expected status submitted, got %s", draft.Status)
	}
	if draft.SubmittedAt == nil {
		t.Error("SubmittedAt should be set")
	}
}

func TestSubmit_NotOwnedByCaller(t *testing.T) {
	services, draftRepo, _, _ := setupServices()
	seedDraft(draftRepo, "d1", models.StatusDraft, "Hello World")

	_, err := services.Review.Submit(context.Background(), otherWriter, "d1")
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized, got %v", err)
	}

	stored, _ := draftRepo.GetByID(context.Background(), "d1")
	if stored.Status != models.StatusDraft {
		t.Errorf("Status should be unchanged, got %s", stored.Status)
	}
}

func TestSubmit_AlreadySubmitted(t *testing.T) {
	services, draftRepo, _, _ := setupServices()
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")

	_, err := services.Review.Submit(context.Background(), writerCaller, "d1")
	var invalid *models.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidTransitionError, got %v", err)
	}
	if invalid.Status != models.StatusSubmitted || invalid.Action != models.ActionSubmit {
		t.Errorf("Error should name current status and action, got %+v", invalid)
	}
}

func TestApprove_PublishesDraft(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	subtitle := "A subtitle"
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")
	draftRepo.Drafts["d1"].Subtitle = &subtitle
	draftRepo.Drafts["d1"].Tags = []string{"news", "politics"}
	draftRepo.Drafts["d1"].Body = &models.EditorDocument{
		Type: "doc",
		Content: []models.EditorNode{
			{Type: models.NodeParagraph, Content: []models.EditorNode{{Type: models.NodeText, Text: "Body text"}}},
		},
	}

	draft, err := services.Review.Approve(context.Background(), adminCaller, "d1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if draft.Status != models.StatusPublished {
		t.Errorf("Expected status published, got %s", draft.Status)
	}
	if draft.CMSDocumentID == nil {
		t.Fatal("Published draft must carry the CMS document id")
	}
	if draft.PublishedAt == nil || draft.ApprovedAt == nil {
		t.Error("ApprovedAt and PublishedAt should both be set")
	}
	if draft.ReviewerID == nil || *draft.ReviewerID != "admin-1" {
		t.Errorf("Reviewer should be recorded, got %v", draft.ReviewerID)
	}

	if cmsClient.CreateCalls != 1 {
		t.Errorf("Expected exactly 1 CMS creation, got %d", cmsClient.CreateCalls)
	}
	docID, ok := cmsClient.SlugToDoc["hello-world"]
	if !ok {
		t.Fatal("Expected a CMS document with slug hello-world")
	}
	if docID != *draft.CMSDocumentID {
		t.Errorf("Draft should reference the created document: %s vs %s", docID, *draft.CMSDocumentID)
	}
	doc := cmsClient.Documents[docID]
	if len(doc.Body) != 1 {
		t.Errorf("Expected 1 converted block, got %d", len(doc.Body))
	}
	if doc.AuthorRef == nil || doc.AuthorRef.Ref != "author-abc" {
		t.Errorf("Author reference should carry over, got %+v", doc.AuthorRef)
	}
}

func TestApprove_RequiresAdminRole(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")

	for _, caller := range []*auth.CallerContext{writerCaller, anonymous} {
		_, err := services.Review.Approve(context.Background(), caller, "d1")
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("Expected ErrUnauthorized for %+v, got %v", caller, err)
		}
	}

	stored, _ := draftRepo.GetByID(context.Background(), "d1")
	if stored.Status != models.StatusSubmitted {
		t.Errorf("Status should be unchanged, got %s", stored.Status)
	}
	if cmsClient.CreateCalls != 0 {
		t.Errorf("No CMS call should be made, got %d", cmsClient.CreateCalls)
	}
}

func TestApprove_AlreadyPublished(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusPublished, "Hello World")

	_, err := services.Review.Approve(context.Background(), adminCaller, "d1")
	var invalid *models.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidTransitionError, got %v", err)
	}
	if cmsClient.CreateCalls != 0 {
		t.Errorf("No CMS call should be made for a published draft, got %d", cmsClient.CreateCalls)
	}
}

func TestApprove_ConcurrentApprovalsPublishOnce(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = services.Review.Approve(context.Background(), adminCaller, "d1")
		}(i)
	}
	wg.Wait()

	// The loser sees either the CAS conflict or, if it read after the winner
	// finished, an already-published draft. Both are correct serializations.
	var successes, losses int
	var invalid *models.InvalidTransitionError
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrConflict), errors.As(err, &invalid):
			losses++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if successes != 1 || losses != 1 {
		t.Errorf("Expected exactly one success and one loss, got %d/%d", successes, losses)
	}

	if cmsClient.CreateCalls != 1 {
		t.Errorf("Expected exactly 1 CMS document creation, got %d", cmsClient.CreateCalls)
	}
	stored, _ := draftRepo.GetByID(context.Background(), "d1")
	if stored.Status != models.StatusPublished {
		t.Errorf("Expected final status published, got %s", stored.Status)
	}
}

func TestReject_IsTerminal(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")

	draft, err := services.Review.Reject(context.Background(), adminCaller, "d1")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if draft.Status != models.StatusRejected {
		t.Errorf("Expected status rejected, got %s", draft.Status)
	}
	if draft.RejectedAt == nil || draft.ReviewerID == nil {
		t.Error("RejectedAt and ReviewerID should be set")
	}

	// No transition leaves rejected.
	var invalid *models.InvalidTransitionError
	if _, err := services.Review.Approve(context.Background(), adminCaller, "d1"); !errors.As(err, &invalid) {
		t.Errorf("Approve after reject should be InvalidTransition, got %v", err)
	}
	if _, err := services.Review.Reject(context.Background(), adminCaller, "d1"); !errors.As(err, &invalid) {
		t.Errorf("Reject after reject should be InvalidTransition, got %v", err)
	}
	if cmsClient.CreateCalls != 0 {
		t.Errorf("Rejected draft must never reach the CMS, got %d calls", cmsClient.CreateCalls)
	}
}

func TestApprove_PublishFailureLeavesDraftApproved(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")
	cmsClient.CreateError = errors.New("cms unavailable")

	_, err := services.Review.Approve(context.Background(), adminCaller, "d1")
	if err == nil {
		t.Fatal("Expected approve to report the publish failure")
	}

	stored, _ := draftRepo.GetByID(context.Background(), "d1")
	if stored.Status != models.StatusApproved {
		t.Fatalf("Draft should remain approved after publish failure, got %s", stored.Status)
	}
	if stored.CMSDocumentID == nil || *stored.CMSDocumentID == "" {
		t.Fatal("The claimed document id should be recorded even when creation failed")
	}
	claimed := *stored.CMSDocumentID

	// Retry succeeds once the CMS recovers, without re-running approval,
	// and addresses the document id claimed by the first attempt.
	cmsClient.CreateError = nil
	draft, err := services.Review.RetryPublish(context.Background(), adminCaller, "d1")
	if err != nil {
		t.Fatalf("RetryPublish failed: %v", err)
	}
	if draft.Status != models.StatusPublished {
		t.Errorf("Expected status published after retry, got %s", draft.Status)
	}
	if *draft.CMSDocumentID != claimed {
		t.Errorf("Retry should reuse the claimed id %s, got %s", claimed, *draft.CMSDocumentID)
	}
	if cmsClient.CreateCalls != 2 {
		t.Errorf("Expected 2 creation attempts (1 failed, 1 succeeded), got %d", cmsClient.CreateCalls)
	}
	if len(cmsClient.Documents) != 1 {
		t.Errorf("Expected exactly 1 CMS document, got %d", len(cmsClient.Documents))
	}
}

func TestRetryPublish_ReusesRecordedCMSDocument(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusApproved, "Hello World")
	docID := "cms-doc-already-created"
	draftRepo.Drafts["d1"].CMSDocumentID = &docID

	draft, err := services.Review.RetryPublish(context.Background(), adminCaller, "d1")
	if err != nil {
		t.Fatalf("RetryPublish failed: %v", err)
	}
	if draft.Status != models.StatusPublished {
		t.Errorf("Expected status published, got %s", draft.Status)
	}
	if *draft.CMSDocumentID != docID {
		t.Errorf("Recorded CMS document id should be kept, got %s", *draft.CMSDocumentID)
	}
	if _, ok := cmsClient.Documents[docID]; !ok {
		t.Error("The retry should address the recorded document id")
	}
	if len(cmsClient.Documents) != 1 {
		t.Errorf("Expected exactly 1 CMS document, got %d", len(cmsClient.Documents))
	}
}

func TestRetryPublish_ConcurrentRetriesCreateOneDocument(t *testing.T) {
	services, draftRepo, _, cmsClient := setupServices()
	seedDraft(draftRepo, "d1", models.StatusApproved, "Hello World")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = services.Review.RetryPublish(context.Background(), adminCaller, "d1")
		}(i)
	}
	wg.Wait()

	var successes int
	var invalid *models.InvalidTransitionError
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, models.ErrConflict), errors.As(err, &invalid):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if successes < 1 {
		t.Error("At least one retry should succeed")
	}

	if len(cmsClient.Documents) != 1 {
		t.Fatalf("Expected exactly 1 CMS document, got %d", len(cmsClient.Documents))
	}
	stored, _ := draftRepo.GetByID(context.Background(), "d1")
	if stored.Status != models.StatusPublished {
		t.Errorf("Expected final status published, got %s", stored.Status)
	}
	if _, ok := cmsClient.Documents[*stored.CMSDocumentID]; !ok {
		t.Errorf("Draft should reference the single created document, got %s", *stored.CMSDocumentID)
	}
}

func TestRetryPublish_OnlyFromApproved(t *testing.T) {
	services, draftRepo, _, _ := setupServices()
	seedDraft(draftRepo, "d1", models.StatusDraft, "Hello World")

	_, err := services.Review.RetryPublish(context.Background(), adminCaller, "d1")
	var invalid *models.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidTransitionError, got %v", err)
	}
}

func TestListSubmitted_AdminOnlyAndOrdered(t *testing.T) {
	services, draftRepo, _, _ := setupServices()

	base := time.Now()
	for i, id := range []string{"d1", "d2", "d3"} {
		seedDraft(draftRepo, id, models.StatusSubmitted, "Title "+id)
		submitted := base.Add(time.Duration(i) * time.Minute)
		draftRepo.Drafts[id].SubmittedAt = &submitted
	}
	seedDraft(draftRepo, "d4", models.StatusDraft, "Not submitted")

	if _, err := services.Review.ListSubmitted(context.Background(), writerCaller); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for writer, got %v", err)
	}

	entries, err := services.Review.ListSubmitted(context.Background(), adminCaller)
	if err != nil {
		t.Fatalf("ListSubmitted failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 submitted drafts, got %d", len(entries))
	}
	if entries[0].ID != "d3" || entries[2].ID != "d1" {
		t.Errorf("Expected newest submission first, got %s..%s", entries[0].ID, entries[2].ID)
	}
}

func TestGetReviewDetail_RequiresAdmin(t *testing.T) {
	services, draftRepo, _, _ := setupServices()
	seedDraft(draftRepo, "d1", models.StatusSubmitted, "Hello World")

	if _, err := services.Review.GetReviewDetail(context.Background(), writerCaller, "d1"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for writer, got %v", err)
	}
	if _, err := services.Review.GetReviewDetail(context.Background(), anonymous, "d1"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for anonymous caller, got %v", err)
	}

	detail, err := services.Review.GetReviewDetail(context.Background(), adminCaller, "d1")
	if err != nil {
		t.Fatalf("GetReviewDetail failed: %v", err)
	}
	if detail.ID != "d1" || detail.SubmitterEmail == "" {
		t.Errorf("Detail should carry draft and submitter email, got %+v", detail)
	}
}
