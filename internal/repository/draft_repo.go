package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/newsroom-publishing-api/internal/database"
	"github.com/newsroom-publishing-api/internal/models"
)

// draftRepo is the concrete implementation of DraftRepository
type draftRepo struct {
	db *database.DB
}

// NewDraftRepo creates a new draft repository
func NewDraftRepo(db *database.DB) DraftRepository {
	return &draftRepo{db: db}
}

const draftColumns = `id, author_id, author_ref, title, subtitle, excerpt, body, tags,
	read_time, word_count, featured_image_ref, status, reviewer_id, cms_document_id,
	created_at, updated_at, submitted_at, approved_at, rejected_at, published_at`

// Create inserts a new draft (status is always "draft" on creation)
func (r *draftRepo) Create(ctx context.Context, draft *models.Draft) error {
	bodyJSON, err := marshalNullable(draft.Body)
	if err != nil {
		return fmt.Errorf("failed to encode draft body: %w", err)
	}
	tagsJSON, err := marshalNullable(draft.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode draft tags: %w", err)
	}

	query := `
		INSERT INTO drafts (id, author_id, author_ref, title, subtitle, excerpt, body, tags,
			read_time, word_count, featured_image_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`
	_, err = r.db.ExecContext(ctx, query,
		draft.ID, draft.AuthorID, draft.AuthorRef, draft.Title, draft.Subtitle, draft.Excerpt,
		bodyJSON, tagsJSON, draft.ReadTime, draft.WordCount, draft.FeaturedImageRef,
		models.StatusDraft, draft.CreatedAt,
	)
	return err
}

// GetByID retrieves a draft by ID. Returns nil when no row exists.
func (r *draftRepo) GetByID(ctx context.Context, id string) (*models.Draft, error) {
	query := fmt.Sprintf(`SELECT %s FROM drafts WHERE id = $1`, draftColumns)
	return scanDraft(r.db.QueryRowContext(ctx, query, id))
}

// GetDetail retrieves a draft plus its submitter's email
func (r *draftRepo) GetDetail(ctx context.Context, id string) (*models.ReviewDetail, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.email
		FROM drafts d JOIN users u ON u.id = d.author_id
		WHERE d.id = $1
	`, prefixColumns("d"))

	row := r.db.QueryRowContext(ctx, query, id)
	var detail models.ReviewDetail
	if err := scanDraftInto(row, &detail.Draft, &detail.SubmitterEmail); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &detail, nil
}

// Autosave applies a partial update to a draft. The update is conditioned on
// status still being "draft": once a draft enters review, writer autosaves
// match zero rows and are reported as such rather than silently de-syncing a
// locked draft.
func (r *draftRepo) Autosave(ctx context.Context, id string, upd *models.DraftUpdate) (bool, error) {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{}
	idx := 1

	add := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, idx))
		args = append(args, value)
		idx++
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Subtitle != nil {
		add("subtitle", *upd.Subtitle)
	}
	if upd.Excerpt != nil {
		add("excerpt", *upd.Excerpt)
	}
	if upd.Body != nil {
		bodyJSON, err := json.Marshal(upd.Body)
		if err != nil {
			return false, fmt.Errorf("failed to encode draft body: %w", err)
		}
		add("body", bodyJSON)
	}
	if upd.Tags != nil {
		tagsJSON, err := json.Marshal(upd.Tags)
		if err != nil {
			return false, fmt.Errorf("failed to encode draft tags: %w", err)
		}
		add("tags", tagsJSON)
	}
	if upd.ReadTime != nil {
		add("read_time", *upd.ReadTime)
	}
	if upd.WordCount != nil {
		add("word_count", *upd.WordCount)
	}
	if upd.FeaturedImageRef != nil {
		add("featured_image_ref", *upd.FeaturedImageRef)
	}

	query := fmt.Sprintf(
		"UPDATE drafts SET %s WHERE id = $%d AND status = $%d",
		strings.Join(set, ", "), idx, idx+1,
	)
	args = append(args, id, models.StatusDraft)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListByAuthor retrieves a writer's drafts, most recently updated first
func (r *draftRepo) ListByAuthor(ctx context.Context, authorID string, limit int) ([]*models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM drafts WHERE author_id = $1
		ORDER BY updated_at DESC LIMIT $2
	`, draftColumns)

	rows, err := r.db.QueryContext(ctx, query, authorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		var draft models.Draft
		if err := scanDraftInto(rows, &draft); err != nil {
			return nil, err
		}
		drafts = append(drafts, &draft)
	}
	return drafts, rows.Err()
}

// ListSubmitted retrieves the review queue: submitted drafts with their
// submitter's email, newest submission first
func (r *draftRepo) ListSubmitted(ctx context.Context, limit int) ([]*models.ReviewQueueEntry, error) {
	query := `
		SELECT d.id, d.title, u.email, d.word_count, d.submitted_at
		FROM drafts d JOIN users u ON u.id = d.author_id
		WHERE d.status = $1
		ORDER BY d.submitted_at DESC LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, models.StatusSubmitted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.ReviewQueueEntry
	for rows.Next() {
		var entry models.ReviewQueueEntry
		var wordCount sql.NullInt64
		var submittedAt sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.SubmitterEmail, &wordCount, &submittedAt); err != nil {
			return nil, err
		}
		if wordCount.Valid {
			wc := int(wordCount.Int64)
			entry.WordCount = &wc
		}
		if submittedAt.Valid {
			entry.SubmittedAt = &submittedAt.Time
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ListStuckApproved retrieves drafts stuck in "approved" longer than the
// given duration, for the publish retry processor
func (r *draftRepo) ListStuckApproved(ctx context.Context, olderThan time.Duration) ([]*models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM drafts
		WHERE status = $1 AND approved_at < $2
		ORDER BY approved_at
	`, draftColumns)

	rows, err := r.db.QueryContext(ctx, query, models.StatusApproved, time.Now().Add(-olderThan))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		var draft models.Draft
		if err := scanDraftInto(rows, &draft); err != nil {
			return nil, err
		}
		drafts = append(drafts, &draft)
	}
	return drafts, rows.Err()
}

// MarkSubmitted atomically moves a draft from "draft" to "submitted".
// Returns false when the draft is no longer in "draft".
func (r *draftRepo) MarkSubmitted(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE drafts SET status = $1, submitted_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, models.StatusSubmitted, id, models.StatusDraft)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkReviewed atomically moves a submitted draft to "approved" or
// "rejected", stamping the reviewer. This is the lock phase: at most one
// concurrent reviewer can match the row.
func (r *draftRepo) MarkReviewed(ctx context.Context, id, reviewerID string, to models.DraftStatus) (bool, error) {
	var stampColumn string
	switch to {
	case models.StatusApproved:
		stampColumn = "approved_at"
	case models.StatusRejected:
		stampColumn = "rejected_at"
	default:
		return false, fmt.Errorf("invalid review outcome %q", to)
	}

	query := fmt.Sprintf(`
		UPDATE drafts SET status = $1, reviewer_id = $2, %s = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, stampColumn)

	result, err := r.db.ExecContext(ctx, query, to, reviewerID, id, models.StatusSubmitted)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// RecordCMSDocument claims the CMS document id on a still-approved draft
// before the CMS is called. The IS NULL condition admits exactly one
// claimant, so concurrent publish attempts and post-crash retries all
// address the same document.
func (r *draftRepo) RecordCMSDocument(ctx context.Context, id, cmsDocumentID string) (bool, error) {
	query := `
		UPDATE drafts SET cms_document_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND cms_document_id IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, cmsDocumentID, id, models.StatusApproved)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkPublished atomically moves an approved draft to "published", recording
// the CMS document it was published as
func (r *draftRepo) MarkPublished(ctx context.Context, id, cmsDocumentID string) (bool, error) {
	query := `
		UPDATE drafts SET status = $1, cms_document_id = $2, published_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.StatusPublished, cmsDocumentID, id, models.StatusApproved)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CountByStatus returns draft counts per status, for the metrics endpoint
func (r *draftRepo) CountByStatus(ctx context.Context) (map[models.DraftStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM drafts GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.DraftStatus]int)
	for rows.Next() {
		var status models.DraftStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanDraft scans a single draft row, mapping ErrNoRows to (nil, nil)
func scanDraft(row scanner) (*models.Draft, error) {
	var draft models.Draft
	if err := scanDraftInto(row, &draft); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

// scanDraftInto scans the draft columns (plus any extra destinations) into a
// Draft, decoding the JSONB body and tags columns
func scanDraftInto(row scanner, draft *models.Draft, extra ...interface{}) error {
	var subtitle, excerpt, featuredImageRef, reviewerID, cmsDocumentID sql.NullString
	var bodyJSON, tagsJSON []byte
	var readTime, wordCount sql.NullInt64
	var submittedAt, approvedAt, rejectedAt, publishedAt sql.NullTime

	dest := []interface{}{
		&draft.ID, &draft.AuthorID, &draft.AuthorRef, &draft.Title, &subtitle, &excerpt,
		&bodyJSON, &tagsJSON, &readTime, &wordCount, &featuredImageRef,
		&draft.Status, &reviewerID, &cmsDocumentID,
		&draft.CreatedAt, &draft.UpdatedAt, &submittedAt, &approvedAt, &rejectedAt, &publishedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return err
	}

	if subtitle.Valid {
		draft.Subtitle = &subtitle.String
	}
	if excerpt.Valid {
		draft.Excerpt = &excerpt.String
	}
	if featuredImageRef.Valid {
		draft.FeaturedImageRef = &featuredImageRef.String
	}
	if reviewerID.Valid {
		draft.ReviewerID = &reviewerID.String
	}
	if cmsDocumentID.Valid {
		draft.CMSDocumentID = &cmsDocumentID.String
	}
	if len(bodyJSON) > 0 {
		if err := json.Unmarshal(bodyJSON, &draft.Body); err != nil {
			return fmt.Errorf("failed to decode draft body: %w", err)
		}
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &draft.Tags); err != nil {
			return fmt.Errorf("failed to decode draft tags: %w", err)
		}
	}
	if readTime.Valid {
		rt := int(readTime.Int64)
		draft.ReadTime = &rt
	}
	if wordCount.Valid {
		wc := int(wordCount.Int64)
		draft.WordCount = &wc
	}
	if submittedAt.Valid {
		draft.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		draft.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		draft.RejectedAt = &rejectedAt.Time
	}
	if publishedAt.Valid {
		draft.PublishedAt = &publishedAt.Time
	}
	return nil
}

// marshalNullable encodes v as JSON, keeping SQL NULL for nil values
func marshalNullable(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case *models.EditorDocument:
		if val == nil {
			return nil, nil
		}
	case []string:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// prefixColumns qualifies the draft column list with a table alias
func prefixColumns(alias string) string {
	parts := strings.Split(draftColumns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
