package models

import (
	"time"
)

// DraftStatus represents where a draft sits in the review pipeline
type DraftStatus string

const (
	StatusDraft     DraftStatus = "draft"
	StatusSubmitted DraftStatus = "submitted"
	StatusApproved  DraftStatus = "approved"
	StatusRejected  DraftStatus = "rejected"
	StatusPublished DraftStatus = "published"
)

// ValidStatuses defines allowed draft statuses
var ValidStatuses = map[DraftStatus]bool{
	StatusDraft:     true,
	StatusSubmitted: true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusPublished: true,
}

// ReviewAction is a requested transition on a draft
type ReviewAction string

const (
	ActionSubmit  ReviewAction = "submit"
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
	ActionPublish ReviewAction = "publish"
)

// transitions is the single source of truth for transition legality.
// rejected and published have no outgoing edges.
var transitions = map[DraftStatus]map[ReviewAction]DraftStatus{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {
		ActionPublish: StatusPublished,
	},
}

// NextStatus returns the status an action leads to from the given status,
// or an InvalidTransitionError when the action is not permitted.
func NextStatus(from DraftStatus, action ReviewAction) (DraftStatus, error) {
	if next, ok := transitions[from][action]; ok {
		return next, nil
	}
	return "", &InvalidTransitionError{Status: from, Action: action}
}

// Draft represents a writer's in-progress article in the staging store
type Draft struct {
	ID               string          `json:"id" db:"id"`
	AuthorID         string          `json:"author_id" db:"author_id"`
	AuthorRef        string          `json:"author_ref" db:"author_ref"` // CMS author document id
	Title            string          `json:"title" db:"title"`
	Subtitle         *string         `json:"subtitle,omitempty" db:"subtitle"`
	Excerpt          *string         `json:"excerpt,omitempty" db:"excerpt"`
	Body             *EditorDocument `json:"body,omitempty" db:"-"` // Stored as JSONB
	Tags             []string        `json:"tags,omitempty" db:"-"` // Stored as JSONB
	ReadTime         *int            `json:"read_time,omitempty" db:"read_time"`
	WordCount        *int            `json:"word_count,omitempty" db:"word_count"`
	FeaturedImageRef *string         `json:"featured_image_ref,omitempty" db:"featured_image_ref"`
	Status           DraftStatus     `json:"status" db:"status"`
	ReviewerID       *string         `json:"reviewer_id,omitempty" db:"reviewer_id"`
	CMSDocumentID    *string         `json:"cms_document_id,omitempty" db:"cms_document_id"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
	SubmittedAt      *time.Time      `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
	RejectedAt       *time.Time      `json:"rejected_at,omitempty" db:"rejected_at"`
	PublishedAt      *time.Time      `json:"published_at,omitempty" db:"published_at"`
}

// DraftUpdate is a partial autosave payload; nil fields are left untouched.
// Status is deliberately absent: status only moves through the review service.
type DraftUpdate struct {
	Title            *string         `json:"title,omitempty"`
	Subtitle         *string         `json:"subtitle,omitempty"`
	Excerpt          *string         `json:"excerpt,omitempty"`
	Body             *EditorDocument `json:"body,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	ReadTime         *int            `json:"read_time,omitempty"`
	WordCount        *int            `json:"word_count,omitempty"`
	FeaturedImageRef *string         `json:"featured_image_ref,omitempty"`
}

// ReviewQueueEntry is one row of the submitted-drafts listing
type ReviewQueueEntry struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	SubmitterEmail string     `json:"submitter_email"`
	WordCount      *int       `json:"word_count,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

// ReviewDetail is a draft plus its submitter's email, for the review screen
type ReviewDetail struct {
	Draft
	SubmitterEmail string `json:"submitter_email"`
}
