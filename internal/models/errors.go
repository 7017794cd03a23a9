package models

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Storage errors are not represented here: they are
// wrapped with %w and propagate unchanged.
var (
	// ErrUnauthorized covers both missing authentication and a missing
	// role. The two are deliberately indistinguishable to the caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means the draft or user does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict means a conditioned update matched zero rows: another
	// caller already processed the draft, or it is no longer editable.
	ErrConflict = errors.New("conflict: draft was modified by another operation")
)

// InvalidTransitionError reports a status change not permitted from the
// draft's current status. It is detected before any mutation.
type InvalidTransitionError struct {
	Status DraftStatus
	Action ReviewAction
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s a draft in status %q", e.Action, e.Status)
}

// PublishConflictError means the CMS rejected document creation, typically
// because the slug is already taken.
type PublishConflictError struct {
	Slug string
}

func (e *PublishConflictError) Error() string {
	return fmt.Sprintf("publish conflict: a document with slug %q already exists", e.Slug)
}
