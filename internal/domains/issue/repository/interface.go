package repository

import (
	"context"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/issue/model"
)

// IssueRepository persists issues and owns the version counter writes
// for issue-level mutations. Section-level mutations bump the same
// counter from the section repository, always inside the mutating
// transaction.
type IssueRepository interface {
	// Create inserts a new draft with version 1.
	Create(ctx context.Context, issue *model.Issue) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error)

	List(ctx context.Context, filter model.ListFilter) ([]model.Issue, int, error)

	// Update rewrites metadata and bumps version by one atomically.
	Update(ctx context.Context, issue *model.Issue) error

	// UpdateStatus moves the lifecycle with a compare-and-set on the
	// current status, bumping version in the same statement. Returns
	// model.ErrInvalidTransition when the row's status is no longer
	// `from` by the time the update runs.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status) (*model.Issue, error)

	// DeleteDraft removes a draft and everything hanging off it
	// (sections, edit lock) via FK cascade. Returns model.ErrNotDraft
	// when the issue exists but is not a draft.
	DeleteDraft(ctx context.Context, id uuid.UUID) error

	// GetLatest returns the most recently created issue of any status,
	// or model.ErrNothingToClone when the table is empty.
	GetLatest(ctx context.Context) (*model.Issue, error)

	// ListPublished returns every published issue. Used by the search
	// reindex job.
	ListPublished(ctx context.Context) ([]model.Issue, error)
}
