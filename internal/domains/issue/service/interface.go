package service

import (
	"context"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/issue/model"
	"newsletter-backend/internal/infrastructure/search"
	"newsletter-backend/internal/shared"
)

// Indexer is the slice of the search backend the issue service needs.
// Indexing is best-effort: failures are logged and repaired by the
// nightly reindex job.
type Indexer interface {
	IndexIssue(rec search.IssueRecord) error
	IndexIssues(recs []search.IssueRecord) error
	RemoveIssue(id string) error
}

// ServiceInterface defines the issue business logic contract.
type ServiceInterface interface {
	Create(ctx context.Context, actor shared.Actor, req model.CreateIssueRequest) (*model.Issue, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Issue, int, error)
	Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req model.UpdateIssueRequest) (*model.Issue, error)

	// Lifecycle transitions. Each is a compare-and-set against the
	// current status; a concurrent transition surfaces as a conflict.
	Publish(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error)
	Unpublish(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error)
	Archive(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error)

	// Delete removes a draft and its sections. Published and archived
	// issues refuse.
	Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error

	// CreateFromLatest starts a new draft prefilled from the most
	// recently created issue: metadata copied, sections cloned with
	// shared media references.
	CreateFromLatest(ctx context.Context, actor shared.Actor) (*model.Issue, error)

	// Reindex pushes every published issue into the search index.
	// Called by the worker's nightly job.
	Reindex(ctx context.Context) (int, error)
}
