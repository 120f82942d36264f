package service

import (
	"context"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/section/model"
	"newsletter-backend/internal/shared"
)

// ServiceInterface defines the section business logic contract.
type ServiceInterface interface {
	// Create appends a new section to the end of the issue.
	Create(ctx context.Context, actor shared.Actor, issueID uuid.UUID, req model.CreateSectionRequest) (*model.Section, error)

	// InsertAt creates a section and splices it into the display order at
	// the requested index (clamped to the list bounds).
	InsertAt(ctx context.Context, actor shared.Actor, issueID uuid.UUID, req model.InsertAtRequest) (*model.Section, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Section, error)
	ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Section, error)

	// Update patches payload and cosmetic fields. Nil request fields are
	// left unchanged.
	Update(ctx context.Context, actor shared.Actor, sectionID uuid.UUID, req model.UpdateSectionRequest) (*model.Section, error)

	// ToggleVisibility flips the section's visible flag. A hidden section
	// keeps its position so showing it again restores the old layout.
	ToggleVisibility(ctx context.Context, actor shared.Actor, sectionID uuid.UUID) (*model.Section, error)

	// Duplicate appends a copy of the section to the end of the same
	// issue. Media references are shared, not copied.
	Duplicate(ctx context.Context, actor shared.Actor, sectionID uuid.UUID) (*model.Section, error)

	Remove(ctx context.Context, actor shared.Actor, sectionID uuid.UUID) error

	// Reorder applies a complete permutation of the issue's section ids.
	Reorder(ctx context.Context, actor shared.Actor, issueID uuid.UUID, orderedIDs []uuid.UUID) error

	// IssueIDOf resolves a section to its owning issue. Satisfies the
	// middleware.SectionResolver contract for lock enforcement.
	IssueIDOf(ctx context.Context, sectionID uuid.UUID) (uuid.UUID, error)
}
