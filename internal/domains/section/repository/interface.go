package repository

import (
	"context"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/section/model"
)

// SectionRepository persists the ordered section list of an issue.
//
// Every mutating method commits the section write and the owning issue's
// version bump in one transaction, and serializes per issue by locking
// the issue row first. That per-row serialization is what guarantees two
// concurrent creates can never be assigned the same position.
type SectionRepository interface {
	// Create inserts the section with position = max(existing)+1 (0 when
	// the issue has none). Any position on the passed section is ignored.
	// Returns model.ErrIssueNotFound if the issue does not exist.
	Create(ctx context.Context, section *model.Section) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Section, error)

	// ListByIssue returns the issue's sections ordered by position.
	ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Section, error)

	// Update rewrites payload and cosmetic fields. Position is never
	// touched here; only Reorder moves sections.
	Update(ctx context.Context, section *model.Section) error

	// Delete removes one section. Surviving siblings keep their positions
	// (gaps are fine; only relative order matters).
	Delete(ctx context.Context, id uuid.UUID) error

	// Reorder restamps position = index for the complete id permutation.
	// Returns model.ErrReorderMismatch unless orderedIDs contains exactly
	// the issue's current section ids. One version bump for the batch.
	Reorder(ctx context.Context, issueID uuid.UUID, orderedIDs []uuid.UUID) error

	// CloneAll copies every section of fromIssue into toIssue, preserving
	// positions and sharing payloads by reference. Returns count cloned.
	CloneAll(ctx context.Context, fromIssueID, toIssueID uuid.UUID) (int, error)

	// IssueIDOf resolves a section to its owning issue.
	IssueIDOf(ctx context.Context, sectionID uuid.UUID) (uuid.UUID, error)
}
