package repository

import (
	"context"
	"time"

	"newsletter-backend/internal/domains/audit/model"
)

// AuditRepository persists immutable audit events.
type AuditRepository interface {
	// Insert appends one event. There is no update or single delete.
	Insert(ctx context.Context, event *model.Event) error

	// List returns events matching the filter, newest first, plus the total count.
	List(ctx context.Context, filter model.ListFilter) ([]model.Event, int, error)

	// DeleteOlderThan prunes events created before cutoff. Returns rows removed.
	// Used only by the retention job.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
