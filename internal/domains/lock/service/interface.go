package service

import (
	"context"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/lock/model"
	"newsletter-backend/internal/shared"
)

// ServiceInterface is the lock manager contract.
//
// Clients acquire a lock before editing an issue, heartbeat it well under
// the stale threshold while the session is open, and release it on exit.
// Crashed clients never release: their locks self-expire after the stale
// threshold and get reclaimed on the next acquire or removed by the sweep.
type ServiceInterface interface {
	// Acquire grants the lock when it is free, already held by the caller
	// (idempotent refresh), or stale. On contention the result names the
	// live holder so the UI can show "locked by X since T".
	Acquire(ctx context.Context, issueID uuid.UUID, holder shared.Actor) (*model.AcquireResult, error)

	// Heartbeat extends the caller's claim. NotFound if no lock row
	// exists, Forbidden if someone else holds it.
	Heartbeat(ctx context.Context, issueID uuid.UUID, holder shared.Actor) error

	// Release drops the caller's lock. No-op success when no lock exists;
	// Forbidden when held by someone else.
	Release(ctx context.Context, issueID uuid.UUID, holder shared.Actor) error

	// ForceRelease unconditionally drops the lock. Admin only.
	ForceRelease(ctx context.Context, issueID uuid.UUID, admin shared.Actor) error

	// GetForIssue returns the live lock, or nil when absent or stale.
	// Stale locks are never surfaced with stale holder data.
	GetForIssue(ctx context.Context, issueID uuid.UUID) (*model.LockInfo, error)

	// CleanupStale sweeps every stale lock. Returns count removed.
	CleanupStale(ctx context.Context) (int, error)

	// IsHeldBy reports whether holderID owns a live lock on the issue.
	// Used by the transport-layer mutation guard.
	IsHeldBy(ctx context.Context, issueID, holderID uuid.UUID) (bool, error)
}
