package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/lock/model"
)

// LockRepository persists per-issue edit locks.
//
// TryAcquire is the only compound primitive: it must be atomic so two
// concurrent acquirers for the same issue cannot both win. The Postgres
// implementation uses a single conditional upsert; the in-memory fake
// used in tests serializes with a mutex.
type LockRepository interface {
	// TryAcquire creates or takes over the lock for lock.IssueID when the
	// issue is unlocked, already held by lock.HolderID, or the existing
	// lock is stale. Returns (true, nil, nil) on success; on contention
	// returns (false, currentHolder, nil).
	TryAcquire(ctx context.Context, lock *model.Lock, staleAfter time.Duration) (bool, *model.Lock, error)

	// Get returns the lock row for an issue, nil if none exists.
	// Staleness is not evaluated here; callers decide.
	Get(ctx context.Context, issueID uuid.UUID) (*model.Lock, error)

	// Heartbeat refreshes last_heartbeat for the holder's lock.
	// Returns false if no row matched (missing or held by someone else).
	Heartbeat(ctx context.Context, issueID, holderID uuid.UUID, at time.Time) (bool, error)

	// Delete removes the lock unconditionally (release, forceRelease).
	Delete(ctx context.Context, issueID uuid.UUID) error

	// DeleteStale removes every lock whose heartbeat is older than
	// staleAfter. Returns the number removed.
	DeleteStale(ctx context.Context, staleAfter time.Duration) (int, error)
}
