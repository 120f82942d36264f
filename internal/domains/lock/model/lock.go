package model

import (
	"time"

	"github.com/google/uuid"
)

// Lock is an exclusive, time-bounded claim on one issue for editing.
// At most one lock row exists per issue. A lock whose heartbeat is older
// than the stale threshold is logically absent: any holder may reclaim it
// even though the row still exists until the sweep removes it.
type Lock struct {
	IssueID       uuid.UUID `json:"issue_id"`
	HolderID      uuid.UUID `json:"holder_id"`
	HolderName    string    `json:"holder_name"`
	AcquiredAt    time.Time `json:"acquired_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Live reports whether the lock counts as held at the given instant.
func (l *Lock) Live(now time.Time, staleAfter time.Duration) bool {
	return now.Sub(l.LastHeartbeat) < staleAfter
}

// AcquireResult is the structured outcome of an acquire call. On failure
// the current holder is surfaced so the UI can show "locked by X since T"
// instead of a bare error.
type AcquireResult struct {
	Acquired   bool      `json:"acquired"`
	HolderID   uuid.UUID `json:"holder_id,omitempty"`
	HolderName string    `json:"holder_name,omitempty"`
	AcquiredAt time.Time `json:"acquired_at,omitempty"`
}

// LockInfo is the read view returned by getForIssue.
type LockInfo struct {
	IssueID       uuid.UUID `json:"issue_id"`
	HolderID      uuid.UUID `json:"holder_id"`
	HolderName    string    `json:"holder_name"`
	AcquiredAt    time.Time `json:"acquired_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}
