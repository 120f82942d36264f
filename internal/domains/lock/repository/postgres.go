package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/lock/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

type postgresLockRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresLockRepository(pool *pgxpool.Pool) LockRepository {
	return &postgresLockRepository{pool: pool}
}

// TryAcquire is one conditional upsert so concurrent acquirers serialize
// on the row: the insert wins when no lock exists; the update wins when
// the caller already holds the lock or the existing one has gone stale.
// Zero rows affected means a live lock belongs to someone else.
func (r *postgresLockRepository) TryAcquire(ctx context.Context, lock *model.Lock, staleAfter time.Duration) (bool, *model.Lock, error) {
	query := `
		INSERT INTO edit_locks (issue_id, holder_id, holder_name, acquired_at, last_heartbeat)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (issue_id) DO UPDATE
		SET holder_id      = EXCLUDED.holder_id,
		    holder_name    = EXCLUDED.holder_name,
		    acquired_at    = CASE
		        WHEN edit_locks.holder_id = EXCLUDED.holder_id THEN edit_locks.acquired_at
		        ELSE EXCLUDED.acquired_at
		    END,
		    last_heartbeat = EXCLUDED.last_heartbeat
		WHERE edit_locks.holder_id = EXCLUDED.holder_id
		   OR edit_locks.last_heartbeat < $4 - $5::interval
	`

	interval := fmt.Sprintf("%d seconds", int(staleAfter.Seconds()))
	tag, err := r.pool.Exec(ctx, query,
		lock.IssueID,
		lock.HolderID,
		lock.HolderName,
		lock.LastHeartbeat,
		interval,
	)
	if err != nil {
		return false, nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return true, nil, nil
	}

	// Lost the race: report the live holder.
	current, err := r.Get(ctx, lock.IssueID)
	if err != nil {
		return false, nil, err
	}
	return false, current, nil
}

func (r *postgresLockRepository) Get(ctx context.Context, issueID uuid.UUID) (*model.Lock, error) {
	query := `
		SELECT issue_id, holder_id, holder_name, acquired_at, last_heartbeat
		FROM edit_locks
		WHERE issue_id = $1
	`

	lock := &model.Lock{}
	err := r.pool.QueryRow(ctx, query, issueID).Scan(
		&lock.IssueID,
		&lock.HolderID,
		&lock.HolderName,
		&lock.AcquiredAt,
		&lock.LastHeartbeat,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lock: %w", err)
	}

	return lock, nil
}

func (r *postgresLockRepository) Heartbeat(ctx context.Context, issueID, holderID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE edit_locks
		SET last_heartbeat = $3
		WHERE issue_id = $1 AND holder_id = $2
	`, issueID, holderID, at)
	if err != nil {
		return false, fmt.Errorf("failed to refresh heartbeat: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *postgresLockRepository) Delete(ctx context.Context, issueID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM edit_locks WHERE issue_id = $1`, issueID)
	if err != nil {
		return fmt.Errorf("failed to delete lock: %w", err)
	}
	return nil
}

func (r *postgresLockRepository) DeleteStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	interval := fmt.Sprintf("%d seconds", int(staleAfter.Seconds()))
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM edit_locks
		WHERE last_heartbeat < now() - $1::interval
	`, interval)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale locks: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
