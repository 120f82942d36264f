package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/lock/model"
	"newsletter-backend/internal/domains/lock/repository"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/logger"
)

// DefaultStaleThreshold is how long a lock survives without a heartbeat.
const DefaultStaleThreshold = 120 * time.Second

// =====================================================
// SERVICE IMPLEMENTATION
// =====================================================

type lockService struct {
	lockRepo   repository.LockRepository
	staleAfter time.Duration
	now        func() time.Time
}

func NewLockService(lockRepo repository.LockRepository, staleAfter time.Duration) ServiceInterface {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleThreshold
	}
	return &lockService{
		lockRepo:   lockRepo,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// NewLockServiceWithClock injects the clock. Tests use this to age locks
// past the stale threshold without sleeping.
func NewLockServiceWithClock(lockRepo repository.LockRepository, staleAfter time.Duration, now func() time.Time) ServiceInterface {
	svc := NewLockService(lockRepo, staleAfter).(*lockService)
	svc.now = now
	return svc
}

func (s *lockService) Acquire(ctx context.Context, issueID uuid.UUID, holder shared.Actor) (*model.AcquireResult, error) {
	lock := &model.Lock{
		IssueID:       issueID,
		HolderID:      holder.ID,
		HolderName:    holder.Name,
		AcquiredAt:    s.now(),
		LastHeartbeat: s.now(),
	}

	acquired, current, err := s.lockRepo.TryAcquire(ctx, lock, s.staleAfter)
	if err != nil {
		return nil, err
	}

	if acquired {
		return &model.AcquireResult{Acquired: true}, nil
	}

	// Lost to a live holder. Surface who and since when; the repo can
	// return nil if the lock vanished between the attempt and the read,
	// in which case the client simply retries.
	result := &model.AcquireResult{Acquired: false}
	if current != nil {
		result.HolderID = current.HolderID
		result.HolderName = current.HolderName
		result.AcquiredAt = current.AcquiredAt
	}

	return result, nil
}

func (s *lockService) Heartbeat(ctx context.Context, issueID uuid.UUID, holder shared.Actor) error {
	refreshed, err := s.lockRepo.Heartbeat(ctx, issueID, holder.ID, s.now())
	if err != nil {
		return err
	}
	if refreshed {
		return nil
	}

	// Distinguish "no lock" from "someone else's lock" for the caller.
	current, err := s.lockRepo.Get(ctx, issueID)
	if err != nil {
		return err
	}
	if current == nil {
		return model.NewLockNotFoundError()
	}
	return model.NewNotHolderError()
}

func (s *lockService) Release(ctx context.Context, issueID uuid.UUID, holder shared.Actor) error {
	current, err := s.lockRepo.Get(ctx, issueID)
	if err != nil {
		return err
	}
	if current == nil {
		// Releasing an unheld lock is fine: the client may have raced the
		// stale sweep or a force-release.
		return nil
	}
	if current.HolderID != holder.ID {
		return model.NewNotHolderError()
	}

	return s.lockRepo.Delete(ctx, issueID)
}

func (s *lockService) ForceRelease(ctx context.Context, issueID uuid.UUID, admin shared.Actor) error {
	if admin.Role != shared.RoleAdmin {
		return model.NewAdminRequiredError()
	}

	logger.Info("force-releasing edit lock", map[string]interface{}{
		"issue_id": issueID.String(),
		"admin":    admin.Name,
	})

	return s.lockRepo.Delete(ctx, issueID)
}

func (s *lockService) GetForIssue(ctx context.Context, issueID uuid.UUID) (*model.LockInfo, error) {
	lock, err := s.lockRepo.Get(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if lock == nil || !lock.Live(s.now(), s.staleAfter) {
		return nil, nil
	}

	return &model.LockInfo{
		IssueID:       lock.IssueID,
		HolderID:      lock.HolderID,
		HolderName:    lock.HolderName,
		AcquiredAt:    lock.AcquiredAt,
		LastHeartbeat: lock.LastHeartbeat,
	}, nil
}

func (s *lockService) CleanupStale(ctx context.Context) (int, error) {
	return s.lockRepo.DeleteStale(ctx, s.staleAfter)
}

func (s *lockService) IsHeldBy(ctx context.Context, issueID, holderID uuid.UUID) (bool, error) {
	lock, err := s.lockRepo.Get(ctx, issueID)
	if err != nil {
		return false, err
	}
	if lock == nil || !lock.Live(s.now(), s.staleAfter) {
		return false, nil
	}
	return lock.HolderID == holderID, nil
}
