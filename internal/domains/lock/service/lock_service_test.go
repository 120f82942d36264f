package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/internal/domains/lock/model"
	"newsletter-backend/internal/shared"
)

// fakeClock is an adjustable time source shared between the service and
// the in-memory repository.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeLockRepo is an in-memory LockRepository with the same atomicity
// guarantees as the Postgres implementation (serialized via mutex).
type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*model.Lock
	clock *fakeClock
}

func newFakeLockRepo(clock *fakeClock) *fakeLockRepo {
	return &fakeLockRepo{
		locks: make(map[uuid.UUID]*model.Lock),
		clock: clock,
	}
}

func (f *fakeLockRepo) TryAcquire(ctx context.Context, lock *model.Lock, staleAfter time.Duration) (bool, *model.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, exists := f.locks[lock.IssueID]
	if exists && current.HolderID != lock.HolderID && current.Live(lock.LastHeartbeat, staleAfter) {
		cp := *current
		return false, &cp, nil
	}

	stored := *lock
	if exists && current.HolderID == lock.HolderID {
		stored.AcquiredAt = current.AcquiredAt
	}
	f.locks[lock.IssueID] = &stored
	return true, nil, nil
}

func (f *fakeLockRepo) Get(ctx context.Context, issueID uuid.UUID) (*model.Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, exists := f.locks[issueID]
	if !exists {
		return nil, nil
	}
	cp := *lock
	return &cp, nil
}

func (f *fakeLockRepo) Heartbeat(ctx context.Context, issueID, holderID uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, exists := f.locks[issueID]
	if !exists || lock.HolderID != holderID {
		return false, nil
	}
	lock.LastHeartbeat = at
	return true, nil
}

func (f *fakeLockRepo) Delete(ctx context.Context, issueID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, issueID)
	return nil
}

func (f *fakeLockRepo) DeleteStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.clock.Now()
	removed := 0
	for id, lock := range f.locks {
		if !lock.Live(now, staleAfter) {
			delete(f.locks, id)
			removed++
		}
	}
	return removed, nil
}

func setupLockService(t *testing.T) (ServiceInterface, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	repo := newFakeLockRepo(clock)
	svc := NewLockServiceWithClock(repo, DefaultStaleThreshold, clock.Now)
	return svc, clock
}

func editor(name string) shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: name, Role: shared.RoleEditor}
}

func TestAcquire_FreeLock(t *testing.T) {
	svc, _ := setupLockService(t)
	issueID := uuid.New()

	result, err := svc.Acquire(context.Background(), issueID, editor("Ada"))
	require.NoError(t, err)
	assert.True(t, result.Acquired)
}

func TestAcquire_MutualExclusion(t *testing.T) {
	svc, _ := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")
	ben := editor("Ben")

	first, err := svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)
	require.True(t, first.Acquired)

	// Second acquirer loses and learns who holds the lock.
	second, err := svc.Acquire(context.Background(), issueID, ben)
	require.NoError(t, err)
	assert.False(t, second.Acquired)
	assert.Equal(t, ada.ID, second.HolderID)
	assert.Equal(t, "Ada", second.HolderName)
	assert.False(t, second.AcquiredAt.IsZero())
}

func TestAcquire_ReacquireOwnLockIsIdempotent(t *testing.T) {
	svc, clock := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")

	first, err := svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)
	require.True(t, first.Acquired)

	clock.Advance(30 * time.Second)

	again, err := svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)
	assert.True(t, again.Acquired)

	// Heartbeat was refreshed: a rival still cannot take the lock after
	// the original acquisition would have gone stale.
	clock.Advance(100 * time.Second)
	rival, err := svc.Acquire(context.Background(), issueID, editor("Ben"))
	require.NoError(t, err)
	assert.False(t, rival.Acquired)
}

func TestAcquire_StaleReclaim(t *testing.T) {
	// Scenario: A acquires, B fails within 120s, B succeeds after 121s.
	svc, clock := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")
	ben := editor("Ben")

	first, err := svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)
	require.True(t, first.Acquired)

	clock.Advance(119 * time.Second)
	blocked, err := svc.Acquire(context.Background(), issueID, ben)
	require.NoError(t, err)
	require.False(t, blocked.Acquired)
	assert.Equal(t, "Ada", blocked.HolderName)

	clock.Advance(2 * time.Second) // 121s since Ada's heartbeat
	taken, err := svc.Acquire(context.Background(), issueID, ben)
	require.NoError(t, err)
	assert.True(t, taken.Acquired)

	// The lock now belongs to Ben.
	info, err := svc.GetForIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, ben.ID, info.HolderID)
}

func TestHeartbeat(t *testing.T) {
	svc, clock := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")
	ben := editor("Ben")

	// No lock at all -> NotFound.
	err := svc.Heartbeat(context.Background(), issueID, ada)
	assert.ErrorIs(t, err, model.ErrLockNotFound)

	_, err = svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)

	// Wrong holder -> Forbidden.
	err = svc.Heartbeat(context.Background(), issueID, ben)
	assert.ErrorIs(t, err, model.ErrNotHolder)

	// Holder heartbeats keep the lock alive indefinitely.
	for i := 0; i < 5; i++ {
		clock.Advance(60 * time.Second)
		require.NoError(t, svc.Heartbeat(context.Background(), issueID, ada))
	}

	info, err := svc.GetForIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, ada.ID, info.HolderID)
}

func TestRelease(t *testing.T) {
	svc, _ := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")
	ben := editor("Ben")

	// Releasing a non-existent lock is a no-op success.
	assert.NoError(t, svc.Release(context.Background(), issueID, ada))

	_, err := svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)

	// Someone else cannot release it.
	err = svc.Release(context.Background(), issueID, ben)
	assert.ErrorIs(t, err, model.ErrNotHolder)

	// Holder can.
	require.NoError(t, svc.Release(context.Background(), issueID, ada))

	info, err := svc.GetForIssue(context.Background(), issueID)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestForceRelease(t *testing.T) {
	svc, _ := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")
	admin := shared.Actor{ID: uuid.New(), Name: "Root", Role: shared.RoleAdmin}

	_, err := svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)

	// Non-admin is rejected.
	err = svc.ForceRelease(context.Background(), issueID, editor("Ben"))
	assert.ErrorIs(t, err, model.ErrAdminRequired)

	// Admin drops it regardless of holder.
	require.NoError(t, svc.ForceRelease(context.Background(), issueID, admin))

	result, err := svc.Acquire(context.Background(), issueID, editor("Ben"))
	require.NoError(t, err)
	assert.True(t, result.Acquired)
}

func TestGetForIssue_StaleLockReportedAbsent(t *testing.T) {
	svc, clock := setupLockService(t)
	issueID := uuid.New()

	_, err := svc.Acquire(context.Background(), issueID, editor("Ada"))
	require.NoError(t, err)

	clock.Advance(121 * time.Second)

	// Row still exists but the lock is logically absent.
	info, err := svc.GetForIssue(context.Background(), issueID)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestCleanupStale(t *testing.T) {
	svc, clock := setupLockService(t)

	_, err := svc.Acquire(context.Background(), uuid.New(), editor("Ada"))
	require.NoError(t, err)
	_, err = svc.Acquire(context.Background(), uuid.New(), editor("Ben"))
	require.NoError(t, err)

	clock.Advance(60 * time.Second)

	freshIssue := uuid.New()
	_, err = svc.Acquire(context.Background(), freshIssue, editor("Cat"))
	require.NoError(t, err)

	clock.Advance(90 * time.Second) // Ada/Ben at 150s, Cat at 90s

	removed, err := svc.CleanupStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	info, err := svc.GetForIssue(context.Background(), freshIssue)
	require.NoError(t, err)
	assert.NotNil(t, info)
}

func TestIsHeldBy(t *testing.T) {
	svc, clock := setupLockService(t)
	issueID := uuid.New()
	ada := editor("Ada")

	held, err := svc.IsHeldBy(context.Background(), issueID, ada.ID)
	require.NoError(t, err)
	assert.False(t, held)

	_, err = svc.Acquire(context.Background(), issueID, ada)
	require.NoError(t, err)

	held, err = svc.IsHeldBy(context.Background(), issueID, ada.ID)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = svc.IsHeldBy(context.Background(), issueID, uuid.New())
	require.NoError(t, err)
	assert.False(t, held)

	// A stale claim no longer counts as held.
	clock.Advance(121 * time.Second)
	held, err = svc.IsHeldBy(context.Background(), issueID, ada.ID)
	require.NoError(t, err)
	assert.False(t, held)
}
