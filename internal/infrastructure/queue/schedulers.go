package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	auditjob "newsletter-backend/internal/domains/audit/job"
	issuejob "newsletter-backend/internal/domains/issue/job"
	lockjob "newsletter-backend/internal/domains/lock/job"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddress string) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerCleanupStaleLocksJob(); err != nil {
		return err
	}

	if err := s.registerAuditRetentionJob(); err != nil {
		return err
	}

	return s.registerSearchReindexJob()
}

// ================================================
// JOB 1: Cleanup Stale Edit Locks (Every minute)
// ================================================
// Locks go stale 120s after the last heartbeat. Sweeping every minute
// keeps the window in which a crashed editor blocks an issue short
// without hammering the database.
func (s *Scheduler) registerCleanupStaleLocksJob() error {
	payload, err := json.Marshal(lockjob.CleanupStalePayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeCleanupStaleLocks, payload)

	_, err = s.scheduler.Register(
		"* * * * *", // Every minute
		task,
		asynq.Queue(shared.QueueHigh),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register CleanupStaleLocks job", err)
		return err
	}

	logger.Info("Registered CleanupStaleLocks: every minute", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Audit Retention Prune (Daily at 3 AM)
// ================================================
// Low traffic time. The audit table is append-only everywhere else;
// this is the single code path that removes rows.
func (s *Scheduler) registerAuditRetentionJob() error {
	payload, err := json.Marshal(auditjob.RetentionPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeAuditRetention, payload)

	_, err = s.scheduler.Register(
		"0 3 * * *", // Daily at 3 AM
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register AuditRetention job", err)
		return err
	}

	logger.Info("Registered AuditRetention: daily at 3 AM", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 3: Search Reindex (Daily at 4 AM)
// ================================================
// Staggered an hour after the audit prune. Repairs index drift caused
// by Meilisearch downtime during publishes.
func (s *Scheduler) registerSearchReindexJob() error {
	payload, err := json.Marshal(issuejob.ReindexPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeSearchReindex, payload)

	_, err = s.scheduler.Register(
		"0 4 * * *", // Daily at 4 AM
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register SearchReindex job", err)
		return err
	}

	logger.Info("Registered SearchReindex: daily at 4 AM", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
