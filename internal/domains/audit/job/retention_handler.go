package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/audit/service"
	"newsletter-backend/pkg/logger"
)

// RetentionPayload configures one prune run. RetentionDays overrides the
// configured default when set (manual backfills).
type RetentionPayload struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

// RetentionHandler prunes audit events past the retention horizon.
// Runs daily from the scheduler. The audit table is append-only in every
// other code path; this job is the single place rows are removed.
type RetentionHandler struct {
	auditService  service.ServiceInterface
	retentionDays int
}

func NewRetentionHandler(auditService service.ServiceInterface, retentionDays int) *RetentionHandler {
	return &RetentionHandler{
		auditService:  auditService,
		retentionDays: retentionDays,
	}
}

func (h *RetentionHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload RetentionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("audit retention: bad payload", err)
		return err
	}

	days := h.retentionDays
	if payload.RetentionDays > 0 {
		days = payload.RetentionDays
	}

	removed, err := h.auditService.Prune(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		logger.Error("audit retention: prune failed", err)
		return err
	}

	log.Info().
		Int("events_removed", removed).
		Int("retention_days", days).
		Msg("Audit retention prune completed")

	return nil
}
