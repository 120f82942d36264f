package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/lock/service"
	"newsletter-backend/pkg/logger"
)

// CleanupStalePayload is empty today; kept as a struct so the task schema
// can grow without changing registered task signatures.
type CleanupStalePayload struct{}

// CleanupStaleHandler sweeps expired edit locks.
//
// Clients that crash or lose connectivity never call release; their locks
// go stale and would otherwise linger until someone tries to acquire that
// specific issue. The periodic sweep keeps lock listings and contention
// checks correct even for issues nobody is polling.
type CleanupStaleHandler struct {
	lockService service.ServiceInterface
}

func NewCleanupStaleHandler(lockService service.ServiceInterface) *CleanupStaleHandler {
	return &CleanupStaleHandler{lockService: lockService}
}

func (h *CleanupStaleHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload CleanupStalePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("lock cleanup: bad payload", err)
		return err
	}

	removed, err := h.lockService.CleanupStale(ctx)
	if err != nil {
		logger.Error("lock cleanup: sweep failed", err)
		return err
	}

	if removed > 0 {
		log.Info().
			Int("locks_removed", removed).
			Msg("Stale edit locks swept")
	}

	return nil
}
