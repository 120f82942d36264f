package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/issue/service"
	"newsletter-backend/pkg/logger"
)

// ReindexPayload is empty today; kept as a struct so the task schema
// can grow without changing registered task signatures.
type ReindexPayload struct{}

// ReindexHandler re-pushes every published issue into the search index.
// Publish-time indexing is best-effort and silently skipped while
// Meilisearch is down; this nightly job repairs whatever drifted.
type ReindexHandler struct {
	issueService service.ServiceInterface
}

func NewReindexHandler(issueService service.ServiceInterface) *ReindexHandler {
	return &ReindexHandler{issueService: issueService}
}

func (h *ReindexHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload ReindexPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("search reindex: bad payload", err)
		return err
	}

	indexed, err := h.issueService.Reindex(ctx)
	if err != nil {
		logger.Error("search reindex: failed", err)
		return err
	}

	log.Info().
		Int("issues_indexed", indexed).
		Msg("Search reindex completed")

	return nil
}
