package main

import (
	"github.com/hibiken/asynq"

	auditJob "newsletter-backend/internal/domains/audit/job"
	issueJob "newsletter-backend/internal/domains/issue/job"
	lockJob "newsletter-backend/internal/domains/lock/job"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Lock maintenance
	cleanupStaleLocks *lockJob.CleanupStaleHandler

	// Audit maintenance
	auditRetention *auditJob.RetentionHandler

	// Search maintenance
	searchReindex *issueJob.ReindexHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		cleanupStaleLocks: lockJob.NewCleanupStaleHandler(c.LockService),
		auditRetention: auditJob.NewRetentionHandler(
			c.AuditService,
			c.Config.Audit.RetentionDays,
		),
		searchReindex: issueJob.NewReindexHandler(c.IssueService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeCleanupStaleLocks, h.cleanupStaleLocks.ProcessTask)
	mux.HandleFunc(shared.TypeAuditRetention, h.auditRetention.ProcessTask)
	mux.HandleFunc(shared.TypeSearchReindex, h.searchReindex.ProcessTask)
}
