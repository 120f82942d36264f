package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/audit/model"
	"newsletter-backend/internal/domains/audit/repository"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/logger"
)

// Recorder is the appender the other domain services depend on.
//
// Record is fire-and-forget: a failed audit append never fails the
// primary mutation, it only shows up in the operator logs.
type Recorder interface {
	Record(ctx context.Context, actor shared.Actor, action model.Action, resourceType string, resourceID uuid.UUID, detail map[string]interface{})
}

// ServiceInterface is the full audit surface (recording + admin listing).
type ServiceInterface interface {
	Recorder
	List(ctx context.Context, filter model.ListFilter) ([]model.Event, int, error)
	Prune(ctx context.Context, retention time.Duration) (int, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	now       func() time.Time
}

func NewAuditService(auditRepo repository.AuditRepository) ServiceInterface {
	return &auditService{
		auditRepo: auditRepo,
		now:       time.Now,
	}
}

// Record appends one immutable event. Errors are logged, never returned:
// by the time a caller records an event its mutation has already committed.
func (s *auditService) Record(
	ctx context.Context,
	actor shared.Actor,
	action model.Action,
	resourceType string,
	resourceID uuid.UUID,
	detail map[string]interface{},
) {
	if !action.Valid() {
		logger.Warn("audit: dropping event with unknown action", map[string]interface{}{
			"action":   string(action),
			"resource": resourceType,
		})
		return
	}

	event := &model.Event{
		ID:           uuid.New(),
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Detail:       detail,
		CreatedAt:    s.now(),
	}

	if err := s.auditRepo.Insert(ctx, event); err != nil {
		logger.Error("audit: failed to append event", err)
	}
}

func (s *auditService) List(ctx context.Context, filter model.ListFilter) ([]model.Event, int, error) {
	return s.auditRepo.List(ctx, filter)
}

// Prune removes events past the retention horizon. Called by the worker.
func (s *auditService) Prune(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := s.now().Add(-retention)
	return s.auditRepo.DeleteOlderThan(ctx, cutoff)
}
