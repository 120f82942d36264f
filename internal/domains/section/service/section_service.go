package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditmodel "newsletter-backend/internal/domains/audit/model"
	auditservice "newsletter-backend/internal/domains/audit/service"
	"newsletter-backend/internal/domains/section/model"
	"newsletter-backend/internal/domains/section/repository"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/logger"
)

const sectionsCacheTTL = 5 * time.Minute

type sectionService struct {
	sectionRepo repository.SectionRepository
	audit       auditservice.Recorder
	cache       cache.Cache
	sanitize    func(string) string
}

// NewSectionService wires the section domain. sanitize is applied to
// rich-text payloads before anything touches the database.
func NewSectionService(
	sectionRepo repository.SectionRepository,
	audit auditservice.Recorder,
	cacheClient cache.Cache,
	sanitize func(string) string,
) ServiceInterface {
	return &sectionService{
		sectionRepo: sectionRepo,
		audit:       audit,
		cache:       cacheClient,
		sanitize:    sanitize,
	}
}

func sectionsCacheKey(issueID uuid.UUID) string {
	return fmt.Sprintf("issue:%s:sections", issueID)
}

// invalidate drops the cached section list and the issue snapshot.
// Cache failures are logged and swallowed; the database already holds
// the truth.
func (s *sectionService) invalidate(ctx context.Context, issueID uuid.UUID) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("issue:%s*", issueID)); err != nil {
		logger.Warn("failed to invalidate issue cache", map[string]interface{}{
			"issue_id": issueID.String(),
			"error":    err.Error(),
		})
	}
}

func (s *sectionService) Create(ctx context.Context, actor shared.Actor, issueID uuid.UUID, req model.CreateSectionRequest) (*model.Section, error) {
	section, err := s.buildSection(issueID, req)
	if err != nil {
		return nil, err
	}

	// Position is assigned inside the repository transaction (max+1),
	// serialized against concurrent creates on the same issue.
	if err := s.sectionRepo.Create(ctx, section); err != nil {
		if errors.Is(err, model.ErrIssueNotFound) {
			return nil, model.NewIssueNotFoundError()
		}
		return nil, err
	}

	s.invalidate(ctx, issueID)
	s.audit.Record(ctx, actor, auditmodel.ActionSectionCreate, "section", section.ID, map[string]interface{}{
		"issue_id": issueID.String(),
		"type":     string(section.Type),
		"position": section.Position,
	})

	return section, nil
}

func (s *sectionService) InsertAt(ctx context.Context, actor shared.Actor, issueID uuid.UUID, req model.InsertAtRequest) (*model.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	section, err := s.Create(ctx, actor, issueID, req.Section)
	if err != nil {
		return nil, err
	}

	// Splice the appended section into place with a full reorder. The
	// index is clamped: sections added by others since the client's
	// snapshot only shift the target by a slot, never lose content.
	sections, err := s.sectionRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	ordered := make([]uuid.UUID, 0, len(sections))
	for _, existing := range sections {
		if existing.ID != section.ID {
			ordered = append(ordered, existing.ID)
		}
	}

	index := req.Index
	if index > len(ordered) {
		index = len(ordered)
	}
	ordered = append(ordered[:index], append([]uuid.UUID{section.ID}, ordered[index:]...)...)

	if err := s.sectionRepo.Reorder(ctx, issueID, ordered); err != nil {
		return nil, err
	}
	section.Position = index

	s.invalidate(ctx, issueID)
	s.audit.Record(ctx, actor, auditmodel.ActionSectionReorder, "issue", issueID, map[string]interface{}{
		"inserted_id": section.ID.String(),
		"index":       index,
	})

	return section, nil
}

func (s *sectionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Section, error) {
	section, err := s.sectionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSectionNotFound) {
			return nil, model.NewSectionNotFoundError()
		}
		return nil, err
	}
	return section, nil
}

func (s *sectionService) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Section, error) {
	cacheKey := sectionsCacheKey(issueID)

	var cached []model.Section
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	sections, err := s.sectionRepo.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, sections, sectionsCacheTTL); err != nil {
		logger.Warn("failed to cache section list", map[string]interface{}{
			"issue_id": issueID.String(),
			"error":    err.Error(),
		})
	}

	return sections, nil
}

func (s *sectionService) Update(ctx context.Context, actor shared.Actor, sectionID uuid.UUID, req model.UpdateSectionRequest) (*model.Section, error) {
	section, err := s.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	changed := []string{}

	if req.Data != nil {
		if err := model.ValidatePayload(section.Type, req.Data); err != nil {
			return nil, model.NewInvalidPayloadError(err)
		}
		data, err := model.SanitizeHTML(section.Type, req.Data, s.sanitize)
		if err != nil {
			return nil, model.NewInvalidPayloadError(err)
		}
		section.Data = data
		changed = append(changed, "data")
	}
	if req.Label != nil {
		section.Label = req.Label
		changed = append(changed, "label")
	}
	if req.BackgroundColor != nil {
		section.BackgroundColor = req.BackgroundColor
		changed = append(changed, "background_color")
	}
	if req.Visible != nil {
		section.Visible = *req.Visible
		changed = append(changed, "visible")
	}

	if len(changed) == 0 {
		return section, nil
	}

	section.UpdatedAt = time.Now()
	if err := s.sectionRepo.Update(ctx, section); err != nil {
		if errors.Is(err, model.ErrSectionNotFound) {
			return nil, model.NewSectionNotFoundError()
		}
		return nil, err
	}

	s.invalidate(ctx, section.IssueID)
	s.audit.Record(ctx, actor, auditmodel.ActionSectionUpdate, "section", section.ID, map[string]interface{}{
		"issue_id": section.IssueID.String(),
		"fields":   changed,
	})

	return section, nil
}

func (s *sectionService) ToggleVisibility(ctx context.Context, actor shared.Actor, sectionID uuid.UUID) (*model.Section, error) {
	section, err := s.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	visible := !section.Visible
	return s.Update(ctx, actor, sectionID, model.UpdateSectionRequest{Visible: &visible})
}

func (s *sectionService) Duplicate(ctx context.Context, actor shared.Actor, sectionID uuid.UUID) (*model.Section, error) {
	source, err := s.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	clone := source.CloneForDuplicate()
	now := time.Now()
	clone.CreatedAt = now
	clone.UpdatedAt = now

	if err := s.sectionRepo.Create(ctx, clone); err != nil {
		if errors.Is(err, model.ErrIssueNotFound) {
			return nil, model.NewIssueNotFoundError()
		}
		return nil, err
	}

	s.invalidate(ctx, clone.IssueID)
	s.audit.Record(ctx, actor, auditmodel.ActionSectionCreate, "section", clone.ID, map[string]interface{}{
		"issue_id":        clone.IssueID.String(),
		"type":            string(clone.Type),
		"position":        clone.Position,
		"duplicated_from": source.ID.String(),
	})

	return clone, nil
}

func (s *sectionService) Remove(ctx context.Context, actor shared.Actor, sectionID uuid.UUID) error {
	section, err := s.GetByID(ctx, sectionID)
	if err != nil {
		return err
	}

	if err := s.sectionRepo.Delete(ctx, sectionID); err != nil {
		if errors.Is(err, model.ErrSectionNotFound) {
			return model.NewSectionNotFoundError()
		}
		return err
	}

	s.invalidate(ctx, section.IssueID)
	s.audit.Record(ctx, actor, auditmodel.ActionSectionDelete, "section", section.ID, map[string]interface{}{
		"issue_id": section.IssueID.String(),
		"type":     string(section.Type),
		"position": section.Position,
	})

	return nil
}

func (s *sectionService) Reorder(ctx context.Context, actor shared.Actor, issueID uuid.UUID, orderedIDs []uuid.UUID) error {
	if err := s.sectionRepo.Reorder(ctx, issueID, orderedIDs); err != nil {
		switch {
		case errors.Is(err, model.ErrIssueNotFound):
			return model.NewIssueNotFoundError()
		case errors.Is(err, model.ErrReorderMismatch):
			return model.NewReorderMismatchError()
		}
		return err
	}

	s.invalidate(ctx, issueID)
	s.audit.Record(ctx, actor, auditmodel.ActionSectionReorder, "issue", issueID, map[string]interface{}{
		"count": len(orderedIDs),
	})

	return nil
}

func (s *sectionService) IssueIDOf(ctx context.Context, sectionID uuid.UUID) (uuid.UUID, error) {
	return s.sectionRepo.IssueIDOf(ctx, sectionID)
}

// buildSection validates the request, sanitizes text payloads and
// assembles a section ready for the repository (position unassigned).
func (s *sectionService) buildSection(issueID uuid.UUID, req model.CreateSectionRequest) (*model.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sectionType := model.SectionType(req.Type)
	data, err := model.SanitizeHTML(sectionType, req.Data, s.sanitize)
	if err != nil {
		return nil, model.NewInvalidPayloadError(err)
	}

	now := time.Now()
	return &model.Section{
		ID:              uuid.New(),
		IssueID:         issueID,
		Type:            sectionType,
		Label:           req.Label,
		BackgroundColor: req.BackgroundColor,
		Visible:         true,
		Data:            data,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
