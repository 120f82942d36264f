package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditmodel "newsletter-backend/internal/domains/audit/model"
	auditservice "newsletter-backend/internal/domains/audit/service"
	"newsletter-backend/internal/domains/issue/model"
	"newsletter-backend/internal/domains/issue/repository"
	sectionrepo "newsletter-backend/internal/domains/section/repository"
	"newsletter-backend/internal/infrastructure/search"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/logger"
)

const issueCacheTTL = 5 * time.Minute

type issueService struct {
	issueRepo   repository.IssueRepository
	sectionRepo sectionrepo.SectionRepository
	audit       auditservice.Recorder
	cache       cache.Cache
	indexer     Indexer
}

func NewIssueService(
	issueRepo repository.IssueRepository,
	sectionRepo sectionrepo.SectionRepository,
	audit auditservice.Recorder,
	cacheClient cache.Cache,
	indexer Indexer,
) ServiceInterface {
	return &issueService{
		issueRepo:   issueRepo,
		sectionRepo: sectionRepo,
		audit:       audit,
		cache:       cacheClient,
		indexer:     indexer,
	}
}

func issueCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("issue:%s", id)
}

func (s *issueService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.DeletePattern(ctx, fmt.Sprintf("issue:%s*", id)); err != nil {
		logger.Warn("failed to invalidate issue cache", map[string]interface{}{
			"issue_id": id.String(),
			"error":    err.Error(),
		})
	}
}

func searchRecord(issue *model.Issue) search.IssueRecord {
	rec := search.IssueRecord{
		ID:         issue.ID.String(),
		Title:      issue.Title,
		BannerText: issue.BannerText,
		Tags:       issue.Tags,
		Status:     string(issue.Status),
	}
	if issue.PublishedAt != nil {
		rec.PublishedAt = issue.PublishedAt.Unix()
	}
	return rec
}

func (s *issueService) Create(ctx context.Context, actor shared.Actor, req model.CreateIssueRequest) (*model.Issue, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	issue := &model.Issue{
		ID:              uuid.New(),
		Title:           req.Title,
		BannerText:      req.BannerText,
		BannerMediaID:   req.BannerMediaID,
		BackgroundColor: req.BackgroundColor,
		Tags:            req.Tags,
		Status:          model.StatusDraft,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if issue.Tags == nil {
		issue.Tags = []string{}
	}

	if err := s.issueRepo.Create(ctx, issue); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, auditmodel.ActionIssueCreate, "issue", issue.ID, map[string]interface{}{
		"title": issue.Title,
	})

	return issue, nil
}

func (s *issueService) GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	cacheKey := issueCacheKey(id)

	var cached model.Issue
	if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	issue, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrIssueNotFound) {
			return nil, model.NewIssueNotFoundError()
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, issue, issueCacheTTL); err != nil {
		logger.Warn("failed to cache issue", map[string]interface{}{
			"issue_id": id.String(),
			"error":    err.Error(),
		})
	}

	return issue, nil
}

func (s *issueService) List(ctx context.Context, filter model.ListFilter) ([]model.Issue, int, error) {
	if filter.Status != "" && !model.Status(filter.Status).Valid() {
		return nil, 0, model.NewInvalidStatusError(filter.Status)
	}
	return s.issueRepo.List(ctx, filter)
}

func (s *issueService) Update(ctx context.Context, actor shared.Actor, id uuid.UUID, req model.UpdateIssueRequest) (*model.Issue, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Read-modify-write starts from the store, never the cache: a stale
	// snapshot would resurrect old field values and report a wrong version.
	issue, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrIssueNotFound) {
			return nil, model.NewIssueNotFoundError()
		}
		return nil, err
	}

	if req.Title != nil {
		issue.Title = *req.Title
	}
	if req.BannerText != nil {
		issue.BannerText = *req.BannerText
	}
	if req.BannerMediaID != nil {
		issue.BannerMediaID = req.BannerMediaID
	}
	if req.BackgroundColor != nil {
		issue.BackgroundColor = req.BackgroundColor
	}
	if req.Tags != nil {
		issue.Tags = req.Tags
	}

	if err := s.issueRepo.Update(ctx, issue); err != nil {
		if errors.Is(err, model.ErrIssueNotFound) {
			return nil, model.NewIssueNotFoundError()
		}
		return nil, err
	}
	issue.Version++

	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, auditmodel.ActionIssueUpdate, "issue", id, nil)

	// Published issues keep their search document current.
	if issue.Status == model.StatusPublished {
		if err := s.indexer.IndexIssue(searchRecord(issue)); err != nil {
			logger.Warn("failed to update search document", map[string]interface{}{
				"issue_id": id.String(),
				"error":    err.Error(),
			})
		}
	}

	return issue, nil
}

func (s *issueService) Publish(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error) {
	issue, err := s.transition(ctx, id, model.StatusPublished)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, auditmodel.ActionIssuePublish, "issue", id, nil)

	if err := s.indexer.IndexIssue(searchRecord(issue)); err != nil {
		logger.Warn("failed to index published issue", map[string]interface{}{
			"issue_id": id.String(),
			"error":    err.Error(),
		})
	}

	return issue, nil
}

func (s *issueService) Unpublish(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error) {
	issue, err := s.transition(ctx, id, model.StatusDraft)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, auditmodel.ActionIssueUnpublish, "issue", id, nil)

	if err := s.indexer.RemoveIssue(id.String()); err != nil {
		logger.Warn("failed to remove issue from search index", map[string]interface{}{
			"issue_id": id.String(),
			"error":    err.Error(),
		})
	}

	return issue, nil
}

func (s *issueService) Archive(ctx context.Context, actor shared.Actor, id uuid.UUID) (*model.Issue, error) {
	issue, err := s.transition(ctx, id, model.StatusArchived)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, auditmodel.ActionIssueArchive, "issue", id, nil)

	if err := s.indexer.RemoveIssue(id.String()); err != nil {
		logger.Warn("failed to remove issue from search index", map[string]interface{}{
			"issue_id": id.String(),
			"error":    err.Error(),
		})
	}

	return issue, nil
}

// transition validates the lifecycle move against the current status,
// then applies it with a compare-and-set so concurrent transitions
// cannot both win.
func (s *issueService) transition(ctx context.Context, id uuid.UUID, target model.Status) (*model.Issue, error) {
	current, err := s.issueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrIssueNotFound) {
			return nil, model.NewIssueNotFoundError()
		}
		return nil, err
	}

	if !current.Status.CanTransitionTo(target) {
		return nil, model.NewInvalidTransitionError(current.Status, target)
	}

	issue, err := s.issueRepo.UpdateStatus(ctx, id, current.Status, target)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrIssueNotFound):
			return nil, model.NewIssueNotFoundError()
		case errors.Is(err, model.ErrInvalidTransition):
			return nil, model.NewInvalidTransitionError(current.Status, target)
		}
		return nil, err
	}

	return issue, nil
}

func (s *issueService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := s.issueRepo.DeleteDraft(ctx, id); err != nil {
		switch {
		case errors.Is(err, model.ErrIssueNotFound):
			return model.NewIssueNotFoundError()
		case errors.Is(err, model.ErrNotDraft):
			return model.NewNotDraftError()
		}
		return err
	}

	s.invalidate(ctx, id)
	s.audit.Record(ctx, actor, auditmodel.ActionIssueUpdate, "issue", id, map[string]interface{}{
		"deleted": true,
	})

	return nil
}

func (s *issueService) CreateFromLatest(ctx context.Context, actor shared.Actor) (*model.Issue, error) {
	latest, err := s.issueRepo.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNothingToClone) {
			return nil, model.NewNothingToCloneError()
		}
		return nil, err
	}

	now := time.Now()
	draft := &model.Issue{
		ID:              uuid.New(),
		Title:           latest.Title,
		BannerText:      latest.BannerText,
		BannerMediaID:   latest.BannerMediaID,
		BackgroundColor: latest.BackgroundColor,
		Tags:            latest.Tags,
		Status:          model.StatusDraft,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.issueRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	// Sections come over with positions intact and media shared by
	// reference. The clone bump moves the new draft's version to 2.
	cloned, err := s.sectionRepo.CloneAll(ctx, latest.ID, draft.ID)
	if err != nil {
		return nil, err
	}
	if cloned > 0 {
		draft.Version++
	}

	s.audit.Record(ctx, actor, auditmodel.ActionIssueCreate, "issue", draft.ID, map[string]interface{}{
		"cloned_from":     latest.ID.String(),
		"sections_cloned": cloned,
	})

	return draft, nil
}

func (s *issueService) Reindex(ctx context.Context) (int, error) {
	issues, err := s.issueRepo.ListPublished(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]search.IssueRecord, 0, len(issues))
	for i := range issues {
		records = append(records, searchRecord(&issues[i]))
	}

	if err := s.indexer.IndexIssues(records); err != nil {
		return 0, err
	}
	return len(records), nil
}
