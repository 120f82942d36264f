package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/internal/domains/issue/model"
	sectionmodel "newsletter-backend/internal/domains/section/model"
	"newsletter-backend/internal/infrastructure/search"
	"newsletter-backend/internal/shared"

	auditmodel "newsletter-backend/internal/domains/audit/model"
)

// fakeIssueRepo mirrors the Postgres semantics: compare-and-set status
// transitions, draft-only deletion, version bump per mutation.
type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[uuid.UUID]*model.Issue
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[uuid.UUID]*model.Issue)}
}

func (f *fakeIssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *issue
	f.issues[issue.ID] = &stored
	return nil
}

func (f *fakeIssueRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, exists := f.issues[id]
	if !exists {
		return nil, model.ErrIssueNotFound
	}
	cp := *issue
	return &cp, nil
}

func (f *fakeIssueRepo) List(ctx context.Context, filter model.ListFilter) ([]model.Issue, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issues := []model.Issue{}
	for _, issue := range f.issues {
		if filter.Status != "" && string(issue.Status) != filter.Status {
			continue
		}
		issues = append(issues, *issue)
	}
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues, len(issues), nil
}

func (f *fakeIssueRepo) Update(ctx context.Context, issue *model.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, exists := f.issues[issue.ID]
	if !exists {
		return model.ErrIssueNotFound
	}
	updated := *issue
	updated.Version = existing.Version + 1
	f.issues[issue.ID] = &updated
	return nil
}

func (f *fakeIssueRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status) (*model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, exists := f.issues[id]
	if !exists {
		return nil, model.ErrIssueNotFound
	}
	if issue.Status != from {
		return nil, model.ErrInvalidTransition
	}
	issue.Status = to
	issue.Version++
	if to == model.StatusPublished {
		now := time.Now()
		issue.PublishedAt = &now
	}
	cp := *issue
	return &cp, nil
}

func (f *fakeIssueRepo) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, exists := f.issues[id]
	if !exists {
		return model.ErrIssueNotFound
	}
	if issue.Status != model.StatusDraft {
		return model.ErrNotDraft
	}
	delete(f.issues, id)
	return nil
}

func (f *fakeIssueRepo) GetLatest(ctx context.Context) (*model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Issue
	for _, issue := range f.issues {
		if latest == nil || issue.CreatedAt.After(latest.CreatedAt) {
			latest = issue
		}
	}
	if latest == nil {
		return nil, model.ErrNothingToClone
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeIssueRepo) ListPublished(ctx context.Context) ([]model.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issues := []model.Issue{}
	for _, issue := range f.issues {
		if issue.Status == model.StatusPublished {
			issues = append(issues, *issue)
		}
	}
	return issues, nil
}

// fakeSectionCloner implements the section repository surface the issue
// service touches. Only CloneAll matters here.
type fakeSectionCloner struct {
	mu       sync.Mutex
	sections map[uuid.UUID][]sectionmodel.Section
}

func newFakeSectionCloner() *fakeSectionCloner {
	return &fakeSectionCloner{sections: make(map[uuid.UUID][]sectionmodel.Section)}
}

func (f *fakeSectionCloner) seed(issueID uuid.UUID, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < count; i++ {
		f.sections[issueID] = append(f.sections[issueID], sectionmodel.Section{
			ID:       uuid.New(),
			IssueID:  issueID,
			Type:     sectionmodel.TypeText,
			Position: i,
		})
	}
}

func (f *fakeSectionCloner) CloneAll(ctx context.Context, fromIssueID, toIssueID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	source := f.sections[fromIssueID]
	for _, section := range source {
		clone := section
		clone.ID = uuid.New()
		clone.IssueID = toIssueID
		f.sections[toIssueID] = append(f.sections[toIssueID], clone)
	}
	return len(source), nil
}

func (f *fakeSectionCloner) Create(ctx context.Context, section *sectionmodel.Section) error {
	return nil
}
func (f *fakeSectionCloner) GetByID(ctx context.Context, id uuid.UUID) (*sectionmodel.Section, error) {
	return nil, sectionmodel.ErrSectionNotFound
}
func (f *fakeSectionCloner) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]sectionmodel.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sections[issueID], nil
}
func (f *fakeSectionCloner) Update(ctx context.Context, section *sectionmodel.Section) error {
	return nil
}
func (f *fakeSectionCloner) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeSectionCloner) Reorder(ctx context.Context, issueID uuid.UUID, orderedIDs []uuid.UUID) error {
	return nil
}
func (f *fakeSectionCloner) IssueIDOf(ctx context.Context, sectionID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, sectionmodel.ErrSectionNotFound
}

// fakeIndexer records index/remove calls.
type fakeIndexer struct {
	mu      sync.Mutex
	indexed map[string]search.IssueRecord
	removed []string
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: make(map[string]search.IssueRecord)}
}

func (f *fakeIndexer) IndexIssue(rec search.IssueRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[rec.ID] = rec
	return nil
}

func (f *fakeIndexer) IndexIssues(recs []search.IssueRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		f.indexed[rec.ID] = rec
	}
	return nil
}

func (f *fakeIndexer) RemoveIssue(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	delete(f.indexed, id)
	return nil
}

type recordedAction struct {
	action auditmodel.Action
	detail map[string]interface{}
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []recordedAction
}

func (f *fakeRecorder) Record(ctx context.Context, actor shared.Actor, action auditmodel.Action, resourceType string, resourceID uuid.UUID, detail map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, recordedAction{action: action, detail: detail})
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, keys ...string) error        { return nil }
func (noopCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (noopCache) Ping(ctx context.Context) error                          { return nil }

func setupIssueService(t *testing.T) (ServiceInterface, *fakeIssueRepo, *fakeSectionCloner, *fakeIndexer, *fakeRecorder) {
	t.Helper()
	issueRepo := newFakeIssueRepo()
	sections := newFakeSectionCloner()
	indexer := newFakeIndexer()
	recorder := &fakeRecorder{}
	svc := NewIssueService(issueRepo, sections, recorder, noopCache{}, indexer)
	return svc, issueRepo, sections, indexer, recorder
}

func testActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "An Editor", Role: shared.RoleEditor}
}

func TestCreateStartsAsDraftVersionOne(t *testing.T) {
	svc, _, _, _, recorder := setupIssueService(t)

	issue, err := svc.Create(context.Background(), testActor(), model.CreateIssueRequest{
		Title: "May edition",
		Tags:  []string{"monthly"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, issue.Status)
	assert.Equal(t, 1, issue.Version)
	assert.Nil(t, issue.PublishedAt)
	require.Len(t, recorder.actions, 1)
	assert.Equal(t, auditmodel.ActionIssueCreate, recorder.actions[0].action)
}

func TestCreateRequiresTitle(t *testing.T) {
	svc, _, _, _, _ := setupIssueService(t)

	_, err := svc.Create(context.Background(), testActor(), model.CreateIssueRequest{})
	require.Error(t, err)
}

func TestPublishIndexesAndStampsPublishedAt(t *testing.T) {
	svc, _, _, indexer, _ := setupIssueService(t)
	actor := testActor()

	issue, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "Launch"})
	require.NoError(t, err)

	published, err := svc.Publish(context.Background(), actor, issue.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusPublished, published.Status)
	assert.Equal(t, 2, published.Version)
	require.NotNil(t, published.PublishedAt)

	rec, ok := indexer.indexed[issue.ID.String()]
	require.True(t, ok, "published issue must land in the search index")
	assert.Equal(t, "Launch", rec.Title)
}

func TestUnpublishReturnsToDraftAndDeindexes(t *testing.T) {
	svc, _, _, indexer, _ := setupIssueService(t)
	actor := testActor()

	issue, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "Launch"})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), actor, issue.ID)
	require.NoError(t, err)

	back, err := svc.Unpublish(context.Background(), actor, issue.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, back.Status)
	assert.Contains(t, indexer.removed, issue.ID.String())
	_, stillIndexed := indexer.indexed[issue.ID.String()]
	assert.False(t, stillIndexed)
}

func TestLifecycleRejectsInvalidTransitions(t *testing.T) {
	svc, _, _, _, _ := setupIssueService(t)
	actor := testActor()

	issue, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "X"})
	require.NoError(t, err)

	// Draft cannot unpublish.
	_, err = svc.Unpublish(context.Background(), actor, issue.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	// Archived is terminal.
	_, err = svc.Archive(context.Background(), actor, issue.ID)
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), actor, issue.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestArchiveWorksFromAnyLiveStatus(t *testing.T) {
	svc, _, _, indexer, _ := setupIssueService(t)
	actor := testActor()

	draft, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "draft one"})
	require.NoError(t, err)
	_, err = svc.Archive(context.Background(), actor, draft.ID)
	require.NoError(t, err)

	published, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "published one"})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), actor, published.ID)
	require.NoError(t, err)
	archived, err := svc.Archive(context.Background(), actor, published.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusArchived, archived.Status)
	assert.Contains(t, indexer.removed, published.ID.String())
}

func TestDeleteOnlyDrafts(t *testing.T) {
	svc, repo, _, _, _ := setupIssueService(t)
	actor := testActor()

	draft, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "junk"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), actor, draft.ID))
	_, err = repo.GetByID(context.Background(), draft.ID)
	assert.ErrorIs(t, err, model.ErrIssueNotFound)

	published, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "keeper"})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), actor, published.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), actor, published.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotDraft)
}

func TestCreateFromLatestClonesMetadataAndSections(t *testing.T) {
	svc, _, sections, _, recorder := setupIssueService(t)
	actor := testActor()

	color := "#ffffff"
	source, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{
		Title:           "April edition",
		BannerText:      "Spring news",
		BackgroundColor: &color,
		Tags:            []string{"monthly", "spring"},
	})
	require.NoError(t, err)
	sections.seed(source.ID, 3)

	draft, err := svc.CreateFromLatest(context.Background(), actor)
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, draft.ID)
	assert.Equal(t, model.StatusDraft, draft.Status)
	assert.Equal(t, "April edition", draft.Title)
	assert.Equal(t, "Spring news", draft.BannerText)
	assert.Equal(t, []string{"monthly", "spring"}, draft.Tags)

	cloned, err := sections.ListByIssue(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Len(t, cloned, 3)

	// The clone is a new draft, not a pointer back at the source.
	for _, section := range cloned {
		assert.Equal(t, draft.ID, section.IssueID)
	}

	last := recorder.actions[len(recorder.actions)-1]
	assert.Equal(t, auditmodel.ActionIssueCreate, last.action)
	assert.Equal(t, source.ID.String(), last.detail["cloned_from"])
}

func TestCreateFromLatestWithEmptyTable(t *testing.T) {
	svc, _, _, _, _ := setupIssueService(t)

	_, err := svc.CreateFromLatest(context.Background(), testActor())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNothingToClone)
}

func TestReindexPushesOnlyPublished(t *testing.T) {
	svc, _, _, indexer, _ := setupIssueService(t)
	actor := testActor()

	_, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "draft"})
	require.NoError(t, err)

	published, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{Title: "live"})
	require.NoError(t, err)
	_, err = svc.Publish(context.Background(), actor, published.ID)
	require.NoError(t, err)

	// Simulate index loss, then repair.
	indexer.indexed = make(map[string]search.IssueRecord)

	count, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	_, ok := indexer.indexed[published.ID.String()]
	assert.True(t, ok)
}

func TestUpdatePatchesMetadataAndBumpsVersion(t *testing.T) {
	svc, _, _, _, _ := setupIssueService(t)
	actor := testActor()

	issue, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{
		Title:      "Before",
		BannerText: "keep me",
	})
	require.NoError(t, err)

	title := "After"
	updated, err := svc.Update(context.Background(), actor, issue.ID, model.UpdateIssueRequest{
		Title: &title,
	})
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, "keep me", updated.BannerText)
	assert.Equal(t, 2, updated.Version)
}

// staleCache always serves the snapshot it was primed with, standing in
// for a cache whose invalidation was lost.
type staleCache struct {
	snapshot *model.Issue
}

func (c *staleCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c.snapshot == nil {
		return false, nil
	}
	if out, ok := dest.(*model.Issue); ok {
		*out = *c.snapshot
		return true, nil
	}
	return false, nil
}
func (c *staleCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (c *staleCache) Delete(ctx context.Context, keys ...string) error        { return nil }
func (c *staleCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (c *staleCache) Ping(ctx context.Context) error                          { return nil }

func TestUpdateIgnoresStaleCachedSnapshot(t *testing.T) {
	issueRepo := newFakeIssueRepo()
	cache := &staleCache{}
	svc := NewIssueService(issueRepo, newFakeSectionCloner(), &fakeRecorder{}, cache, newFakeIndexer())
	actor := testActor()

	issue, err := svc.Create(context.Background(), actor, model.CreateIssueRequest{
		Title: "May edition",
	})
	require.NoError(t, err)

	// The cache keeps serving the freshly created snapshot from here on.
	stale := *issue
	cache.snapshot = &stale

	banner := "Fresh banner"
	_, err = svc.Update(context.Background(), actor, issue.ID, model.UpdateIssueRequest{
		BannerText: &banner,
	})
	require.NoError(t, err)

	// A later patch must start from the store, not the stale snapshot:
	// the banner survives and the version keeps counting.
	title := "June edition"
	updated, err := svc.Update(context.Background(), actor, issue.ID, model.UpdateIssueRequest{
		Title: &title,
	})
	require.NoError(t, err)

	assert.Equal(t, "June edition", updated.Title)
	assert.Equal(t, "Fresh banner", updated.BannerText)
	assert.Equal(t, 3, updated.Version)
}
