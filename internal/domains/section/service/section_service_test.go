package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditmodel "newsletter-backend/internal/domains/audit/model"
	"newsletter-backend/internal/domains/section/model"
	"newsletter-backend/internal/shared"
)

// fakeSectionRepo is an in-memory SectionRepository with the same
// semantics as the Postgres implementation: append-only positions,
// set-equality reorder, one version bump per mutating call.
type fakeSectionRepo struct {
	mu       sync.Mutex
	sections map[uuid.UUID]*model.Section
	versions map[uuid.UUID]int
}

func newFakeSectionRepo(issueIDs ...uuid.UUID) *fakeSectionRepo {
	repo := &fakeSectionRepo{
		sections: make(map[uuid.UUID]*model.Section),
		versions: make(map[uuid.UUID]int),
	}
	for _, id := range issueIDs {
		repo.versions[id] = 1
	}
	return repo
}

func (f *fakeSectionRepo) Create(ctx context.Context, section *model.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.versions[section.IssueID]; !exists {
		return model.ErrIssueNotFound
	}

	position := 0
	for _, existing := range f.sections {
		if existing.IssueID == section.IssueID && existing.Position >= position {
			position = existing.Position + 1
		}
	}
	section.Position = position

	stored := *section
	f.sections[section.ID] = &stored
	f.versions[section.IssueID]++
	return nil
}

func (f *fakeSectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	section, exists := f.sections[id]
	if !exists {
		return nil, model.ErrSectionNotFound
	}
	cp := *section
	return &cp, nil
}

func (f *fakeSectionRepo) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sections := []model.Section{}
	for _, section := range f.sections {
		if section.IssueID == issueID {
			sections = append(sections, *section)
		}
	}
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].Position < sections[j].Position
	})
	return sections, nil
}

func (f *fakeSectionRepo) Update(ctx context.Context, section *model.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, exists := f.sections[section.ID]
	if !exists {
		return model.ErrSectionNotFound
	}
	updated := *section
	updated.Position = existing.Position
	f.sections[section.ID] = &updated
	f.versions[section.IssueID]++
	return nil
}

func (f *fakeSectionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	section, exists := f.sections[id]
	if !exists {
		return model.ErrSectionNotFound
	}
	delete(f.sections, id)
	f.versions[section.IssueID]++
	return nil
}

func (f *fakeSectionRepo) Reorder(ctx context.Context, issueID uuid.UUID, orderedIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.versions[issueID]; !exists {
		return model.ErrIssueNotFound
	}

	current := make(map[uuid.UUID]bool)
	for _, section := range f.sections {
		if section.IssueID == issueID {
			current[section.ID] = true
		}
	}

	if len(orderedIDs) != len(current) {
		return model.ErrReorderMismatch
	}
	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !current[id] || seen[id] {
			return model.ErrReorderMismatch
		}
		seen[id] = true
	}

	// Mimic the database's unique (issue_id, position) index: every
	// row-by-row update must keep positions distinct, so the restamp
	// parks rows on negative positions first, like the real repository.
	taken := make(map[int]uuid.UUID)
	for _, section := range f.sections {
		if section.IssueID == issueID {
			taken[section.Position] = section.ID
		}
	}
	move := func(id uuid.UUID, pos int) error {
		if holder, ok := taken[pos]; ok && holder != id {
			return fmt.Errorf("duplicate position %d", pos)
		}
		delete(taken, f.sections[id].Position)
		taken[pos] = id
		f.sections[id].Position = pos
		return nil
	}
	for _, id := range orderedIDs {
		if err := move(id, -f.sections[id].Position-1); err != nil {
			return err
		}
	}
	for index, id := range orderedIDs {
		if err := move(id, index); err != nil {
			return err
		}
	}
	f.versions[issueID]++
	return nil
}

func (f *fakeSectionRepo) CloneAll(ctx context.Context, fromIssueID, toIssueID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.versions[toIssueID]; !exists {
		return 0, model.ErrIssueNotFound
	}

	count := 0
	for _, section := range f.sections {
		if section.IssueID != fromIssueID {
			continue
		}
		clone := *section
		clone.ID = uuid.New()
		clone.IssueID = toIssueID
		f.sections[clone.ID] = &clone
		count++
	}
	f.versions[toIssueID]++
	return count, nil
}

func (f *fakeSectionRepo) IssueIDOf(ctx context.Context, sectionID uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	section, exists := f.sections[sectionID]
	if !exists {
		return uuid.Nil, model.ErrSectionNotFound
	}
	return section.IssueID, nil
}

func (f *fakeSectionRepo) version(issueID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versions[issueID]
}

// fakeRecorder captures audit actions for assertions.
type fakeRecorder struct {
	mu      sync.Mutex
	actions []auditmodel.Action
}

func (f *fakeRecorder) Record(ctx context.Context, actor shared.Actor, action auditmodel.Action, resourceType string, resourceID uuid.UUID, detail map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

// noopCache satisfies the cache contract without storing anything, so
// service tests always hit the fake repository.
type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, keys ...string) error          { return nil }
func (noopCache) DeletePattern(ctx context.Context, pattern string) error   { return nil }
func (noopCache) Ping(ctx context.Context) error                            { return nil }

func setupSectionService(t *testing.T, issueIDs ...uuid.UUID) (ServiceInterface, *fakeSectionRepo, *fakeRecorder) {
	t.Helper()
	repo := newFakeSectionRepo(issueIDs...)
	recorder := &fakeRecorder{}
	svc := NewSectionService(repo, recorder, noopCache{}, func(html string) string {
		return strings.ReplaceAll(html, "<script>", "")
	})
	return svc, repo, recorder
}

func testActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "An Editor", Role: shared.RoleEditor}
}

func textRequest(html string) model.CreateSectionRequest {
	data, _ := json.Marshal(model.TextPayload{HTML: html})
	return model.CreateSectionRequest{Type: "text", Data: data}
}

func TestCreateAppendsWithMonotonicPositions(t *testing.T) {
	issueID := uuid.New()
	svc, repo, _ := setupSectionService(t, issueID)
	actor := testActor()

	for want := 0; want < 3; want++ {
		section, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>hello</p>"))
		require.NoError(t, err)
		assert.Equal(t, want, section.Position)
	}

	sections, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, section := range sections {
		assert.Equal(t, i, section.Position)
	}

	// Creation started at version 1 and each create bumped once.
	assert.Equal(t, 4, repo.version(issueID))
}

func TestCreateRejectsUnknownIssue(t *testing.T) {
	svc, _, _ := setupSectionService(t)

	_, err := svc.Create(context.Background(), testActor(), uuid.New(), textRequest("<p>x</p>"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrIssueNotFound)
}

func TestCreateSanitizesTextPayload(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)

	section, err := svc.Create(context.Background(), testActor(), issueID,
		textRequest("<p>hi</p><script>alert(1)</script>"))
	require.NoError(t, err)

	var payload model.TextPayload
	require.NoError(t, json.Unmarshal(section.Data, &payload))
	assert.NotContains(t, payload.HTML, "<script>")
	assert.Contains(t, payload.HTML, "<p>hi</p>")
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)

	_, err := svc.Create(context.Background(), testActor(), issueID, model.CreateSectionRequest{
		Type: "button",
		Data: json.RawMessage(`{"text": "Read more"}`),
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), testActor(), issueID, model.CreateSectionRequest{
		Type: "hero",
		Data: json.RawMessage(`{}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidType)
}

// Deleting a middle section leaves a gap; the next create still appends
// after the highest surviving position, it never reuses the gap.
func TestDeleteLeavesGapAndCreateStillAppends(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		section, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>s</p>"))
		require.NoError(t, err)
		ids = append(ids, section.ID)
	}

	require.NoError(t, svc.Remove(context.Background(), actor, ids[1]))

	sections, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, 0, sections[0].Position)
	assert.Equal(t, 2, sections[1].Position)

	appended, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>new</p>"))
	require.NoError(t, err)
	assert.Equal(t, 3, appended.Position)
}

func TestReorderRestampsPositionsWithSingleVersionBump(t *testing.T) {
	issueID := uuid.New()
	svc, repo, recorder := setupSectionService(t, issueID)
	actor := testActor()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		section, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>s</p>"))
		require.NoError(t, err)
		ids = append(ids, section.ID)
	}

	versionBefore := repo.version(issueID)
	reversed := []uuid.UUID{ids[2], ids[1], ids[0]}
	require.NoError(t, svc.Reorder(context.Background(), actor, issueID, reversed))

	sections, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, section := range sections {
		assert.Equal(t, reversed[i], section.ID)
		assert.Equal(t, i, section.Position)
	}

	// One bump for the whole permutation, not one per moved section.
	assert.Equal(t, versionBefore+1, repo.version(issueID))
	assert.Contains(t, recorder.actions, auditmodel.ActionSectionReorder)
}

func TestReorderRejectsIncompletePermutations(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		section, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>s</p>"))
		require.NoError(t, err)
		ids = append(ids, section.ID)
	}

	cases := map[string][]uuid.UUID{
		"partial list":  {ids[0], ids[1]},
		"duplicate id":  {ids[0], ids[1], ids[1]},
		"foreign id":    {ids[0], ids[1], uuid.New()},
		"extra id":      {ids[0], ids[1], ids[2], uuid.New()},
		"empty list":    {},
	}

	for name, ordered := range cases {
		t.Run(name, func(t *testing.T) {
			err := svc.Reorder(context.Background(), actor, issueID, ordered)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrReorderMismatch)
		})
	}

	// The failed reorders must not have disturbed the original order.
	sections, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	for i, section := range sections {
		assert.Equal(t, ids[i], section.ID)
	}
}

func TestInsertAtSplicesIntoOrder(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		section, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>s</p>"))
		require.NoError(t, err)
		ids = append(ids, section.ID)
	}

	inserted, err := svc.InsertAt(context.Background(), actor, issueID, model.InsertAtRequest{
		Section: textRequest("<p>inserted</p>"),
		Index:   1,
	})
	require.NoError(t, err)

	sections, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.Len(t, sections, 4)
	assert.Equal(t, ids[0], sections[0].ID)
	assert.Equal(t, inserted.ID, sections[1].ID)
	assert.Equal(t, ids[1], sections[2].ID)
	assert.Equal(t, ids[2], sections[3].ID)
}

func TestInsertAtClampsIndexPastEnd(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	_, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>first</p>"))
	require.NoError(t, err)

	inserted, err := svc.InsertAt(context.Background(), actor, issueID, model.InsertAtRequest{
		Section: textRequest("<p>last</p>"),
		Index:   99,
	})
	require.NoError(t, err)

	sections, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, inserted.ID, sections[1].ID)
}

func TestDuplicateSharesMediaReferences(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	mediaIDs := []uuid.UUID{uuid.New(), uuid.New()}
	data, err := json.Marshal(model.GalleryPayload{MediaIDs: mediaIDs, Layout: "grid"})
	require.NoError(t, err)

	original, err := svc.Create(context.Background(), actor, issueID, model.CreateSectionRequest{
		Type: "gallery",
		Data: data,
	})
	require.NoError(t, err)

	clone, err := svc.Duplicate(context.Background(), actor, original.ID)
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, clone.ID)
	assert.Equal(t, 1, clone.Position)

	// The copy points at the same media assets, it does not re-upload.
	assert.Equal(t,
		model.MediaRefs(original.Type, original.Data),
		model.MediaRefs(clone.Type, clone.Data))
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	label := "Intro"
	created, err := svc.Create(context.Background(), actor, issueID, model.CreateSectionRequest{
		Type:  "text",
		Data:  textRequest("<p>before</p>").Data,
		Label: &label,
	})
	require.NoError(t, err)
	require.True(t, created.Visible)

	hidden := false
	updated, err := svc.Update(context.Background(), actor, created.ID, model.UpdateSectionRequest{
		Visible: &hidden,
	})
	require.NoError(t, err)

	assert.False(t, updated.Visible)
	require.NotNil(t, updated.Label)
	assert.Equal(t, "Intro", *updated.Label)

	var payload model.TextPayload
	require.NoError(t, json.Unmarshal(updated.Data, &payload))
	assert.Equal(t, "<p>before</p>", payload.HTML)
}

func TestUpdateRejectsPayloadOfWrongShape(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)
	actor := testActor()

	created, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>x</p>"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), actor, created.ID, model.UpdateSectionRequest{
		Data: json.RawMessage(`{"html": ""}`),
	})
	require.Error(t, err)
}

func TestRemoveUnknownSection(t *testing.T) {
	issueID := uuid.New()
	svc, _, _ := setupSectionService(t, issueID)

	err := svc.Remove(context.Background(), testActor(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSectionNotFound)
}

func TestMutationsAreAudited(t *testing.T) {
	issueID := uuid.New()
	svc, _, recorder := setupSectionService(t, issueID)
	actor := testActor()

	section, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>s</p>"))
	require.NoError(t, err)

	hidden := false
	_, err = svc.Update(context.Background(), actor, section.ID, model.UpdateSectionRequest{Visible: &hidden})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), actor, section.ID))

	assert.Equal(t, []auditmodel.Action{
		auditmodel.ActionSectionCreate,
		auditmodel.ActionSectionUpdate,
		auditmodel.ActionSectionDelete,
	}, recorder.actions)
}

func TestToggleVisibilityFlipsFlag(t *testing.T) {
	issueID := uuid.New()
	svc, repo, _ := setupSectionService(t, issueID)
	actor := testActor()

	created, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>hide me</p>"))
	require.NoError(t, err)
	require.True(t, created.Visible)

	hidden, err := svc.ToggleVisibility(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.False(t, hidden.Visible)

	// Hiding keeps the slot; showing again restores the old layout.
	assert.Equal(t, created.Position, hidden.Position)

	shown, err := svc.ToggleVisibility(context.Background(), actor, created.ID)
	require.NoError(t, err)
	assert.True(t, shown.Visible)
	assert.Equal(t, 4, repo.versions[issueID], "create plus two toggles")
}

func TestReorderSwapsTwoSections(t *testing.T) {
	issueID := uuid.New()
	svc, repo, _ := setupSectionService(t, issueID)
	actor := testActor()

	first, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>one</p>"))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), actor, issueID, textRequest("<p>two</p>"))
	require.NoError(t, err)

	// The plain swap is the worst case for position uniqueness: the
	// second section takes position 0 while the first still holds it.
	require.NoError(t, svc.Reorder(context.Background(), actor, issueID,
		[]uuid.UUID{second.ID, first.ID}))

	listed, err := svc.ListByIssue(context.Background(), issueID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)
	assert.Equal(t, 0, listed[0].Position)
	assert.Equal(t, 1, listed[1].Position)
	assert.Equal(t, 4, repo.versions[issueID], "two creates plus one reorder")
}
