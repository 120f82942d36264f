package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditmodel "newsletter-backend/internal/domains/audit/model"
	"newsletter-backend/internal/domains/media/model"
	"newsletter-backend/internal/shared"
)

type fakeMediaRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Media
	used  map[uuid.UUID]bool
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{
		items: make(map[uuid.UUID]*model.Media),
		used:  make(map[uuid.UUID]bool),
	}
}

func (f *fakeMediaRepo) Insert(ctx context.Context, media *model.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *media
	f.items[media.ID] = &stored
	return nil
}

func (f *fakeMediaRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	media, exists := f.items[id]
	if !exists {
		return nil, model.ErrMediaNotFound
	}
	cp := *media
	return &cp, nil
}

func (f *fakeMediaRepo) GetByChecksum(ctx context.Context, checksum string) (*model.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, media := range f.items {
		if media.Checksum == checksum {
			cp := *media
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMediaRepo) List(ctx context.Context, limit, offset int) ([]model.Media, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []model.Media{}
	for _, media := range f.items {
		items = append(items, *media)
	}
	return items, len(items), nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.items[id]; !exists {
		return model.ErrMediaNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMediaRepo) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used[id], nil
}

// fakeStore keeps objects in memory and counts writes, so dedupe can be
// asserted at the storage layer.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	f.uploads++
	return fmt.Sprintf("http://store.local/%s", key), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []auditmodel.Action
}

func (f *fakeRecorder) Record(ctx context.Context, actor shared.Actor, action auditmodel.Action, resourceType string, resourceID uuid.UUID, detail map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func setupMediaService(t *testing.T) (ServiceInterface, *fakeMediaRepo, *fakeStore, *fakeRecorder) {
	t.Helper()
	repo := newFakeMediaRepo()
	store := newFakeStore()
	recorder := &fakeRecorder{}
	svc := NewMediaService(repo, store, recorder)
	return svc, repo, store, recorder
}

func testActor() shared.Actor {
	return shared.Actor{ID: uuid.New(), Name: "An Editor", Role: shared.RoleEditor}
}

func TestUploadStoresAssetAndAudits(t *testing.T) {
	svc, _, store, recorder := setupMediaService(t)
	payload := []byte("fake png bytes")

	media, err := svc.Upload(context.Background(), testActor(), "banner.png", "image/png",
		int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, "banner.png", media.Filename)
	assert.Equal(t, int64(len(payload)), media.Size)
	assert.NotEmpty(t, media.Checksum)
	assert.Contains(t, media.URL, media.StorageKey)
	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, []auditmodel.Action{auditmodel.ActionMediaUpload}, recorder.actions)
}

func TestUploadDeduplicatesIdenticalBytes(t *testing.T) {
	svc, _, store, _ := setupMediaService(t)
	payload := []byte("same bytes both times")

	first, err := svc.Upload(context.Background(), testActor(), "a.png", "image/png",
		int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	second, err := svc.Upload(context.Background(), testActor(), "b.png", "image/png",
		int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	// Second upload resolves to the first asset, nothing new is stored.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.uploads)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, _, _, _ := setupMediaService(t)

	_, err := svc.Upload(context.Background(), testActor(), "malware.exe", "application/octet-stream",
		4, strings.NewReader("data"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnsupportedType)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _, _ := setupMediaService(t)

	_, err := svc.Upload(context.Background(), testActor(), "huge.png", "image/png",
		model.MaxUploadSize+1, strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTooLarge)
}

func TestDeleteRefusesWhileReferenced(t *testing.T) {
	svc, repo, _, _ := setupMediaService(t)
	payload := []byte("referenced image")

	media, err := svc.Upload(context.Background(), testActor(), "used.png", "image/png",
		int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	repo.used[media.ID] = true
	err = svc.Delete(context.Background(), testActor(), media.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMediaInUse)

	// Dereferenced, the delete goes through and removes the object too.
	repo.used[media.ID] = false
	require.NoError(t, svc.Delete(context.Background(), testActor(), media.ID))
	_, err = svc.GetByID(context.Background(), media.ID)
	assert.ErrorIs(t, err, model.ErrMediaNotFound)
}

func TestDeleteUnknownMedia(t *testing.T) {
	svc, _, _, _ := setupMediaService(t)

	err := svc.Delete(context.Background(), testActor(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMediaNotFound)
}
