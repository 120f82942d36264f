package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	auditmodel "newsletter-backend/internal/domains/audit/model"
	auditservice "newsletter-backend/internal/domains/audit/service"
	"newsletter-backend/internal/domains/media/model"
	"newsletter-backend/internal/domains/media/repository"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/logger"
)

type mediaService struct {
	mediaRepo repository.MediaRepository
	store     ObjectStore
	audit     auditservice.Recorder
}

func NewMediaService(
	mediaRepo repository.MediaRepository,
	store ObjectStore,
	audit auditservice.Recorder,
) ServiceInterface {
	return &mediaService{
		mediaRepo: mediaRepo,
		store:     store,
		audit:     audit,
	}
}

func (s *mediaService) Upload(ctx context.Context, actor shared.Actor, filename, contentType string, size int64, r io.Reader) (*model.Media, error) {
	if !model.AllowedContentType(contentType) {
		return nil, model.NewUnsupportedTypeError(contentType)
	}
	if size > model.MaxUploadSize {
		return nil, model.NewTooLargeError(size)
	}

	// Buffer the upload to digest it. The size cap keeps this bounded.
	data, err := io.ReadAll(io.LimitReader(r, model.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > model.MaxUploadSize {
		return nil, model.NewTooLargeError(int64(len(data)))
	}

	digest := blake2b.Sum256(data)
	checksum := hex.EncodeToString(digest[:])

	// Same bytes, same asset: hand back the existing row.
	if existing, err := s.mediaRepo.GetByChecksum(ctx, checksum); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	key := fmt.Sprintf("media/%s/%s", checksum[:16], path.Base(filename))
	url, err := s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store media object: %w", err)
	}

	media := &model.Media{
		ID:          uuid.New(),
		Filename:    path.Base(filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		Checksum:    checksum,
		StorageKey:  key,
		URL:         url,
		UploadedBy:  actor.ID,
		CreatedAt:   time.Now(),
	}

	if err := s.mediaRepo.Insert(ctx, media); err != nil {
		// Orphaned object; the row is the source of truth, so clean up.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.Warn("failed to remove orphaned media object", map[string]interface{}{
				"key":   key,
				"error": delErr.Error(),
			})
		}
		return nil, err
	}

	s.audit.Record(ctx, actor, auditmodel.ActionMediaUpload, "media", media.ID, map[string]interface{}{
		"filename":     media.Filename,
		"content_type": media.ContentType,
		"size":         media.Size,
	})

	return media, nil
}

func (s *mediaService) GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error) {
	media, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrMediaNotFound) {
			return nil, model.NewMediaNotFoundError()
		}
		return nil, err
	}
	return media, nil
}

func (s *mediaService) List(ctx context.Context, limit, offset int) ([]model.Media, int, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.mediaRepo.List(ctx, limit, offset)
}

func (s *mediaService) Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	media, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.mediaRepo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return model.NewMediaInUseError()
	}

	if err := s.mediaRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrMediaNotFound) {
			return model.NewMediaNotFoundError()
		}
		return err
	}

	// Object removal is best-effort once the row is gone.
	if err := s.store.Delete(ctx, media.StorageKey); err != nil {
		logger.Warn("failed to delete media object", map[string]interface{}{
			"key":   media.StorageKey,
			"error": err.Error(),
		})
	}

	s.audit.Record(ctx, actor, auditmodel.ActionMediaDelete, "media", id, map[string]interface{}{
		"filename": media.Filename,
	})

	return nil
}
