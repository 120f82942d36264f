package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/media/model"
	"newsletter-backend/internal/shared"
)

// ObjectStore is the slice of the storage backend the media service
// needs. Satisfied by storage.MinIOStorage.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ServiceInterface defines the media business logic contract.
type ServiceInterface interface {
	// Upload stores an asset and returns its metadata. Identical bytes
	// (same BLAKE2b digest) return the already stored asset instead of
	// writing a duplicate object.
	Upload(ctx context.Context, actor shared.Actor, filename, contentType string, size int64, r io.Reader) (*model.Media, error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error)
	List(ctx context.Context, limit, offset int) ([]model.Media, int, error)

	// Delete removes an asset that nothing references anymore.
	Delete(ctx context.Context, actor shared.Actor, id uuid.UUID) error
}
