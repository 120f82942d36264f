package repository

import (
	"context"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/media/model"
)

// MediaRepository persists asset metadata. The bytes live in object
// storage; only keys and digests are stored here.
type MediaRepository interface {
	Insert(ctx context.Context, media *model.Media) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error)

	// GetByChecksum finds an existing asset with identical contents.
	// Returns (nil, nil) when there is none; this is the dedupe probe,
	// not an error path.
	GetByChecksum(ctx context.Context, checksum string) (*model.Media, error)

	List(ctx context.Context, limit, offset int) ([]model.Media, int, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// InUse reports whether any section payload or issue banner still
	// references the asset.
	InUse(ctx context.Context, id uuid.UUID) (bool, error)
}
