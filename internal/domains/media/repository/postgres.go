package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/media/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

const mediaColumns = `id, filename, content_type, size, checksum, storage_key, url, uploaded_by, created_at`

type postgresMediaRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMediaRepository(pool *pgxpool.Pool) MediaRepository {
	return &postgresMediaRepository{pool: pool}
}

func scanMedia(row pgx.Row) (*model.Media, error) {
	media := &model.Media{}
	err := row.Scan(
		&media.ID,
		&media.Filename,
		&media.ContentType,
		&media.Size,
		&media.Checksum,
		&media.StorageKey,
		&media.URL,
		&media.UploadedBy,
		&media.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan media: %w", err)
	}
	return media, nil
}

func (r *postgresMediaRepository) Insert(ctx context.Context, media *model.Media) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO media (
			id, filename, content_type, size, checksum,
			storage_key, url, uploaded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		media.ID,
		media.Filename,
		media.ContentType,
		media.Size,
		media.Checksum,
		media.StorageKey,
		media.URL,
		media.UploadedBy,
		media.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert media: %w", err)
	}
	return nil
}

func (r *postgresMediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM media WHERE id = $1`, mediaColumns)
	return scanMedia(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresMediaRepository) GetByChecksum(ctx context.Context, checksum string) (*model.Media, error) {
	query := fmt.Sprintf(`SELECT %s FROM media WHERE checksum = $1`, mediaColumns)
	media, err := scanMedia(r.pool.QueryRow(ctx, query, checksum))
	if errors.Is(err, model.ErrMediaNotFound) {
		return nil, nil
	}
	return media, err
}

func (r *postgresMediaRepository) List(ctx context.Context, limit, offset int) ([]model.Media, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM media`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count media: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM media
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, mediaColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	items := []model.Media{}
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *media)
	}

	return items, total, rows.Err()
}

func (r *postgresMediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMediaNotFound
	}
	return nil
}

// InUse scans section payloads and issue banners for references to the
// asset. Image payloads store a single media_id; galleries store a
// media_ids array.
func (r *postgresMediaRepository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var inUse bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sections
			WHERE data->>'media_id' = $1
			   OR data->'media_ids' ? $1
		) OR EXISTS (
			SELECT 1 FROM issues WHERE banner_media_id = $2
		)
	`, id.String(), id).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("failed to check media references: %w", err)
	}
	return inUse, nil
}
