package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"newsletter-backend/internal/domains/issue/model"
	"newsletter-backend/pkg/database"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

const issueColumns = `id, title, banner_text, banner_media_id, background_color,
	tags, status, version, published_at, created_at, updated_at`

type postgresIssueRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &postgresIssueRepository{pool: pool}
}

func scanIssue(row pgx.Row) (*model.Issue, error) {
	issue := &model.Issue{}
	err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.BannerText,
		&issue.BannerMediaID,
		&issue.BackgroundColor,
		pq.Array(&issue.Tags),
		&issue.Status,
		&issue.Version,
		&issue.PublishedAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrIssueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan issue: %w", err)
	}
	return issue, nil
}

func (r *postgresIssueRepository) Create(ctx context.Context, issue *model.Issue) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO issues (
			id, title, banner_text, banner_media_id, background_color,
			tags, status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		issue.ID,
		issue.Title,
		issue.BannerText,
		issue.BannerMediaID,
		issue.BackgroundColor,
		pq.Array(issue.Tags),
		issue.Status,
		issue.Version,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

func (r *postgresIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id = $1`, issueColumns)
	return scanIssue(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresIssueRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Issue, int, error) {
	filter.Normalize()

	where := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Tag != "" {
		where += fmt.Sprintf(" AND $%d = ANY(tags)", argPos)
		args = append(args, filter.Tag)
		argPos++
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM issues %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM issues %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, issueColumns, where, argPos, argPos+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		issues = append(issues, *issue)
	}

	return issues, total, rows.Err()
}

func (r *postgresIssueRepository) Update(ctx context.Context, issue *model.Issue) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE issues
			SET title = $2, banner_text = $3, banner_media_id = $4,
			    background_color = $5, tags = $6,
			    version = version + 1, updated_at = now()
			WHERE id = $1
		`,
			issue.ID,
			issue.Title,
			issue.BannerText,
			issue.BannerMediaID,
			issue.BackgroundColor,
			pq.Array(issue.Tags),
		)
		if err != nil {
			return fmt.Errorf("failed to update issue: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrIssueNotFound
		}
		return nil
	})
}

// UpdateStatus is a compare-and-set on the lifecycle state. Running the
// status check in the UPDATE itself closes the race between two admins
// publishing at the same moment.
func (r *postgresIssueRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status) (*model.Issue, error) {
	query := fmt.Sprintf(`
		UPDATE issues
		SET status = $3,
		    version = version + 1,
		    updated_at = now(),
		    published_at = CASE WHEN $3::text = 'published' THEN now() ELSE published_at END
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, issueColumns)

	issue, err := scanIssue(r.pool.QueryRow(ctx, query, id, from, to))
	if err == nil {
		return issue, nil
	}
	if !errors.Is(err, model.ErrIssueNotFound) {
		return nil, err
	}

	// No row matched: missing issue or a status that moved underneath us.
	var exists bool
	checkErr := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM issues WHERE id = $1)`, id).Scan(&exists)
	if checkErr != nil {
		return nil, fmt.Errorf("failed to check issue existence: %w", checkErr)
	}
	if !exists {
		return nil, model.ErrIssueNotFound
	}
	return nil, model.ErrInvalidTransition
}

func (r *postgresIssueRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var status model.Status
		err := tx.QueryRow(ctx,
			`SELECT status FROM issues WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrIssueNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock issue for delete: %w", err)
		}

		if status != model.StatusDraft {
			return model.ErrNotDraft
		}

		// Sections and the edit lock go with it via FK cascade. Audit
		// events survive; they are the record that the draft existed.
		if _, err := tx.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete issue: %w", err)
		}
		return nil
	})
}

func (r *postgresIssueRepository) GetLatest(ctx context.Context) (*model.Issue, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM issues
		ORDER BY created_at DESC
		LIMIT 1
	`, issueColumns)

	issue, err := scanIssue(r.pool.QueryRow(ctx, query))
	if errors.Is(err, model.ErrIssueNotFound) {
		return nil, model.ErrNothingToClone
	}
	return issue, err
}

func (r *postgresIssueRepository) ListPublished(ctx context.Context) ([]model.Issue, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM issues
		WHERE status = 'published'
		ORDER BY published_at DESC
	`, issueColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list published issues: %w", err)
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}

	return issues, rows.Err()
}
