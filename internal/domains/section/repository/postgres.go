package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/section/model"
	"newsletter-backend/pkg/database"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

type postgresSectionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresSectionRepository(pool *pgxpool.Pool) SectionRepository {
	return &postgresSectionRepository{pool: pool}
}

// lockIssueRow serializes all section mutations per issue and doubles as
// the existence check.
func lockIssueRow(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT id FROM issues WHERE id = $1 FOR UPDATE`, issueID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrIssueNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock issue row: %w", err)
	}
	return nil
}

// bumpIssueVersion advances the advisory change counter. Must run inside
// the same transaction as the mutation it stamps.
func bumpIssueVersion(ctx context.Context, tx pgx.Tx, issueID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE issues
		SET version = version + 1, updated_at = now()
		WHERE id = $1
	`, issueID)
	if err != nil {
		return fmt.Errorf("failed to bump issue version: %w", err)
	}
	return nil
}

func (r *postgresSectionRepository) Create(ctx context.Context, section *model.Section) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockIssueRow(ctx, tx, section.IssueID); err != nil {
			return err
		}

		// Append-only: position is always max+1, regardless of caller input.
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(position) + 1, 0)
			FROM sections
			WHERE issue_id = $1
		`, section.IssueID).Scan(&section.Position)
		if err != nil {
			return fmt.Errorf("failed to compute append position: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO sections (
				id, issue_id, type, label, background_color,
				visible, position, data, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			section.ID,
			section.IssueID,
			section.Type,
			section.Label,
			section.BackgroundColor,
			section.Visible,
			section.Position,
			section.Data,
			section.CreatedAt,
			section.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert section: %w", err)
		}

		return bumpIssueVersion(ctx, tx, section.IssueID)
	})
}

func (r *postgresSectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Section, error) {
	query := `
		SELECT id, issue_id, type, label, background_color,
		       visible, position, data, created_at, updated_at
		FROM sections
		WHERE id = $1
	`

	section := &model.Section{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&section.ID,
		&section.IssueID,
		&section.Type,
		&section.Label,
		&section.BackgroundColor,
		&section.Visible,
		&section.Position,
		&section.Data,
		&section.CreatedAt,
		&section.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrSectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}

	return section, nil
}

func (r *postgresSectionRepository) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.Section, error) {
	query := `
		SELECT id, issue_id, type, label, background_color,
		       visible, position, data, created_at, updated_at
		FROM sections
		WHERE issue_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	sections := []model.Section{}
	for rows.Next() {
		var section model.Section
		err := rows.Scan(
			&section.ID,
			&section.IssueID,
			&section.Type,
			&section.Label,
			&section.BackgroundColor,
			&section.Visible,
			&section.Position,
			&section.Data,
			&section.CreatedAt,
			&section.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, section)
	}

	return sections, rows.Err()
}

func (r *postgresSectionRepository) Update(ctx context.Context, section *model.Section) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE sections
			SET label = $2, background_color = $3, visible = $4,
			    data = $5, updated_at = $6
			WHERE id = $1
		`,
			section.ID,
			section.Label,
			section.BackgroundColor,
			section.Visible,
			section.Data,
			section.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update section: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrSectionNotFound
		}

		return bumpIssueVersion(ctx, tx, section.IssueID)
	})
}

func (r *postgresSectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var issueID uuid.UUID
		err := tx.QueryRow(ctx,
			`DELETE FROM sections WHERE id = $1 RETURNING issue_id`, id).Scan(&issueID)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrSectionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete section: %w", err)
		}

		return bumpIssueVersion(ctx, tx, issueID)
	})
}

// Reorder restamps every position in one transaction. The restamp runs
// in two passes so it never trips the unique (issue_id, position)
// constraint mid-statement: first every row is parked on a negative
// position (distinct among themselves, disjoint from the live range),
// then the final 0..n-1 values are written. Works with a plain
// non-deferred unique index.
func (r *postgresSectionRepository) Reorder(ctx context.Context, issueID uuid.UUID, orderedIDs []uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockIssueRow(ctx, tx, issueID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx,
			`SELECT id FROM sections WHERE issue_id = $1`, issueID)
		if err != nil {
			return fmt.Errorf("failed to read current sections: %w", err)
		}

		current := make(map[uuid.UUID]bool)
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan section id: %w", err)
			}
			current[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		// Set equality: every current id exactly once, nothing extra.
		// A partial list would silently orphan the missing sections.
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

		// Pass 1: park every row out of the way. -pos-1 keeps the values
		// unique per issue and strictly negative, so no row-by-row update
		// here or below ever collides with another row's position.
		if _, err := tx.Exec(ctx,
			`UPDATE sections SET position = -position - 1 WHERE issue_id = $1`,
			issueID); err != nil {
			return fmt.Errorf("failed to park positions: %w", err)
		}

		// Pass 2: write the final order.
		batch := &pgx.Batch{}
		for index, id := range orderedIDs {
			batch.Queue(
				`UPDATE sections SET position = $2, updated_at = now() WHERE id = $1`,
				id, index)
		}
		results := tx.SendBatch(ctx, batch)
		for range orderedIDs {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to restamp position: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to close reorder batch: %w", err)
		}

		// One bump for the whole permutation, not one per section.
		return bumpIssueVersion(ctx, tx, issueID)
	})
}

func (r *postgresSectionRepository) CloneAll(ctx context.Context, fromIssueID, toIssueID uuid.UUID) (int, error) {
	return database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (int, error) {
		if err := lockIssueRow(ctx, tx, toIssueID); err != nil {
			return 0, err
		}

		// Payloads are copied verbatim: media stays shared by reference.
		tag, err := tx.Exec(ctx, `
			INSERT INTO sections (
				id, issue_id, type, label, background_color,
				visible, position, data, created_at, updated_at
			)
			SELECT gen_random_uuid(), $2, type, label, background_color,
			       visible, position, data, now(), now()
			FROM sections
			WHERE issue_id = $1
		`, fromIssueID, toIssueID)
		if err != nil {
			return 0, fmt.Errorf("failed to clone sections: %w", err)
		}

		if err := bumpIssueVersion(ctx, tx, toIssueID); err != nil {
			return 0, err
		}

		return int(tag.RowsAffected()), nil
	})
}

func (r *postgresSectionRepository) IssueIDOf(ctx context.Context, sectionID uuid.UUID) (uuid.UUID, error) {
	var issueID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT issue_id FROM sections WHERE id = $1`, sectionID).Scan(&issueID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, model.ErrSectionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve section's issue: %w", err)
	}

	return issueID, nil
}
