package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/audit/model"
)

// =====================================================
// POSTGRES REPOSITORY IMPLEMENTATION
// =====================================================

type postgresAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &postgresAuditRepository{pool: pool}
}

func (r *postgresAuditRepository) Insert(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO audit_events (
			id, actor_id, actor_name, action,
			resource_type, resource_id, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var detail []byte
	if event.Detail != nil {
		var err error
		detail, err = json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.ActorID,
		event.ActorName,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		detail,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

func (r *postgresAuditRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Event, int, error) {
	filter.Normalize()

	where := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.ResourceType != "" {
		where += fmt.Sprintf(" AND resource_type = $%d", argPos)
		args = append(args, filter.ResourceType)
		argPos++
	}
	if filter.ResourceID != nil {
		where += fmt.Sprintf(" AND resource_id = $%d", argPos)
		args = append(args, *filter.ResourceID)
		argPos++
	}
	if filter.ActorID != nil {
		where += fmt.Sprintf(" AND actor_id = $%d", argPos)
		args = append(args, *filter.ActorID)
		argPos++
	}
	if filter.Action != nil {
		where += fmt.Sprintf(" AND action = $%d", argPos)
		args = append(args, *filter.Action)
		argPos++
	}

	countQuery := "SELECT COUNT(*) FROM audit_events " + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, actor_name, action,
		       resource_type, resource_id, detail, created_at
		FROM audit_events
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var event model.Event
		var detail []byte

		err := rows.Scan(
			&event.ID,
			&event.ActorID,
			&event.ActorName,
			&event.Action,
			&event.ResourceType,
			&event.ResourceID,
			&detail,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit event: %w", err)
		}

		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal audit detail: %w", err)
			}
		}

		events = append(events, event)
	}

	return events, total, rows.Err()
}

func (r *postgresAuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM audit_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit events: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
