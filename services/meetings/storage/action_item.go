package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/attendly/backend/pkg/gen"
	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/services/meetings/entity"
)

const actionItemColumns = `id, meeting_id, description, speaker, due_date, priority, status, created_by, created_at, updated_at`

func (s *storage) CreateActionItem(ctx context.Context, req *entity.CreateActionItemRequest) (*entity.ActionItem, error) {
	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityMedium
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO action_items (id, meeting_id, description, speaker, due_date, priority, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+actionItemColumns,
		gen.UUID().Next().String(), req.MeetingID, req.Description, req.Speaker,
		req.DueDate, string(priority), string(entity.ActionItemPending), req.CreatedBy)

	item, err := scanActionItem(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create action item: %w", err)
	}
	return item, nil
}

// CreateActionItems bulk-inserts the pipeline's extraction result in one
// transaction.
func (s *storage) CreateActionItems(ctx context.Context, reqs []entity.CreateActionItemRequest) ([]entity.ActionItem, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	log := logger.FromContext(ctx)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	items := make([]entity.ActionItem, 0, len(reqs))
	for _, req := range reqs {
		priority := req.Priority
		if !priority.Valid() {
			priority = entity.PriorityMedium
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO action_items (id, meeting_id, description, speaker, due_date, priority, status, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+actionItemColumns,
			gen.UUID().Next().String(), req.MeetingID, req.Description, req.Speaker,
			req.DueDate, string(priority), string(entity.ActionItemPending), req.CreatedBy)

		item, err := scanActionItem(row)
		if err != nil {
			return nil, fmt.Errorf("failed to insert action item: %w", err)
		}
		items = append(items, *item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit action items: %w", err)
	}

	log.Debug("saved action items", "count", len(items))
	return items, nil
}

func (s *storage) ListActionItems(ctx context.Context, req *entity.ListActionItemsRequest) ([]entity.ActionItem, int, error) {
	where := []string{"1=1"}
	args := []any{}
	argNum := 1

	addFilter := func(col, val string) {
		if val == "" {
			return
		}
		where = append(where, fmt.Sprintf("%s = $%d", col, argNum))
		args = append(args, val)
		argNum++
	}

	addFilter("meeting_id", req.MeetingID)
	addFilter("status", req.Status)
	addFilter("priority", req.Priority)
	addFilter("speaker", req.Speaker)

	whereClause := strings.Join(where, " AND ")

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM action_items WHERE `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count action items: %w", err)
	}

	query := `SELECT ` + actionItemColumns + ` FROM action_items WHERE ` + whereClause + ` ORDER BY created_at DESC`
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list action items: %w", err)
	}
	defer rows.Close()

	items := make([]entity.ActionItem, 0)
	for rows.Next() {
		item, err := scanActionItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan action item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read action items: %w", err)
	}

	return items, total, nil
}

func (s *storage) UpdateActionItem(ctx context.Context, actionItemID string, req *entity.UpdateActionItemRequest) (*entity.ActionItem, error) {
	sets := []string{"updated_at = now()"}
	args := []any{actionItemID}
	argNum := 2

	addSet := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argNum))
		args = append(args, val)
		argNum++
	}

	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Priority != nil {
		addSet("priority", string(*req.Priority))
	}
	if req.Status != nil {
		addSet("status", string(*req.Status))
	}
	if req.Speaker != nil {
		addSet("speaker", *req.Speaker)
	}
	if req.DueDate != nil {
		addSet("due_date", *req.DueDate)
	}

	query := `UPDATE action_items SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + actionItemColumns

	row := s.pool.QueryRow(ctx, query, args...)
	item, err := scanActionItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update action item: %w", err)
	}

	return item, nil
}

func (s *storage) DeleteActionItem(ctx context.Context, actionItemID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM action_items WHERE id = $1`, actionItemID)
	if err != nil {
		return fmt.Errorf("failed to delete action item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanActionItem(row pgx.Row) (*entity.ActionItem, error) {
	var item entity.ActionItem
	err := row.Scan(
		&item.ID, &item.MeetingID, &item.Description, &item.Speaker,
		&item.DueDate, &item.Priority, &item.Status, &item.CreatedBy,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
