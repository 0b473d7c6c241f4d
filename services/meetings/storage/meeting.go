package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/attendly/backend/pkg/gen"
	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/services/meetings/entity"
)

const meetingColumns = `id, title, duration, file_size, file_path, summary, status, error_message, user_id, created_at, updated_at`

func (s *storage) CreateMeeting(ctx context.Context, req *entity.CreateMeetingRequest) (*entity.Meeting, error) {
	log := logger.FromContext(ctx)

	id := gen.UUID().Next().String()
	query := `
		INSERT INTO meetings (id, title, file_size, file_path, status, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + meetingColumns

	row := s.pool.QueryRow(ctx, query, id, req.Title, req.FileSize, req.FilePath, entity.StatusQueued, req.OwnerID)
	meeting, err := scanMeeting(row)
	if err != nil {
		log.Error("failed to create meeting", "error", err)
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	log.Debug("created meeting", "meeting_id", meeting.ID, "user_id", meeting.OwnerID)

	return meeting, nil
}

// GetMeeting returns one meeting with its transcription and action items.
// An empty ownerID skips the owner scope; that path is reserved for the
// background pipeline.
func (s *storage) GetMeeting(ctx context.Context, meetingID, ownerID string) (*entity.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1 AND deleted_at IS NULL`
	args := []any{meetingID}
	if ownerID != "" {
		query += ` AND user_id = $2`
		args = append(args, ownerID)
	}

	row := s.pool.QueryRow(ctx, query, args...)
	meeting, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}

	transcription, err := s.GetTranscriptionByMeeting(ctx, meetingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	meeting.Transcription = transcription

	items, _, err := s.ListActionItems(ctx, &entity.ListActionItemsRequest{MeetingID: meetingID, Limit: 0})
	if err != nil {
		return nil, err
	}
	meeting.ActionItems = items

	return meeting, nil
}

func (s *storage) ListMeetings(ctx context.Context, req *entity.ListMeetingsRequest) ([]entity.Meeting, int, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE user_id = $1 AND deleted_at IS NULL`
	countQuery := `SELECT count(*) FROM meetings WHERE user_id = $1 AND deleted_at IS NULL`
	args := []any{req.OwnerID}
	argNum := 2

	if req.Status != "" {
		clause := fmt.Sprintf(" AND status = $%d", argNum)
		query += clause
		countQuery += clause
		args = append(args, req.Status)
		argNum++
	}

	var total int
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	query += ` ORDER BY created_at DESC`
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
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]entity.Meeting, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read meetings: %w", err)
	}

	return meetings, total, nil
}

// UpdateMeeting patches the given fields. ownerID scopes the write for
// user-initiated edits; the pipeline passes an empty ownerID and writes
// unscoped.
func (s *storage) UpdateMeeting(ctx context.Context, meetingID, ownerID string, req *entity.UpdateMeetingRequest) (*entity.Meeting, error) {
	sets := []string{"updated_at = now()"}
	args := []any{meetingID}
	argNum := 2

	addSet := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argNum))
		args = append(args, val)
		argNum++
	}

	if req.Title != nil {
		addSet("title", *req.Title)
	}
	if req.Summary != nil {
		addSet("summary", *req.Summary)
	}
	if req.Duration != nil {
		addSet("duration", *req.Duration)
	}
	if req.Status != nil {
		addSet("status", string(*req.Status))
	}
	if req.ErrorMessage != nil {
		addSet("error_message", *req.ErrorMessage)
	}

	query := `UPDATE meetings SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 AND deleted_at IS NULL`
	if ownerID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, ownerID)
	}
	query += ` RETURNING ` + meetingColumns

	row := s.pool.QueryRow(ctx, query, args...)
	meeting, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}

	return meeting, nil
}

// ClaimMeeting performs a conditional status transition and reports whether
// this caller won it. A false return with no error means another invocation
// already moved the meeting past `from`.
func (s *storage) ClaimMeeting(ctx context.Context, meetingID string, from, to entity.MeetingStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL`,
		meetingID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("failed to claim meeting: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetMeetingStatus writes the status unconditionally. A missing row is a
// silent no-op: the meeting may have been deleted while the pipeline was
// in flight.
func (s *storage) SetMeetingStatus(ctx context.Context, meetingID string, status entity.MeetingStatus, errorMessage *string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings SET status = $2, error_message = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		meetingID, string(status), errorMessage)
	if err != nil {
		return fmt.Errorf("failed to set meeting status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		logger.Debug(ctx, "status write to missing meeting ignored", "meeting_id", meetingID, "status", status)
	}
	return nil
}

// DeleteMeeting soft-deletes. Already-deleted and unknown meetings both
// report ErrNotFound.
func (s *storage) DeleteMeeting(ctx context.Context, meetingID, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		meetingID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *storage) MeetingStats(ctx context.Context, ownerID string) (*entity.MeetingStats, error) {
	query := `
		SELECT
			count(*),
			COALESCE(SUM(duration), 0),
			count(*) FILTER (WHERE status IN ('queued', 'transcribing', 'analyzing'))
		FROM meetings
		WHERE user_id = $1 AND deleted_at IS NULL`

	stats := &entity.MeetingStats{}
	err := s.pool.QueryRow(ctx, query, ownerID).Scan(&stats.TotalMeetings, &stats.TotalDuration, &stats.ActiveMeetings)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate meeting stats: %w", err)
	}

	if stats.TotalMeetings > 0 {
		stats.AverageDuration = int(float64(stats.TotalDuration)/float64(stats.TotalMeetings) + 0.5)
	}

	return stats, nil
}

// MarkStuckMeetings flags meetings that have sat in a non-terminal processing
// state for too long, which happens when the process dies mid-pipeline.
func (s *storage) MarkStuckMeetings(ctx context.Context, olderThanSeconds int) (int, error) {
	reason := "processing timed out"
	tag, err := s.pool.Exec(ctx, `
		UPDATE meetings SET status = $1, error_message = $2, updated_at = now()
		WHERE status IN ('transcribing', 'analyzing')
		  AND deleted_at IS NULL
		  AND updated_at < now() - ($3 * interval '1 second')`,
		string(entity.StatusFailed), reason, olderThanSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stuck meetings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanMeeting(row pgx.Row) (*entity.Meeting, error) {
	var m entity.Meeting
	var createdAt, updatedAt time.Time
	err := row.Scan(
		&m.ID, &m.Title, &m.Duration, &m.FileSize, &m.FilePath,
		&m.Summary, &m.Status, &m.ErrorMessage, &m.OwnerID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = createdAt
	m.UpdatedAt = updatedAt
	return &m, nil
}
