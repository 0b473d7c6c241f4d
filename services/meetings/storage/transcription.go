package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/attendly/backend/pkg/gen"
	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/services/meetings/entity"
)

const transcriptionColumns = `id, meeting_id, status, full_text, summary, confidence, language, word_count, created_at, updated_at`

// SaveTranscription writes the transcription and all of its segments in one
// transaction. On any failure nothing is committed, so a failed run never
// leaves orphaned segments.
func (s *storage) SaveTranscription(ctx context.Context, t *entity.Transcription, segments []entity.ChatSegment) (*entity.Transcription, error) {
	log := logger.FromContext(ctx)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id := gen.UUID().Next().String()
	row := tx.QueryRow(ctx, `
		INSERT INTO transcriptions (id, meeting_id, status, full_text, summary, confidence, language, word_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transcriptionColumns,
		id, t.MeetingID, t.Status, t.FullText, t.Summary, t.Confidence, t.Language, t.WordCount)

	saved, err := scanTranscription(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transcription: %w", err)
	}

	if len(segments) > 0 {
		rows := make([][]any, len(segments))
		for i, seg := range segments {
			rows[i] = []any{
				gen.UUID().Next().String(), saved.ID, seg.SpeakerNumber,
				seg.Text, seg.StartTime, seg.EndTime, seg.Confidence,
			}
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"chat_segments"},
			[]string{"id", "transcription_id", "speaker_number", "text", "start_time", "end_time", "confidence"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chat segments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transcription: %w", err)
	}

	log.Debug("saved transcription",
		"transcription_id", saved.ID,
		"meeting_id", saved.MeetingID,
		"segments", len(segments))

	return saved, nil
}

func (s *storage) GetTranscriptionByMeeting(ctx context.Context, meetingID string) (*entity.Transcription, error) {
	// Latest wins when history left more than one.
	row := s.pool.QueryRow(ctx, `
		SELECT `+transcriptionColumns+` FROM transcriptions
		WHERE meeting_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, meetingID)

	return s.withSegments(ctx, row)
}

func (s *storage) GetTranscription(ctx context.Context, transcriptionID string) (*entity.Transcription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+transcriptionColumns+` FROM transcriptions WHERE id = $1`, transcriptionID)

	return s.withSegments(ctx, row)
}

func (s *storage) withSegments(ctx context.Context, row pgx.Row) (*entity.Transcription, error) {
	t, err := scanTranscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcription: %w", err)
	}

	segments, _, err := s.ListChatSegments(ctx, t.ID, 0, 0)
	if err != nil {
		return nil, err
	}
	t.ChatSegments = segments

	return t, nil
}

func (s *storage) ListChatSegments(ctx context.Context, transcriptionID string, limit, offset int) ([]entity.ChatSegment, int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chat_segments WHERE transcription_id = $1`,
		transcriptionID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count chat segments: %w", err)
	}

	query := `
		SELECT id, transcription_id, speaker_number, text, start_time, end_time, confidence, created_at
		FROM chat_segments
		WHERE transcription_id = $1
		ORDER BY start_time ASC`
	args := []any{transcriptionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
		if offset > 0 {
			query += ` OFFSET $3`
			args = append(args, offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chat segments: %w", err)
	}
	defer rows.Close()

	segments := make([]entity.ChatSegment, 0)
	for rows.Next() {
		var seg entity.ChatSegment
		err := rows.Scan(&seg.ID, &seg.TranscriptionID, &seg.SpeakerNumber,
			&seg.Text, &seg.StartTime, &seg.EndTime, &seg.Confidence, &seg.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan chat segment: %w", err)
		}
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read chat segments: %w", err)
	}

	return segments, total, nil
}

func (s *storage) TranscriptionStats(ctx context.Context, meetingID string) (*entity.TranscriptionStats, error) {
	t, err := s.GetTranscriptionByMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	stats := &entity.TranscriptionStats{
		WordCount:    t.WordCount,
		Confidence:   t.Confidence,
		SegmentCount: len(t.ChatSegments),
	}

	speakers := make(map[int]struct{})
	for _, seg := range t.ChatSegments {
		speakers[seg.SpeakerNumber] = struct{}{}
	}
	stats.SpeakerCount = len(speakers)

	return stats, nil
}

func (s *storage) DeleteTranscription(ctx context.Context, transcriptionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transcriptions WHERE id = $1`, transcriptionID)
	if err != nil {
		return fmt.Errorf("failed to delete transcription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTranscription(row pgx.Row) (*entity.Transcription, error) {
	var t entity.Transcription
	err := row.Scan(
		&t.ID, &t.MeetingID, &t.Status, &t.FullText, &t.Summary,
		&t.Confidence, &t.Language, &t.WordCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
