package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attendly/backend/services/meetings/entity"
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// caller (owner scoping, soft delete).
var ErrNotFound = errors.New("not found")

type Storage interface {
	CreateMeeting(ctx context.Context, req *entity.CreateMeetingRequest) (*entity.Meeting, error)
	GetMeeting(ctx context.Context, meetingID, ownerID string) (*entity.Meeting, error)
	ListMeetings(ctx context.Context, req *entity.ListMeetingsRequest) ([]entity.Meeting, int, error)
	UpdateMeeting(ctx context.Context, meetingID, ownerID string, req *entity.UpdateMeetingRequest) (*entity.Meeting, error)
	ClaimMeeting(ctx context.Context, meetingID string, from, to entity.MeetingStatus) (bool, error)
	SetMeetingStatus(ctx context.Context, meetingID string, status entity.MeetingStatus, errorMessage *string) error
	DeleteMeeting(ctx context.Context, meetingID, ownerID string) error
	MeetingStats(ctx context.Context, ownerID string) (*entity.MeetingStats, error)
	MarkStuckMeetings(ctx context.Context, olderThanSeconds int) (int, error)

	SaveTranscription(ctx context.Context, t *entity.Transcription, segments []entity.ChatSegment) (*entity.Transcription, error)
	GetTranscriptionByMeeting(ctx context.Context, meetingID string) (*entity.Transcription, error)
	GetTranscription(ctx context.Context, transcriptionID string) (*entity.Transcription, error)
	ListChatSegments(ctx context.Context, transcriptionID string, limit, offset int) ([]entity.ChatSegment, int, error)
	TranscriptionStats(ctx context.Context, meetingID string) (*entity.TranscriptionStats, error)
	DeleteTranscription(ctx context.Context, transcriptionID string) error

	CreateActionItem(ctx context.Context, req *entity.CreateActionItemRequest) (*entity.ActionItem, error)
	CreateActionItems(ctx context.Context, reqs []entity.CreateActionItemRequest) ([]entity.ActionItem, error)
	ListActionItems(ctx context.Context, req *entity.ListActionItemsRequest) ([]entity.ActionItem, int, error)
	UpdateActionItem(ctx context.Context, actionItemID string, req *entity.UpdateActionItemRequest) (*entity.ActionItem, error)
	DeleteActionItem(ctx context.Context, actionItemID string) error

	Close()
}

type storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (Storage, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &storage{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *storage) Close() {
	s.pool.Close()
}
