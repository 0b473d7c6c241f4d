package usecase

import (
	"context"
	"time"

	"github.com/attendly/backend/clients/blobstore"
	"github.com/attendly/backend/pkg/metrics"
	"github.com/attendly/backend/pkg/queue"
	"github.com/attendly/backend/services/meetings/entity"
	"github.com/attendly/backend/services/meetings/storage"
)

// Transcriber is the speech-to-text collaborator.
type Transcriber interface {
	TranscribeFromURL(ctx context.Context, audioURL string) (*entity.TranscriptResult, error)
}

// Analyzer is the language-model collaborator for transcript enrichment.
type Analyzer interface {
	ExtractActionItems(ctx context.Context, transcript string) ([]entity.ExtractedActionItem, error)
	GenerateSummaryAndTitle(ctx context.Context, transcript string) (*entity.SummaryResult, error)
}

// FileStore is the object-storage collaborator holding raw recordings.
type FileStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (*blobstore.UploadResult, error)
	SignURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, objectPaths ...string) error
}

type Usecase interface {
	// Upload path
	CreateMeeting(ctx context.Context, req *UploadRequest) (*entity.Meeting, error)

	// Meeting CRUD
	GetMeeting(ctx context.Context, meetingID, ownerID string) (*entity.Meeting, error)
	ListMeetings(ctx context.Context, req *entity.ListMeetingsRequest) ([]entity.Meeting, int, error)
	UpdateMeeting(ctx context.Context, meetingID, ownerID string, req *entity.UpdateMeetingRequest) (*entity.Meeting, error)
	DeleteMeeting(ctx context.Context, meetingID, ownerID string) error
	MeetingStats(ctx context.Context, ownerID string) (*entity.MeetingStats, error)

	// Background pipeline
	ProcessMeeting(ctx context.Context, meetingID, ownerID string) error
	ReconcileStuck(ctx context.Context, olderThan time.Duration) (int, error)

	// Transcriptions
	GetTranscriptionByMeeting(ctx context.Context, meetingID string) (*entity.Transcription, error)
	GetTranscription(ctx context.Context, transcriptionID string) (*entity.Transcription, error)
	ListChatSegments(ctx context.Context, transcriptionID string, limit, offset int) ([]entity.ChatSegment, int, error)
	TranscriptionStats(ctx context.Context, meetingID string) (*entity.TranscriptionStats, error)
	DeleteTranscription(ctx context.Context, transcriptionID string) error

	// Action items
	CreateActionItem(ctx context.Context, req *entity.CreateActionItemRequest) (*entity.ActionItem, error)
	ListActionItems(ctx context.Context, req *entity.ListActionItemsRequest) ([]entity.ActionItem, int, error)
	UpdateActionItem(ctx context.Context, actionItemID string, req *entity.UpdateActionItemRequest) (*entity.ActionItem, error)
	DeleteActionItem(ctx context.Context, actionItemID string) error
}

type Config struct {
	SignedURLTTL      time.Duration
	TranscribeTimeout time.Duration
	AnalyzeTimeout    time.Duration
}

type usecase struct {
	storage     storage.Storage
	transcriber Transcriber
	analyzer    Analyzer
	files       FileStore
	jobs        queue.Queue
	metrics     *metrics.Metrics
	cfg         Config
}

func New(stg storage.Storage, transcriber Transcriber, analyzer Analyzer, files FileStore, jobs queue.Queue, m *metrics.Metrics, cfg Config) Usecase {
	if cfg.SignedURLTTL == 0 {
		cfg.SignedURLTTL = time.Hour
	}
	if cfg.TranscribeTimeout == 0 {
		cfg.TranscribeTimeout = 5 * time.Minute
	}
	if cfg.AnalyzeTimeout == 0 {
		cfg.AnalyzeTimeout = 2 * time.Minute
	}

	return &usecase{
		storage:     stg,
		transcriber: transcriber,
		analyzer:    analyzer,
		files:       files,
		jobs:        jobs,
		metrics:     m,
		cfg:         cfg,
	}
}
