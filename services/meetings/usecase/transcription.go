package usecase

import (
	"context"

	"github.com/attendly/backend/services/meetings/consts"
	"github.com/attendly/backend/services/meetings/entity"
)

func (u *usecase) GetTranscriptionByMeeting(ctx context.Context, meetingID string) (*entity.Transcription, error) {
	return u.storage.GetTranscriptionByMeeting(ctx, meetingID)
}

func (u *usecase) GetTranscription(ctx context.Context, transcriptionID string) (*entity.Transcription, error) {
	return u.storage.GetTranscription(ctx, transcriptionID)
}

func (u *usecase) ListChatSegments(ctx context.Context, transcriptionID string, limit, offset int) ([]entity.ChatSegment, int, error) {
	if limit <= 0 {
		limit = consts.DefaultPageLimit
	}
	if limit > consts.MaxPageLimit {
		limit = consts.MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return u.storage.ListChatSegments(ctx, transcriptionID, limit, offset)
}

func (u *usecase) TranscriptionStats(ctx context.Context, meetingID string) (*entity.TranscriptionStats, error) {
	return u.storage.TranscriptionStats(ctx, meetingID)
}

func (u *usecase) DeleteTranscription(ctx context.Context, transcriptionID string) error {
	return u.storage.DeleteTranscription(ctx, transcriptionID)
}
