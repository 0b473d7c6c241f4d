package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/attendly/backend/clients/blobstore"
	"github.com/attendly/backend/pkg/gen"
	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/pkg/queue"
	"github.com/attendly/backend/services/meetings/consts"
	"github.com/attendly/backend/services/meetings/entity"
)

// UploadRequest carries one inbound recording.
type UploadRequest struct {
	FileName    string
	ContentType string
	Data        []byte
	OwnerID     string
}

var ErrInvalidUpload = fmt.Errorf("invalid upload")

func validateUpload(req *UploadRequest) error {
	if len(req.Data) == 0 {
		return fmt.Errorf("%w: recording file is required", ErrInvalidUpload)
	}
	if int64(len(req.Data)) > consts.MaxUploadSize {
		return fmt.Errorf("%w: file size exceeds maximum limit of %dMB",
			ErrInvalidUpload, consts.MaxUploadSize/(1024*1024))
	}
	if req.ContentType != consts.MimeAudioWebM && req.ContentType != consts.MimeVideoWebM {
		return fmt.Errorf("%w: invalid file type, only WebM files are allowed", ErrInvalidUpload)
	}
	return nil
}

// CreateMeeting stores the recording, creates the meeting row in the queued
// state and hands the meeting id to the background queue. The HTTP caller
// never waits on processing.
func (u *usecase) CreateMeeting(ctx context.Context, req *UploadRequest) (*entity.Meeting, error) {
	log := logger.FromContext(ctx)

	if err := validateUpload(req); err != nil {
		return nil, err
	}

	objectPath := blobstore.ObjectPath(req.OwnerID, req.FileName)
	uploaded, err := u.files.Upload(ctx, objectPath, req.Data, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload recording: %w", err)
	}

	title := fmt.Sprintf("Meeting %s", time.Now().Format("2006-01-02 15:04"))
	meeting, err := u.storage.CreateMeeting(ctx, &entity.CreateMeetingRequest{
		Title:    title,
		FilePath: uploaded.Path,
		FileSize: uploaded.Size,
		OwnerID:  req.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	job := queue.Job{
		ID:        gen.UUID().Next().String(),
		MeetingID: meeting.ID,
		OwnerID:   req.OwnerID,
	}
	if err := u.jobs.Enqueue(ctx, job); err != nil {
		// The meeting exists but will never be picked up; surface that on
		// the record instead of leaving it queued forever.
		log.Error("failed to enqueue processing job", "error", err, "meeting_id", meeting.ID)
		reason := "failed to queue processing"
		_ = u.storage.SetMeetingStatus(ctx, meeting.ID, entity.StatusFailed, &reason)
		meeting.Status = entity.StatusFailed
		meeting.ErrorMessage = &reason
		return meeting, nil
	}

	log.Info("meeting queued for processing",
		"meeting_id", meeting.ID,
		"file_size", uploaded.Size)

	return meeting, nil
}

// GetMeeting returns a meeting with a freshly signed file URL. URLs are never
// stored; each read issues a new one.
func (u *usecase) GetMeeting(ctx context.Context, meetingID, ownerID string) (*entity.Meeting, error) {
	meeting, err := u.storage.GetMeeting(ctx, meetingID, ownerID)
	if err != nil {
		return nil, err
	}

	if meeting.FilePath != "" {
		signedURL, err := u.files.SignURL(ctx, meeting.FilePath, u.cfg.SignedURLTTL)
		if err != nil {
			logger.ErrorErr(ctx, "failed to sign file url", err, "meeting_id", meetingID)
		} else {
			meeting.FileURL = signedURL
		}
	}

	return meeting, nil
}

func (u *usecase) ListMeetings(ctx context.Context, req *entity.ListMeetingsRequest) ([]entity.Meeting, int, error) {
	if req.Limit <= 0 {
		req.Limit = consts.DefaultPageLimit
	}
	if req.Limit > consts.MaxPageLimit {
		req.Limit = consts.MaxPageLimit
	}
	return u.storage.ListMeetings(ctx, req)
}

func (u *usecase) UpdateMeeting(ctx context.Context, meetingID, ownerID string, req *entity.UpdateMeetingRequest) (*entity.Meeting, error) {
	return u.storage.UpdateMeeting(ctx, meetingID, ownerID, req)
}

// DeleteMeeting hides the row and then removes the stored recording. The row
// is unreachable once deleted, so a failed object removal only leaks storage
// and is logged rather than returned.
func (u *usecase) DeleteMeeting(ctx context.Context, meetingID, ownerID string) error {
	meeting, err := u.storage.GetMeeting(ctx, meetingID, ownerID)
	if err != nil {
		return err
	}

	if err := u.storage.DeleteMeeting(ctx, meetingID, ownerID); err != nil {
		return err
	}

	if meeting.FilePath != "" {
		if err := u.files.Delete(ctx, meeting.FilePath); err != nil {
			logger.ErrorErr(ctx, "failed to delete recording object", err,
				"meeting_id", meetingID, "file_path", meeting.FilePath)
		}
	}
	return nil
}

func (u *usecase) MeetingStats(ctx context.Context, ownerID string) (*entity.MeetingStats, error) {
	return u.storage.MeetingStats(ctx, ownerID)
}
