package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/pkg/provider"
	"github.com/attendly/backend/services/meetings/consts"
	"github.com/attendly/backend/services/meetings/entity"
)

// ProcessMeeting drives one meeting through the processing state machine:
//
//	queued -> transcribing -> analyzing -> completed
//
// with failed reachable from any non-terminal state. Transcription failure is
// fatal; enrichment failures are swallowed per sub-task so a meeting can
// complete with no action items and an unchanged placeholder title.
//
// The initial transition is a conditional claim on the queued status, so a
// duplicate trigger for the same meeting is a no-op.
func (u *usecase) ProcessMeeting(ctx context.Context, meetingID, ownerID string) error {
	log := logger.FromContext(ctx).With("meeting_id", meetingID)
	ctx = logger.WithContext(ctx, log)
	start := time.Now()

	claimed, err := u.storage.ClaimMeeting(ctx, meetingID, entity.StatusQueued, entity.StatusTranscribing)
	if err != nil {
		return fmt.Errorf("failed to claim meeting for processing: %w", err)
	}
	if !claimed {
		log.Warn("meeting is not queued, skipping")
		u.metrics.PipelineRuns.WithLabelValues("skipped").Inc()
		return nil
	}
	log.Info("processing started")

	transcript, err := u.runTranscription(ctx, meetingID)
	if err != nil {
		u.failMeeting(ctx, meetingID, err)
		u.metrics.PipelineRuns.WithLabelValues("failed").Inc()
		return err
	}

	if err := u.storage.SetMeetingStatus(ctx, meetingID, entity.StatusAnalyzing, nil); err != nil {
		u.failMeeting(ctx, meetingID, err)
		u.metrics.PipelineRuns.WithLabelValues("failed").Inc()
		return err
	}

	u.runAnalysis(ctx, meetingID, ownerID, transcript)

	if err := u.storage.SetMeetingStatus(ctx, meetingID, entity.StatusCompleted, nil); err != nil {
		u.failMeeting(ctx, meetingID, err)
		u.metrics.PipelineRuns.WithLabelValues("failed").Inc()
		return err
	}

	u.metrics.PipelineRuns.WithLabelValues("completed").Inc()
	u.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	log.Info("processing completed", "elapsed", time.Since(start))

	return nil
}

// runTranscription calls the speech provider and persists the full
// transcript with its diarized segments in one transaction. It returns the
// transcript text for the analysis phase.
func (u *usecase) runTranscription(ctx context.Context, meetingID string) (string, error) {
	log := logger.FromContext(ctx)

	meeting, err := u.storage.GetMeeting(ctx, meetingID, "")
	if err != nil {
		return "", fmt.Errorf("failed to load meeting: %w", err)
	}

	signedURL, err := u.files.SignURL(ctx, meeting.FilePath, u.cfg.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign recording url: %w", err)
	}

	tctx, cancel := context.WithTimeout(ctx, u.cfg.TranscribeTimeout)
	defer cancel()

	callStart := time.Now()
	result, err := u.transcriber.TranscribeFromURL(tctx, signedURL)
	u.metrics.ProviderDuration.WithLabelValues("deepgram").Observe(time.Since(callStart).Seconds())
	if err != nil {
		u.metrics.ProviderCalls.WithLabelValues("deepgram", "error").Inc()
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	u.metrics.ProviderCalls.WithLabelValues("deepgram", "ok").Inc()

	wordCount := len(result.Words)
	if wordCount == 0 {
		wordCount = len(strings.Fields(result.Transcript))
	}

	transcription := &entity.Transcription{
		MeetingID:  meetingID,
		Status:     "completed",
		FullText:   result.Transcript,
		Confidence: roundPercent(result.Confidence),
		Language:   "en",
		WordCount:  wordCount,
	}
	if result.Summary != "" {
		transcription.Summary = &result.Summary
	}

	segments := make([]entity.ChatSegment, len(result.Utterances))
	for i, utt := range result.Utterances {
		segments[i] = entity.ChatSegment{
			SpeakerNumber: utt.Speaker,
			Text:          utt.Text,
			StartTime:     roundMillis(utt.Start),
			EndTime:       roundMillis(utt.End),
			Confidence:    roundPercent(utt.Confidence),
		}
	}

	saved, err := u.storage.SaveTranscription(ctx, transcription, segments)
	if err != nil {
		return "", fmt.Errorf("failed to persist transcription: %w", err)
	}

	duration := int(math.Round(result.Duration))
	if _, err := u.storage.UpdateMeeting(ctx, meetingID, "", &entity.UpdateMeetingRequest{
		Duration: &duration,
	}); err != nil {
		return "", fmt.Errorf("failed to update meeting duration: %w", err)
	}

	log.Info("transcription persisted",
		"transcription_id", saved.ID,
		"word_count", wordCount,
		"confidence", transcription.Confidence,
		"segments", len(segments),
		"duration_seconds", duration)

	return result.Transcript, nil
}

// runAnalysis fans out the two enrichment sub-tasks and joins on both. Each
// sub-task swallows its own failures: one failing never cancels the other
// and neither ever fails the pipeline.
func (u *usecase) runAnalysis(ctx context.Context, meetingID, ownerID, transcript string) {
	actx, cancel := context.WithTimeout(ctx, u.cfg.AnalyzeTimeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		u.extractActionItems(actx, meetingID, ownerID, transcript)
	}()

	go func() {
		defer wg.Done()
		u.generateSummary(actx, meetingID, transcript)
	}()

	wg.Wait()
}

func (u *usecase) extractActionItems(ctx context.Context, meetingID, ownerID, transcript string) {
	log := logger.FromContext(ctx)

	callStart := time.Now()
	items, err := u.analyzer.ExtractActionItems(ctx, transcript)
	u.metrics.ProviderDuration.WithLabelValues("openai").Observe(time.Since(callStart).Seconds())
	if err != nil {
		u.metrics.ProviderCalls.WithLabelValues("openai", "error").Inc()
		if provider.IsRateLimited(err) {
			log.Warn("skipping action item extraction due to rate limit")
			return
		}
		log.Error("failed to extract action items", "error", err, "kind", provider.KindOf(err))
		return
	}
	u.metrics.ProviderCalls.WithLabelValues("openai", "ok").Inc()

	if len(items) == 0 {
		log.Info("no action items found in transcript")
		return
	}

	createdBy := ownerID
	if createdBy == "" {
		createdBy = consts.SystemActor
	}

	reqs := make([]entity.CreateActionItemRequest, 0, len(items))
	for _, item := range items {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			continue
		}

		req := entity.CreateActionItemRequest{
			MeetingID:   meetingID,
			Description: description,
			Priority:    parsePriority(item.Priority),
			CreatedBy:   createdBy,
		}
		speaker := item.Speaker
		if speaker == "" {
			speaker = item.Assignee
		}
		if speaker != "" {
			req.Speaker = &speaker
		}
		reqs = append(reqs, req)
	}

	saved, err := u.storage.CreateActionItems(ctx, reqs)
	if err != nil {
		log.Error("failed to save action items", "error", err)
		return
	}

	log.Info("action items extracted", "count", len(saved))
}

func (u *usecase) generateSummary(ctx context.Context, meetingID, transcript string) {
	log := logger.FromContext(ctx)

	callStart := time.Now()
	result, err := u.analyzer.GenerateSummaryAndTitle(ctx, transcript)
	u.metrics.ProviderDuration.WithLabelValues("openai").Observe(time.Since(callStart).Seconds())
	if err != nil {
		u.metrics.ProviderCalls.WithLabelValues("openai", "error").Inc()
		if provider.IsRateLimited(err) {
			log.Warn("skipping summary generation due to rate limit")
			return
		}
		log.Error("failed to generate summary", "error", err, "kind", provider.KindOf(err))
		return
	}
	u.metrics.ProviderCalls.WithLabelValues("openai", "ok").Inc()

	if result == nil {
		log.Info("transcript too thin for a summary, keeping placeholder title")
		return
	}

	if _, err := u.storage.UpdateMeeting(ctx, meetingID, "", &entity.UpdateMeetingRequest{
		Title:   &result.Title,
		Summary: &result.Summary,
	}); err != nil {
		log.Error("failed to save summary", "error", err)
		return
	}

	log.Info("summary generated", "title", result.Title)
}

// ReconcileStuck re-flags meetings abandoned mid-pipeline, which happens when
// the process dies between status writes.
func (u *usecase) ReconcileStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	count, err := u.storage.MarkStuckMeetings(ctx, int(olderThan.Seconds()))
	if err != nil {
		return 0, err
	}
	if count > 0 {
		u.metrics.StuckMeetingsSeen.Add(float64(count))
		logger.Warn(ctx, "reconciled stuck meetings", "count", count)
	}
	return count, nil
}

func (u *usecase) failMeeting(ctx context.Context, meetingID string, cause error) {
	reason := cause.Error()
	if err := u.storage.SetMeetingStatus(ctx, meetingID, entity.StatusFailed, &reason); err != nil {
		logger.ErrorErr(ctx, "failed to mark meeting as failed", err, "meeting_id", meetingID)
	}
	logger.ErrorErr(ctx, "processing failed", cause, "meeting_id", meetingID)
}

func parsePriority(raw string) entity.ActionItemPriority {
	p := entity.ActionItemPriority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return entity.PriorityMedium
	}
	return p
}

func roundPercent(c float64) int {
	return int(math.Round(c * 100))
}

func roundMillis(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
