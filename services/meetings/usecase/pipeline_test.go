package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/backend/clients/blobstore"
	"github.com/attendly/backend/pkg/metrics"
	"github.com/attendly/backend/pkg/provider"
	"github.com/attendly/backend/pkg/queue"
	"github.com/attendly/backend/services/meetings/entity"
	"github.com/attendly/backend/services/meetings/storage"
)

// mockStorage is an in-memory Storage tracking every status transition.
type mockStorage struct {
	mu sync.Mutex

	meetings      map[string]*entity.Meeting
	transitions   []entity.MeetingStatus
	transcription *entity.Transcription
	segments      []entity.ChatSegment
	actionItems   []entity.ActionItem
	updates       []entity.UpdateMeetingRequest

	saveTranscriptionErr error
	actionItemsErr       error
}

func newMockStorage(meetings ...*entity.Meeting) *mockStorage {
	m := &mockStorage{meetings: make(map[string]*entity.Meeting)}
	for _, meeting := range meetings {
		m.meetings[meeting.ID] = meeting
	}
	return m
}

func (m *mockStorage) CreateMeeting(_ context.Context, req *entity.CreateMeetingRequest) (*entity.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting := &entity.Meeting{
		ID:       fmt.Sprintf("m-%d", len(m.meetings)+1),
		Title:    req.Title,
		FilePath: req.FilePath,
		FileSize: req.FileSize,
		OwnerID:  req.OwnerID,
		Status:   entity.StatusQueued,
	}
	m.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (m *mockStorage) GetMeeting(_ context.Context, meetingID, ownerID string) (*entity.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[meetingID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if ownerID != "" && meeting.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	copied := *meeting
	return &copied, nil
}

func (m *mockStorage) ListMeetings(_ context.Context, _ *entity.ListMeetingsRequest) ([]entity.Meeting, int, error) {
	return nil, 0, nil
}

func (m *mockStorage) UpdateMeeting(_ context.Context, meetingID, ownerID string, req *entity.UpdateMeetingRequest) (*entity.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[meetingID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	m.updates = append(m.updates, *req)
	if req.Title != nil {
		meeting.Title = *req.Title
	}
	if req.Summary != nil {
		meeting.Summary = req.Summary
	}
	if req.Duration != nil {
		meeting.Duration = *req.Duration
	}
	copied := *meeting
	return &copied, nil
}

func (m *mockStorage) ClaimMeeting(_ context.Context, meetingID string, from, to entity.MeetingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[meetingID]
	if !ok || meeting.Status != from {
		return false, nil
	}
	meeting.Status = to
	m.transitions = append(m.transitions, to)
	return true, nil
}

func (m *mockStorage) SetMeetingStatus(_ context.Context, meetingID string, status entity.MeetingStatus, errorMessage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meeting, ok := m.meetings[meetingID]
	if !ok {
		return nil
	}
	meeting.Status = status
	meeting.ErrorMessage = errorMessage
	m.transitions = append(m.transitions, status)
	return nil
}

func (m *mockStorage) DeleteMeeting(_ context.Context, meetingID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.meetings[meetingID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.meetings, meetingID)
	return nil
}

func (m *mockStorage) MeetingStats(_ context.Context, _ string) (*entity.MeetingStats, error) {
	return &entity.MeetingStats{}, nil
}

func (m *mockStorage) MarkStuckMeetings(_ context.Context, _ int) (int, error) {
	return 0, nil
}

func (m *mockStorage) SaveTranscription(_ context.Context, t *entity.Transcription, segments []entity.ChatSegment) (*entity.Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveTranscriptionErr != nil {
		return nil, m.saveTranscriptionErr
	}
	saved := *t
	saved.ID = "t-1"
	m.transcription = &saved
	m.segments = segments
	return &saved, nil
}

func (m *mockStorage) GetTranscriptionByMeeting(_ context.Context, _ string) (*entity.Transcription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transcription == nil {
		return nil, storage.ErrNotFound
	}
	return m.transcription, nil
}

func (m *mockStorage) GetTranscription(_ context.Context, _ string) (*entity.Transcription, error) {
	return m.GetTranscriptionByMeeting(context.Background(), "")
}

func (m *mockStorage) ListChatSegments(_ context.Context, _ string, _, _ int) ([]entity.ChatSegment, int, error) {
	return m.segments, len(m.segments), nil
}

func (m *mockStorage) TranscriptionStats(_ context.Context, _ string) (*entity.TranscriptionStats, error) {
	return &entity.TranscriptionStats{}, nil
}

func (m *mockStorage) DeleteTranscription(_ context.Context, _ string) error {
	return nil
}

func (m *mockStorage) CreateActionItem(_ context.Context, req *entity.CreateActionItemRequest) (*entity.ActionItem, error) {
	items, err := m.CreateActionItems(context.Background(), []entity.CreateActionItemRequest{*req})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (m *mockStorage) CreateActionItems(_ context.Context, reqs []entity.CreateActionItemRequest) ([]entity.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actionItemsErr != nil {
		return nil, m.actionItemsErr
	}
	items := make([]entity.ActionItem, len(reqs))
	for i, req := range reqs {
		items[i] = entity.ActionItem{
			ID:          fmt.Sprintf("a-%d", len(m.actionItems)+i+1),
			MeetingID:   req.MeetingID,
			Description: req.Description,
			Priority:    req.Priority,
			Speaker:     req.Speaker,
			Status:      entity.ActionItemPending,
			CreatedBy:   req.CreatedBy,
		}
	}
	m.actionItems = append(m.actionItems, items...)
	return items, nil
}

func (m *mockStorage) ListActionItems(_ context.Context, _ *entity.ListActionItemsRequest) ([]entity.ActionItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.actionItems, len(m.actionItems), nil
}

func (m *mockStorage) UpdateActionItem(_ context.Context, _ string, _ *entity.UpdateActionItemRequest) (*entity.ActionItem, error) {
	return nil, storage.ErrNotFound
}

func (m *mockStorage) DeleteActionItem(_ context.Context, _ string) error {
	return nil
}

func (m *mockStorage) Close() {}

type mockTranscriber struct {
	result *entity.TranscriptResult
	err    error
	calls  int
}

func (m *mockTranscriber) TranscribeFromURL(_ context.Context, _ string) (*entity.TranscriptResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockAnalyzer struct {
	items      []entity.ExtractedActionItem
	itemsErr   error
	summary    *entity.SummaryResult
	summaryErr error

	itemCalls    int
	summaryCalls int
}

func (m *mockAnalyzer) ExtractActionItems(_ context.Context, _ string) ([]entity.ExtractedActionItem, error) {
	m.itemCalls++
	return m.items, m.itemsErr
}

func (m *mockAnalyzer) GenerateSummaryAndTitle(_ context.Context, _ string) (*entity.SummaryResult, error) {
	m.summaryCalls++
	return m.summary, m.summaryErr
}

type mockFileStore struct {
	uploadErr error
	signErr   error
	deleteErr error
	signed    string
	deleted   []string
}

func (m *mockFileStore) Upload(_ context.Context, objectPath string, data []byte, _ string) (*blobstore.UploadResult, error) {
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	return &blobstore.UploadResult{Path: objectPath, Size: int64(len(data))}, nil
}

func (m *mockFileStore) SignURL(_ context.Context, objectPath string, _ time.Duration) (string, error) {
	if m.signErr != nil {
		return "", m.signErr
	}
	if m.signed != "" {
		return m.signed, nil
	}
	return "https://files.test/" + objectPath, nil
}

func (m *mockFileStore) Delete(_ context.Context, objectPaths ...string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, objectPaths...)
	return nil
}

func queuedMeeting() *entity.Meeting {
	return &entity.Meeting{
		ID:       "m-1",
		Title:    "Meeting 2026-01-15 10:00",
		FilePath: "users/u-1/meetings/1_a.webm",
		OwnerID:  "u-1",
		Status:   entity.StatusQueued,
	}
}

func newTestUsecase(stg *mockStorage, t *mockTranscriber, a *mockAnalyzer) Usecase {
	return New(stg, t, a, &mockFileStore{}, queue.NewMemoryQueue(8), metrics.New(), Config{})
}

func TestProcessMeetingHappyPath(t *testing.T) {
	stg := newMockStorage(queuedMeeting())
	transcriber := &mockTranscriber{result: &entity.TranscriptResult{
		Transcript: "we agreed that alice will send the report by friday",
		Confidence: 0.8849,
		Duration:   125.4,
		Summary:    "Planning sync.",
		Utterances: []entity.Utterance{
			{Speaker: 0, Text: "we agreed", Start: 0.0049, End: 1.5001, Confidence: 0.91},
			{Speaker: 1, Text: "alice will send the report by friday", Start: 1.6, End: 5.25, Confidence: 0.87},
		},
	}}
	analyzer := &mockAnalyzer{
		items: []entity.ExtractedActionItem{
			{Description: "Send the report", Priority: "HIGH", Assignee: "Alice"},
			{Description: "Book the follow-up", Priority: "someday"},
		},
		summary: &entity.SummaryResult{Title: "Report planning", Summary: "The team agreed on a report deadline."},
	}

	uc := newTestUsecase(stg, transcriber, analyzer)
	require.NoError(t, uc.ProcessMeeting(context.Background(), "m-1", "u-1"))

	assert.Equal(t, []entity.MeetingStatus{
		entity.StatusTranscribing,
		entity.StatusAnalyzing,
		entity.StatusCompleted,
	}, stg.transitions)

	require.NotNil(t, stg.transcription)
	assert.Equal(t, 88, stg.transcription.Confidence)
	assert.Equal(t, 10, stg.transcription.WordCount)
	require.NotNil(t, stg.transcription.Summary)
	assert.Equal(t, "Planning sync.", *stg.transcription.Summary)

	require.Len(t, stg.segments, 2)
	assert.Equal(t, 5, stg.segments[0].StartTime)
	assert.Equal(t, 1500, stg.segments[0].EndTime)
	assert.Equal(t, 91, stg.segments[0].Confidence)
	assert.Equal(t, 1, stg.segments[1].SpeakerNumber)

	meeting := stg.meetings["m-1"]
	assert.Equal(t, 125, meeting.Duration)
	assert.Equal(t, "Report planning", meeting.Title)
	require.NotNil(t, meeting.Summary)

	require.Len(t, stg.actionItems, 2)
	assert.Equal(t, entity.PriorityHigh, stg.actionItems[0].Priority)
	require.NotNil(t, stg.actionItems[0].Speaker)
	assert.Equal(t, "Alice", *stg.actionItems[0].Speaker)
	assert.Equal(t, entity.PriorityMedium, stg.actionItems[1].Priority)
	assert.Equal(t, "u-1", stg.actionItems[0].CreatedBy)
}

func TestProcessMeetingTranscriptionFailureIsFatal(t *testing.T) {
	stg := newMockStorage(queuedMeeting())
	transcriber := &mockTranscriber{err: provider.NewError(provider.Unavailable, "deepgram", "listen", fmt.Errorf("503"))}
	analyzer := &mockAnalyzer{}

	uc := newTestUsecase(stg, transcriber, analyzer)
	err := uc.ProcessMeeting(context.Background(), "m-1", "u-1")
	require.Error(t, err)

	meeting := stg.meetings["m-1"]
	assert.Equal(t, entity.StatusFailed, meeting.Status)
	require.NotNil(t, meeting.ErrorMessage)
	assert.Contains(t, *meeting.ErrorMessage, "transcription failed")

	assert.Nil(t, stg.transcription, "no transcript rows on transcription failure")
	assert.Zero(t, analyzer.itemCalls, "analysis must not run after transcription failure")
	assert.Zero(t, analyzer.summaryCalls)
}

func TestProcessMeetingPersistFailureIsFatal(t *testing.T) {
	stg := newMockStorage(queuedMeeting())
	stg.saveTranscriptionErr = fmt.Errorf("connection reset")
	transcriber := &mockTranscriber{result: &entity.TranscriptResult{Transcript: "hello there", Confidence: 0.9}}
	analyzer := &mockAnalyzer{}

	uc := newTestUsecase(stg, transcriber, analyzer)
	require.Error(t, uc.ProcessMeeting(context.Background(), "m-1", "u-1"))

	assert.Equal(t, entity.StatusFailed, stg.meetings["m-1"].Status)
	assert.Zero(t, analyzer.itemCalls)
}

func TestProcessMeetingEnrichmentFailuresAreIsolated(t *testing.T) {
	stg := newMockStorage(queuedMeeting())
	transcriber := &mockTranscriber{result: &entity.TranscriptResult{Transcript: "a long enough transcript", Confidence: 0.9, Duration: 10}}
	analyzer := &mockAnalyzer{
		itemsErr:   provider.NewError(provider.RateLimited, "openai", "chat", fmt.Errorf("429")),
		summaryErr: provider.NewError(provider.ParseError, "openai", "chat", fmt.Errorf("bad json")),
	}

	uc := newTestUsecase(stg, transcriber, analyzer)
	require.NoError(t, uc.ProcessMeeting(context.Background(), "m-1", "u-1"))

	meeting := stg.meetings["m-1"]
	assert.Equal(t, entity.StatusCompleted, meeting.Status)
	assert.Nil(t, meeting.ErrorMessage)
	assert.Empty(t, stg.actionItems)
	assert.Nil(t, meeting.Summary)
	assert.Equal(t, 1, analyzer.itemCalls)
	assert.Equal(t, 1, analyzer.summaryCalls)
}

func TestProcessMeetingNilSummaryKeepsPlaceholderTitle(t *testing.T) {
	stg := newMockStorage(queuedMeeting())
	transcriber := &mockTranscriber{result: &entity.TranscriptResult{Transcript: "uh hm ok", Confidence: 0.5, Duration: 3}}
	analyzer := &mockAnalyzer{summary: nil}

	uc := newTestUsecase(stg, transcriber, analyzer)
	require.NoError(t, uc.ProcessMeeting(context.Background(), "m-1", "u-1"))

	assert.Equal(t, "Meeting 2026-01-15 10:00", stg.meetings["m-1"].Title)
	assert.Equal(t, entity.StatusCompleted, stg.meetings["m-1"].Status)
}

func TestProcessMeetingSkipsWhenNotQueued(t *testing.T) {
	meeting := queuedMeeting()
	meeting.Status = entity.StatusCompleted
	stg := newMockStorage(meeting)
	transcriber := &mockTranscriber{}
	analyzer := &mockAnalyzer{}

	uc := newTestUsecase(stg, transcriber, analyzer)
	require.NoError(t, uc.ProcessMeeting(context.Background(), "m-1", "u-1"))

	assert.Zero(t, transcriber.calls, "transcriber must not run on an unclaimed meeting")
	assert.Empty(t, stg.transitions)
	assert.Equal(t, entity.StatusCompleted, stg.meetings["m-1"].Status)
}

func TestProcessMeetingActionItemsFallBackToSystemActor(t *testing.T) {
	stg := newMockStorage(queuedMeeting())
	transcriber := &mockTranscriber{result: &entity.TranscriptResult{Transcript: "do the thing", Confidence: 1}}
	analyzer := &mockAnalyzer{items: []entity.ExtractedActionItem{{Description: "Do the thing", Priority: "low"}}}

	uc := newTestUsecase(stg, transcriber, analyzer)
	require.NoError(t, uc.ProcessMeeting(context.Background(), "m-1", ""))

	require.Len(t, stg.actionItems, 1)
	assert.Equal(t, "system", stg.actionItems[0].CreatedBy)
	assert.Equal(t, entity.PriorityLow, stg.actionItems[0].Priority)
}
