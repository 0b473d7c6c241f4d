package entity

import "time"

// MeetingStatus tracks a recording through the processing state machine.
// Transitions are strictly queued -> transcribing -> analyzing -> completed,
// with failed reachable from any non-terminal state.
type MeetingStatus string

const (
	StatusQueued       MeetingStatus = "queued"
	StatusTranscribing MeetingStatus = "transcribing"
	StatusAnalyzing    MeetingStatus = "analyzing"
	StatusCompleted    MeetingStatus = "completed"
	StatusFailed       MeetingStatus = "failed"
)

func (s MeetingStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusTranscribing, StatusAnalyzing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the pipeline stops at this status.
func (s MeetingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Meeting struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Duration     int           `json:"duration"` // seconds, 0 until transcribed
	FileSize     int64         `json:"fileSize"`
	FilePath     string        `json:"-"` // storage path, never exposed raw
	FileURL      string        `json:"fileUrl,omitempty"`
	Summary      *string       `json:"summary,omitempty"`
	Status       MeetingStatus `json:"status"`
	ErrorMessage *string       `json:"errorMessage,omitempty"`
	OwnerID      string        `json:"userId"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`

	Transcription *Transcription `json:"transcription,omitempty"`
	ActionItems   []ActionItem   `json:"actionItems,omitempty"`
}

type CreateMeetingRequest struct {
	Title    string
	FilePath string
	FileSize int64
	OwnerID  string
}

// UpdateMeetingRequest patches a meeting. Nil fields are left untouched.
type UpdateMeetingRequest struct {
	Title        *string
	Summary      *string
	Duration     *int
	Status       *MeetingStatus
	ErrorMessage *string
}

type ListMeetingsRequest struct {
	OwnerID string
	Status  string
	Limit   int
	Offset  int
}

type MeetingStats struct {
	TotalMeetings   int `json:"totalMeetings"`
	TotalDuration   int `json:"totalDuration"`
	AverageDuration int `json:"averageDuration"`
	ActiveMeetings  int `json:"activeMeetings"`
}
