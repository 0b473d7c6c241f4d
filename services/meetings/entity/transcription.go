package entity

import "time"

type Transcription struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meetingId"`
	Status     string    `json:"status"`
	FullText   string    `json:"fullText"`
	Summary    *string   `json:"summary,omitempty"` // provider-generated short summary
	Confidence int       `json:"confidence"`        // 0-100
	Language   string    `json:"language"`
	WordCount  int       `json:"wordCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	ChatSegments []ChatSegment `json:"chatSegments,omitempty"`
}

// ChatSegment is one diarized utterance. Times are milliseconds from the
// start of the recording; StartTime <= EndTime always holds.
type ChatSegment struct {
	ID              string    `json:"id"`
	TranscriptionID string    `json:"transcriptionId"`
	SpeakerNumber   int       `json:"speakerNumber"`
	Text            string    `json:"text"`
	StartTime       int       `json:"startTime"`
	EndTime         int       `json:"endTime"`
	Confidence      int       `json:"confidence"`
	CreatedAt       time.Time `json:"createdAt"`
}

type TranscriptionStats struct {
	WordCount    int `json:"wordCount"`
	Confidence   int `json:"confidence"`
	SegmentCount int `json:"segmentCount"`
	SpeakerCount int `json:"speakerCount"`
}
