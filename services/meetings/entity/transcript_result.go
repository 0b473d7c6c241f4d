package entity

// TranscriptResult is the normalized output of one speech-to-text call,
// before ingestion rounding. Confidences are 0-1 floats and times are
// floating-point seconds, exactly as the provider reports them.
type TranscriptResult struct {
	Transcript string
	Words      []TranscriptWord
	Utterances []Utterance
	Confidence float64
	Duration   float64 // seconds
	Summary    string  // provider-side short summary, may be empty
	Topics     []string
}

type TranscriptWord struct {
	Word       string
	Start      float64
	End        float64
	Confidence float64
}

type Utterance struct {
	Speaker    int
	Text       string
	Start      float64
	End        float64
	Confidence float64
}

// ExtractedActionItem is one item the language model pulled out of a
// transcript.
type ExtractedActionItem struct {
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Speaker     string `json:"speaker,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

// SummaryResult is the title/summary pair from the language model. A nil
// result means the content did not warrant one.
type SummaryResult struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}
