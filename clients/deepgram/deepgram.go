// Package deepgram wraps the Deepgram prerecorded transcription API.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/attendly/backend/pkg/provider"
	"github.com/attendly/backend/services/meetings/entity"
)

const defaultBaseURL = "https://api.deepgram.com"

const providerName = "deepgram"

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	APIKey  string
	Timeout time.Duration
	// BaseURL overrides the API endpoint, used in tests.
	BaseURL string
}

func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// TranscribeFromURL submits a reachable audio URL for synchronous
// transcription with diarization and utterance segmentation enabled.
func (c *Client) TranscribeFromURL(ctx context.Context, audioURL string) (*entity.TranscriptResult, error) {
	params := url.Values{}
	params.Set("model", "nova-3")
	params.Set("language", "en-US")
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	params.Set("diarize", "true")
	params.Set("utterances", "true")
	params.Set("summarize", "v2")
	params.Set("detect_topics", "true")
	params.Set("sentiment", "true")

	payload, err := json.Marshal(map[string]string{"url": audioURL})
	if err != nil {
		return nil, provider.NewError(provider.InvalidContent, providerName, "transcribe", err)
	}

	endpoint := c.baseURL + "/v1/listen?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "transcribe", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "transcribe", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "transcribe", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, provider.NewError(provider.RateLimited, providerName, "transcribe",
			fmt.Errorf("HTTP 429: %s", body))
	case resp.StatusCode != http.StatusOK:
		return nil, provider.NewError(provider.Unavailable, providerName, "transcribe",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, provider.NewError(provider.ParseError, providerName, "transcribe", err)
	}

	return mapResponse(&apiResp)
}

func mapResponse(resp *apiResponse) (*entity.TranscriptResult, error) {
	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return nil, provider.NewError(provider.InvalidContent, providerName, "transcribe",
			fmt.Errorf("response has no transcription channels"))
	}

	alt := resp.Results.Channels[0].Alternatives[0]

	result := &entity.TranscriptResult{
		Transcript: alt.Transcript,
		Confidence: alt.Confidence,
		Duration:   resp.Metadata.Duration,
		Summary:    resp.Results.Summary.Short,
	}

	for _, w := range alt.Words {
		result.Words = append(result.Words, entity.TranscriptWord{
			Word:       w.Word,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Confidence,
		})
	}

	for _, u := range resp.Results.Utterances {
		result.Utterances = append(result.Utterances, entity.Utterance{
			Speaker:    u.Speaker,
			Text:       u.Transcript,
			Start:      u.Start,
			End:        u.End,
			Confidence: u.Confidence,
		})
	}

	for _, seg := range resp.Results.Topics.Segments {
		for _, t := range seg.Topics {
			result.Topics = append(result.Topics, t.Topic)
		}
	}

	return result, nil
}

// apiResponse mirrors the subset of the Deepgram response the service uses.
type apiResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []struct {
					Word       string  `json:"word"`
					Start      float64 `json:"start"`
					End        float64 `json:"end"`
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Confidence float64 `json:"confidence"`
			Transcript string  `json:"transcript"`
			Speaker    int     `json:"speaker"`
		} `json:"utterances"`
		Summary struct {
			Short string `json:"short"`
		} `json:"summary"`
		Topics struct {
			Segments []struct {
				Topics []struct {
					Topic string `json:"topic"`
				} `json:"topics"`
			} `json:"segments"`
		} `json:"topics"`
	} `json:"results"`
}
