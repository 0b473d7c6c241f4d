// Package openai wraps the chat-completions API for transcript enrichment:
// action-item extraction and title/summary generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/attendly/backend/pkg/provider"
	"github.com/attendly/backend/services/meetings/entity"
)

const (
	defaultBaseURL = "https://api.openai.com"
	providerName   = "openai"

	model       = "gpt-3.5-turbo"
	temperature = 0.3

	// Transcripts below this length are noise; skip the provider entirely.
	minTranscriptChars = 50
)

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
		timeout = 60 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

const actionItemsSystemPrompt = `You are an expert at analyzing meeting transcripts and extracting actionable items. Be strict: only include items that are clearly actionable commitments. Be concise and practical.`

const actionItemsUserPrompt = `Analyze the following meeting transcript and extract action items.
Only include items that are specific and actionable, ideally with a deadline or an assignee.
Do not include generic, repetitive, or low-value items. If the transcript contains no real
action items (for example silence, filler, or noise), return an empty list.

For each action item provide:
- A clear, actionable description
- Priority level (high, medium, low) based on urgency and importance
- Speaker identification if mentioned

Transcript:
%s

Return the action items in JSON format:
{
  "actionItems": [
    {
      "description": "Clear action item description",
      "priority": "high|medium|low",
      "speaker": "Speaker name or number if mentioned",
      "assignee": "Person assigned if mentioned"
    }
  ]
}`

const summarySystemPrompt = `You are an expert at summarizing meeting content. Be concise and highlight key decisions and outcomes.`

const summaryUserPrompt = `Create a title and a summary for the following meeting transcript.
The title must be at most 10 words. The summary must be at most 200 words and focus on key
decisions, main topics discussed, and important outcomes. If the transcript is too short or
contains no meaningful content, return null for both fields.

Transcript:
%s

Return JSON:
{
  "title": "Meeting title or null",
  "summary": "Meeting summary or null"
}`

// ExtractActionItems asks the model for actionable commitments found in the
// transcript. Short transcripts return an empty list without a provider call.
func (c *Client) ExtractActionItems(ctx context.Context, transcript string) ([]entity.ExtractedActionItem, error) {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return nil, nil
	}

	content, err := c.chatComplete(ctx, "extract_action_items",
		actionItemsSystemPrompt,
		fmt.Sprintf(actionItemsUserPrompt, transcript),
		1000)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		ActionItems []entity.ExtractedActionItem `json:"actionItems"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, provider.NewError(provider.ParseError, providerName, "extract_action_items", err)
	}

	return parsed.ActionItems, nil
}

// GenerateSummaryAndTitle produces a title/summary pair, or nil when the
// content does not warrant one. Provider and parse failures also yield nil
// with the error for the caller to log.
func (c *Client) GenerateSummaryAndTitle(ctx context.Context, transcript string) (*entity.SummaryResult, error) {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return nil, nil
	}

	content, err := c.chatComplete(ctx, "generate_summary",
		summarySystemPrompt,
		fmt.Sprintf(summaryUserPrompt, transcript),
		500)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title   *string `json:"title"`
		Summary *string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, provider.NewError(provider.ParseError, providerName, "generate_summary", err)
	}

	if parsed.Title == nil || parsed.Summary == nil {
		return nil, nil
	}

	return &entity.SummaryResult{
		Title:   *parsed.Title,
		Summary: *parsed.Summary,
	}, nil
}

func (c *Client) chatComplete(ctx context.Context, op, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", provider.NewError(provider.InvalidContent, providerName, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", provider.NewError(provider.Unavailable, providerName, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", provider.NewError(provider.Unavailable, providerName, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.NewError(provider.Unavailable, providerName, op, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", provider.NewError(provider.RateLimited, providerName, op,
			fmt.Errorf("HTTP 429: %s", body))
	case resp.StatusCode != http.StatusOK:
		return "", provider.NewError(provider.Unavailable, providerName, op,
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", provider.NewError(provider.ParseError, providerName, op, err)
	}

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return "", provider.NewError(provider.InvalidContent, providerName, op,
			fmt.Errorf("empty completion"))
	}

	return stripCodeFence(apiResp.Choices[0].Message.Content), nil
}

// stripCodeFence removes a wrapping markdown code fence; models frequently
// wrap JSON answers in one despite instructions.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	} else {
		return content
	}

	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
