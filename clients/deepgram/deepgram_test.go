package deepgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendly/backend/pkg/provider"
)

const sampleResponse = `{
	"metadata": {"duration": 62.35},
	"results": {
		"channels": [{
			"alternatives": [{
				"transcript": "hello world, let us begin.",
				"confidence": 0.9321,
				"words": [
					{"word": "hello", "start": 0.1, "end": 0.5, "confidence": 0.99},
					{"word": "world", "start": 0.6, "end": 1.0, "confidence": 0.97}
				]
			}]
		}],
		"utterances": [
			{"start": 0.1, "end": 1.0, "confidence": 0.95, "transcript": "hello world", "speaker": 0},
			{"start": 1.2, "end": 2.4, "confidence": 0.9, "transcript": "let us begin", "speaker": 1}
		],
		"summary": {"short": "A greeting."},
		"topics": {"segments": [{"topics": [{"topic": "introductions"}]}]}
	}
}`

func TestTranscribeFromURL(t *testing.T) {
	var gotReq *http.Request
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := New(Config{APIKey: "dg-key", BaseURL: srv.URL})
	result, err := client.TranscribeFromURL(context.Background(), "https://files.test/a.webm")
	require.NoError(t, err)

	assert.Equal(t, "/v1/listen", gotReq.URL.Path)
	assert.Equal(t, "Token dg-key", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "https://files.test/a.webm", gotBody["url"])

	q := gotReq.URL.Query()
	assert.Equal(t, "nova-3", q.Get("model"))
	assert.Equal(t, "en-US", q.Get("language"))
	assert.Equal(t, "true", q.Get("diarize"))
	assert.Equal(t, "true", q.Get("utterances"))
	assert.Equal(t, "v2", q.Get("summarize"))

	assert.Equal(t, "hello world, let us begin.", result.Transcript)
	assert.InDelta(t, 0.9321, result.Confidence, 1e-9)
	assert.InDelta(t, 62.35, result.Duration, 1e-9)
	assert.Equal(t, "A greeting.", result.Summary)
	assert.Len(t, result.Words, 2)
	require.Len(t, result.Utterances, 2)
	assert.Equal(t, 1, result.Utterances[1].Speaker)
	assert.Equal(t, "let us begin", result.Utterances[1].Text)
	assert.Equal(t, []string{"introductions"}, result.Topics)
}

func TestTranscribeFromURLErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   provider.Kind
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"err_msg":"rate limit"}`, kind: provider.RateLimited},
		{name: "server error", status: http.StatusBadGateway, body: "bad gateway", kind: provider.Unavailable},
		{name: "unparseable body", status: http.StatusOK, body: "<html>", kind: provider.ParseError},
		{name: "no channels", status: http.StatusOK, body: `{"results":{"channels":[]}}`, kind: provider.InvalidContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := New(Config{APIKey: "dg-key", BaseURL: srv.URL})
			_, err := client.TranscribeFromURL(context.Background(), "https://files.test/a.webm")
			require.Error(t, err)
			assert.Equal(t, tt.kind, provider.KindOf(err))
		})
	}
}
