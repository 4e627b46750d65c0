package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/analysis"
)

func completionResponse(content string) string {
	body := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func newStubServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithBaseURL("test-key", srv.URL+"/v1", "gpt-4o", "", 5*time.Second)
}

func TestSummarize(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse(`{"summary":"A quarterly report.","key_points":["Revenue up 10%"]}`)))
	})

	s, err := client.Summarize(context.Background(), "Revenue grew 10%.", analysis.Provenance{
		Filename: "q3.pdf",
		Format:   "document",
	})
	require.NoError(t, err)
	assert.Equal(t, "A quarterly report.", s.Summary)
	assert.Equal(t, []string{"Revenue up 10%"}, s.KeyPoints)
}

func TestSummarizeTimeoutBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewClientWithBaseURL("test-key", srv.URL+"/v1", "gpt-4o", "", 50*time.Millisecond)

	start := time.Now()
	_, err := client.Summarize(context.Background(), "text", analysis.Provenance{Filename: "a.csv"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, elapsed, 2*time.Second, "call must return near the configured timeout")
}

func TestSummarizeQuotaExceeded(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit reached","type":"requests"}}`))
	})

	_, err := client.Summarize(context.Background(), "text", analysis.Provenance{Filename: "a.csv"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domai.ErrQuotaExceeded))
}

func TestSummarizeServerError(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Summarize(context.Background(), "text", analysis.Provenance{Filename: "a.csv"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domai.ErrQuotaExceeded))
}

func TestDescribeImage(t *testing.T) {
	var gotModel string
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse("A line chart trending upward.")))
	})

	desc, err := client.DescribeImage(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "A line chart trending upward.", desc)
	assert.Equal(t, "gpt-4o", gotModel, "vision model defaults to the chat model")
}
