package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/researchdesk/internal/config"
)

func TestExtractiveSummary(t *testing.T) {
	text := "Short. This is the first long sentence. Tiny. Second long sentence here. Third long sentence now. Fourth long sentence too."

	got, err := ExtractiveSummary(text, 3)
	require.NoError(t, err)
	assert.Equal(t, "This is the first long sentence. Second long sentence here. Third long sentence now.", got)

	_, err = ExtractiveSummary("a. b. c.", 3)
	assert.ErrorIs(t, err, ErrNoSentences)
}

func TestFallbackClient(t *testing.T) {
	f := NewFallback()

	q, err := f.OptimizeQuery(context.Background(), "  quantum computing ")
	require.NoError(t, err)
	assert.Equal(t, "quantum computing", q)

	s, err := f.Summarize(context.Background(), "title", "The market grew quickly this year. Analysts expect more.")
	require.NoError(t, err)
	assert.Equal(t, "The market grew quickly this year. Analysts expect more.", s)
}

func newOpenAIServer(t *testing.T, reply string, capture *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIOptimizeQuery(t *testing.T) {
	var req chatRequest
	srv := newOpenAIServer(t, `"quantum computing breakthroughs 2025"`, &req)

	c := NewOpenAI(config.OpenAIConfig{Endpoint: srv.URL, Model: "gpt-4o-mini", QueryModel: "gpt-3.5-turbo"}, "sk-test", 3000)

	q, err := c.OptimizeQuery(context.Background(), "quantum computing")
	require.NoError(t, err)

	assert.Equal(t, "quantum computing breakthroughs 2025", q)
	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	assert.Equal(t, 50, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "Generate a search query for: quantum computing", req.Messages[1].Content)
}

func TestOpenAISummarizeTruncatesInput(t *testing.T) {
	var req chatRequest
	srv := newOpenAIServer(t, "  A summary.  ", &req)

	c := NewOpenAI(config.OpenAIConfig{Endpoint: srv.URL, Model: "gpt-4o-mini"}, "sk-test", 10)

	s, err := c.Summarize(context.Background(), "Title", strings.Repeat("x", 50))
	require.NoError(t, err)

	assert.Equal(t, "A summary.", s)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 150, req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.3, *req.Temperature, 1e-9)
	assert.Equal(t, "Title: Title\n\nContent: "+strings.Repeat("x", 10), req.Messages[1].Content)
}

func TestOpenAIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAI(config.OpenAIConfig{Endpoint: srv.URL, Model: "m"}, "sk-test", 100)
	_, err := c.Summarize(context.Background(), "", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

type countingClient struct {
	Fallback
	calls atomic.Int32
}

func (c *countingClient) Summarize(ctx context.Context, title, text string) (string, error) {
	c.calls.Add(1)
	return "ok", nil
}

func TestWithRateLimitHonorsContext(t *testing.T) {
	inner := &countingClient{}
	c := WithRateLimit(inner, 0.001, 1)

	_, err := c.Summarize(context.Background(), "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Summarize(ctx, "", "")
	assert.Error(t, err)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestNewSelectsBackend(t *testing.T) {
	t.Setenv(config.EnvOpenAIAPIKey, "")

	cfg := config.Default()
	c, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "extractive", c.Name(), "missing key degrades to extractive")

	t.Setenv(config.EnvOpenAIAPIKey, "sk-test")
	c, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	cfg.LLM.Provider = "none"
	c, err = New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "extractive", c.Name())
}
