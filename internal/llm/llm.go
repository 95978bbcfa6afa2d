// Package llm provides the language-model operations used by research:
// query optimization and page summarization.
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/vijay-prabhu/researchdesk/internal/config"
	"github.com/vijay-prabhu/researchdesk/internal/logger"
)

// Client is implemented by every LLM backend
type Client interface {
	// Name returns the backend identifier
	Name() string

	// OptimizeQuery rewrites a topic into a focused search query
	OptimizeQuery(ctx context.Context, topic string) (string, error)

	// Summarize returns a two to three sentence summary of a page
	Summarize(ctx context.Context, title, text string) (string, error)
}

// Prompts shared by the backends
const (
	queryPrompt = "You are a helpful assistant that generates search queries based on user questions. " +
		"Generate a focused search query for finding recent, relevant news articles and content. " +
		"Return only the search query, nothing else."
	summaryPrompt = "You are an assistant that writes concise article summaries. " +
		"Give a short summary that captures the main points in 2-3 sentences, " +
		"written in the same language as the article."

	queryMaxTokens     = 50
	summaryMaxTokens   = 150
	summaryTemperature = 0.3
)

func queryUserMessage(topic string) string {
	return "Generate a search query for: " + topic
}

func summaryUserMessage(title, text string, maxChars int) string {
	return fmt.Sprintf("Title: %s\n\nContent: %s", title, truncateRunes(text, maxChars))
}

// cleanQuery strips quotes and whitespace models like to wrap queries in
func cleanQuery(q string) string {
	return strings.Trim(strings.TrimSpace(q), `"'`)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// New builds the client selected by configuration. A backend whose API key
// is missing degrades to the offline sentence summarizer with a warning.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	maxChars := cfg.Summarizer.MaxInputChars

	var client Client
	switch cfg.LLM.Provider {
	case "openai":
		key := cfg.OpenAIAPIKey()
		if key == "" {
			log.Warn("OPENAI_API_KEY not set, using extractive summaries")
			return NewFallback(), nil
		}
		client = NewOpenAI(cfg.LLM.OpenAI, key, maxChars)
	case "gemini":
		key := cfg.GeminiAPIKey()
		if key == "" {
			log.Warn("GEMINI_API_KEY not set, using extractive summaries")
			return NewFallback(), nil
		}
		g, err := NewGemini(ctx, cfg.LLM.Gemini.Model, key, maxChars)
		if err != nil {
			return nil, err
		}
		client = g
	case "none", "":
		return NewFallback(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}

	if cfg.Summarizer.RequestsPerSecond > 0 {
		client = WithRateLimit(client, cfg.Summarizer.RequestsPerSecond, cfg.Summarizer.Burst)
	}
	return client, nil
}

// limited throttles calls to a backend
type limited struct {
	Client
	limiter *rate.Limiter
}

// WithRateLimit wraps c so calls wait for a token from a shared limiter
func WithRateLimit(c Client, perSecond float64, burst int) Client {
	if burst < 1 {
		burst = 1
	}
	return &limited{Client: c, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *limited) OptimizeQuery(ctx context.Context, topic string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return l.Client.OptimizeQuery(ctx, topic)
}

func (l *limited) Summarize(ctx context.Context, title, text string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return l.Client.Summarize(ctx, title, text)
}
