package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vijay-prabhu/researchdesk/internal/config"
)

// OpenAI talks to OpenAI-compatible chat completion endpoints
type OpenAI struct {
	endpoint     string
	queryModel   string
	summaryModel string
	apiKey       string
	maxChars     int
	httpClient   *http.Client
}

var _ Client = (*OpenAI)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAI builds a client from configuration
func NewOpenAI(cfg config.OpenAIConfig, apiKey string, maxChars int) *OpenAI {
	queryModel := cfg.QueryModel
	if queryModel == "" {
		queryModel = cfg.Model
	}
	summaryModel := cfg.SummaryModel
	if summaryModel == "" {
		summaryModel = cfg.Model
	}
	return &OpenAI{
		endpoint:     cfg.Endpoint,
		queryModel:   queryModel,
		summaryModel: summaryModel,
		apiKey:       apiKey,
		maxChars:     maxChars,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the backend identifier
func (c *OpenAI) Name() string {
	return "openai"
}

// OptimizeQuery asks the model for a focused search query
func (c *OpenAI) OptimizeQuery(ctx context.Context, topic string) (string, error) {
	out, err := c.chat(ctx, chatRequest{
		Model: c.queryModel,
		Messages: []chatMessage{
			{Role: "system", Content: queryPrompt},
			{Role: "user", Content: queryUserMessage(topic)},
		},
		MaxTokens: queryMaxTokens,
	})
	if err != nil {
		return "", err
	}
	q := cleanQuery(out)
	if q == "" {
		return "", errors.New("empty query from model")
	}
	return q, nil
}

// Summarize asks the model for a short summary of the page
func (c *OpenAI) Summarize(ctx context.Context, title, text string) (string, error) {
	temp := summaryTemperature
	out, err := c.chat(ctx, chatRequest{
		Model: c.summaryModel,
		Messages: []chatMessage{
			{Role: "system", Content: summaryPrompt},
			{Role: "user", Content: summaryUserMessage(title, text, c.maxChars)},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *OpenAI) chat(ctx context.Context, payload chatRequest) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || payload.Model == "" {
		return "", errors.New("openai client misconfigured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}
