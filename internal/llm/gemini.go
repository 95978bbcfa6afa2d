package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Client on Google's Gemini models
type Gemini struct {
	client   *genai.Client
	model    string
	maxChars int
}

var _ Client = (*Gemini)(nil)

// NewGemini creates a Gemini client
func NewGemini(ctx context.Context, model, apiKey string, maxChars int) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}
	if model == "" {
		return nil, errors.New("llm.gemini.model is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Gemini{client: client, model: model, maxChars: maxChars}, nil
}

// Name returns the backend identifier
func (g *Gemini) Name() string {
	return "gemini"
}

// OptimizeQuery asks the model for a focused search query
func (g *Gemini) OptimizeQuery(ctx context.Context, topic string) (string, error) {
	out, err := g.generate(ctx, queryPrompt, queryUserMessage(topic), queryMaxTokens, 0)
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
func (g *Gemini) Summarize(ctx context.Context, title, text string) (string, error) {
	out, err := g.generate(ctx, summaryPrompt, summaryUserMessage(title, text, g.maxChars), summaryMaxTokens, summaryTemperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Close releases resources held by the client
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *Gemini) generate(ctx context.Context, system, prompt string, maxTokens int32, temperature float32) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.SetMaxOutputTokens(maxTokens)
	model.SetTemperature(temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractText(resp)
}

// extractText concatenates the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
