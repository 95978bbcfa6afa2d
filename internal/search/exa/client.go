// Package exa implements search.Provider on the Exa neural search API.
package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/search"
)

const providerName = "exa"

// Client is an HTTP client for the Exa API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
	now        func() time.Time
}

var _ search.Provider = (*Client)(nil)

// SearchRequest is the request body for /search
type SearchRequest struct {
	Query              string   `json:"query"`
	NumResults         int      `json:"numResults"`
	StartPublishedDate string   `json:"startPublishedDate,omitempty"`
	Type               string   `json:"type"`
	IncludeDomains     []string `json:"includeDomains,omitempty"`
	ExcludeDomains     []string `json:"excludeDomains,omitempty"`
}

// ContentsRequest is the request body for /contents
type ContentsRequest struct {
	IDs  []string `json:"ids"`
	Text bool     `json:"text"`
}

// Result is a single Exa hit
type Result struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate"`
	Author        string   `json:"author"`
	Score         *float64 `json:"score"`
	Text          string   `json:"text"`
}

// Response is the envelope returned by /search and /contents
type Response struct {
	Results []Result `json:"results"`
}

// New creates a new Exa client. The timeout bounds a single HTTP call;
// callers put an overall deadline on the context.
func New(baseURL, apiKey string, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: log.With(logger.String("provider", providerName)),
		now:    time.Now,
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return providerName
}

// Search runs a neural search and fills page text for the first results
func (c *Client) Search(ctx context.Context, opts search.Options) ([]research.CandidateRecord, error) {
	if c.apiKey == "" {
		return nil, &research.ProviderError{Provider: providerName, Op: "search", Err: fmt.Errorf("EXA_API_KEY is not set")}
	}
	opts = opts.WithDefaults()

	resp, err := c.RawSearch(ctx, SearchRequest{
		Query:              opts.Query,
		NumResults:         opts.NumResults,
		StartPublishedDate: opts.StartDate(c.now()).Format("2006-01-02"),
		Type:               "neural",
		IncludeDomains:     opts.IncludeDomains,
		ExcludeDomains:     opts.ExcludeDomains,
	})
	if err != nil {
		return nil, err
	}

	records := make([]research.CandidateRecord, 0, len(resp.Results))
	for _, r := range resp.Results {
		records = append(records, r.record())
	}

	urls := search.FirstURLs(records, opts.ContentsLimit)
	if len(urls) == 0 {
		return records, nil
	}

	// page text is best-effort; snippets from the search stay in place
	contents, err := c.Contents(ctx, urls)
	if err != nil {
		c.logger.Warn("failed to fetch contents", logger.Int("urls", len(urls)), logger.Err(err))
		return records, nil
	}

	texts := make(map[string]string, len(contents))
	for _, r := range contents {
		texts[r.URL] = r.Text
	}
	search.MergeText(records, texts)

	return records, nil
}

// RawSearch calls /search
func (c *Client) RawSearch(ctx context.Context, req SearchRequest) (*Response, error) {
	var resp Response
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Contents calls /contents for the given URLs
func (c *Client) Contents(ctx context.Context, urls []string) ([]Result, error) {
	var resp Response
	if err := c.post(ctx, "/contents", ContentsRequest{IDs: urls, Text: true}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	op := strings.TrimPrefix(path, "/")

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &research.ProviderError{Provider: providerName, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("exa request",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &research.ProviderError{
			Provider:   providerName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &research.ProviderError{Provider: providerName, Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func (r Result) record() research.CandidateRecord {
	return research.CandidateRecord{
		ID:            r.ID,
		Title:         r.Title,
		URL:           r.URL,
		PublishedDate: r.PublishedDate,
		Author:        r.Author,
		Text:          r.Text,
		ExternalScore: r.Score,
	}
}
