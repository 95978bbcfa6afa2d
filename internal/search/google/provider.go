// Package google implements search.Provider on Google Programmable Search,
// fetching page text itself since the API only returns snippets.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/search"
)

const (
	providerName = "google"
	// the API caps a single page at 10 results
	pageSize = 10
	// results past the 100th are rejected with HTTP 400
	maxResults       = 100
	fetchParallelism = 4
)

// TextFetcher downloads a page's readable text
type TextFetcher interface {
	Text(ctx context.Context, url string) (string, error)
}

// Provider searches with the Custom Search JSON API
type Provider struct {
	svc     *customsearch.Service
	cx      string
	fetcher TextFetcher
	logger  logger.Logger
}

var _ search.Provider = (*Provider)(nil)

// New creates a provider using an API key and search engine id
func New(ctx context.Context, apiKey, cx string, fetcher TextFetcher, log logger.Logger, opts ...option.ClientOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_API_KEY is not set")
	}
	if cx == "" {
		return nil, errors.New("search.google.cx is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}

	if log == nil {
		log = logger.NewNop()
	}
	return &Provider{
		svc:     svc,
		cx:      cx,
		fetcher: fetcher,
		logger:  log.With(logger.String("provider", providerName)),
	}, nil
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return providerName
}

// Search pages through results and fetches text for the first ContentsLimit hits
func (p *Provider) Search(ctx context.Context, opts search.Options) ([]research.CandidateRecord, error) {
	opts = opts.WithDefaults()
	opts.NumResults = min(opts.NumResults, maxResults)
	query := buildQuery(opts)

	var records []research.CandidateRecord
	for start := 1; len(records) < opts.NumResults; start += pageSize {
		num := min(pageSize, opts.NumResults-len(records))

		resp, err := p.svc.Cse.List().
			Context(ctx).
			Cx(p.cx).
			Q(query).
			Num(int64(num)).
			Start(int64(start)).
			DateRestrict(fmt.Sprintf("d%d", opts.DaysBack)).
			Do()
		if err != nil {
			return nil, wrapError(err)
		}

		for _, item := range resp.Items {
			records = append(records, research.CandidateRecord{
				ID:            item.CacheId,
				Title:         item.Title,
				URL:           item.Link,
				Text:          item.Snippet,
				PublishedDate: publishedDate(item.Pagemap),
			})
		}
		if len(resp.Items) < num {
			break
		}
	}

	p.fillText(ctx, records, opts.ContentsLimit)
	return records, nil
}

// fillText fetches page text concurrently; failures keep the snippet
func (p *Provider) fillText(ctx context.Context, records []research.CandidateRecord, limit int) {
	if p.fetcher == nil || limit == 0 {
		return
	}
	urls := search.FirstURLs(records, limit)

	var mu sync.Mutex
	texts := make(map[string]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for _, u := range urls {
		g.Go(func() error {
			text, err := p.fetcher.Text(gctx, u)
			if err != nil {
				p.logger.Warn("failed to fetch page", logger.String("url", u), logger.Err(err))
				return nil
			}
			mu.Lock()
			texts[u] = text
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	search.MergeText(records, texts)
}

func buildQuery(opts search.Options) string {
	parts := []string{opts.Query}

	var sites []string
	for _, d := range opts.IncludeDomains {
		sites = append(sites, "site:"+d)
	}
	if len(sites) > 0 {
		parts = append(parts, "("+strings.Join(sites, " OR ")+")")
	}
	for _, d := range opts.ExcludeDomains {
		parts = append(parts, "-site:"+d)
	}

	return strings.Join(parts, " ")
}

// publishedDate reads the article:published_time meta tag when present
func publishedDate(pagemap googleapi.RawMessage) string {
	if len(pagemap) == 0 {
		return ""
	}
	var pm struct {
		Metatags []map[string]any `json:"metatags"`
	}
	if err := json.Unmarshal(pagemap, &pm); err != nil {
		return ""
	}
	for _, tags := range pm.Metatags {
		for _, key := range []string{"article:published_time", "og:updated_time", "date"} {
			if v, ok := tags[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}

func wrapError(err error) error {
	pe := &research.ProviderError{Provider: providerName, Op: "search", Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		pe.StatusCode = gerr.Code
	}
	return pe
}
