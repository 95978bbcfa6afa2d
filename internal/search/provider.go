// Package search defines the provider contract used by the research pipeline.
package search

import (
	"context"
	"time"

	"github.com/vijay-prabhu/researchdesk/internal/research"
)

// Provider defines the interface for search backends
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// Search runs the query and returns candidates with page text filled in
	// for the first Options.ContentsLimit results where available
	Search(ctx context.Context, opts Options) ([]research.CandidateRecord, error)
}

// Options configures a search
type Options struct {
	Query          string
	NumResults     int
	DaysBack       int
	ContentsLimit  int
	IncludeDomains []string
	ExcludeDomains []string
}

// Defaults used by the research flow
const (
	DefaultNumResults    = 20
	DefaultDaysBack      = 15
	DefaultContentsLimit = 5
)

// WithDefaults fills zero values with the research defaults
func (o Options) WithDefaults() Options {
	if o.NumResults <= 0 {
		o.NumResults = DefaultNumResults
	}
	if o.DaysBack <= 0 {
		o.DaysBack = DefaultDaysBack
	}
	if o.ContentsLimit < 0 {
		o.ContentsLimit = 0
	}
	return o
}

// StartDate returns the earliest publication date to request
func (o Options) StartDate(now time.Time) time.Time {
	return now.AddDate(0, 0, -o.DaysBack)
}

// FirstURLs returns up to n non-empty URLs in result order
func FirstURLs(records []research.CandidateRecord, n int) []string {
	urls := make([]string, 0, n)
	for _, r := range records {
		if len(urls) >= n {
			break
		}
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// MergeText copies page text into matching records by URL.
// Records without a match keep their existing text.
func MergeText(records []research.CandidateRecord, texts map[string]string) {
	for i := range records {
		if t, ok := texts[records[i].URL]; ok && t != "" {
			records[i].Text = t
		}
	}
}
