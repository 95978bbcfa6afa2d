// Package research holds the records that flow from search providers through
// categorization to the CLI and MCP surfaces.
package research

import (
	"strings"
)

// Category is the binary decision attached to every categorized record
type Category string

const (
	CategoryExpand    Category = "expand"
	CategoryNotExpand Category = "not_expand"
)

// CandidateRecord is a search hit before categorization
type CandidateRecord struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate,omitempty"` // provider format, usually RFC3339
	Author        string   `json:"author,omitempty"`
	Text          string   `json:"text,omitempty"`
	ExternalScore *float64 `json:"score,omitempty"` // provider score in [0,1]
	Summary       string   `json:"summary,omitempty"`
}

// Breakdown holds the four sub-scores on a 0-100 scale
type Breakdown struct {
	Relevance     float64 `json:"relevance"`
	Quality       float64 `json:"quality"`
	Freshness     float64 `json:"freshness"`
	ExternalScore float64 `json:"externalScore"`
}

// CategorizedRecord is a candidate enriched with its decision.
// Text holds the display text: summary, truncated original or a placeholder.
type CategorizedRecord struct {
	CandidateRecord
	Category   Category  `json:"category"`
	Priority   int       `json:"priority"`   // 0-100
	FinalScore float64   `json:"finalScore"` // Priority/100
	Breakdown  Breakdown `json:"breakdown"`
	Reasoning  string    `json:"reasoning"`
}

// IsExpand reports whether the record was judged worth expanding
func (r CategorizedRecord) IsExpand() bool {
	return r.Category == CategoryExpand
}

// Result is the partitioned output of a categorization run
type Result struct {
	Topic           string              `json:"topic"`
	Query           string              `json:"query,omitempty"`
	RuleID          string              `json:"ruleId,omitempty"`
	RuleName        string              `json:"ruleName,omitempty"`
	ExpandWorthy    []CategorizedRecord `json:"expandWorthy"`
	NotExpandWorthy []CategorizedRecord `json:"notExpandWorthy"`
}

// NewResult returns an empty result for the topic with non-nil buckets
func NewResult(topic string) *Result {
	return &Result{
		Topic:           topic,
		ExpandWorthy:    []CategorizedRecord{},
		NotExpandWorthy: []CategorizedRecord{},
	}
}

// Total returns the number of records across both buckets
func (r *Result) Total() int {
	return len(r.ExpandWorthy) + len(r.NotExpandWorthy)
}

// All returns expand-worthy records followed by the rest
func (r *Result) All() []CategorizedRecord {
	all := make([]CategorizedRecord, 0, r.Total())
	all = append(all, r.ExpandWorthy...)
	return append(all, r.NotExpandWorthy...)
}

// NormalizeRecords trims provider fields and drops duplicate URLs, keeping
// the first occurrence. Records without a URL are kept.
func NormalizeRecords(records []CandidateRecord) []CandidateRecord {
	seen := make(map[string]bool, len(records))
	out := make([]CandidateRecord, 0, len(records))

	for _, r := range records {
		r.Title = strings.TrimSpace(r.Title)
		r.URL = strings.TrimSpace(r.URL)
		r.Text = strings.TrimSpace(r.Text)
		r.PublishedDate = strings.TrimSpace(r.PublishedDate)
		r.Author = strings.TrimSpace(r.Author)

		if r.URL != "" {
			key := strings.ToLower(r.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, r)
	}

	return out
}
