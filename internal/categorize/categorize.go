// Package categorize turns sub-scores and a rule into an expand / not-expand
// decision with a priority and a short explanation.
package categorize

import (
	"math"
	"time"

	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
	"github.com/vijay-prabhu/researchdesk/internal/scoring"
)

// Score computes the four sub-scores for a record
func Score(rec research.CandidateRecord, topic string, rule rules.Rule, now time.Time) research.Breakdown {
	external := 0.0
	if rec.ExternalScore != nil && !math.IsNaN(*rec.ExternalScore) {
		external = math.Max(0, math.Min(100, *rec.ExternalScore*100))
	}

	return research.Breakdown{
		Relevance:     scoring.Relevance(rec.Text, rec.Title, topic),
		Quality:       scoring.Quality(rec.Text, rec.URL, rule.Thresholds.MinWordCount, rule.QualityFactors),
		Freshness:     scoring.Freshness(scoring.ParsePublishedDate(rec.PublishedDate), rule.Thresholds.MaxDaysForFresh, now),
		ExternalScore: external,
	}
}

// FinalScore combines the breakdown with the rule's normalized weights
func FinalScore(b research.Breakdown, w rules.Weights) float64 {
	n := w.Normalized()
	return b.Relevance*n.Relevance +
		b.Quality*n.Quality +
		b.Freshness*n.Freshness +
		b.ExternalScore*n.External
}

// Priority rounds a final score into the 0-100 integer range
func Priority(final float64) int {
	if math.IsNaN(final) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(final))))
}

// Categorize scores one record against a rule.
// The returned record keeps the candidate's original text.
func Categorize(rec research.CandidateRecord, topic string, rule rules.Rule, now time.Time) research.CategorizedRecord {
	b := Score(rec, topic, rule, now)
	priority := Priority(FinalScore(b, rule.Weights))

	category := research.CategoryNotExpand
	if float64(priority) >= rule.Thresholds.ExpandThreshold {
		category = research.CategoryExpand
	}

	return research.CategorizedRecord{
		CandidateRecord: rec,
		Category:        category,
		Priority:        priority,
		FinalScore:      float64(priority) / 100,
		Breakdown:       b,
		Reasoning:       Explain(b, rule.Weights, priority, rule.Thresholds.ExpandThreshold),
	}
}
