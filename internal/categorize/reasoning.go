package categorize

import (
	"fmt"
	"strings"

	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// Separator joins reasoning fragments
const Separator = " • "

// Bars a sub-score must reach to be called out in the reasoning
const (
	RelevanceBar = 85
	QualityBar   = 90
	FreshnessBar = 95
	ExternalBar  = 40
)

type dimension struct {
	weight  float64
	value   float64
	bar     float64
	primary string
	notable string
}

// dimensions returns the four sub-scores in tie-break order
func dimensions(b research.Breakdown, w rules.Weights) []dimension {
	n := w.Normalized()
	return []dimension{
		{n.Relevance, b.Relevance, RelevanceBar, "High topical relevance (primary factor)", "Good topical relevance"},
		{n.Quality, b.Quality, QualityBar, "Excellent content quality (primary factor)", "High content quality"},
		{n.Freshness, b.Freshness, FreshnessBar, "Very recent content (primary factor)", "Recent content"},
		{n.External, b.ExternalScore, ExternalBar, "Strong search score (primary factor)", "Solid search score"},
	}
}

// Explain builds the reasoning string for a decision
func Explain(b research.Breakdown, w rules.Weights, priority int, threshold float64) string {
	dims := dimensions(b, w)

	// earliest dimension wins a weight tie
	principal := dims[0]
	for _, d := range dims[1:] {
		if d.weight > principal.weight {
			principal = d
		}
	}
	if principal.value >= principal.bar {
		return principal.primary
	}

	var reasons []string
	for _, d := range dims {
		if d.value >= d.bar {
			reasons = append(reasons, d.notable)
		}
	}
	if len(reasons) > 0 {
		return strings.Join(reasons, Separator)
	}

	if float64(priority) >= threshold {
		return fmt.Sprintf("Score %d/100 meets threshold of %s", priority, formatThreshold(threshold))
	}
	return fmt.Sprintf("Score %d/100 below threshold of %s", priority, formatThreshold(threshold))
}

func formatThreshold(t float64) string {
	if t == float64(int(t)) {
		return fmt.Sprintf("%d", int(t))
	}
	return fmt.Sprintf("%.1f", t)
}
