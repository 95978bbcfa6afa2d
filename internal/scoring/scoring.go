// Package scoring computes the relevance, quality and freshness sub-scores.
// Every function is pure and returns a value in [0, 100].
package scoring

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// Fallbacks used when a rule carries a non-positive tier parameter
const (
	defaultMinWordCount    = 100
	defaultMaxDaysForFresh = 30
)

// NoDateFreshness is the score given to records without a publication date
const NoDateFreshness = 85

var dataPattern = regexp.MustCompile(`\d+[%$€]?|\d+\.\d+`)

// Relevance scores how well the title and text cover the topic
func Relevance(text, title, topic string) float64 {
	tokens := topicTokens(topic)
	totalWords := float64(len(tokens))
	if totalWords == 0 {
		totalWords = 1
	}

	combined := strings.ToLower(title + " " + text)
	lowerTitle := strings.ToLower(title)

	matches, titleMatches := 0, 0
	for _, tok := range tokens {
		if strings.Contains(combined, tok) {
			matches++
		}
		if strings.Contains(lowerTitle, tok) {
			titleMatches++
		}
	}

	score := 60.0
	if matches > 0 {
		score = 80 + float64(matches)/totalWords*15
	}
	if titleMatches > 0 {
		score += float64(titleMatches) / totalWords * 10
	}

	return clamp(score)
}

// topicTokens lowercases the topic and keeps whitespace tokens longer than two characters
func topicTokens(topic string) []string {
	fields := strings.Fields(strings.ToLower(topic))
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Quality scores length, data density and source reputation
func Quality(text, url string, minWordCount int, factors rules.QualityFactors) float64 {
	if minWordCount <= 0 {
		minWordCount = defaultMinWordCount
	}
	m := float64(minWordCount)

	score := 85.0

	words := float64(len(strings.Fields(text)))
	switch {
	case words > m*5:
		score += 8
	case words > m*2:
		score += 6
	case words > m:
		score += 4
	case words > m*0.5:
		score += 2
	}

	if hasData(text, factors.KeywordBonus) {
		score += 4
	}

	if preferredDomain(url, factors.PreferredDomains) {
		score += 3
	}

	return clamp(score)
}

func hasData(text string, keywords []string) bool {
	if dataPattern.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func preferredDomain(url string, domains []string) bool {
	lower := strings.ToLower(url)
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

// Freshness scores recency relative to the rule's freshness window.
// A nil date scores NoDateFreshness; future dates land in the top tier.
func Freshness(published *time.Time, maxDaysForFresh int, now time.Time) float64 {
	if published == nil {
		return NoDateFreshness
	}
	if maxDaysForFresh <= 0 {
		maxDaysForFresh = defaultMaxDaysForFresh
	}
	window := float64(maxDaysForFresh)

	days := now.Sub(*published).Hours() / 24

	switch {
	case days <= window*0.25:
		return 98
	case days <= window:
		return 95
	case days <= window*3:
		return 90
	case days <= window*12:
		return 85
	default:
		return 80
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParsePublishedDate parses the date formats providers return.
// Unparseable or empty values yield nil.
func ParsePublishedDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
