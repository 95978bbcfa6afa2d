package llm

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

// Extractive summary parameters
const (
	fallbackSentences      = 3
	fallbackMinSentenceLen = 10
)

// ErrNoSentences is returned when the text has nothing worth extracting
var ErrNoSentences = errors.New("no sentences to summarize")

// Fallback works offline: queries pass through unchanged and summaries are
// the leading sentences of the text
type Fallback struct{}

var _ Client = Fallback{}

// NewFallback returns the offline client
func NewFallback() Fallback {
	return Fallback{}
}

// Name returns the backend identifier
func (Fallback) Name() string {
	return "extractive"
}

// OptimizeQuery returns the topic as the query
func (Fallback) OptimizeQuery(ctx context.Context, topic string) (string, error) {
	return strings.TrimSpace(topic), nil
}

// Summarize returns the first three sentences longer than ten characters
func (Fallback) Summarize(ctx context.Context, title, text string) (string, error) {
	return ExtractiveSummary(text, fallbackSentences)
}

// ExtractiveSummary splits text on periods and keeps the first n sentences
// whose trimmed length exceeds ten characters
func ExtractiveSummary(text string, n int) (string, error) {
	var kept []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) <= fallbackMinSentenceLen {
			continue
		}
		kept = append(kept, s)
		if len(kept) == n {
			break
		}
	}
	if len(kept) == 0 {
		return "", ErrNoSentences
	}
	return strings.Join(kept, ". ") + ".", nil
}
