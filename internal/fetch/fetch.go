// Package fetch downloads web pages and reduces them to readable text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Defaults for page fetching
const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; researchdesk/1.0)"
	DefaultMaxBytes  = 2 << 20
	DefaultMaxChars  = 20000
)

var (
	noiseSelectors   = []string{"script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe", "svg"}
	contentSelectors = []string{"article", "main", "[role=main]", ".post-content", ".article-body", "#content"}
	spaceRun         = regexp.MustCompile(`\s+`)
)

// Error describes a failed page fetch
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Fetcher downloads pages and extracts their main text
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxChars   int
}

// New creates a Fetcher with default limits
func New() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  DefaultUserAgent,
		maxBytes:   DefaultMaxBytes,
		maxChars:   DefaultMaxChars,
	}
}

// Text fetches url and returns its main readable text
func (f *Fetcher) Text(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	text, err := ExtractText(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to parse HTML", Cause: err}
	}

	if r := []rune(text); len(r) > f.maxChars {
		text = string(r[:f.maxChars])
	}
	return text, nil
}

// ExtractText parses HTML and returns the text of the main content block,
// falling back to the whole body
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find(strings.Join(noiseSelectors, ",")).Remove()

	for _, sel := range contentSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := collapse(blockText(node)); text != "" {
				return text, nil
			}
		}
	}

	return collapse(blockText(doc.Find("body"))), nil
}

// blockText joins paragraph-level text so sentences from adjacent blocks
// don't run together
func blockText(s *goquery.Selection) string {
	var parts []string
	s.Find("h1,h2,h3,h4,p,li,blockquote").Each(func(_ int, el *goquery.Selection) {
		if t := strings.TrimSpace(el.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return s.Text()
	}
	return strings.Join(parts, "\n")
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
