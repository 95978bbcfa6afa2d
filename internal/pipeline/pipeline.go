// Package pipeline orchestrates a research run: query optimization, search,
// summarization and categorization into expand / not-expand buckets.
package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/vijay-prabhu/researchdesk/internal/categorize"
	"github.com/vijay-prabhu/researchdesk/internal/config"
	"github.com/vijay-prabhu/researchdesk/internal/llm"
	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
	"github.com/vijay-prabhu/researchdesk/internal/search"
)

// Display text settings
const (
	PreviewRunes       = 300
	PreviewEllipsis    = "..."
	ContentUnavailable = "Content unavailable"

	defaultMinTextLength = 200
	defaultConcurrency   = 5
	defaultSearchTimeout = 30 * time.Second
)

var (
	ErrEmptyTopic = errors.New("topic is required")
	ErrNoSearch   = errors.New("no search provider configured")

	errEmptySummary = errors.New("empty summary")
)

// RuleSource supplies the rule used when a run has no override
type RuleSource interface {
	GetActiveRule() rules.Rule
}

// Pipeline runs research and categorization
type Pipeline struct {
	search  search.Provider
	llm     llm.Client
	rules   RuleSource
	cfg     *config.Config
	log     logger.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics attaches Prometheus instruments
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock overrides the time source used for freshness scoring
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline. The search provider may be nil when only
// Categorize is used; a nil LLM client disables optimization and summaries.
func New(sp search.Provider, lc llm.Client, rs RuleSource, cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	p := &Pipeline{
		search: sp,
		llm:    lc,
		rules:  rs,
		cfg:    cfg,
		log:    logger.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOptions configures a single research run. Zero values fall back to
// the search configuration.
type RunOptions struct {
	NumResults     int
	DaysBack       int
	IncludeDomains []string
	ExcludeDomains []string
	Rule           *rules.Rule // overrides the active rule
	SkipOptimize   bool
	Progress       ProgressCallback
}

// Run researches a topic end to end.
// A search deadline yields an error matching research.ErrSearchTimeout;
// any other search failure is a *research.ProviderError.
func (p *Pipeline) Run(ctx context.Context, topic string, opts RunOptions) (*research.Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if p.search == nil {
		return nil, ErrNoSearch
	}

	report := reporter(opts.Progress)

	query := topic
	if !opts.SkipOptimize && p.llm != nil {
		report(PhaseOptimizing, 0, 1, "Optimizing search query")
		query = p.optimize(ctx, topic)
		report(PhaseOptimizing, 1, 1, "Query ready")
	}

	sopts := p.searchOptions(query, opts)
	report(PhaseSearching, 0, sopts.NumResults, "Searching "+p.search.Name())

	records, err := p.runSearch(ctx, sopts)
	if err != nil {
		return nil, err
	}
	report(PhaseSearching, len(records), len(records), "Search complete")

	if len(records) == 0 {
		p.metrics.run("empty")
		result := research.NewResult(topic)
		result.Query = query
		rule := p.resolveRule(opts.Rule)
		result.RuleID, result.RuleName = rule.ID, rule.Name
		return result, nil
	}

	result := p.categorize(ctx, topic, records, opts.Rule, report)
	result.Query = query
	p.metrics.run("ok")

	p.log.Info("research complete",
		logger.String("topic", topic),
		logger.Int("expand", len(result.ExpandWorthy)),
		logger.Int("not_expand", len(result.NotExpandWorthy)),
	)
	return result, nil
}

// Categorize scores already-fetched records. It never fails: summaries that
// cannot be produced are skipped and malformed fields get safe defaults.
func (p *Pipeline) Categorize(ctx context.Context, topic string, records []research.CandidateRecord, rule *rules.Rule) *research.Result {
	return p.categorize(ctx, strings.TrimSpace(topic), records, rule, reporter(nil))
}

func (p *Pipeline) categorize(ctx context.Context, topic string, records []research.CandidateRecord, override *rules.Rule, report func(Phase, int, int, string)) *research.Result {
	records = research.NormalizeRecords(records)
	rule := p.resolveRule(override)

	result := research.NewResult(topic)
	result.RuleID, result.RuleName = rule.ID, rule.Name
	if len(records) == 0 {
		return result
	}

	summaries := p.summarize(ctx, records, report)

	report(PhaseScoring, 0, len(records), "Scoring results")
	now := p.now()
	scored := make([]research.CategorizedRecord, len(records))
	for i, rec := range records {
		c := categorize.Categorize(rec, topic, rule, now)
		c.Summary = summaries[i]
		c.Text = displayText(summaries[i], rec.Text)
		scored[i] = c
		p.metrics.record(c)
	}
	report(PhaseScoring, len(records), len(records), "Scoring complete")

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Priority > scored[j].Priority
	})
	for _, r := range scored {
		if r.IsExpand() {
			result.ExpandWorthy = append(result.ExpandWorthy, r)
		} else {
			result.NotExpandWorthy = append(result.NotExpandWorthy, r)
		}
	}

	return result
}

func (p *Pipeline) resolveRule(override *rules.Rule) rules.Rule {
	if override != nil {
		return override.Clone()
	}
	if p.rules != nil {
		return p.rules.GetActiveRule()
	}
	return rules.DefaultRule(p.now())
}

func (p *Pipeline) optimize(ctx context.Context, topic string) string {
	q, err := p.llm.OptimizeQuery(ctx, topic)
	if err != nil || strings.TrimSpace(q) == "" {
		if err != nil {
			p.log.Warn("query optimization failed, using topic", logger.Err(err))
		}
		return topic
	}
	return strings.TrimSpace(q)
}

func (p *Pipeline) searchOptions(query string, opts RunOptions) search.Options {
	sc := p.cfg.Search
	so := search.Options{
		Query:          query,
		NumResults:     sc.NumResults,
		DaysBack:       sc.DaysBack,
		ContentsLimit:  sc.ContentsLimit,
		IncludeDomains: sc.IncludeDomains,
		ExcludeDomains: sc.ExcludeDomains,
	}
	if opts.NumResults > 0 {
		so.NumResults = opts.NumResults
	}
	if opts.DaysBack > 0 {
		so.DaysBack = opts.DaysBack
	}
	if len(opts.IncludeDomains) > 0 {
		so.IncludeDomains = opts.IncludeDomains
	}
	if len(opts.ExcludeDomains) > 0 {
		so.ExcludeDomains = opts.ExcludeDomains
	}
	return so.WithDefaults()
}

func (p *Pipeline) runSearch(ctx context.Context, opts search.Options) ([]research.CandidateRecord, error) {
	timeout := p.cfg.Search.Timeout()
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	records, err := p.search.Search(sctx, opts)
	p.metrics.searchTook(time.Since(start))
	if err == nil {
		return records, nil
	}

	name := p.search.Name()
	if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(sctx.Err(), context.DeadlineExceeded)) {
		p.metrics.run("timeout")
		p.log.Warn("search timed out", logger.String("provider", name), logger.Duration("after", timeout))
		return nil, &research.TimeoutError{Op: name + " search", After: timeout}
	}

	p.metrics.run("error")
	p.log.Error("search failed", logger.String("provider", name), logger.Err(err))

	var perr *research.ProviderError
	if errors.As(err, &perr) {
		return nil, err
	}
	return nil, &research.ProviderError{Provider: name, Op: "search", Err: err}
}

// summarize returns one summary per record, empty where none was produced
func (p *Pipeline) summarize(ctx context.Context, records []research.CandidateRecord, report func(Phase, int, int, string)) []string {
	summaries := make([]string, len(records))
	if p.llm == nil {
		return summaries
	}

	sc := p.cfg.Summarizer
	minLen := sc.MinTextLength
	if minLen <= 0 {
		minLen = defaultMinTextLength
	}
	limit := sc.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var eligible []int
	for i, r := range records {
		if utf8.RuneCountInString(r.Text) > minLen {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return summaries
	}

	total := len(eligible)
	var done int64
	report(PhaseSummarizing, 0, total, "Summarizing with "+p.llm.Name())

	var g errgroup.Group
	g.SetLimit(limit)
	for _, idx := range eligible {
		g.Go(func() error {
			summaries[idx] = p.summarizeOne(ctx, records[idx])
			report(PhaseSummarizing, int(atomic.AddInt64(&done, 1)), total, "Summarizing with "+p.llm.Name())
			return nil
		})
	}
	_ = g.Wait()

	return summaries
}

func (p *Pipeline) summarizeOne(ctx context.Context, rec research.CandidateRecord) string {
	if ctx.Err() != nil {
		return ""
	}
	if t := p.cfg.Summarizer.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	s, err := p.llm.Summarize(ctx, rec.Title, rec.Text)
	s = strings.TrimSpace(s)
	if err != nil || s == "" {
		if err == nil {
			err = errEmptySummary
		}
		p.metrics.summary(false)
		p.log.Warn("summary failed", logger.String("url", rec.URL), logger.Err(err))
		return ""
	}
	p.metrics.summary(true)
	return s
}

// displayText picks what a categorized record shows in place of raw text
func displayText(summary, text string) string {
	if summary != "" {
		return summary
	}
	if text != "" {
		if utf8.RuneCountInString(text) > PreviewRunes {
			text = string([]rune(text)[:PreviewRunes])
		}
		return text + PreviewEllipsis
	}
	return ContentUnavailable
}

func reporter(cb ProgressCallback) func(Phase, int, int, string) {
	var mu sync.Mutex
	started := make(map[Phase]time.Time)
	return func(phase Phase, current, total int, desc string) {
		if cb == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		at, ok := started[phase]
		if !ok {
			at = time.Now()
			started[phase] = at
		}
		cb(Progress{Phase: phase, Current: current, Total: total, Description: desc, StartedAt: at})
	}
}
