package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vijay-prabhu/researchdesk/internal/config"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
	"github.com/vijay-prabhu/researchdesk/internal/search"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

type fakeSearch struct {
	records []research.CandidateRecord
	err     error
	block   bool
	got     search.Options
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(ctx context.Context, opts search.Options) ([]research.CandidateRecord, error) {
	f.got = opts
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.records, f.err
}

type fakeLLM struct {
	query    string
	queryErr error

	mu        sync.Mutex
	summaries map[string]string // by title; missing title means failure
	inflight  atomic.Int32
	peak      atomic.Int32
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) OptimizeQuery(ctx context.Context, topic string) (string, error) {
	return f.query, f.queryErr
}

func (f *fakeLLM) Summarize(ctx context.Context, title, text string) (string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.summaries[title]
	if !ok {
		return "", errors.New("llm unavailable")
	}
	return s, nil
}

type staticRules struct{ rule rules.Rule }

func (s staticRules) GetActiveRule() rules.Rule { return s.rule }

func ptr(f float64) *float64 { return &f }

func strongRecord() research.CandidateRecord {
	return research.CandidateRecord{
		Title:         "Inteligencia Artificial en la empresa",
		URL:           "https://example.com/ia",
		Text:          "La inteligencia artificial avanza con 40% más inversión",
		PublishedDate: now.AddDate(0, 0, -2).Format(time.RFC3339),
		ExternalScore: ptr(0.9),
	}
}

func weakRecord() research.CandidateRecord {
	return research.CandidateRecord{Title: "Cooking", URL: "https://example.com/pasta"}
}

func newPipeline(sp search.Provider, lc *fakeLLM, cfg *config.Config, opts ...Option) *Pipeline {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	if lc == nil {
		return New(sp, nil, staticRules{rules.DefaultRule(now)}, cfg, opts...)
	}
	return New(sp, lc, staticRules{rules.DefaultRule(now)}, cfg, opts...)
}

func TestCategorizePartitionsAndSorts(t *testing.T) {
	p := newPipeline(nil, nil, nil)

	res := p.Categorize(context.Background(), "Inteligencia Artificial", []research.CandidateRecord{weakRecord(), strongRecord()}, nil)

	require.Len(t, res.ExpandWorthy, 1)
	require.Len(t, res.NotExpandWorthy, 1)
	assert.Equal(t, "https://example.com/ia", res.ExpandWorthy[0].URL)
	assert.Equal(t, 96, res.ExpandWorthy[0].Priority)
	assert.Equal(t, rules.DefaultRuleID, res.RuleID)
	assert.Equal(t, "Default", res.RuleName)

	weak := res.NotExpandWorthy[0]
	assert.Equal(t, ContentUnavailable, weak.Text)
	assert.Equal(t, "Score 68/100 below threshold of 85", weak.Reasoning)
}

func TestCategorizeEmptyInput(t *testing.T) {
	p := newPipeline(nil, nil, nil)

	res := p.Categorize(context.Background(), "topic", nil, nil)

	assert.NotNil(t, res.ExpandWorthy)
	assert.NotNil(t, res.NotExpandWorthy)
	assert.Equal(t, 0, res.Total())
}

func TestCategorizeStableOrderForEqualPriority(t *testing.T) {
	p := newPipeline(nil, nil, nil)

	var recs []research.CandidateRecord
	for _, u := range []string{"a", "b", "c", "d"} {
		recs = append(recs, research.CandidateRecord{Title: "Cooking", URL: "https://example.com/" + u})
	}

	res := p.Categorize(context.Background(), "quantum", recs, nil)

	require.Len(t, res.NotExpandWorthy, 4)
	for i, u := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, "https://example.com/"+u, res.NotExpandWorthy[i].URL)
	}
}

func TestCategorizeDedupesByURL(t *testing.T) {
	p := newPipeline(nil, nil, nil)

	first := strongRecord()
	dup := strongRecord()
	dup.URL = "  HTTPS://EXAMPLE.COM/IA "
	dup.Title = "duplicate"

	res := p.Categorize(context.Background(), "Inteligencia Artificial", []research.CandidateRecord{first, dup}, nil)

	require.Equal(t, 1, res.Total())
	assert.Equal(t, first.Title, res.All()[0].Title)
}

func TestCategorizeRuleOverride(t *testing.T) {
	p := newPipeline(nil, nil, nil)

	strict := rules.DefaultRule(now)
	strict.ID = "custom-strict"
	strict.Name = "Strict"
	strict.Thresholds.ExpandThreshold = 99

	res := p.Categorize(context.Background(), "Inteligencia Artificial", []research.CandidateRecord{strongRecord()}, &strict)

	assert.Empty(t, res.ExpandWorthy)
	assert.Equal(t, "custom-strict", res.RuleID)
	assert.Equal(t, 96, res.NotExpandWorthy[0].Priority)
}

func TestCategorizeSummarizesLongText(t *testing.T) {
	long := strings.Repeat("palabra ", 60)
	lc := &fakeLLM{summaries: map[string]string{"ok": "A concise summary."}}
	p := newPipeline(nil, lc, nil)

	recs := []research.CandidateRecord{
		{Title: "ok", URL: "https://a.example", Text: long},
		{Title: "fails", URL: "https://b.example", Text: long},
		{Title: "short", URL: "https://c.example", Text: "brief text"},
	}

	res := p.Categorize(context.Background(), "palabra", recs, nil)
	byURL := map[string]research.CategorizedRecord{}
	for _, r := range res.All() {
		byURL[r.URL] = r
	}

	assert.Equal(t, "A concise summary.", byURL["https://a.example"].Text)
	assert.Equal(t, "A concise summary.", byURL["https://a.example"].Summary)

	failed := byURL["https://b.example"]
	assert.Empty(t, failed.Summary)
	assert.Equal(t, string([]rune(long)[:PreviewRunes])+PreviewEllipsis, failed.Text)

	assert.Equal(t, "brief text...", byURL["https://c.example"].Text)

	// scoring ran on the original text, not the summary
	assert.Equal(t, byURL["https://a.example"].Breakdown, failed.Breakdown)
}

func TestSummarizeRespectsConcurrency(t *testing.T) {
	long := strings.Repeat("x", 250)
	lc := &fakeLLM{summaries: map[string]string{}}
	cfg := config.Default()
	cfg.Summarizer.Concurrency = 2
	p := newPipeline(nil, lc, cfg)

	var recs []research.CandidateRecord
	for i := 0; i < 8; i++ {
		title := "t" + string(rune('a'+i))
		lc.summaries[title] = "summary " + title
		recs = append(recs, research.CandidateRecord{Title: title, URL: "https://example.com/" + title, Text: long})
	}

	res := p.Categorize(context.Background(), "x", recs, nil)

	assert.Equal(t, 8, res.Total())
	assert.LessOrEqual(t, lc.peak.Load(), int32(2))
	for _, r := range res.All() {
		assert.Equal(t, "summary "+r.Title, r.Summary, "summaries reassembled by index")
	}
}

func TestRunUsesOptimizedQueryAndOptions(t *testing.T) {
	sp := &fakeSearch{records: []research.CandidateRecord{strongRecord()}}
	lc := &fakeLLM{query: "ia empresa 2025"}
	p := newPipeline(sp, lc, nil)

	res, err := p.Run(context.Background(), "  Inteligencia Artificial ", RunOptions{DaysBack: 7, IncludeDomains: []string{"reuters.com"}})
	require.NoError(t, err)

	assert.Equal(t, "ia empresa 2025", sp.got.Query)
	assert.Equal(t, 7, sp.got.DaysBack)
	assert.Equal(t, 20, sp.got.NumResults)
	assert.Equal(t, 5, sp.got.ContentsLimit)
	assert.Equal(t, []string{"reuters.com"}, sp.got.IncludeDomains)
	assert.Equal(t, "Inteligencia Artificial", res.Topic)
	assert.Equal(t, "ia empresa 2025", res.Query)
	assert.Len(t, res.ExpandWorthy, 1)
}

func TestRunFallsBackToTopicWhenOptimizationFails(t *testing.T) {
	sp := &fakeSearch{}
	lc := &fakeLLM{queryErr: errors.New("down")}
	p := newPipeline(sp, lc, nil)

	res, err := p.Run(context.Background(), "edge computing", RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "edge computing", sp.got.Query)
	assert.Equal(t, 0, res.Total())
	assert.NotNil(t, res.ExpandWorthy)
}

func TestRunSearchTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Search.TimeoutSeconds = 1
	p := newPipeline(&fakeSearch{block: true}, nil, cfg)

	_, err := p.Run(context.Background(), "topic", RunOptions{})
	require.Error(t, err)

	assert.ErrorIs(t, err, research.ErrSearchTimeout)
	var te *research.TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, time.Second, te.After)
	assert.Equal(t, research.MsgTimeout, research.UserMessage(err))
}

func TestRunProviderError(t *testing.T) {
	cause := errors.New("boom")
	p := newPipeline(&fakeSearch{err: cause}, nil, nil)

	_, err := p.Run(context.Background(), "topic", RunOptions{})

	var pe *research.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "fake", pe.Provider)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, research.ErrSearchTimeout)
	assert.Equal(t, research.MsgGeneric, research.UserMessage(err))
}

func TestRunValidatesInput(t *testing.T) {
	p := newPipeline(&fakeSearch{}, nil, nil)
	_, err := p.Run(context.Background(), "   ", RunOptions{})
	assert.ErrorIs(t, err, ErrEmptyTopic)

	p = newPipeline(nil, nil, nil)
	_, err = p.Run(context.Background(), "topic", RunOptions{})
	assert.ErrorIs(t, err, ErrNoSearch)
}

func TestRunReportsProgress(t *testing.T) {
	sp := &fakeSearch{records: []research.CandidateRecord{strongRecord(), weakRecord()}}
	p := newPipeline(sp, nil, nil)

	var mu sync.Mutex
	phases := map[Phase]int{}
	_, err := p.Run(context.Background(), "ia", RunOptions{Progress: func(pr Progress) {
		mu.Lock()
		defer mu.Unlock()
		phases[pr.Phase]++
		assert.False(t, pr.StartedAt.IsZero())
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, phases[PhaseSearching])
	assert.Equal(t, 2, phases[PhaseScoring])
	assert.Zero(t, phases[PhaseOptimizing], "no llm, no optimization")
}

func TestRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	sp := &fakeSearch{records: []research.CandidateRecord{strongRecord(), weakRecord()}}
	p := newPipeline(sp, nil, nil, WithMetrics(m))

	_, err := p.Run(context.Background(), "Inteligencia Artificial", RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("expand")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues("not_expand")))
}

func TestProgressPercentageAndETA(t *testing.T) {
	p := Progress{Current: 1, Total: 4, StartedAt: time.Now().Add(-time.Second)}
	assert.Equal(t, 25, p.Percentage())
	assert.Greater(t, p.ETA(), time.Duration(0))

	assert.Equal(t, 0, Progress{}.Percentage())
	assert.Equal(t, time.Duration(0), Progress{}.ETA())
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "sum", displayText("sum", "text"))
	assert.Equal(t, "text...", displayText("", "text"))
	assert.Equal(t, ContentUnavailable, displayText("", ""))
	assert.Equal(t, strings.Repeat("é", PreviewRunes)+"...", displayText("", strings.Repeat("é", 400)))
}
