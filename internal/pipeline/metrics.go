package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vijay-prabhu/researchdesk/internal/research"
)

// Metrics holds the pipeline's Prometheus instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Runs           *prometheus.CounterVec
	SearchDuration prometheus.Histogram
	Summaries      *prometheus.CounterVec
	Records        *prometheus.CounterVec
	Priority       prometheus.Histogram
}

// NewMetrics registers the pipeline metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "researchdesk_runs_total",
			Help: "Research runs by outcome (ok, empty, timeout, error)",
		}, []string{"outcome"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "researchdesk_search_duration_seconds",
			Help:    "Time spent in the search provider, contents included",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		Summaries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "researchdesk_summaries_total",
			Help: "Summary requests by outcome (ok, error)",
		}, []string{"outcome"}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "researchdesk_records_categorized_total",
			Help: "Categorized records by category",
		}, []string{"category"}),
		Priority: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "researchdesk_record_priority",
			Help:    "Distribution of record priorities",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
	}
}

func (m *Metrics) run(outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) searchTook(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(d.Seconds())
}

func (m *Metrics) summary(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.Summaries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) record(r research.CategorizedRecord) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(string(r.Category)).Inc()
	m.Priority.Observe(float64(r.Priority))
}
