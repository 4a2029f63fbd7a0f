package telemetry

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the observable events of the discovery pipeline. Exposed on
// /metrics by the API server.
type Metrics struct {
	PagesFetched      prometheus.Counter
	FetchFailures     prometheus.Counter
	OracleCalls       prometheus.Counter
	OracleFailures    prometheus.Counter
	ReportsResolved   prometheus.Counter
	SessionsAborted   prometheus.Counter
	SessionsExhausted prometheus.Counter
	FetchSeconds      prometheus.Histogram
}

// NewMetrics registers the pipeline metrics on the given registerer. Pass
// prometheus.DefaultRegisterer for the serving path, or a private registry in
// tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_pages_fetched_total",
			Help: "Pages successfully rendered during crawl sessions.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_fetch_failures_total",
			Help: "Page fetches that failed, including retried attempts.",
		}),
		OracleCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_oracle_calls_total",
			Help: "Decision oracle invocations.",
		}),
		OracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_oracle_failures_total",
			Help: "Decision oracle invocations that failed or were unparsable.",
		}),
		ReportsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_reports_resolved_total",
			Help: "Sessions that terminated with a resolved report link.",
		}),
		SessionsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_sessions_aborted_total",
			Help: "Sessions the oracle chose to abort.",
		}),
		SessionsExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "repscout_sessions_exhausted_total",
			Help: "Sessions that ran out of page budget.",
		}),
		FetchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "repscout_fetch_seconds",
			Help:    "Page render latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.PagesFetched, m.FetchFailures,
		m.OracleCalls, m.OracleFailures,
		m.ReportsResolved, m.SessionsAborted, m.SessionsExhausted,
		m.FetchSeconds,
	)
	return m
}

// NopMetrics returns metrics not registered anywhere, for tests and tooling.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// NewLogger returns a prefixed logger in the house style, e.g. "[FINDER] ".
func NewLogger(prefix string) *log.Logger {
	return log.New(log.Writer(), "["+prefix+"] ", log.LstdFlags)
}
