package metrics

import "github.com/prometheus/client_golang/prometheus"

// SyncMetrics counts what a sync run did to the upstream API and the sheet.
type SyncMetrics struct {
	rateLimitWaits *prometheus.CounterVec
	matched        prometheus.Counter
	unmatched      prometheus.Counter
	reportsWritten prometheus.Counter
	reportFailures prometheus.Counter
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	m := &SyncMetrics{
		rateLimitWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_waits_total",
			Help:      "Waits scheduled after a retryable upstream failure.",
		}, []string{"operation"}),
		matched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_matched_total",
			Help:      "Statistics records written to a sheet row.",
		}),
		unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_unmatched_total",
			Help:      "Statistics records with no matching campaign row.",
		}),
		reportsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Report CSV files written to disk.",
		}),
		reportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_fetch_failures_total",
			Help:      "Report downloads that failed after retries.",
		}),
	}
	reg.MustRegister(m.rateLimitWaits, m.matched, m.unmatched, m.reportsWritten, m.reportFailures)
	return m
}

// IncRetryWait records one backoff wait for the named operation.
func (m *SyncMetrics) IncRetryWait(operation string) {
	if m == nil || m.rateLimitWaits == nil {
		return
	}
	m.rateLimitWaits.WithLabelValues(normalizeLabel(operation)).Inc()
}

// AddReconciled records the outcome of one reconcile pass.
func (m *SyncMetrics) AddReconciled(matched, unmatched int) {
	if m == nil || m.matched == nil {
		return
	}
	m.matched.Add(float64(matched))
	m.unmatched.Add(float64(unmatched))
}

func (m *SyncMetrics) IncReportWritten() {
	if m == nil || m.reportsWritten == nil {
		return
	}
	m.reportsWritten.Inc()
}

func (m *SyncMetrics) IncReportFailure() {
	if m == nil || m.reportFailures == nil {
		return
	}
	m.reportFailures.Inc()
}
