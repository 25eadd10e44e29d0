package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes recorded by LeadMetrics.ObserveSubmission.
const (
	OutcomeAccepted         = "accepted"
	OutcomeBadRequest       = "bad_request"
	OutcomeSpam             = "spam"
	OutcomeInvalid          = "invalid"
	OutcomeReferenceInvalid = "reference_invalid"
	OutcomeStorageError     = "storage_error"
)

// LeadMetrics exposes counters/histograms for the lead pipeline.
type LeadMetrics struct {
	submissionsTotal  *prometheus.CounterVec
	submitLatency     *prometheus.HistogramVec
	notificationsSent *prometheus.CounterVec
	referenceFailures *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Total lead form submissions by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadgen",
			Subsystem: "leads",
			Name:      "submit_latency_seconds",
			Help:      "Latency of lead submission handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		notificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Total notification emails attempted",
		}, []string{"kind", "status"}),
		referenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadgen",
			Subsystem: "reference",
			Name:      "lookup_failures_total",
			Help:      "Reference data lookups that failed and fell back to an empty set",
		}, []string{"table"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submitLatency, m.notificationsSent, m.referenceFailures)
	return m
}

func (m *LeadMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *LeadMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.notificationsSent.WithLabelValues(kind, status).Inc()
}

func (m *LeadMetrics) ObserveReferenceFailure(table string) {
	if m == nil {
		return
	}
	m.referenceFailures.WithLabelValues(table).Inc()
}
