package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	tokenizationsTotal *prometheus.CounterVec
	submitLatency      *prometheus.HistogramVec
	calendarExports    prometheus.Counter
	sessionsStarted    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "empirecuts",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Confirm attempts by outcome",
		}, []string{"outcome"}),
		tokenizationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "empirecuts",
			Subsystem: "booking",
			Name:      "tokenizations_total",
			Help:      "Payment tokenization attempts by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "empirecuts",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of the tokenize + notify phase of a confirm",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		calendarExports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "empirecuts",
			Subsystem: "booking",
			Name:      "calendar_exports_total",
			Help:      "Calendar invites generated",
		}),
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "empirecuts",
			Subsystem: "booking",
			Name:      "sessions_started_total",
			Help:      "Booking sessions started",
		}, []string{"variant"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.tokenizationsTotal, m.submitLatency, m.calendarExports, m.sessionsStarted)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) ObserveTokenization(outcome string) {
	if m == nil {
		return
	}
	m.tokenizationsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCalendarExport() {
	if m == nil {
		return
	}
	m.calendarExports.Inc()
}

func (m *BookingMetrics) ObserveSessionStarted(paymentsEnabled bool) {
	if m == nil {
		return
	}
	variant := "standard"
	if paymentsEnabled {
		variant = "payment"
	}
	m.sessionsStarted.WithLabelValues(variant).Inc()
}
