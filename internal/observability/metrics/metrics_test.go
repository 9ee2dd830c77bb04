package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveSubmission("success", 0.2)
	m.ObserveSubmission("success", 0.3)
	m.ObserveSubmission("webhook_error", 1.5)
	m.ObserveTokenization("error")
	m.ObserveCalendarExport()
	m.ObserveSessionStarted(true)

	subs := findFamily(t, reg, "empirecuts_booking_submissions_total")
	var success float64
	for _, metric := range subs.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == "success" {
				success = metric.GetCounter().GetValue()
			}
		}
	}
	if success != 2 {
		t.Fatalf("expected 2 successful submissions, got %v", success)
	}

	exports := findFamily(t, reg, "empirecuts_booking_calendar_exports_total")
	if got := exports.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected 1 calendar export, got %v", got)
	}

	latency := findFamily(t, reg, "empirecuts_booking_submit_latency_seconds")
	if latency.GetType() != dto.MetricType_HISTOGRAM {
		t.Fatalf("expected histogram, got %v", latency.GetType())
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSubmission("success", 0.1)
	m.ObserveTokenization("success")
	m.ObserveCalendarExport()
	m.ObserveSessionStarted(false)
}
