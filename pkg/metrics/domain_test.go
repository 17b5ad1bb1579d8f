package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDomainMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomainMetrics(reg)
	m.IncQuoteCreated()
	m.IncInvoiceCreated()
	m.IncInvoiceCreated()
	m.AddInvoicesOverdue(3)
	m.ObserveGate("read", "expired")
	m.IncNotificationFailure("quote_priced")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if mf := findMetricFamily(mfs, "tradecert_invoices_created_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 2 {
		t.Fatalf("expected two invoices created")
	}
	if mf := findMetricFamily(mfs, "tradecert_invoices_marked_overdue_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected three overdue invoices")
	}
	if got, err := fetchCounterValue(mfs, "tradecert_public_gate_requests_total", "outcome", "expired"); err != nil || got != 1 {
		t.Fatalf("expected expired gate request, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "tradecert_notification_failures_total", "kind", "quote_priced"); err != nil || got != 1 {
		t.Fatalf("expected notification failure, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var d *DomainMetrics
	d.IncQuoteCreated()
	d.ObserveGate("read", "ok")
	NewDomainMetrics(nil).IncNotificationFailure("x")

	var h *HTTPMetrics
	h.Observe("GET", "/health/live", 200, time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe("GET", "/api/v1/projects", 200, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "tradecert_http_request_duration_seconds", "route", "/api/v1/projects"); err != nil || got <= 0 {
		t.Fatalf("expected latency sample, got %f (%v)", got, err)
	}
}
