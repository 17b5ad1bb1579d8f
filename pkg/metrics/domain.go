package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts business events across quotes, invoices and the public gate.
type DomainMetrics struct {
	quotesCreated        prometheus.Counter
	invoicesCreated      prometheus.Counter
	invoicesOverdue      prometheus.Counter
	wholesalerRequests   prometheus.Counter
	gateRequests         *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	numberRetries        *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters. A nil registerer yields a
// no-op value.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		quotesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_created_total",
			Help:      "Customer quotes created.",
		}),
		invoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_created_total",
			Help:      "Invoices derived from quotes.",
		}),
		invoicesOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_marked_overdue_total",
			Help:      "Invoices moved to overdue by the sweep.",
		}),
		wholesalerRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wholesaler_requests_total",
			Help:      "Wholesaler pricing links issued.",
		}),
		gateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "public_gate_requests_total",
			Help:      "Public token requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Best-effort notifications that could not be delivered.",
		}, []string{"kind"}),
		numberRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "number_conflicts_total",
			Help:      "Document number collisions that forced a retry.",
		}, []string{"document"}),
	}
	reg.MustRegister(
		m.quotesCreated,
		m.invoicesCreated,
		m.invoicesOverdue,
		m.wholesalerRequests,
		m.gateRequests,
		m.notificationFailures,
		m.numberRetries,
	)
	return m
}

func (m *DomainMetrics) IncQuoteCreated() {
	if m == nil || m.quotesCreated == nil {
		return
	}
	m.quotesCreated.Inc()
}

func (m *DomainMetrics) IncInvoiceCreated() {
	if m == nil || m.invoicesCreated == nil {
		return
	}
	m.invoicesCreated.Inc()
}

func (m *DomainMetrics) AddInvoicesOverdue(n int) {
	if m == nil || m.invoicesOverdue == nil || n <= 0 {
		return
	}
	m.invoicesOverdue.Add(float64(n))
}

func (m *DomainMetrics) IncWholesalerRequest() {
	if m == nil || m.wholesalerRequests == nil {
		return
	}
	m.wholesalerRequests.Inc()
}

// ObserveGate records one public token request. outcome is ok, not_found,
// expired or error.
func (m *DomainMetrics) ObserveGate(operation, outcome string) {
	if m == nil || m.gateRequests == nil {
		return
	}
	m.gateRequests.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *DomainMetrics) IncNotificationFailure(kind string) {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *DomainMetrics) IncNumberConflict(document string) {
	if m == nil || m.numberRetries == nil {
		return
	}
	m.numberRetries.WithLabelValues(normalizeLabel(document)).Inc()
}
