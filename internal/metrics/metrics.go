// Package metrics exposes counters for the invoice pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics captures invoice pipeline health signals.
type BillingMetrics struct {
	invoicesPersisted *prometheus.CounterVec
	invoicesRejected  *prometheus.CounterVec
	exceptionsRaised  *prometheus.CounterVec
	snapshotFallbacks prometheus.Counter
	pdfRenders        *prometheus.CounterVec
	createDuration    prometheus.Observer
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	invoicesPersisted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maxtt_invoices_persisted_total",
		Help: "Invoices written to the ledger by vehicle class.",
	}, []string{"vehicle_class"})
	invoicesRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maxtt_invoices_rejected_total",
		Help: "Invoice saves rejected by reason.",
	}, []string{"reason"})
	exceptionsRaised := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maxtt_exceptions_raised_total",
		Help: "Review exceptions raised by kind and severity.",
	}, []string{"kind", "level"})
	snapshotFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "maxtt_audit_snapshot_fallbacks_total",
		Help: "Reads that fell back to explicit columns because the remarks snapshot was absent or unreadable.",
	})
	pdfRenders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maxtt_pdf_renders_total",
		Help: "Invoice PDF renders by outcome.",
	}, []string{"outcome"})
	createDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "maxtt_invoice_create_duration_seconds",
		Help:    "End to end latency of the invoice create pipeline.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	registerer.MustRegister(
		invoicesPersisted,
		invoicesRejected,
		exceptionsRaised,
		snapshotFallbacks,
		pdfRenders,
		createDuration,
	)

	return &BillingMetrics{
		invoicesPersisted: invoicesPersisted,
		invoicesRejected:  invoicesRejected,
		exceptionsRaised:  exceptionsRaised,
		snapshotFallbacks: snapshotFallbacks,
		pdfRenders:        pdfRenders,
		createDuration:    createDuration,
	}
}

// IncInvoicePersisted increments the persisted counter for a vehicle class.
func (m *BillingMetrics) IncInvoicePersisted(vehicleClass string) {
	if m == nil || m.invoicesPersisted == nil {
		return
	}
	m.invoicesPersisted.WithLabelValues(vehicleClass).Inc()
}

// IncInvoiceRejected increments the rejected counter with a low-cardinality reason.
func (m *BillingMetrics) IncInvoiceRejected(reason string) {
	if m == nil || m.invoicesRejected == nil {
		return
	}
	m.invoicesRejected.WithLabelValues(reason).Inc()
}

// IncExceptionRaised counts a review exception by kind and severity.
func (m *BillingMetrics) IncExceptionRaised(kind, level string) {
	if m == nil || m.exceptionsRaised == nil {
		return
	}
	m.exceptionsRaised.WithLabelValues(kind, level).Inc()
}

// IncSnapshotFallback counts a read served without audit snapshot data.
func (m *BillingMetrics) IncSnapshotFallback() {
	if m == nil || m.snapshotFallbacks == nil {
		return
	}
	m.snapshotFallbacks.Inc()
}

// IncPDFRender counts a PDF render attempt by outcome.
func (m *BillingMetrics) IncPDFRender(outcome string) {
	if m == nil || m.pdfRenders == nil {
		return
	}
	m.pdfRenders.WithLabelValues(outcome).Inc()
}

// ObserveCreateDuration records the create pipeline latency.
func (m *BillingMetrics) ObserveCreateDuration(d time.Duration) {
	if m == nil || m.createDuration == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	m.createDuration.Observe(d.Seconds())
}
