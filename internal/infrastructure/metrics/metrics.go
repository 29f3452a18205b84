// Package metrics exposes the prometheus instruments of the audit and
// enhancement pipelines.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the instruments the application services record into.
type Metrics struct {
	registry *prometheus.Registry

	ProductsScanned       prometheus.Counter
	FindingsTotal         *prometheus.CounterVec
	ScanDuration          prometheus.Histogram
	EnhancementsGenerated prometheus.Counter
	EnhancementsApproved  prometheus.Counter
	EnhancementsRejected  prometheus.Counter
	CreditDenied          prometheus.Counter
	GenerateDuration      prometheus.Histogram
}

// New creates and registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		ProductsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_audit_products_scanned_total",
			Help: "Products fetched and analyzed across all scans.",
		}),
		FindingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_audit_findings_total",
			Help: "Findings emitted by the analyzer, by issue category.",
		}, []string{"issue"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_audit_scan_duration_seconds",
			Help:    "Duration of full catalog scans.",
			Buckets: prometheus.DefBuckets,
		}),
		EnhancementsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_audit_enhancements_generated_total",
			Help: "Proposals successfully generated by the AI provider.",
		}),
		EnhancementsApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_audit_enhancements_approved_total",
			Help: "Proposals pushed to the catalog after approval.",
		}),
		EnhancementsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_audit_enhancements_rejected_total",
			Help: "Proposals rejected and archived.",
		}),
		CreditDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_audit_credit_denied_total",
			Help: "Generate calls refused for insufficient credit.",
		}),
		GenerateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_audit_generate_duration_seconds",
			Help:    "Duration of AI generation calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.ProductsScanned,
		m.FindingsTotal,
		m.ScanDuration,
		m.EnhancementsGenerated,
		m.EnhancementsApproved,
		m.EnhancementsRejected,
		m.CreditDenied,
		m.GenerateDuration,
	)

	return m
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
