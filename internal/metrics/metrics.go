// Package metrics holds the Prometheus collectors of the catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ProductOps          *prometheus.CounterVec // operation, result
	OwnershipViolations *prometheus.CounterVec // operation
	ImageCleanup        *prometheus.CounterVec // result
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProductOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopper",
			Name:      "product_operations_total",
			Help:      "Catalog operations by kind and result.",
		}, []string{"operation", "result"}),
		OwnershipViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopper",
			Name:      "ownership_violations_total",
			Help:      "Attempts to mutate a product owned by someone else.",
		}, []string{"operation"}),
		ImageCleanup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopper",
			Name:      "image_cleanup_total",
			Help:      "Hosted image deletions by result (deleted, retried, dropped).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.ProductOps, m.OwnershipViolations, m.ImageCleanup)
	return m
}

// NewNop returns collectors registered nowhere, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Op(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ProductOps.WithLabelValues(operation, result).Inc()
}
