// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SalesTotal counts committed sale operations by kind (record, revise, cancel).
	SalesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_total",
		Help: "Committed sale operations.",
	}, []string{"op"})

	// SaleFailures counts sale operations that were rolled back or rejected.
	SaleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sale_failures_total",
		Help: "Sale operations that did not commit, by error kind.",
	}, []string{"op", "kind"})

	PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_persist_failures_total",
		Help: "Failed writes of the store image, by backend.",
	}, []string{"backend"})

	PersistBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pos_persist_bytes",
		Help: "Size of the last exported store image.",
	})
)
