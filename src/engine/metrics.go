package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Prometheus counters, served by the query server's /metrics endpoint
// -----------------------------------------------------------------------------

var (
	deviceRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grid_observer_device_rows_total",
		Help: "Total number of device readings ingested",
	})

	gridRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grid_observer_grid_rows_total",
		Help: "Total number of grid context snapshots ingested",
	})

	anomaliesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grid_observer_anomalies_total",
		Help: "Total number of anomalies detected",
	})

	entriesWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grid_observer_changelog_entries_total",
		Help: "Total number of changelog entries written per view",
	}, []string{"view"})
)
