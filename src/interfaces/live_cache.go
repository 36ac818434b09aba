package interfaces

import "grid-observer/src/models"

// -----------------------------------------------------------------------------
// ILiveCache is an optional read-side accelerator. It mirrors live view
// state; engine correctness never depends on it.
// -----------------------------------------------------------------------------

type ILiveCache interface {

	// StoreStats mirrors the latest live statistics row for a device type.
	StoreStats(stats models.MDeviceStats) error

	// -----------------------------------------------------------------------------

	// PushAnomaly prepends an anomaly to the bounded recent-anomaly list.
	PushAnomaly(anomaly models.MAnomaly) error

	// -----------------------------------------------------------------------------

	// Close releases the cache connection
	Close() error
}

// -----------------------------------------------------------------------------
// ILiveCacheReader is the query-side view of the cache.
// -----------------------------------------------------------------------------

type ILiveCacheReader interface {

	// GetAllStats returns the live statistics row of every device type.
	GetAllStats() (map[string]models.MDeviceStats, error)

	// -----------------------------------------------------------------------------

	// GetRecentAnomalies returns up to count anomalies, newest first.
	GetRecentAnomalies(count int64) ([]models.MAnomaly, error)
}
