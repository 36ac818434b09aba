package models

// -----------------------------------------------------------------------------
// Server State Structure (pushed to websocket clients)
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type            string                  `json:"type"` // "INITIAL" or "UPDATE"
	Statistics      map[string]MDeviceStats `json:"statistics"`
	Anomalies       []MAnomaly              `json:"anomalies"`
	Recommendations []MRecommendation       `json:"recommendations"`
	Timestamp       int64                   `json:"timestamp"`
	EngineMetrics   MEngineMetrics          `json:"engine_metrics"`
}

// -----------------------------------------------------------------------------
// Engine processing counters exposed alongside state updates
// -----------------------------------------------------------------------------

type MEngineMetrics struct {
	DeviceRows    int64 `json:"device_rows"`
	GridRows      int64 `json:"grid_rows"`
	AnomalyRows   int64 `json:"anomaly_rows"`
	EntriesOut    int64 `json:"entries_out"`
	LastUpdateSec int64 `json:"last_update_sec"`
}

// -----------------------------------------------------------------------------
// Client command sent over the websocket
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string `json:"command"`
}
