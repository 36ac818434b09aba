package models

import "encoding/json"

// -----------------------------------------------------------------------------
// Output view names (one changelog per derived view)
// -----------------------------------------------------------------------------

const (
	ViewAnomalies       = "anomalies"
	ViewDeviceStats     = "device_stats"
	ViewRecommendations = "recommendations"
	ViewTotalPower      = "total_power"
)

// AllViews lists every changelog view in a stable order.
var AllViews = []string{ViewAnomalies, ViewDeviceStats, ViewRecommendations, ViewTotalPower}

// -----------------------------------------------------------------------------

const (
	DiffInsert  = 1
	DiffRetract = -1
)

// -----------------------------------------------------------------------------

// MChangelogEntry is the wire/storage representation of one row emission:
// the row's fields plus a diff of +1 (insert) or -1 (retract). Replaying a
// view's entries in order and summing diff per logical key reconstructs the
// live rows for that view.
type MChangelogEntry struct {
	// Key is the logical key for replay (device_type for device_stats,
	// window_start for total_power). Empty for append-only views where the
	// entry itself is the key.
	Key  string
	Diff int
	Row  interface{} // one of the M* row structs
}

// -----------------------------------------------------------------------------

// MarshalJSON flattens the row fields and the diff into a single object,
// the same line format the downstream readers consume.
func (e MChangelogEntry) MarshalJSON() ([]byte, error) {
	rowBytes, err := json.Marshal(e.Row)
	if err != nil {
		return nil, err
	}

	var flat map[string]interface{}
	if err := json.Unmarshal(rowBytes, &flat); err != nil {
		return nil, err
	}
	flat["diff"] = e.Diff

	return json.Marshal(flat)
}

// -----------------------------------------------------------------------------

// Insert builds an insertion entry for the given row.
func Insert(key string, row interface{}) MChangelogEntry {
	return MChangelogEntry{Key: key, Diff: DiffInsert, Row: row}
}

// -----------------------------------------------------------------------------

// Retract builds a retraction entry for the given row.
func Retract(key string, row interface{}) MChangelogEntry {
	return MChangelogEntry{Key: key, Diff: DiffRetract, Row: row}
}
