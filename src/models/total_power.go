package models

// MTotalPower is the running total power across all devices for one
// tumbling window. Keyed by window_start; updated rows supersede prior
// ones through retract/insert pairs like MDeviceStats.
type MTotalPower struct {
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`
	TotalPower  float64 `json:"total_power"`
	Samples     int64   `json:"samples"`
}
