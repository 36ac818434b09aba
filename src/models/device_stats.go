package models

// MDeviceStats is the current derived state for one device_type.
// Exactly one live row per type at any time; a new row supersedes the
// previous one through a retract/insert pair in the changelog.
type MDeviceStats struct {
	DeviceType   string  `json:"device_type"`
	AvgCurrent   float64 `json:"avg_current"`
	MaxCurrent   float64 `json:"max_current"`
	AvgPower     float64 `json:"avg_power"`
	TotalSamples int64   `json:"total_samples"`
}
