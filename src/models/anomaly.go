package models

// MAnomaly is one detected anomalous device reading.
// Append-only; never retracted.
type MAnomaly struct {
	DeviceID   string  `json:"device_id"`
	DeviceType string  `json:"device_type"`
	Current    float64 `json:"current"`
	Power      float64 `json:"power"`
	Status     string  `json:"status"`
	Alert      string  `json:"alert"`
	Timestamp  float64 `json:"timestamp"`
}
