package models

// -----------------------------------------------------------------------------
// Device status values (matches the telemetry source)
// -----------------------------------------------------------------------------

const (
	StatusOff      = "off"
	StatusStarting = "starting"
	StatusRunning  = "running"
	StatusFault    = "fault"
)

// -----------------------------------------------------------------------------

// MDeviceReading represents one observation of one device at one instant.
// Immutable once produced; timestamps are seconds since epoch and are
// monotonically increasing per source.
type MDeviceReading struct {
	DeviceID   string  `json:"device_id"`
	DeviceType string  `json:"device_type"`
	Status     string  `json:"status"`
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Power      float64 `json:"power"`
	Timestamp  float64 `json:"timestamp"`
}
