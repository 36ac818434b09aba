package engine

import (
	"fmt"

	"grid-observer/src/models"
)

// -----------------------------------------------------------------------------
// AnomalyDetector is a stateless per-row filter over the device stream.
// -----------------------------------------------------------------------------

type AnomalyDetector struct {
	// HighCurrentThreshold in amperes; readings at or below it pass silently
	HighCurrentThreshold float64
}

// -----------------------------------------------------------------------------

func NewAnomalyDetector(threshold float64) *AnomalyDetector {
	return &AnomalyDetector{HighCurrentThreshold: threshold}
}

// -----------------------------------------------------------------------------

// Evaluate reports whether the reading is anomalous and, if so, the alert
// row to emit. Predicate: current strictly above the threshold.
func (d *AnomalyDetector) Evaluate(r models.MDeviceReading) (models.MAnomaly, bool) {
	if r.Current <= d.HighCurrentThreshold {
		return models.MAnomaly{}, false
	}

	return models.MAnomaly{
		DeviceID:   r.DeviceID,
		DeviceType: r.DeviceType,
		Current:    r.Current,
		Power:      r.Power,
		Status:     r.Status,
		Alert:      d.alertText(r.Current, r.Status),
		Timestamp:  r.Timestamp,
	}, true
}

// -----------------------------------------------------------------------------

// alertText selects the alert message. Rules are priority ordered, first
// match wins:
//  1. starting device above threshold -> motor inrush
//  2. faulted device -> fault
//  3. above threshold -> high current
//  4. fallback -> generic
func (d *AnomalyDetector) alertText(current float64, status string) string {
	switch {
	case status == models.StatusStarting && current > d.HighCurrentThreshold:
		return fmt.Sprintf("MOTOR INRUSH: %.1fA", current)
	case status == models.StatusFault:
		return fmt.Sprintf("FAULT DETECTED: %.1fA", current)
	case current > d.HighCurrentThreshold:
		return fmt.Sprintf("HIGH CURRENT: %.1fA", current)
	default:
		return fmt.Sprintf("ANOMALY: %.1fA", current)
	}
}
