package engine_test

import (
	"testing"

	"grid-observer/src/engine"
	"grid-observer/src/models"
)

func TestAnomalyPredicate(t *testing.T) {
	detector := engine.NewAnomalyDetector(100.0)

	// At the threshold: not anomalous (strict predicate)
	r := reading("hvac", 100.0, 40000.0)
	if _, ok := detector.Evaluate(r); ok {
		t.Errorf("Expected no anomaly at exactly 100.0A")
	}

	// Just above: anomalous
	r.Current = 100.1
	anomaly, ok := detector.Evaluate(r)
	if !ok {
		t.Fatalf("Expected anomaly at 100.1A")
	}
	if anomaly.DeviceID != r.DeviceID || anomaly.Current != 100.1 {
		t.Errorf("Anomaly row does not carry the reading fields")
	}
}

func TestAnomalyAlertPriority(t *testing.T) {
	detector := engine.NewAnomalyDetector(100.0)

	// Starting device above threshold wins over the fault rule
	r := reading("compressor", 120.0, 48000.0)
	r.Status = models.StatusStarting
	anomaly, _ := detector.Evaluate(r)
	if anomaly.Alert != "MOTOR INRUSH: 120.0A" {
		t.Errorf("Expected inrush alert, got %q", anomaly.Alert)
	}

	// Faulted device
	r.Status = models.StatusFault
	anomaly, _ = detector.Evaluate(r)
	if anomaly.Alert != "FAULT DETECTED: 120.0A" {
		t.Errorf("Expected fault alert, got %q", anomaly.Alert)
	}

	// Running device above threshold
	r.Status = models.StatusRunning
	anomaly, _ = detector.Evaluate(r)
	if anomaly.Alert != "HIGH CURRENT: 120.0A" {
		t.Errorf("Expected high current alert, got %q", anomaly.Alert)
	}
}
