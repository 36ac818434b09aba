package engine_test

import (
	"math"
	"testing"

	"grid-observer/src/engine"
	"grid-observer/src/models"
)

func reading(deviceType string, current, power float64) models.MDeviceReading {
	return models.MDeviceReading{
		DeviceID:   deviceType + "_001",
		DeviceType: deviceType,
		Status:     models.StatusRunning,
		Voltage:    400.0,
		Current:    current,
		Power:      power,
		Timestamp:  1000.0,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAggregatorRunningStats(t *testing.T) {
	agg := engine.NewAggregator()

	agg.Ingest(reading("hvac", 40.0, 16000.0))
	agg.Ingest(reading("hvac", 60.0, 24000.0))
	agg.Ingest(reading("hvac", 50.0, 20000.0))

	stats, ok := agg.Live()["hvac"]
	if !ok {
		t.Fatalf("Expected live row for hvac")
	}

	if !almostEqual(stats.AvgCurrent, 50.0) {
		t.Errorf("Expected avg current 50.0, got %f", stats.AvgCurrent)
	}
	if !almostEqual(stats.MaxCurrent, 60.0) {
		t.Errorf("Expected max current 60.0, got %f", stats.MaxCurrent)
	}
	if !almostEqual(stats.AvgPower, 20000.0) {
		t.Errorf("Expected avg power 20000.0, got %f", stats.AvgPower)
	}
	if stats.TotalSamples != 3 {
		t.Errorf("Expected 3 samples, got %d", stats.TotalSamples)
	}
}

func TestAggregatorRetractInsertPairing(t *testing.T) {
	agg := engine.NewAggregator()

	// First row of a type: insertion only
	entries := agg.Ingest(reading("hvac", 40.0, 16000.0))
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry for first row, got %d", len(entries))
	}
	if entries[0].Diff != models.DiffInsert {
		t.Errorf("Expected insert diff, got %d", entries[0].Diff)
	}

	// Second row: retract old, insert new, in that order
	entries = agg.Ingest(reading("hvac", 60.0, 24000.0))
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries for update, got %d", len(entries))
	}
	if entries[0].Diff != models.DiffRetract || entries[1].Diff != models.DiffInsert {
		t.Errorf("Expected retract then insert, got %d then %d", entries[0].Diff, entries[1].Diff)
	}

	// Retraction carries the superseded row, not the new one
	old, ok := entries[0].Row.(models.MDeviceStats)
	if !ok {
		t.Fatalf("Expected MDeviceStats row, got %T", entries[0].Row)
	}
	if old.TotalSamples != 1 {
		t.Errorf("Expected retracted row to have 1 sample, got %d", old.TotalSamples)
	}

	// Both keyed by device_type
	if entries[0].Key != "hvac" || entries[1].Key != "hvac" {
		t.Errorf("Expected entries keyed by device_type")
	}
}

func TestAggregatorIndependentTypes(t *testing.T) {
	agg := engine.NewAggregator()

	agg.Ingest(reading("hvac", 40.0, 16000.0))
	entries := agg.Ingest(reading("compressor", 70.0, 28000.0))

	// A new type never retracts another type's row
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry for new type, got %d", len(entries))
	}

	if len(agg.Live()) != 2 {
		t.Errorf("Expected 2 live rows, got %d", len(agg.Live()))
	}
}
