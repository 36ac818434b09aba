package changelog_test

import (
	"testing"

	"grid-observer/src/changelog"
	"grid-observer/src/models"
)

func statsLine(deviceType string, samples, diff int) map[string]interface{} {
	return map[string]interface{}{
		"device_type":   deviceType,
		"avg_current":   50.0,
		"max_current":   60.0,
		"avg_power":     20000.0,
		"total_samples": float64(samples),
		"diff":          float64(diff),
	}
}

func TestReplayKeyedView(t *testing.T) {
	lines := []map[string]interface{}{
		statsLine("hvac", 1, 1),
		statsLine("hvac", 1, -1),
		statsLine("hvac", 2, 1),
		statsLine("compressor", 1, 1),
	}

	live := changelog.Replay(lines, changelog.KeyFieldFor(models.ViewDeviceStats))
	if len(live) != 2 {
		t.Fatalf("Expected 2 live rows, got %d", len(live))
	}

	// The retract/insert pair leaves only the latest hvac row
	byType := make(map[string]map[string]interface{})
	for _, row := range live {
		byType[row["device_type"].(string)] = row
	}
	if byType["hvac"]["total_samples"] != float64(2) {
		t.Errorf("Expected latest hvac row to survive, got %v", byType["hvac"])
	}
}

func TestReplayFullyRetractedKey(t *testing.T) {
	lines := []map[string]interface{}{
		statsLine("hvac", 1, 1),
		statsLine("hvac", 1, -1),
	}

	live := changelog.Replay(lines, "device_type")
	if len(live) != 0 {
		t.Errorf("Expected no live rows after full retraction, got %d", len(live))
	}
}

func TestReplayIdempotent(t *testing.T) {
	lines := []map[string]interface{}{
		statsLine("hvac", 1, 1),
		statsLine("hvac", 1, -1),
		statsLine("hvac", 2, 1),
	}

	first := changelog.Replay(lines, "device_type")
	second := changelog.Replay(lines, "device_type")

	if len(first) != len(second) {
		t.Fatalf("Replay is not deterministic: %d vs %d rows", len(first), len(second))
	}
	if first[0]["total_samples"] != second[0]["total_samples"] {
		t.Errorf("Replay is not deterministic")
	}
}

func TestReplayAppendOnlyView(t *testing.T) {
	lines := []map[string]interface{}{
		{"device_id": "HVAC_001", "alert": "HIGH CURRENT: 120.0A", "timestamp": 10.0, "diff": float64(1)},
		{"device_id": "HVAC_001", "alert": "HIGH CURRENT: 125.0A", "timestamp": 11.0, "diff": float64(1)},
	}

	// No key field: every distinct line is its own key, nothing collapses
	live := changelog.Replay(lines, changelog.KeyFieldFor(models.ViewAnomalies))
	if len(live) != 2 {
		t.Errorf("Expected 2 live rows for append-only view, got %d", len(live))
	}
}
