package engine_test

import (
	"errors"
	"testing"

	"grid-observer/src/config"
	"grid-observer/src/engine"
	"grid-observer/src/models"
)

// recordingSink captures appended entries per view.
type recordingSink struct {
	entries map[string][]models.MChangelogEntry
	failOn  string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{entries: make(map[string][]models.MChangelogEntry)}
}

func (s *recordingSink) Append(view string, entry models.MChangelogEntry) error {
	if view == s.failOn {
		return errors.New("disk full")
	}
	s.entries[view] = append(s.entries[view], entry)
	return nil
}

func (s *recordingSink) Close() error { return nil }

// -----------------------------------------------------------------------------

func testConfig() *config.Config {
	return &config.Config{MConfig: &models.MConfig{
		Name:     "test",
		Host:     "127.0.0.1",
		Port:     8080,
		LogLevel: "ERROR",
		Source: models.MSourceConfig{
			BaseURL:         "http://127.0.0.1:8000",
			InternalPath:    "/api/stream/internal",
			ExternalPath:    "/api/stream/external",
			DevicePollMs:    100,
			GridPollSeconds: 15,
		},
		Engine: models.MEngineConfig{
			HighCurrentThreshold:    100.0,
			HighPowerThreshold:      500.0,
			TotalPowerWindowSeconds: 1.0,
			ChannelBuffer:           16,
		},
	}}
}

// -----------------------------------------------------------------------------

func TestCoordinatorRoutesViews(t *testing.T) {
	sink := newRecordingSink()
	coordinator := engine.NewCoordinator(testConfig(), nil, sink, nil, nil)

	anomalous := reading("hvac", 120.0, 48000.0)
	normal := reading("compressor", 50.0, 20000.0)

	if err := coordinator.ProcessBatch([]models.MDeviceReading{anomalous, normal}); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	// One anomaly (only the 120A reading crosses the threshold)
	if len(sink.entries[models.ViewAnomalies]) != 1 {
		t.Errorf("Expected 1 anomaly entry, got %d", len(sink.entries[models.ViewAnomalies]))
	}

	// Two device types, first row each: two insertions
	if len(sink.entries[models.ViewDeviceStats]) != 2 {
		t.Errorf("Expected 2 stats entries, got %d", len(sink.entries[models.ViewDeviceStats]))
	}

	// One recommendation per reading
	if len(sink.entries[models.ViewRecommendations]) != 2 {
		t.Errorf("Expected 2 recommendation entries, got %d", len(sink.entries[models.ViewRecommendations]))
	}

	// Same window: insert, then retract/insert
	if len(sink.entries[models.ViewTotalPower]) != 3 {
		t.Errorf("Expected 3 total power entries, got %d", len(sink.entries[models.ViewTotalPower]))
	}

	metrics := coordinator.Metrics()
	if metrics.DeviceRows != 2 {
		t.Errorf("Expected 2 device rows counted, got %d", metrics.DeviceRows)
	}
	if metrics.AnomalyRows != 1 {
		t.Errorf("Expected 1 anomaly row counted, got %d", metrics.AnomalyRows)
	}
	if metrics.EntriesOut != 8 {
		t.Errorf("Expected 8 entries written, got %d", metrics.EntriesOut)
	}
}

func TestCoordinatorSinkFailureIsFatal(t *testing.T) {
	sink := newRecordingSink()
	sink.failOn = models.ViewRecommendations
	coordinator := engine.NewCoordinator(testConfig(), nil, sink, nil, nil)

	err := coordinator.ProcessBatch([]models.MDeviceReading{reading("hvac", 50.0, 20000.0)})
	if err == nil {
		t.Fatalf("Expected sink write failure to propagate")
	}
}

func TestCoordinatorGridUpdatesJoin(t *testing.T) {
	sink := newRecordingSink()
	coordinator := engine.NewCoordinator(testConfig(), nil, sink, nil, nil)

	coordinator.ProcessGrid(gridSnapshot(models.LevelHigh, models.LevelHigh, 0.28, 700.0, 10.0, 42.0))

	if coordinator.Enricher.Grid().PricingTier != models.LevelHigh {
		t.Errorf("Expected grid snapshot to reach the enricher")
	}
	if coordinator.Metrics().GridRows != 1 {
		t.Errorf("Expected 1 grid row counted, got %d", coordinator.Metrics().GridRows)
	}

	// Grid ingestion alone emits nothing
	for view, entries := range sink.entries {
		if len(entries) != 0 {
			t.Errorf("Expected no entries from grid ingestion, view %s has %d", view, len(entries))
		}
	}
}
