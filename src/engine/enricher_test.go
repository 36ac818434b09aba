package engine_test

import (
	"strings"
	"testing"

	"grid-observer/src/engine"
	"grid-observer/src/models"
)

func gridSnapshot(tier, level string, price, carbon, renewable, ts float64) models.MGridContext {
	return models.MGridContext{
		CarbonIntensity:  carbon,
		CarbonLevel:      level,
		ElectricityPrice: price,
		PricingTier:      tier,
		RenewablePct:     renewable,
		Timestamp:        ts,
	}
}

func TestEnricherDefaultsBeforeFirstSnapshot(t *testing.T) {
	enricher := engine.NewEnricher(500.0)

	// No grid snapshot ingested yet: the join uses the defaults
	rec := enricher.IngestDevice(reading("hvac", 2.0, 800.0))

	if rec.ElectricityPrice != 0.15 || rec.PricingTier != models.LevelMedium {
		t.Errorf("Expected default pricing, got %f / %s", rec.ElectricityPrice, rec.PricingTier)
	}
	if rec.CarbonIntensity != 500.0 || rec.CarbonLevel != models.LevelMedium {
		t.Errorf("Expected default carbon, got %f / %s", rec.CarbonIntensity, rec.CarbonLevel)
	}
	if rec.RenewablePct != 35.0 {
		t.Errorf("Expected default renewable pct, got %f", rec.RenewablePct)
	}

	// 800W at $0.15/kWh
	if rec.CostPerHour != 0.12 {
		t.Errorf("Expected cost 0.12/hr, got %f", rec.CostPerHour)
	}
	if !strings.Contains(rec.Recommendation, "operating normally") {
		t.Errorf("Expected normal operation text, got %q", rec.Recommendation)
	}
}

func TestEnricherLatestSnapshotWins(t *testing.T) {
	enricher := engine.NewEnricher(500.0)

	enricher.IngestGrid(gridSnapshot(models.LevelLow, models.LevelLow, 0.08, 150.0, 70.0, 15.0))
	enricher.IngestGrid(gridSnapshot(models.LevelHigh, models.LevelMedium, 0.28, 400.0, 30.0, 20.0))

	if enricher.Grid().Timestamp != 20.0 {
		t.Fatalf("Expected latest snapshot to win, got timestamp %f", enricher.Grid().Timestamp)
	}

	// A device row older than the latest snapshot still joins against it
	r := reading("hvac", 2.0, 800.0)
	r.Timestamp = 17.0
	rec := enricher.IngestDevice(r)
	if rec.ElectricityPrice != 0.28 {
		t.Errorf("Expected join against latest snapshot, got price %f", rec.ElectricityPrice)
	}
}

func TestEnricherRulePriority(t *testing.T) {
	enricher := engine.NewEnricher(500.0)

	// HIGH price + high power + HIGH carbon: the stop rule fires, not the
	// peak-plus-carbon rule
	enricher.IngestGrid(gridSnapshot(models.LevelHigh, models.LevelHigh, 0.28, 700.0, 10.0, 30.0))
	rec := enricher.IngestDevice(reading("hvac", 1.5, 600.0))
	if !strings.Contains(rec.Recommendation, "Stopping") {
		t.Errorf("Expected stop rule to win, got %q", rec.Recommendation)
	}

	// HIGH price + HIGH carbon, power below cutoff: peak-plus-carbon rule
	rec = enricher.IngestDevice(reading("lighting", 1.0, 200.0))
	if !strings.Contains(rec.Recommendation, "Peak pricing") {
		t.Errorf("Expected peak pricing rule, got %q", rec.Recommendation)
	}

	// LOW price + LOW carbon: optimal conditions
	enricher.IngestGrid(gridSnapshot(models.LevelLow, models.LevelLow, 0.08, 150.0, 40.0, 45.0))
	rec = enricher.IngestDevice(reading("hvac", 1.5, 600.0))
	if !strings.Contains(rec.Recommendation, "Optimal conditions") {
		t.Errorf("Expected optimal conditions rule, got %q", rec.Recommendation)
	}

	// Mostly renewable grid, no other rule matched
	enricher.IngestGrid(gridSnapshot(models.LevelMedium, models.LevelLow, 0.12, 150.0, 85.0, 60.0))
	rec = enricher.IngestDevice(reading("hvac", 1.5, 600.0))
	if !strings.Contains(rec.Recommendation, "renewable") {
		t.Errorf("Expected renewable rule, got %q", rec.Recommendation)
	}
}

func TestEnricherCostRounding(t *testing.T) {
	enricher := engine.NewEnricher(500.0)

	// 123.4W at the default $0.15/kWh: 0.01851 rounds to 4 places
	rec := enricher.IngestDevice(reading("lighting", 0.5, 123.4))
	if rec.CostPerHour != 0.0185 {
		t.Errorf("Expected cost 0.0185, got %f", rec.CostPerHour)
	}
}
