package engine

import (
	"fmt"
	"math"

	"grid-observer/src/models"
)

// -----------------------------------------------------------------------------
// Default grid context used until the first snapshot arrives
// -----------------------------------------------------------------------------

func DefaultGridContext() models.MGridContext {
	return models.MGridContext{
		CarbonIntensity:  500.0,
		CarbonLevel:      models.LevelMedium,
		ElectricityPrice: 0.15,
		PricingTier:      models.LevelMedium,
		RenewablePct:     35.0,
	}
}

// -----------------------------------------------------------------------------
// Enricher joins each device reading against the most recent known grid
// snapshot and derives a cost/carbon recommendation.
//
// The grid state is a single slot, overwritten on every new snapshot
// (latest wins). With no retained history of older snapshots, "most recent
// known" stands in for a strict backward as-of join: a snapshot newer than
// the device row is still used. Retaining a time-ordered history would make
// the join strict, at the cost of unbounded grid state; the single slot is
// the deliberate choice here.
// -----------------------------------------------------------------------------

type Enricher struct {
	// HighPowerThreshold in watts; the cutoff for the stop/defer rules
	HighPowerThreshold float64

	grid models.MGridContext
}

// -----------------------------------------------------------------------------

func NewEnricher(highPowerThreshold float64) *Enricher {
	return &Enricher{
		HighPowerThreshold: highPowerThreshold,
		grid:               DefaultGridContext(),
	}
}

// -----------------------------------------------------------------------------

// IngestGrid replaces the last-seen grid snapshot. It emits nothing; the
// join is driven by device-row arrival only.
func (e *Enricher) IngestGrid(g models.MGridContext) {
	e.grid = g
}

// -----------------------------------------------------------------------------

// Grid returns the current last-seen snapshot.
func (e *Enricher) Grid() models.MGridContext {
	return e.grid
}

// -----------------------------------------------------------------------------

// IngestDevice joins one reading against the current grid slot and returns
// the recommendation row to emit (insertion-only, point-in-time fact).
func (e *Enricher) IngestDevice(r models.MDeviceReading) models.MRecommendation {
	grid := e.grid
	costPerHour := roundTo(r.Power/1000*grid.ElectricityPrice, 4)

	return models.MRecommendation{
		DeviceID:         r.DeviceID,
		DeviceType:       r.DeviceType,
		Current:          r.Current,
		Power:            r.Power,
		CarbonIntensity:  grid.CarbonIntensity,
		CarbonLevel:      grid.CarbonLevel,
		PricingTier:      grid.PricingTier,
		RenewablePct:     grid.RenewablePct,
		ElectricityPrice: grid.ElectricityPrice,
		CostPerHour:      costPerHour,
		Recommendation:   e.recommendationText(r, grid, costPerHour),
		Timestamp:        r.Timestamp,
	}
}

// -----------------------------------------------------------------------------

// recommendationText selects the recommendation message. Rules are priority
// ordered, first match wins.
func (e *Enricher) recommendationText(r models.MDeviceReading, grid models.MGridContext, costPerHour float64) string {
	carbonPerHour := r.Power / 1000 * grid.CarbonIntensity

	switch {
	case grid.PricingTier == models.LevelHigh && r.Power > e.HighPowerThreshold:
		return fmt.Sprintf(
			"Grid Price is $%.3f/kWh (High). Stopping %s will save approx $%.2f/hour.",
			grid.ElectricityPrice, r.DeviceID, costPerHour)

	case grid.PricingTier == models.LevelHigh && grid.CarbonLevel == models.LevelHigh:
		return fmt.Sprintf(
			"Peak pricing ($%.3f/kWh) + High carbon (%.0fgCO2/kWh). Reducing %s saves $%.2f/hr and %.0fg CO2/hr.",
			grid.ElectricityPrice, grid.CarbonIntensity, r.DeviceID, costPerHour, carbonPerHour)

	case grid.CarbonLevel == models.LevelHigh && r.Power > e.HighPowerThreshold:
		return fmt.Sprintf(
			"Carbon intensity is %.0fgCO2/kWh (High). Deferring %s avoids %.0fg CO2/hr.",
			grid.CarbonIntensity, r.DeviceID, carbonPerHour)

	case grid.PricingTier == models.LevelLow && grid.CarbonLevel == models.LevelLow:
		return fmt.Sprintf(
			"Optimal conditions: $%.3f/kWh, %.0f%% renewable. Good time to run %s.",
			grid.ElectricityPrice, grid.RenewablePct, r.DeviceID)

	case grid.RenewablePct > 70:
		return fmt.Sprintf(
			"Grid is %.0f%% renewable (Clean energy!). %s running on mostly clean power.",
			grid.RenewablePct, r.DeviceID)

	default:
		return fmt.Sprintf(
			"%s operating normally. Current cost: $%.2f/hr at $%.3f/kWh.",
			r.DeviceID, costPerHour, grid.ElectricityPrice)
	}
}

// -----------------------------------------------------------------------------

// roundTo rounds to the given number of decimal places.
func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
