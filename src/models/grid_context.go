package models

// -----------------------------------------------------------------------------
// Carbon / pricing levels reported by the grid context source
// -----------------------------------------------------------------------------

const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// -----------------------------------------------------------------------------

// MGridContext represents one snapshot of grid-wide context.
// Immutable once produced.
type MGridContext struct {
	CarbonIntensity  float64 `json:"carbon_intensity"`  // gCO2/kWh
	CarbonLevel      string  `json:"carbon_level"`      // LOW | MEDIUM | HIGH
	ElectricityPrice float64 `json:"electricity_price"` // $/kWh
	PricingTier      string  `json:"pricing_tier"`      // LOW | MEDIUM | HIGH
	RenewablePct     float64 `json:"renewable_pct"`     // 0-100
	Timestamp        float64 `json:"timestamp"`
}
