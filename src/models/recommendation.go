package models

// MRecommendation is one device reading enriched with the most recent
// applicable grid context. Append-only; never retracted.
type MRecommendation struct {
	DeviceID         string  `json:"device_id"`
	DeviceType       string  `json:"device_type"`
	Current          float64 `json:"current"`
	Power            float64 `json:"power"`
	CarbonIntensity  float64 `json:"carbon_intensity"`
	CarbonLevel      string  `json:"carbon_level"`
	PricingTier      string  `json:"pricing_tier"`
	RenewablePct     float64 `json:"renewable_pct"`
	ElectricityPrice float64 `json:"electricity_price"`
	CostPerHour      float64 `json:"cost_per_hour"`
	Recommendation   string  `json:"recommendation"`
	Timestamp        float64 `json:"timestamp"`
}
