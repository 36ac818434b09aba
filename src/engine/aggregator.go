package engine

import (
	"grid-observer/src/models"
)

// -----------------------------------------------------------------------------
// Aggregator maintains running statistics per device_type.
//
// State is the raw running sums needed to update each MDeviceStats row
// incrementally: no windowing, no eviction, no recomputation over history.
// Every update after the first for a type emits a retract/insert pair so the
// changelog always reconstructs to exactly one live row per type.
// -----------------------------------------------------------------------------

type typeState struct {
	sumCurrent float64
	sumPower   float64
	maxCurrent float64
	count      int64
	live       *models.MDeviceStats
}

type Aggregator struct {
	states map[string]*typeState
}

// -----------------------------------------------------------------------------

func NewAggregator() *Aggregator {
	return &Aggregator{
		states: make(map[string]*typeState),
	}
}

// -----------------------------------------------------------------------------

// Ingest folds one reading into its type's running state and returns the
// changelog entries to emit: a retraction of the superseded row (absent for
// the first row of a type) followed by the insertion of the new row.
func (a *Aggregator) Ingest(r models.MDeviceReading) []models.MChangelogEntry {
	state, ok := a.states[r.DeviceType]
	if !ok {
		state = &typeState{}
		a.states[r.DeviceType] = state
	}

	state.count++
	state.sumCurrent += r.Current
	state.sumPower += r.Power
	if r.Current > state.maxCurrent || state.count == 1 {
		state.maxCurrent = r.Current
	}

	next := models.MDeviceStats{
		DeviceType:   r.DeviceType,
		AvgCurrent:   state.sumCurrent / float64(state.count),
		MaxCurrent:   state.maxCurrent,
		AvgPower:     state.sumPower / float64(state.count),
		TotalSamples: state.count,
	}

	var entries []models.MChangelogEntry
	if state.live != nil {
		entries = append(entries, models.Retract(r.DeviceType, *state.live))
	}
	entries = append(entries, models.Insert(r.DeviceType, next))

	state.live = &next
	return entries
}

// -----------------------------------------------------------------------------

// Live returns a snapshot of the current row per device_type.
func (a *Aggregator) Live() map[string]models.MDeviceStats {
	snapshot := make(map[string]models.MDeviceStats, len(a.states))
	for deviceType, state := range a.states {
		if state.live != nil {
			snapshot[deviceType] = *state.live
		}
	}
	return snapshot
}
