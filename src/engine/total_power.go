package engine

import (
	"math"
	"strconv"

	"grid-observer/src/models"
)

// -----------------------------------------------------------------------------
// TotalPowerWindower maintains total power across all devices in tumbling
// windows, keyed by window start. Same retract/insert changelog contract as
// the per-type statistics: readers keep the latest live row per window.
// Windows are never evicted within a run.
// -----------------------------------------------------------------------------

type windowState struct {
	totalPower float64
	samples    int64
	live       *models.MTotalPower
}

type TotalPowerWindower struct {
	// WindowSeconds is the tumbling window length in time units
	WindowSeconds float64

	windows map[float64]*windowState
}

// -----------------------------------------------------------------------------

func NewTotalPowerWindower(windowSeconds float64) *TotalPowerWindower {
	return &TotalPowerWindower{
		WindowSeconds: windowSeconds,
		windows:       make(map[float64]*windowState),
	}
}

// -----------------------------------------------------------------------------

// WindowBoundaries floors a timestamp to its tumbling window.
func (w *TotalPowerWindower) WindowBoundaries(ts float64) (float64, float64) {
	start := math.Floor(ts/w.WindowSeconds) * w.WindowSeconds
	return start, start + w.WindowSeconds
}

// -----------------------------------------------------------------------------

// Ingest adds one reading's power to its window and returns the changelog
// entries to emit: retraction of the window's prior row (absent for the
// first sample of a window) followed by the insertion of the updated row.
func (w *TotalPowerWindower) Ingest(r models.MDeviceReading) []models.MChangelogEntry {
	start, end := w.WindowBoundaries(r.Timestamp)

	state, ok := w.windows[start]
	if !ok {
		state = &windowState{}
		w.windows[start] = state
	}

	state.totalPower += r.Power
	state.samples++

	next := models.MTotalPower{
		WindowStart: start,
		WindowEnd:   end,
		TotalPower:  state.totalPower,
		Samples:     state.samples,
	}

	key := strconv.FormatFloat(start, 'f', -1, 64)

	var entries []models.MChangelogEntry
	if state.live != nil {
		entries = append(entries, models.Retract(key, *state.live))
	}
	entries = append(entries, models.Insert(key, next))

	state.live = &next
	return entries
}
