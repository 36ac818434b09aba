package interfaces

import (
	"context"
	"sync"
)

// -----------------------------------------------------------------------------
// IStreamSource interface for long-running pollers feeding the engine.
// -----------------------------------------------------------------------------

type IStreamSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Start begins the polling loop
	// ctx: controls the lifecycle (cancellation stops the source)
	// wg: WaitGroup to signal when the source has fully stopped
	// Rows are delivered to the channel the source was constructed with.
	Start(ctx context.Context, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the polling loop (legacy/manual stop)
	// Ideally, cancelling the context passed to Start should be enough.
	Stop() error

	// -----------------------------------------------------------------------------

	// Interval returns the configured poll cadence in milliseconds.
	Interval() int
}
