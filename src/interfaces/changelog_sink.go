package interfaces

import "grid-observer/src/models"

// -----------------------------------------------------------------------------
// IChangelogSink defines the contract for append-only changelog destinations.
// -----------------------------------------------------------------------------

type IChangelogSink interface {

	// -----------------------------------------------------------------------------

	// Append persists one changelog entry for the given view, durably and
	// in emission order. Appends to distinct views may run concurrently;
	// entries within one view are never interleaved.
	Append(view string, entry models.MChangelogEntry) error

	// -----------------------------------------------------------------------------

	// Close flushes and releases the sink
	Close() error
}
