package interfaces

import "grid-observer/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing data with external systems (Server/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes the latest state snapshot to external listeners.
	Broadcast(state *models.MLatestData)

	// -----------------------------------------------------------------------------
	// UpdateAllDatas merges new data into the internal state without broadcasting
	UpdateAllDatas(state *models.MLatestData)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
