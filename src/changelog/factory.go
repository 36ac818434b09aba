package changelog

import (
	"fmt"

	"grid-observer/src/config"
	"grid-observer/src/interfaces"
	"grid-observer/src/logger"
)

// -----------------------------------------------------------------------------

// New builds the sink selected by the storage configuration.
func New(cfg *config.Config, log *logger.Logger) (interfaces.IChangelogSink, error) {
	switch cfg.Storage.SinkType {
	case "jsonl":
		return NewJSONLSink(cfg.Storage.OutputDir, log)
	case "sqlite":
		return NewSQLiteSink(cfg.Storage.DBPath, log)
	case "postgres":
		return NewPostgresSink(cfg.Storage.DBConnectionString, log)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Storage.SinkType)
	}
}
