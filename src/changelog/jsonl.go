package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"grid-observer/src/logger"
	"grid-observer/src/models"
)

// -----------------------------------------------------------------------------
// JSONLSink appends changelog entries to one append-only file per view
// under the configured output directory (anomalies.jsonl, device_stats.jsonl,
// ...). This is the default sink: the files are the durable record and the
// query API replays them on demand.
// -----------------------------------------------------------------------------

type JSONLSink struct {
	OutputDir string
	Logger    *logger.Logger

	mu    sync.Mutex
	files map[string]*os.File
}

// -----------------------------------------------------------------------------

func NewJSONLSink(outputDir string, log *logger.Logger) (*JSONLSink, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}

	return &JSONLSink{
		OutputDir: outputDir,
		Logger:    log,
		files:     make(map[string]*os.File),
	}, nil
}

// -----------------------------------------------------------------------------

// ViewPath returns the backing file for a view.
func (s *JSONLSink) ViewPath(view string) string {
	return filepath.Join(s.OutputDir, view+".jsonl")
}

// -----------------------------------------------------------------------------

func (s *JSONLSink) Append(view string, entry models.MChangelogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry for view %s: %w", view, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[view]
	if !ok {
		f, err = os.OpenFile(s.ViewPath(view), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open view file %s: %w", view, err)
		}
		s.files[view] = f
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write to view %s: %w", view, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for view, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close view %s: %w", view, err)
		}
	}
	s.files = make(map[string]*os.File)
	return firstErr
}
