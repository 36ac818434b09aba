package changelog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"grid-observer/src/logger"
	"grid-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------
// PostgresSink mirrors SQLiteSink on a shared server, for deployments where
// several readers tail the changelog concurrently.
// -----------------------------------------------------------------------------

type PostgresSink struct {
	ConnectionString string
	DB               *sql.DB
	Logger           *logger.Logger

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// -----------------------------------------------------------------------------

func NewPostgresSink(connStr string, log *logger.Logger) (*PostgresSink, error) {
	s := &PostgresSink{
		ConnectionString: connStr,
		Logger:           log,
		stmts:            make(map[string]*sql.Stmt),
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------

func (s *PostgresSink) initialize() error {
	db, err := sql.Open("postgres", s.ConnectionString)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	s.DB = db

	for _, view := range models.AllViews {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS changelog_%s (
				seq BIGSERIAL PRIMARY KEY,
				key TEXT,
				diff INTEGER,
				payload JSONB
			);
		`, view)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create changelog_%s: %w", view, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (s *PostgresSink) Append(view string, entry models.MChangelogEntry) error {
	payload, err := json.Marshal(entry.Row)
	if err != nil {
		return fmt.Errorf("failed to encode row for view %s: %w", view, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, ok := s.stmts[view]
	if !ok {
		stmt, err = s.DB.Prepare(fmt.Sprintf(
			"INSERT INTO changelog_%s (key, diff, payload) VALUES ($1, $2, $3)", view))
		if err != nil {
			return fmt.Errorf("failed to prepare insert for view %s: %w", view, err)
		}
		s.stmts[view] = stmt
	}

	if _, err := stmt.Exec(entry.Key, entry.Diff, string(payload)); err != nil {
		return fmt.Errorf("failed to insert into view %s: %w", view, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *PostgresSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range s.stmts {
		stmt.Close()
	}
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
