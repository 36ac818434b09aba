package changelog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"grid-observer/src/logger"
	"grid-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------
// SQLiteSink stores each view's changelog in its own table. Rows are kept in
// insertion order by an autoincrement sequence so a table scan replays the
// stream exactly as it was written.
// -----------------------------------------------------------------------------

type SQLiteSink struct {
	DBPath string
	DB     *sql.DB
	Logger *logger.Logger

	mu    sync.Mutex
	stmts map[string]*sql.Stmt
}

// -----------------------------------------------------------------------------

func NewSQLiteSink(dbPath string, log *logger.Logger) (*SQLiteSink, error) {
	s := &SQLiteSink{
		DBPath: dbPath,
		Logger: log,
		stmts:  make(map[string]*sql.Stmt),
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteSink) initialize() error {
	db, err := sql.Open("sqlite", s.DBPath)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	s.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		s.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		s.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	for _, view := range models.AllViews {
		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS changelog_%s (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				key TEXT,
				diff INTEGER,
				payload TEXT
			);
		`, view)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create changelog_%s: %w", view, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (s *SQLiteSink) Append(view string, entry models.MChangelogEntry) error {
	payload, err := json.Marshal(entry.Row)
	if err != nil {
		return fmt.Errorf("failed to encode row for view %s: %w", view, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stmt, ok := s.stmts[view]
	if !ok {
		stmt, err = s.DB.Prepare(fmt.Sprintf(
			"INSERT INTO changelog_%s (key, diff, payload) VALUES (?, ?, ?)", view))
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

func (s *SQLiteSink) Close() error {
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
