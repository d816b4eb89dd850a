package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

// ResultsDB exports match reports into an SQLite file for offline
// analysis. Nothing in the game reads it back. No key is set, so the file
// is a plain SQLite database any sqlite3 client can open.
type ResultsDB struct {
	db     *sql.DB
	dbPath string
}

// LevelRate is the aggregate of one level within a batch.
type LevelRate struct {
	Level    int
	Runs     int
	Wins     int
	AvgStars float64
}

// OpenResultsDB opens (or creates) the database at path.
func OpenResultsDB(path string) (*ResultsDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create results dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to results database: %w", err)
	}

	r := &ResultsDB{db: db, dbPath: path}
	if err := r.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return r, nil
}

func (r *ResultsDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		batch TEXT NOT NULL,
		match_id TEXT NOT NULL,
		level INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		state TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		stars INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL,
		time_left_ms INTEGER NOT NULL,
		energy INTEGER NOT NULL,
		connections INTEGER NOT NULL,
		viruses INTEGER NOT NULL,
		waves INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (batch, match_id)
	);

	CREATE INDEX IF NOT EXISTS matches_batch_level ON matches (batch, level);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Insert stores reports under batch in one transaction.
func (r *ResultsDB) Insert(batch string, reports ...MatchReport) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO matches
			(batch, match_id, level, seed, state, reason, stars, elapsed_ms, time_left_ms,
			 energy, connections, viruses, waves, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, m := range reports {
		_, err := stmt.Exec(batch, m.MatchID, m.Level, int64(m.Seed), m.State, m.Reason, m.Stars,
			m.ElapsedMs, m.TimeLeftMs, m.Energy, m.Connections, m.Viruses, m.Waves, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert match %s: %w", m.MatchID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of matches stored under batch.
func (r *ResultsDB) Count(batch string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM matches WHERE batch = ?`, batch).Scan(&n)
	return n, err
}

// LevelRates aggregates a batch per level, ordered by level.
func (r *ResultsDB) LevelRates(batch string) ([]LevelRate, error) {
	rows, err := r.db.Query(`
		SELECT level, COUNT(*), SUM(state = 'won'),
			COALESCE(AVG(CASE WHEN state = 'won' THEN stars END), 0.0)
		FROM matches WHERE batch = ?
		GROUP BY level ORDER BY level`, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate batch %s: %w", batch, err)
	}
	defer rows.Close()

	var rates []LevelRate
	for rows.Next() {
		var lr LevelRate
		if err := rows.Scan(&lr.Level, &lr.Runs, &lr.Wins, &lr.AvgStars); err != nil {
			return nil, err
		}
		rates = append(rates, lr)
	}
	return rates, rows.Err()
}

// Path returns the database file path.
func (r *ResultsDB) Path() string {
	return r.dbPath
}

// Close releases the database connection.
func (r *ResultsDB) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
