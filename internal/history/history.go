// Package history keeps a local log of automations that fired: dodges sent
// and reports submitted. Purely informational; every write is best-effort and
// never blocks or fails the flow that triggered it.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS dodges (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id   INTEGER NOT NULL,
	dodged_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id     INTEGER NOT NULL,
	summoner_id INTEGER NOT NULL,
	reported_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_game ON reports(game_id);
`

// Entry is one past automation, flattened for the shell.
type Entry struct {
	Kind       string    `json:"kind"` // "dodge" or "report"
	GameID     uint64    `json:"gameId"`
	SummonerID uint64    `json:"summonerId,omitempty"`
	At         time.Time `json:"at"`
}

// Store wraps the sqlite database holding the log.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}

	return &Store{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}, nil
}

// RecordDodge logs a fired dodge.
func (s *Store) RecordDodge(gameID uint64) {
	if _, err := s.db.Exec(
		`INSERT INTO dodges (game_id, dodged_at) VALUES (?, ?)`,
		gameID, time.Now().Unix(),
	); err != nil {
		s.log.Warn().Err(err).Uint64("gameId", gameID).Msg("failed to record dodge")
	}
}

// RecordReport logs one submitted report.
func (s *Store) RecordReport(gameID, summonerID uint64) {
	if _, err := s.db.Exec(
		`INSERT INTO reports (game_id, summoner_id, reported_at) VALUES (?, ?, ?)`,
		gameID, summonerID, time.Now().Unix(),
	); err != nil {
		s.log.Warn().Err(err).Uint64("gameId", gameID).Msg("failed to record report")
	}
}

// Recent returns the latest entries across both tables, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT 'dodge' AS kind, game_id, 0 AS summoner_id, dodged_at AS at FROM dodges
		UNION ALL
		SELECT 'report', game_id, summoner_id, reported_at FROM reports
		ORDER BY at DESC, game_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Kind, &e.GameID, &e.SummonerID, &at); err != nil {
			return nil, err
		}
		e.At = time.Unix(at, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
