// Package archive records evaluation matrices in a SQLite database so that runs
// can be queried and compared later.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hailam/staticeval/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id    TEXT PRIMARY KEY,
	event      TEXT NOT NULL,
	white      TEXT NOT NULL,
	black      TEXT NOT NULL,
	date       TEXT NOT NULL,
	result     TEXT NOT NULL,
	engine     TEXT NOT NULL,
	mode       TEXT NOT NULL,
	plies      INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scores (
	game_id TEXT NOT NULL,
	ply     INTEGER NOT NULL,
	label   TEXT NOT NULL,
	term    TEXT NOT NULL,
	value   REAL NOT NULL,
	PRIMARY KEY (game_id, ply, term),
	FOREIGN KEY (game_id) REFERENCES games(game_id)
);
`

// Store is a SQLite evaluation archive.
type Store struct {
	db *sql.DB
}

// GameRecord is one archived game.
type GameRecord struct {
	ID        string
	Info      game.Info
	Engine    string
	Mode      string
	Plies     int
	CreatedAt time.Time
}

// Open opens the archive at path and creates the schema if needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGame stores a game's matrix in one transaction and returns its id.
func (s *Store) SaveGame(info game.Info, engine string, m *game.Matrix) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("archive: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO games (game_id, event, white, black, date, result, engine, mode, plies, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, info.Event, info.White, info.Black, info.Date, info.Result,
		engine, m.Mode.String(), m.Len(), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("archive: insert game: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO scores (game_id, ply, label, term, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("archive: prepare: %w", err)
	}
	defer stmt.Close()

	for i, row := range m.Rows {
		for j, value := range row.Scores {
			if _, err := stmt.Exec(id, i+1, row.Label, m.Header[j], value); err != nil {
				return "", fmt.Errorf("archive: insert ply %d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("archive: commit: %w", err)
	}
	return id, nil
}

// Games lists archived games, oldest first.
func (s *Store) Games() ([]GameRecord, error) {
	rows, err := s.db.Query(
		`SELECT game_id, event, white, black, date, result, engine, mode, plies, created_at
		 FROM games ORDER BY created_at, game_id`)
	if err != nil {
		return nil, fmt.Errorf("archive: query games: %w", err)
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		var rec GameRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Info.Event, &rec.Info.White, &rec.Info.Black,
			&rec.Info.Date, &rec.Info.Result, &rec.Engine, &rec.Mode, &rec.Plies, &created); err != nil {
			return nil, fmt.Errorf("archive: scan game: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("archive: created_at: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Column returns the archived scores of one column of a game in ply order.
func (s *Store) Column(gameID, column string) ([]float64, error) {
	rows, err := s.db.Query(
		`SELECT value FROM scores WHERE game_id = ? AND term = ? ORDER BY ply`,
		gameID, column)
	if err != nil {
		return nil, fmt.Errorf("archive: query scores: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("archive: scan score: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
