package storage

import (
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBestKnownCache implements BestKnownCache using a local SQLite
// database, keyed by the 32-hex encoding of an instance's idigest.
type SQLiteBestKnownCache struct {
	db   *sql.DB
	path string
}

// NewSQLiteBestKnownCache opens (without yet initializing) a cache backed
// by the SQLite database at path.
func NewSQLiteBestKnownCache(path string) (*SQLiteBestKnownCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &SQLiteBestKnownCache{db: db, path: path}, nil
}

// Init initializes the database schema.
func (s *SQLiteBestKnownCache) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS best_known (
		idigest TEXT PRIMARY KEY,
		score INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteBestKnownCache) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the best known score for idigest, and whether one is known.
func (s *SQLiteBestKnownCache) Get(idigest [16]byte) (uint32, bool, error) {
	row := s.db.QueryRow(`SELECT score FROM best_known WHERE idigest = ?`, hex.EncodeToString(idigest[:]))

	var score int64
	err := row.Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query best known score: %w", err)
	}

	return uint32(score), true, nil
}

// Put records score as the best known value for idigest if it improves on
// (or introduces) the existing entry. Smaller is better: these are tree
// decomposition sizes.
func (s *SQLiteBestKnownCache) Put(idigest [16]byte, score uint32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	key := hex.EncodeToString(idigest[:])

	var existing int64
	err = tx.QueryRow(`SELECT score FROM best_known WHERE idigest = ?`, key).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.Exec(`INSERT INTO best_known (idigest, score) VALUES (?, ?)`, key, score); err != nil {
			return fmt.Errorf("failed to insert best known score: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to query existing best known score: %w", err)
	case uint32(existing) > score:
		if _, err := tx.Exec(`UPDATE best_known SET score = ?, updated_at = CURRENT_TIMESTAMP WHERE idigest = ?`, score, key); err != nil {
			return fmt.Errorf("failed to update best known score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
