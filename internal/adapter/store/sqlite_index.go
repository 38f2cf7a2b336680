package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"runnerrag/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteIndex keeps collections in a single SQLite file. Embeddings are stored
// as JSON text and scored in Go.
type SQLiteIndex struct {
	db         *sql.DB
	collection string
	mu         sync.RWMutex
}

// NewSQLiteIndex opens (or creates) the database and its schema. The
// collection row is only created by Rebuild or Query.
func NewSQLiteIndex(dbPath, collection string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteIndex{db: db, collection: collection}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Debug("sqlite index opened", "path", dbPath, "collection", collection)
	return s, nil
}

func (s *SQLiteIndex) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`,
		`CREATE TABLE IF NOT EXISTS vectors (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			chunk INTEGER NOT NULL,
			embedding TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vectors_position ON vectors(collection, position)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	return nil
}

// Rebuild replaces every row of the collection inside one transaction.
func (s *SQLiteIndex) Rebuild(entries []domain.IndexedVector) error {
	if err := ValidateEntries(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO collections (name) VALUES (?)", s.collection); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM vectors WHERE collection = ?", s.collection); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO vectors (collection, id, position, text, source, chunk, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		embJSON, err := json.Marshal(e.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		if _, err := stmt.Exec(s.collection, e.ID, i, e.Text, e.Metadata.Source, e.Metadata.Chunk, string(embJSON)); err != nil {
			return fmt.Errorf("insert vector: %w", err)
		}
	}

	return tx.Commit()
}

// Query returns the k nearest entries in insertion order for ties. A missing
// collection is created empty.
func (s *SQLiteIndex) Query(vector []float32, k int) ([]domain.Match, error) {
	s.mu.Lock()
	_, err := s.db.Exec("INSERT OR IGNORE INTO collections (name) VALUES (?)", s.collection)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, text, source, chunk, embedding FROM vectors
		WHERE collection = ? ORDER BY position`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.IndexedVector
	for rows.Next() {
		var e domain.IndexedVector
		var embJSON string
		if err := rows.Scan(&e.ID, &e.Text, &e.Metadata.Source, &e.Metadata.Chunk, &embJSON); err != nil {
			slog.Warn("skipping unreadable vector row", "collection", s.collection, "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(embJSON), &e.Embedding); err != nil {
			slog.Warn("skipping corrupted vector entry", "id", e.ID, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return Rank(vector, entries, k)
}

// Count returns the number of rows in the collection without creating it.
func (s *SQLiteIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM vectors WHERE collection = ?", s.collection).Scan(&n)
	return n, err
}

// Exists reports whether the collection has been created.
func (s *SQLiteIndex) Exists() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM collections WHERE name = ?", s.collection).Scan(&n)
	return n > 0, err
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
