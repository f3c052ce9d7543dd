package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS chunks (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT NOT NULL,
    meta TEXT,
    embedding BLOB NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// SQLiteStore keeps entries in a SQLite file and ranks them by brute-force
// cosine distance in Go.
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// NewSQLiteStore opens index.sqlite under dir. Use ":memory:" as dir for a
// throwaway database.
func NewSQLiteStore(dir, collection string) (*SQLiteStore, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	dsn := ":memory:"
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store dir: %w", err)
		}
		dsn = filepath.Join(dir, "index.sqlite")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases alive and matches the
	// single-writer model
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO collections(name) VALUES (?) ON CONFLICT(name) DO NOTHING`, collection); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register collection: %w", err)
	}
	return &SQLiteStore{db: db, collection: collection}, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT dimension FROM collections WHERE name = ?`, s.collection).Scan(&current); err != nil {
		return fmt.Errorf("failed to read collection dimension: %w", err)
	}
	dim, err := checkDimensions(entries, current)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO chunks(collection, id, content, meta, embedding)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(collection, id) DO UPDATE SET
  content = excluded.content,
  meta = excluded.meta,
  embedding = excluded.embedding`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, e.ID, e.Text, string(meta), encodeEmbedding(e.Embedding)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", e.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE collections SET dimension = ? WHERE name = ?`, dim, s.collection); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE collection = ? ORDER BY id`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Nearest(ctx context.Context, query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, embedding FROM chunks WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cands []scored
	for rows.Next() {
		var (
			id, content string
			blob        []byte
		)
		if err := rows.Scan(&id, &content, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", id, err)
		}
		d, err := Cosine.Distance(query, vec)
		if err != nil {
			return nil, err
		}
		cands = append(cands, scored{id: id, text: content, distance: d})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(cands, k), nil
}

func (s *SQLiteStore) Metric() Metric {
	return Cosine
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
