package vectordb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteVectorStore persists position-addressed vectors and string metadata in one SQLite file.
type SQLiteVectorStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// OpenSQLiteVectorStore opens (or creates) the store at path.
func OpenSQLiteVectorStore(path string) (*SQLiteVectorStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &SQLiteVectorStore{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteVectorStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vectors (
		position INTEGER PRIMARY KEY,
		embedding BLOB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces all vectors and metadata in a single transaction.
// vectors[i] is stored at position i.
func (s *SQLiteVectorStore) Save(ctx context.Context, vectors [][]float32, meta map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return fmt.Errorf("clearing vectors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM meta"); err != nil {
		return fmt.Errorf("clearing meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO vectors (position, embedding) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		if _, err := stmt.ExecContext(ctx, i, encodeVector(v)); err != nil {
			return fmt.Errorf("inserting vector %d: %w", i, err)
		}
	}

	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("inserting meta %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// Vectors returns every stored vector ordered by position.
// Positions must be contiguous from zero.
func (s *SQLiteVectorStore) Vectors(ctx context.Context) ([][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT position, embedding FROM vectors ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var out [][]float32
	for rows.Next() {
		var pos int
		var blob []byte
		if err := rows.Scan(&pos, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if pos != len(out) {
			return nil, fmt.Errorf("vector positions not contiguous: found %d, expected %d", pos, len(out))
		}
		v, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", pos, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Meta returns all metadata entries.
func (s *SQLiteVectorStore) Meta(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// Count returns the number of stored vectors.
func (s *SQLiteVectorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&count)
	return count, err
}

// Path returns the database file path.
func (s *SQLiteVectorStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteVectorStore) Close() error {
	return s.db.Close()
}

// encodeVector packs v as little-endian float32.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
