package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/vecgate/internal/config"
	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
)

// SQLiteStore persists collections in a SQLite database and searches them by brute force.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errortypes.Store("open", fmt.Errorf("create database directory: %w", err))
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, errortypes.Store("open", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errortypes.Store("open", fmt.Errorf("enable WAL: %w", err))
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, errortypes.Store("open", fmt.Errorf("initialize schema: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		metric TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS points (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		vector BLOB NOT NULL,
		payload TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id),
		FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Kind returns "sqlite".
func (s *SQLiteStore) Kind() string {
	return config.BackendSQLite
}

// CollectionExists reports whether name has been created.
func (s *SQLiteStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.dimensions(ctx, name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errortypes.Store("collection exists", err)
	}
	return true, nil
}

func (s *SQLiteStore) dimensions(ctx context.Context, name string) (int, error) {
	var dims int
	err := s.db.QueryRowContext(ctx, `SELECT dimensions FROM collections WHERE name = ?`, name).Scan(&dims)
	return dims, err
}

// CreateCollection inserts the collection row unless it already exists.
func (s *SQLiteStore) CreateCollection(ctx context.Context, name string, dims int, metric models.Metric) error {
	if dims <= 0 {
		return errortypes.Storef("create collection", "dimensions must be positive")
	}
	if err := validateMetric("create collection", metric); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, dimensions, metric) VALUES (?, ?, ?)`,
		name, dims, string(metric))
	if err != nil {
		return errortypes.Store("create collection", err)
	}
	return nil
}

// Upsert writes all records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, name string, records []models.VectorRecord) error {
	dims, err := s.dimensions(ctx, name)
	if err == sql.ErrNoRows {
		return errortypes.Storef("upsert", "collection %s not found", name)
	}
	if err != nil {
		return errortypes.Store("upsert", err)
	}
	for _, r := range records {
		if r.ID == "" {
			return errortypes.Storef("upsert", "record without id")
		}
		if err := checkVector("upsert", r.Vector, dims); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errortypes.Store("upsert", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (collection, id, vector, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET
		   vector = excluded.vector, payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return errortypes.Store("upsert", err)
	}
	defer stmt.Close()
	for _, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return errortypes.Store("upsert", fmt.Errorf("marshal payload: %w", err))
		}
		if _, err := stmt.ExecContext(ctx, name, r.ID, float32sToBytes(r.Vector), string(payload)); err != nil {
			return errortypes.Store("upsert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errortypes.Store("upsert", err)
	}
	return nil
}

// Search scans every point of the collection.
func (s *SQLiteStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]models.ScoredPoint, error) {
	dims, err := s.dimensions(ctx, name)
	if err == sql.ErrNoRows {
		return nil, errortypes.Storef("search", "collection %s not found", name)
	}
	if err != nil {
		return nil, errortypes.Store("search", err)
	}
	if err := checkVector("search", vector, dims); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.ScoredPoint{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, vector, payload FROM points WHERE collection = ?`, name)
	if err != nil {
		return nil, errortypes.Store("search", err)
	}
	defer rows.Close()

	hits := make([]models.ScoredPoint, 0)
	for rows.Next() {
		var (
			id, payloadJSON string
			blob            []byte
		)
		if err := rows.Scan(&id, &blob, &payloadJSON); err != nil {
			return nil, errortypes.Store("search", err)
		}
		var payload map[string]any
		if payloadJSON != "" {
			if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
				return nil, errortypes.Store("search", fmt.Errorf("unmarshal payload: %w", err))
			}
		}
		hits = append(hits, models.ScoredPoint{ID: id, Score: Cosine(vector, bytesToFloat32s(blob)), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, errortypes.Store("search", err)
	}
	return topK(hits, limit), nil
}

// CountPoints returns the number of points in name.
func (s *SQLiteStore) CountPoints(ctx context.Context, name string) (uint64, error) {
	if ok, err := s.CollectionExists(ctx, name); err != nil {
		return 0, err
	} else if !ok {
		return 0, errortypes.Storef("count", "collection %s not found", name)
	}
	var n uint64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE collection = ?`, name).Scan(&n); err != nil {
		return 0, errortypes.Store("count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
