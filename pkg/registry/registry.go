// Package registry persists what the client remembers between runs: the last
// session and the local directories courses are synced to.
package registry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Registry is the sqlite-backed store.
type Registry struct {
	db      *sql.DB
	dataDir string
}

// NewRegistry opens or creates the registry in dataDir.
func NewRegistry(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "campus.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	r := &Registry{
		db:      db,
		dataDir: dataDir,
	}

	if err := r.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize registry: %w", err)
	}

	return r, nil
}

// init creates the database schema
func (r *Registry) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		host TEXT NOT NULL,
		username TEXT NOT NULL,
		token TEXT NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sync_targets (
		course_id TEXT PRIMARY KEY,
		course_name TEXT NOT NULL,
		path TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_synced TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sync_targets_path ON sync_targets(path);
	`

	_, err := r.db.Exec(schema)
	return err
}

// DataDir returns the directory holding the database.
func (r *Registry) DataDir() string {
	return r.dataDir
}

// Close closes the registry database
func (r *Registry) Close() error {
	return r.db.Close()
}
