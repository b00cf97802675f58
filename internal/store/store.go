// Package store keeps precompiled type descriptions in per-project SQLite
// databases. A Store is the Binary origin of the property resolver.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.trai.ch/zerr"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection holding one project's type catalog.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// cacheDir returns the default cache directory for databases.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", zerr.Wrap(err, "home dir")
	}
	dir := filepath.Join(home, ".cache", "beanprops-mcp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", zerr.Wrap(err, "mkdir cache")
	}
	return dir, nil
}

// OpenInDir opens or creates the database of a project inside dir.
func OpenInDir(dir, project string) (*Store, error) {
	return OpenPath(filepath.Join(dir, project+".db"))
}

// OpenPath opens a SQLite database at the given path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, zerr.Wrap(err, "open db")
	}
	return newStore(db, dbPath)
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, zerr.Wrap(err, "open memory db")
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return newStore(db, ":memory:")
}

func newStore(db *sql.DB, dbPath string) (*Store, error) {
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, zerr.Wrap(err, "init schema")
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store; the receiver keeps using
// the connection pool, so concurrent readers are unaffected.
func (s *Store) WithTransaction(ctx context.Context, fn func(txStore *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerr.Wrap(err, "begin tx")
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, or ":memory:".
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY,
		indexed_at TEXT NOT NULL,
		root_path TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS types (
		project TEXT NOT NULL REFERENCES projects(name) ON DELETE CASCADE,
		qualified_name TEXT NOT NULL,
		superclass TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (project, qualified_name)
	);

	CREATE INDEX IF NOT EXISTS idx_types_superclass ON types(project, superclass);

	CREATE TABLE IF NOT EXISTS fields (
		project TEXT NOT NULL,
		type_name TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		public INTEGER NOT NULL DEFAULT 0,
		final INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project, type_name, ordinal),
		FOREIGN KEY (project, type_name) REFERENCES types(project, qualified_name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS methods (
		project TEXT NOT NULL,
		type_name TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		params TEXT NOT NULL DEFAULT '[]',
		return_type TEXT NOT NULL DEFAULT 'void',
		public INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (project, type_name, ordinal),
		FOREIGN KEY (project, type_name) REFERENCES types(project, qualified_name) ON DELETE CASCADE
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Now returns the current time in ISO 8601 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
