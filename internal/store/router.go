package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// ProjectInfo holds metadata about a discovered project database.
type ProjectInfo struct {
	Name     string `json:"name"`
	DBPath   string `json:"db_path"`
	RootPath string `json:"root_path,omitempty"`
}

// StoreRouter manages per-project SQLite databases.
// Each project gets its own .db file in the cache directory.
type StoreRouter struct {
	dir    string            // ~/.cache/beanprops-mcp/
	stores map[string]*Store // project name → open Store (lazy)
	mu     sync.Mutex
}

// NewRouter creates a StoreRouter in the default cache directory.
func NewRouter() (*StoreRouter, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return NewRouterWithDir(dir)
}

// NewRouterWithDir creates a StoreRouter using a custom directory.
func NewRouterWithDir(dir string) (*StoreRouter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, zerr.Wrap(err, "mkdir")
	}
	return &StoreRouter{
		dir:    dir,
		stores: make(map[string]*Store),
	}, nil
}

// ErrInvalidProjectName reports a name that cannot serve as a database file name.
var ErrInvalidProjectName = zerr.New("invalid project name")

// ValidProjectName rejects names that cannot serve as a database file name.
func ValidProjectName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return zerr.With(zerr.Wrap(ErrInvalidProjectName, "reserved name"), "project", name)
	case strings.ContainsAny(name, `/\`):
		return zerr.With(zerr.Wrap(ErrInvalidProjectName, "contains a path separator"), "project", name)
	}
	return nil
}

// ForProject returns the Store for the given project, opening it lazily.
func (r *StoreRouter) ForProject(name string) (*Store, error) {
	if err := ValidProjectName(name); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[name]; ok {
		return s, nil
	}

	s, err := OpenInDir(r.dir, name)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "open store"), "project", name)
	}
	r.stores[name] = s
	return s, nil
}

// ListProjects scans .db files and queries each for metadata.
func (r *StoreRouter) ListProjects(ctx context.Context) ([]*ProjectInfo, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, zerr.Wrap(err, "readdir")
	}

	result := make([]*ProjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".db")
		info := &ProjectInfo{
			Name:   name,
			DBPath: filepath.Join(r.dir, e.Name()),
		}

		s, err := r.ForProject(name)
		if err != nil {
			slog.Warn("router.list.open", "project", name, "err", err)
		} else if p, err := s.GetProject(ctx, name); err == nil && p != nil {
			info.RootPath = p.RootPath
		}

		result = append(result, info)
	}
	return result, nil
}

// DeleteProject closes the Store connection and removes the .db + WAL/SHM files.
func (r *StoreRouter) DeleteProject(name string) error {
	if err := ValidProjectName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[name]; ok {
		s.Close()
		delete(r.stores, name)
	}

	dbPath := filepath.Join(r.dir, name+".db")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		p := dbPath + suffix
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(err, "remove"), "path", p)
		}
	}
	slog.Info("router.delete", "project", name)
	return nil
}

// HasProject checks if a .db file exists for the given project (without opening it).
func (r *StoreRouter) HasProject(name string) bool {
	_, err := os.Stat(filepath.Join(r.dir, name+".db"))
	return err == nil
}

// Dir returns the cache directory path.
func (r *StoreRouter) Dir() string {
	return r.dir
}

// CloseAll closes all open Store connections.
func (r *StoreRouter) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, s := range r.stores {
		if err := s.Close(); err != nil {
			slog.Warn("router.close", "project", name, "err", err)
		}
	}
	r.stores = make(map[string]*Store)
}
