package store

import (
	"context"
	"database/sql"
	"errors"

	"go.trai.ch/zerr"
)

// Project represents a registered project.
type Project struct {
	Name      string `json:"name"`
	IndexedAt string `json:"indexed_at"`
	RootPath  string `json:"root_path"`
}

// UpsertProject creates or updates a project record.
func (s *Store) UpsertProject(ctx context.Context, name, rootPath string) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (name, indexed_at, root_path) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET indexed_at=excluded.indexed_at, root_path=excluded.root_path`,
		name, Now(), rootPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "upsert project"), "project", name)
	}
	return nil
}

// ensureProject creates a project record without touching an existing one.
func (s *Store) ensureProject(ctx context.Context, name string) error {
	_, err := s.q.ExecContext(ctx,
		"INSERT OR IGNORE INTO projects (name, indexed_at, root_path) VALUES (?, ?, '')",
		name, Now())
	return err
}

// GetProject returns a project by name, or nil if it is not registered.
func (s *Store) GetProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	err := s.q.QueryRowContext(ctx, "SELECT name, indexed_at, root_path FROM projects WHERE name=?", name).
		Scan(&p.Name, &p.IndexedAt, &p.RootPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, "get project")
	}
	return &p, nil
}

// ListProjects returns all registered projects.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT name, indexed_at, root_path FROM projects ORDER BY name")
	if err != nil {
		return nil, zerr.Wrap(err, "list projects")
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.IndexedAt, &p.RootPath); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// DeleteProject deletes a project and its catalog (CASCADE).
func (s *Store) DeleteProject(ctx context.Context, name string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM projects WHERE name=?", name)
	return err
}
