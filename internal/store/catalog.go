package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/DeusData/beanprops-mcp/internal/fqn"
	"github.com/DeusData/beanprops-mcp/internal/introspect"
)

// ErrCatalogFormat reports a malformed catalog document.
var ErrCatalogFormat = zerr.New("invalid catalog")

// Catalog is the YAML interchange form of a set of precompiled types.
type Catalog struct {
	Types []CatalogType `yaml:"types"`
}

// CatalogType is one type of a Catalog.
type CatalogType struct {
	Name       string              `yaml:"name"`
	Superclass string              `yaml:"superclass,omitempty"`
	Fields     []introspect.Field  `yaml:"fields,omitempty"`
	Methods    []introspect.Method `yaml:"methods,omitempty"`
}

// Binary converts the entry to a Binary origin with normalized names.
func (t CatalogType) Binary() *introspect.Binary {
	b := &introspect.Binary{
		Name:       fqn.Normalize(t.Name),
		Superclass: strings.TrimSpace(t.Superclass),
		Fields:     t.Fields,
		Methods:    make([]introspect.Method, len(t.Methods)),
	}
	for i, m := range t.Methods {
		if m.Return == "" {
			m.Return = introspect.Void
		}
		b.Methods[i] = m
	}
	return b
}

func (t CatalogType) validate(i int) error {
	if fqn.Normalize(t.Name) == "" {
		return zerr.With(zerr.Wrap(ErrCatalogFormat, "type without name"), "index", i)
	}
	for _, f := range t.Fields {
		if f.Name == "" || f.Type == "" {
			return zerr.With(zerr.Wrap(ErrCatalogFormat, "field needs name and type"), "type", t.Name)
		}
	}
	for _, m := range t.Methods {
		if m.Name == "" {
			return zerr.With(zerr.Wrap(ErrCatalogFormat, "method without name"), "type", t.Name)
		}
	}
	return nil
}

// DecodeCatalog reads and validates a YAML catalog document.
func DecodeCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, zerr.Wrap(ErrCatalogFormat, err.Error())
	}
	for i, t := range c.Types {
		if err := t.validate(i); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// ImportCatalog loads a YAML catalog into the project in one transaction and
// returns the qualified names it wrote.
func (s *Store) ImportCatalog(ctx context.Context, project string, r io.Reader) ([]string, error) {
	c, err := DecodeCatalog(r)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.Types))
	err = s.WithTransaction(ctx, func(tx *Store) error {
		if err := tx.ensureProject(ctx, project); err != nil {
			return zerr.Wrap(err, "ensure project")
		}
		for _, t := range c.Types {
			b := t.Binary()
			if err := tx.UpsertType(ctx, project, b); err != nil {
				return err
			}
			names = append(names, b.Name)
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(err, "project", project)
	}
	return names, nil
}

// UpsertType replaces the stored description of one type.
func (s *Store) UpsertType(ctx context.Context, project string, b *introspect.Binary) error {
	if err := s.ensureProject(ctx, project); err != nil {
		return zerr.Wrap(err, "ensure project")
	}
	if err := s.DeleteType(ctx, project, b.Name); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx,
		"INSERT INTO types (project, qualified_name, superclass) VALUES (?, ?, ?)",
		project, b.Name, b.Superclass); err != nil {
		return zerr.With(zerr.Wrap(err, "insert type"), "type", b.Name)
	}
	for i, f := range b.Fields {
		if _, err := s.q.ExecContext(ctx,
			"INSERT INTO fields (project, type_name, ordinal, name, type, public, final) VALUES (?, ?, ?, ?, ?, ?, ?)",
			project, b.Name, i, f.Name, f.Type, f.Public, f.Final); err != nil {
			return zerr.With(zerr.Wrap(err, "insert field"), "type", b.Name)
		}
	}
	for i, m := range b.Methods {
		params, err := json.Marshal(nonNil(m.Params))
		if err != nil {
			return zerr.Wrap(err, "marshal params")
		}
		ret := m.Return
		if ret == "" {
			ret = introspect.Void
		}
		if _, err := s.q.ExecContext(ctx,
			"INSERT INTO methods (project, type_name, ordinal, name, params, return_type, public) VALUES (?, ?, ?, ?, ?, ?, ?)",
			project, b.Name, i, m.Name, string(params), ret, m.Public); err != nil {
			return zerr.With(zerr.Wrap(err, "insert method"), "type", b.Name)
		}
	}
	return nil
}

// DeleteType removes one type and its members.
func (s *Store) DeleteType(ctx context.Context, project, qualifiedName string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM types WHERE project=? AND qualified_name=?", project, qualifiedName)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "delete type"), "type", qualifiedName)
	}
	return nil
}

// ListTypes returns the qualified names stored for a project, sorted.
func (s *Store) ListTypes(ctx context.Context, project string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT qualified_name FROM types WHERE project=? ORDER BY qualified_name", project)
	if err != nil {
		return nil, zerr.Wrap(err, "list types")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// CountTypes returns the number of stored types of a project.
func (s *Store) CountTypes(ctx context.Context, project string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM types WHERE project=?", project).Scan(&n)
	return n, err
}

// FindType loads a stored type. Unknown names yield (nil, nil).
func (s *Store) FindType(ctx context.Context, project, qualifiedName string) (introspect.TypeOrigin, error) {
	b, err := s.findBinary(ctx, project, qualifiedName)
	if err != nil {
		return nil, introspect.Failed(qualifiedName, err)
	}
	if b == nil {
		return nil, nil
	}
	return b, nil
}

func (s *Store) findBinary(ctx context.Context, project, qualifiedName string) (*introspect.Binary, error) {
	b := &introspect.Binary{Name: qualifiedName}
	err := s.q.QueryRowContext(ctx,
		"SELECT superclass FROM types WHERE project=? AND qualified_name=?", project, qualifiedName).
		Scan(&b.Superclass)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if b.Fields, err = s.loadFields(ctx, project, qualifiedName); err != nil {
		return nil, err
	}
	if b.Methods, err = s.loadMethods(ctx, project, qualifiedName); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) loadFields(ctx context.Context, project, typeName string) ([]introspect.Field, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT name, type, public, final FROM fields WHERE project=? AND type_name=? ORDER BY ordinal",
		project, typeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var fields []introspect.Field
	for rows.Next() {
		var f introspect.Field
		if err := rows.Scan(&f.Name, &f.Type, &f.Public, &f.Final); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *Store) loadMethods(ctx context.Context, project, typeName string) ([]introspect.Method, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT name, params, return_type, public FROM methods WHERE project=? AND type_name=? ORDER BY ordinal",
		project, typeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var methods []introspect.Method
	for rows.Next() {
		var (
			m      introspect.Method
			params string
		)
		if err := rows.Scan(&m.Name, &params, &m.Return, &m.Public); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(params), &m.Params); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "decode params"), "method", m.Name)
		}
		if len(m.Params) == 0 {
			m.Params = nil
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
