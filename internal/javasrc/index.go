// Package javasrc describes types declared in a project's Java source files.
package javasrc

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/xxh3"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/beanprops-mcp/internal/config"
	"github.com/DeusData/beanprops-mcp/internal/discover"
	"github.com/DeusData/beanprops-mcp/internal/fqn"
	"github.com/DeusData/beanprops-mcp/internal/introspect"
)

// fileEntry is the indexed state of one source file.
type fileEntry struct {
	hash  uint64
	unit  *unit
	types []string
}

// Index maps the qualified names of source-declared types to their files and
// serves them as introspect.Source origins.
type Index struct {
	project string
	root    string
	roots   []string
	ignore  []string
	fluent  bool

	mu    sync.RWMutex
	files map[string]*fileEntry // project-relative slash path -> entry
	types map[string]string     // qualified name -> project-relative path
	// dropped holds names removed from a file by a lookup-time refresh that
	// the next Refresh of that file has not reported yet.
	dropped map[string][]string
}

// NewIndex creates an empty index for the project rooted at root.
func NewIndex(project, root string, cfg *config.ProjectConfig) *Index {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Index{
		project: project,
		root:    root,
		roots:   cfg.EffectiveSourceRoots(root),
		ignore:  cfg.Ignore,
		fluent:  cfg.EffectiveFluentSetters(),
		files:   make(map[string]*fileEntry),
		types:   make(map[string]string),
		dropped: make(map[string][]string),
	}
}

// Root returns the project root directory.
func (ix *Index) Root() string {
	return ix.root
}

// SourceRoots returns the project-relative source roots being indexed.
func (ix *Index) SourceRoots() []string {
	return append([]string(nil), ix.roots...)
}

// Build scans every source root and indexes all declared types.
func (ix *Index) Build(ctx context.Context) error {
	var rels []string
	for _, r := range ix.roots {
		files, err := discover.Discover(ctx, filepath.Join(ix.root, r), &discover.Options{ExtraIgnore: ix.ignore})
		if err != nil {
			return zerr.With(zerr.Wrap(err, "discover sources"), "root", r)
		}
		for _, f := range files {
			rels = append(rels, filepath.ToSlash(filepath.Join(r, f.RelPath)))
		}
	}

	entries := make([]*fileEntry, len(rels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, rel := range rels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := ix.load(rel)
			if err != nil {
				slog.Warn("javasrc.index.file", "project", ix.project, "path", rel, "err", err)
				return nil
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	files := make(map[string]*fileEntry, len(rels))
	types := make(map[string]string)
	for i, e := range entries {
		if e == nil {
			continue
		}
		files[rels[i]] = e
		for _, qn := range e.types {
			types[qn] = rels[i]
		}
	}

	ix.mu.Lock()
	ix.files = files
	ix.types = types
	ix.dropped = make(map[string][]string)
	ix.mu.Unlock()
	slog.Info("javasrc.index.built", "project", ix.project, "files", len(files), "types", len(types))
	return nil
}

// load reads and summarizes one file.
func (ix *Index) load(rel string) (*fileEntry, error) {
	data, err := os.ReadFile(filepath.Join(ix.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	return summarize(data)
}

func summarize(data []byte) (*fileEntry, error) {
	u, err := parseUnit(data)
	if err != nil {
		return nil, err
	}
	e := &fileEntry{hash: xxh3.Hash(data), unit: u}
	for _, td := range u.types {
		e.types = append(e.types, td.qn)
	}
	return e, nil
}

// Refresh re-indexes one file after it changed on disk and returns the
// qualified names it declared before and after. Names a lookup already
// dropped from the file since the last Refresh count as before. A missing
// file is removed. Files outside the source roots are ignored.
func (ix *Index) Refresh(ctx context.Context, relPath string) (before, after []string, err error) {
	return ix.refresh(ctx, relPath, true)
}

func (ix *Index) refresh(ctx context.Context, relPath string, report bool) (before, after []string, err error) {
	rel := filepath.ToSlash(filepath.Clean(relPath))
	if !ix.inRoots(rel) || !strings.HasSuffix(rel, ".java") {
		return nil, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, readErr := os.ReadFile(filepath.Join(ix.root, filepath.FromSlash(rel)))

	ix.mu.Lock()
	old := ix.files[rel]
	if report {
		before = append(before, ix.dropped[rel]...)
		delete(ix.dropped, rel)
	}
	ix.mu.Unlock()
	if old != nil {
		before = append(before, old.types...)
	}

	if readErr != nil {
		if !os.IsNotExist(readErr) {
			return before, nil, zerr.With(zerr.Wrap(readErr, "read source"), "path", rel)
		}
		ix.replace(rel, old, nil, !report)
		return before, nil, nil
	}
	if old != nil && old.hash == xxh3.Hash(data) {
		return before, append([]string(nil), old.types...), nil
	}

	e, err := summarize(data)
	if err != nil {
		return before, nil, zerr.With(err, "path", rel)
	}
	ix.replace(rel, old, e, !report)
	return before, append([]string(nil), e.types...), nil
}

// replace swaps the entry of rel, keeping the type map consistent. With
// keepDropped, names old declared and e does not are held for the next
// Refresh of rel.
func (ix *Index) replace(rel string, old, e *fileEntry, keepDropped bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old != nil {
		for _, qn := range old.types {
			if ix.types[qn] == rel {
				delete(ix.types, qn)
			}
			if keepDropped && (e == nil || !contains(e.types, qn)) {
				ix.dropped[rel] = append(ix.dropped[rel], qn)
			}
		}
	}
	if e == nil {
		delete(ix.files, rel)
		return
	}
	ix.files[rel] = e
	for _, qn := range e.types {
		ix.types[qn] = rel
	}
}

func (ix *Index) inRoots(rel string) bool {
	for _, r := range ix.roots {
		if r == "." || rel == r || strings.HasPrefix(rel, r+"/") {
			return true
		}
	}
	return false
}

// Types returns every indexed qualified name, sorted.
func (ix *Index) Types() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.types))
	for qn := range ix.types {
		out = append(out, qn)
	}
	sort.Strings(out)
	return out
}

// FileOf returns the project-relative file declaring qn.
func (ix *Index) FileOf(qn string) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rel, ok := ix.types[fqn.Normalize(qn)]
	return rel, ok
}

func (ix *Index) known(qn string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.types[qn]
	return ok
}

// FindType returns the source origin of a project-declared type.
func (ix *Index) FindType(ctx context.Context, _ string, qualifiedName string) (introspect.TypeOrigin, error) {
	qn := fqn.Normalize(qualifiedName)
	ix.mu.RLock()
	rel, ok := ix.types[qn]
	var e *fileEntry
	if ok {
		e = ix.files[rel]
	}
	ix.mu.RUnlock()
	if e == nil {
		return nil, introspect.ErrNotFound
	}

	// Pick up edits the watcher has not reported yet.
	if _, _, err := ix.refresh(ctx, rel, false); err != nil {
		return nil, introspect.Failed(qn, err)
	}
	ix.mu.RLock()
	e = ix.files[rel]
	ix.mu.RUnlock()
	if e == nil {
		return nil, introspect.ErrNotFound
	}

	td := e.unit.find(qn)
	if td == nil {
		return nil, introspect.ErrNotFound
	}
	return ix.origin(e.unit, td), nil
}

func (u *unit) find(qn string) *typeDecl {
	for _, td := range u.types {
		if td.qn == qn {
			return td
		}
	}
	return nil
}

// origin builds the Source origin of td. The visitor qualifies every
// declared type against the index at visit time.
func (ix *Index) origin(u *unit, td *typeDecl) *introspect.Source {
	return sourceOrigin(u, td, ix.known, ix.fluent)
}

func sourceOrigin(u *unit, td *typeDecl, known knownTypes, fluent bool) *introspect.Source {
	typeScope := newScope(u, td, known)
	super := ""
	if td.superclass != "" {
		super = typeScope.qualify(td.superclass)
	}
	return &introspect.Source{
		Name:       td.qn,
		Superclass: super,
		Visit: func(v introspect.DeclarationVisitor) error {
			for _, f := range td.fields {
				v.VisitField(introspect.Field{
					Name:   f.name,
					Type:   typeScope.qualify(f.typ),
					Public: f.public,
					Final:  f.final,
				})
			}
			for _, m := range td.methods {
				ms := typeScope
				if len(m.typeParams) > 0 {
					ms = newScope(u, td, known, m.typeParams...)
				}
				method := introspect.Method{
					Name:   m.name,
					Return: ms.qualify(m.ret),
					Public: m.public,
				}
				for _, p := range m.params {
					method.Params = append(method.Params, ms.qualify(p))
				}
				method.Fluent = fluent && !method.IsVoid() && fqn.Erasure(method.Return) == td.qn
				v.VisitMethod(method)
			}
			return nil
		},
	}
}
