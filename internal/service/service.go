// Package service ties the property cache to registered projects: it owns
// the per-project introspectors, answers property and path queries, and
// receives change notifications.
package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/DeusData/beanprops-mcp/internal/beancache"
	"github.com/DeusData/beanprops-mcp/internal/config"
	"github.com/DeusData/beanprops-mcp/internal/fqn"
	"github.com/DeusData/beanprops-mcp/internal/introspect"
	"github.com/DeusData/beanprops-mcp/internal/javasrc"
	"github.com/DeusData/beanprops-mcp/internal/store"
	"github.com/DeusData/beanprops-mcp/internal/suggest"
)

var tracer = otel.Tracer("github.com/DeusData/beanprops-mcp/internal/service")

// ErrUnknownProject reports a query against a project that is not registered.
var ErrUnknownProject = zerr.New("unknown project")

// DefaultWarmWorkers bounds concurrent resolutions during Warm.
const DefaultWarmWorkers = 8

// project is one registered project.
type project struct {
	name   string
	root   string
	cfg    *config.ProjectConfig
	index  *javasrc.Index
	store  *store.Store
	lookup introspect.Chain
}

// ProjectInfo summarizes a registered project.
type ProjectInfo struct {
	Name         string          `json:"name"`
	RootPath     string          `json:"root_path"`
	SourceRoots  []string        `json:"source_roots"`
	SourceTypes  int             `json:"source_types"`
	CatalogTypes int             `json:"catalog_types"`
	Cache        beancache.Stats `json:"cache"`
}

// Service is the query and invalidation surface over all registered projects.
type Service struct {
	router      *store.StoreRouter
	cache       *beancache.Cache
	paths       *beancache.PathMatcher
	logger      *slog.Logger
	warmWorkers int
	maxDepth    int

	mu       sync.RWMutex
	projects map[string]*project
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWarmWorkers bounds the concurrency of Warm.
func WithWarmWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.warmWorkers = n
		}
	}
}

// WithMaxDepth bounds superclass recursion per lookup.
func WithMaxDepth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// New creates a Service whose catalogs live in the router's databases.
func New(router *store.StoreRouter, opts ...Option) *Service {
	s := &Service{
		router:      router,
		logger:      slog.Default(),
		warmWorkers: DefaultWarmWorkers,
		maxDepth:    beancache.DefaultMaxDepth,
		projects:    make(map[string]*project),
	}
	for _, opt := range opts {
		opt(s)
	}
	resolver := beancache.NewResolver(introspect.IntrospectorFunc(s.findType),
		beancache.WithLogger(s.logger), beancache.WithMaxDepth(s.maxDepth))
	s.cache = beancache.New(resolver,
		beancache.WithCacheLogger(s.logger), beancache.WithCacheMaxDepth(s.maxDepth))
	s.paths = beancache.NewPathMatcher(s.cache)
	return s
}

// Cache exposes the underlying property cache.
func (s *Service) Cache() *beancache.Cache {
	return s.cache
}

// findType dispatches to the registered project's introspectors. Source
// declarations shadow catalog entries of the same name.
func (s *Service) findType(ctx context.Context, projectName, qn string) (introspect.TypeOrigin, error) {
	p := s.project(projectName)
	if p == nil {
		return nil, nil
	}
	return p.lookup.FindType(ctx, projectName, qn)
}

func (s *Service) project(name string) *project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[name]
}

func (s *Service) mustProject(name string) (*project, error) {
	if p := s.project(name); p != nil {
		return p, nil
	}
	return nil, unknownProject(name)
}

func unknownProject(name string) error {
	return zerr.With(zerr.Wrap(ErrUnknownProject, "project "+name), "project", name)
}

// RegisterProject indexes the sources under root, imports the configured
// catalogs and makes the project queryable. Registering an existing name
// replaces it and drops its cached properties.
func (s *Service) RegisterProject(ctx context.Context, name, root string) (*ProjectInfo, error) {
	if err := store.ValidProjectName(name); err != nil {
		return nil, zerr.Wrap(err, "register project")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.Wrap(err, "resolve root")
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "stat root"), "root", abs)
	}
	if !info.IsDir() {
		return nil, zerr.With(zerr.New("project root is not a directory"), "root", abs)
	}

	cfg := config.Load(abs)
	idx := javasrc.NewIndex(name, abs, cfg)
	if err := idx.Build(ctx); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "index sources"), "project", name)
	}

	st, err := s.router.ForProject(name)
	if err != nil {
		return nil, err
	}
	if err := st.UpsertProject(ctx, name, abs); err != nil {
		return nil, err
	}
	for _, path := range cfg.CatalogPaths(abs) {
		if err := importFile(ctx, st, name, path); err != nil {
			// A broken catalog must not keep the project's sources unusable.
			s.logger.Warn("service.catalog", "project", name, "path", path, "err", err)
		}
	}

	p := &project{
		name:   name,
		root:   abs,
		cfg:    cfg,
		index:  idx,
		store:  st,
		lookup: introspect.Chain{idx, st},
	}
	s.mu.Lock()
	s.projects[name] = p
	s.mu.Unlock()

	s.cache.InvalidateProject(name)
	s.cache.IgnoreTypes(name, cfg.IgnoredTypes...)
	s.logger.Info("service.register", "project", name, "root", abs, "source_types", len(idx.Types()))
	return s.info(ctx, p), nil
}

func importFile(ctx context.Context, st *store.Store, projectName, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = st.ImportCatalog(ctx, projectName, f)
	return err
}

// RestoreProjects re-registers every project recorded in the router's
// databases whose root still exists. Failures are logged and skipped.
func (s *Service) RestoreProjects(ctx context.Context) []string {
	infos, err := s.router.ListProjects(ctx)
	if err != nil {
		s.logger.Warn("service.restore", "err", err)
		return nil
	}
	var restored []string
	for _, pi := range infos {
		if pi.RootPath == "" {
			continue
		}
		if _, err := s.RegisterProject(ctx, pi.Name, pi.RootPath); err != nil {
			s.logger.Warn("service.restore.project", "project", pi.Name, "err", err)
			continue
		}
		restored = append(restored, pi.Name)
	}
	return restored
}

// CloseProject unregisters a project and drops its cached properties. The
// catalog database is kept.
func (s *Service) CloseProject(name string) error {
	s.mu.Lock()
	_, ok := s.projects[name]
	delete(s.projects, name)
	s.mu.Unlock()
	if !ok {
		return unknownProject(name)
	}
	s.OnProjectClosed(name)
	s.cache.IgnoreTypes(name)
	s.logger.Info("service.close", "project", name)
	return nil
}

// Projects returns the registered projects sorted by name.
func (s *Service) Projects(ctx context.Context) []*ProjectInfo {
	s.mu.RLock()
	ps := make([]*project, 0, len(s.projects))
	for _, p := range s.projects {
		ps = append(ps, p)
	}
	s.mu.RUnlock()
	sort.Slice(ps, func(i, j int) bool { return ps[i].name < ps[j].name })

	out := make([]*ProjectInfo, 0, len(ps))
	for _, p := range ps {
		out = append(out, s.info(ctx, p))
	}
	return out
}

func (s *Service) info(ctx context.Context, p *project) *ProjectInfo {
	n, err := p.store.CountTypes(ctx, p.name)
	if err != nil {
		s.logger.Warn("service.count_types", "project", p.name, "err", err)
	}
	return &ProjectInfo{
		Name:         p.name,
		RootPath:     p.root,
		SourceRoots:  p.index.SourceRoots(),
		SourceTypes:  len(p.index.Types()),
		CatalogTypes: n,
		Cache:        s.cache.Stats(p.name),
	}
}

// LookupProperties returns the readable and writable properties of a type.
// Ignored library types yield nil; unknown types an empty result.
func (s *Service) LookupProperties(ctx context.Context, projectName, qualifiedName string) (*beancache.PropertyInfo, error) {
	if _, err := s.mustProject(projectName); err != nil {
		return nil, err
	}
	return s.cache.Get(ctx, projectName, qualifiedName), nil
}

// ResolvePath resolves a dotted property path starting at a type.
func (s *Service) ResolvePath(ctx context.Context, projectName, qualifiedName, rawPath string, wantReadable, strict bool) (*beancache.PropertyMap, error) {
	if _, err := s.mustProject(projectName); err != nil {
		return nil, err
	}
	return s.paths.Resolve(ctx, projectName, qualifiedName, rawPath, wantReadable, strict), nil
}

// Suggest returns completion proposals for a partially typed property path.
func (s *Service) Suggest(ctx context.Context, projectName, qualifiedName, rawPath string, wantReadable bool) ([]suggest.Proposal, error) {
	fields, err := s.ResolvePath(ctx, projectName, qualifiedName, rawPath, wantReadable, false)
	if err != nil {
		return nil, err
	}
	return suggest.Build(fields, rawPath), nil
}

// OnTypeChanged evicts a type, its nested types and their subclasses.
func (s *Service) OnTypeChanged(ctx context.Context, projectName, qualifiedName string) []string {
	evicted := s.cache.Invalidate(ctx, projectName, qualifiedName)
	s.logger.Debug("service.type_changed", "project", projectName, "type", qualifiedName, "evicted", len(evicted))
	return evicted
}

// OnProjectClosed drops everything cached for a project.
func (s *Service) OnProjectClosed(projectName string) {
	s.cache.InvalidateProject(projectName)
}

// OnCacheCleared drops everything cached for every project.
func (s *Service) OnCacheCleared() {
	s.cache.Clear()
}

// OnFilesChanged re-indexes changed source files and invalidates every type
// they declared before or after the change. It returns the evicted keys.
func (s *Service) OnFilesChanged(ctx context.Context, projectName string, relPaths []string) ([]string, error) {
	p, err := s.mustProject(projectName)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]struct{})
	var firstErr error
	for _, rel := range relPaths {
		before, after, err := p.index.Refresh(ctx, rel)
		if err != nil {
			s.logger.Warn("service.refresh", "project", projectName, "path", rel, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		for _, qn := range before {
			changed[qn] = struct{}{}
		}
		for _, qn := range after {
			changed[qn] = struct{}{}
		}
	}
	return s.invalidateAll(ctx, projectName, changed), firstErr
}

func (s *Service) invalidateAll(ctx context.Context, projectName string, names map[string]struct{}) []string {
	evicted := make(map[string]struct{})
	for qn := range names {
		for _, k := range s.cache.Invalidate(ctx, projectName, qn) {
			evicted[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(evicted))
	for k := range evicted {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ImportCatalog loads a YAML catalog into the project's database and
// invalidates the imported types. The project need not be registered.
func (s *Service) ImportCatalog(ctx context.Context, projectName string, r io.Reader) ([]string, error) {
	var st *store.Store
	if p := s.project(projectName); p != nil {
		st = p.store
	} else {
		var err error
		if st, err = s.router.ForProject(projectName); err != nil {
			return nil, err
		}
	}
	names, err := st.ImportCatalog(ctx, projectName, r)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	s.invalidateAll(ctx, projectName, set)
	return names, nil
}

// KnownTypes returns every type declared in the project's sources or catalog.
func (s *Service) KnownTypes(ctx context.Context, projectName string) ([]string, error) {
	p, err := s.mustProject(projectName)
	if err != nil {
		return nil, err
	}
	catalog, err := p.store.ListTypes(ctx, projectName)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, group := range [][]string{p.index.Types(), catalog} {
		for _, qn := range group {
			if _, ok := seen[qn]; !ok {
				seen[qn] = struct{}{}
				out = append(out, qn)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Warm resolves every known type of a project so later queries hit the cache.
// It returns the number of types resolved.
func (s *Service) Warm(ctx context.Context, projectName string) (int, error) {
	ctx, span := tracer.Start(ctx, "Service.Warm",
		trace.WithAttributes(attribute.String("beanprops.project", projectName)))
	defer span.End()

	names, err := s.KnownTypes(ctx, projectName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.warmWorkers)
	for _, qn := range names {
		if fqn.Normalize(qn) == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.cache.Get(gctx, projectName, qn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, zerr.With(zerr.Wrap(err, "warm"), "project", projectName)
	}
	span.SetAttributes(attribute.Int("beanprops.types", len(names)))
	s.logger.Info("service.warm", "project", projectName, "types", len(names))
	return len(names), nil
}
