// Package beancache resolves and caches the bean properties of types per
// project, and resolves dotted property paths against them.
package beancache

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/DeusData/beanprops-mcp/internal/fqn"
)

// Cache maps (project, qualified type name) to resolved properties and keeps
// a per-project subclass index for cascading invalidation. It is safe for
// concurrent use. Concurrent misses on one key may each resolve; the last
// publish wins.
type Cache struct {
	resolver *Resolver
	ignored  IgnoredTypes
	maxDepth int
	logger   *slog.Logger

	mu       sync.RWMutex
	projects map[string]*projectCache
	extra    map[string]IgnoredTypes // project -> configured ignored names
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithIgnoredTypes replaces the default ignored type set.
func WithIgnoredTypes(set IgnoredTypes) CacheOption {
	return func(c *Cache) { c.ignored = set }
}

// WithCacheMaxDepth bounds superclass recursion per lookup.
func WithCacheMaxDepth(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithCacheLogger sets the logger for cycle warnings.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty Cache that resolves misses with r.
func New(r *Resolver, opts ...CacheOption) *Cache {
	c := &Cache{
		resolver: r,
		ignored:  DefaultIgnoredTypes(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
		projects: make(map[string]*projectCache),
		extra:    make(map[string]IgnoredTypes),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// projectCache holds one project's entries and subclass index.
// Published PropertyInfo values are immutable; mu guards only the maps.
type projectCache struct {
	mu         sync.RWMutex
	entries    map[string]*PropertyInfo
	subclasses map[string]map[string]struct{} // superclass -> direct subclasses
	superOf    map[string]string              // subclass -> superclass it was linked to
}

func newProjectCache() *projectCache {
	return &projectCache{
		entries:    make(map[string]*PropertyInfo),
		subclasses: make(map[string]map[string]struct{}),
		superOf:    make(map[string]string),
	}
}

func (c *Cache) project(name string, create bool) *projectCache {
	c.mu.RLock()
	pc := c.projects[name]
	c.mu.RUnlock()
	if pc != nil || !create {
		return pc
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if pc = c.projects[name]; pc == nil {
		pc = newProjectCache()
		c.projects[name] = pc
	}
	return pc
}

// Get returns the properties of qualifiedName in project, resolving and
// publishing them on a miss. Ignored library types return nil.
func (c *Cache) Get(ctx context.Context, project, qualifiedName string) *PropertyInfo {
	ctx, span := tracer.Start(ctx, "PropertyCache.Get",
		trace.WithAttributes(attrProject.String(project), attrType.String(qualifiedName)))
	defer span.End()
	return c.get(ctx, project, qualifiedName, nil)
}

func (c *Cache) get(ctx context.Context, project, qualifiedName string, visiting map[string]struct{}) *PropertyInfo {
	qn := fqn.Normalize(qualifiedName)
	if qn == "" || c.isIgnored(project, qn) {
		cacheLookups.WithLabelValues(resultIgnored).Inc()
		return nil
	}

	pc := c.project(project, true)
	pc.mu.RLock()
	info, ok := pc.entries[qn]
	pc.mu.RUnlock()
	if ok {
		cacheLookups.WithLabelValues(resultHit).Inc()
		return info
	}
	cacheLookups.WithLabelValues(resultMiss).Inc()

	if visiting == nil {
		visiting = make(map[string]struct{})
	}
	if _, cycle := visiting[qn]; cycle || len(visiting) >= c.maxDepth {
		c.logger.Warn("cache.cycle", "project", project, "type", qn, "depth", len(visiting))
		return Empty(qn)
	}
	visiting[qn] = struct{}{}
	defer delete(visiting, qn)

	h := &cacheHierarchy{c: c, visiting: visiting}
	info = c.resolver.resolve(ctx, project, qn, h)

	// Edge and entry are published together.
	pc.mu.Lock()
	if h.linked {
		pc.linkLocked(h.superclass, qn)
	}
	pc.entries[qn] = info
	pc.mu.Unlock()
	return info
}

// IgnoreTypes adds project-specific names to the ignored set, replacing
// any previously configured ones. Entries already cached are kept.
func (c *Cache) IgnoreTypes(project string, names ...string) {
	set := make(IgnoredTypes, len(names))
	for _, n := range names {
		if n = fqn.Normalize(n); n != "" {
			set[n] = struct{}{}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(set) == 0 {
		delete(c.extra, project)
		return
	}
	c.extra[project] = set
}

func (c *Cache) isIgnored(project, qn string) bool {
	if c.ignored.Contains(qn) {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.extra[project].Contains(qn)
}

// Peek returns the cached entry without resolving.
func (c *Cache) Peek(project, qualifiedName string) (*PropertyInfo, bool) {
	pc := c.project(project, false)
	if pc == nil {
		return nil, false
	}
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	info, ok := pc.entries[fqn.Normalize(qualifiedName)]
	return info, ok
}

// Invalidate removes qualifiedName, every type nested inside it, and
// transitively every recorded subclass of those. It returns the evicted keys
// in sorted order.
func (c *Cache) Invalidate(ctx context.Context, project, qualifiedName string) []string {
	cacheInvalidations.WithLabelValues("type").Inc()
	qn := fqn.Normalize(qualifiedName)
	pc := c.project(project, false)
	if pc == nil || qn == "" {
		return nil
	}

	pc.mu.Lock()
	evicted := make(map[string]struct{})
	pc.invalidateLocked(qn, make(map[string]struct{}), evicted)
	pc.mu.Unlock()

	out := make([]string, 0, len(evicted))
	for k := range evicted {
		out = append(out, k)
	}
	sort.Strings(out)
	cacheEvicted.Add(float64(len(out)))
	c.logger.DebugContext(ctx, "cache.invalidate", "project", project, "type", qn, "evicted", len(out))
	return out
}

func (pc *projectCache) invalidateLocked(qn string, seen, evicted map[string]struct{}) {
	if _, ok := seen[qn]; ok {
		return
	}
	seen[qn] = struct{}{}

	keys := []string{qn}
	for k := range pc.entries {
		if fqn.IsNestedOf(k, qn) {
			keys = append(keys, k)
		}
	}
	for k := range pc.subclasses {
		if fqn.IsNestedOf(k, qn) && !containsKey(keys, k) {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		if _, ok := pc.entries[k]; ok {
			delete(pc.entries, k)
			evicted[k] = struct{}{}
		}
		seen[k] = struct{}{}
	}
	for _, k := range keys {
		subs := pc.subclasses[k]
		delete(pc.subclasses, k)
		for sub := range subs {
			delete(pc.superOf, sub)
			pc.invalidateLocked(sub, seen, evicted)
		}
		pc.unlinkLocked(k)
	}
}

// linkLocked records superclass -> subclass, replacing any previous
// superclass of subclass.
func (pc *projectCache) linkLocked(superclass, subclass string) {
	if prev, ok := pc.superOf[subclass]; ok && prev == superclass {
		return
	}
	pc.unlinkLocked(subclass)
	if superclass == "" {
		return
	}
	subs := pc.subclasses[superclass]
	if subs == nil {
		subs = make(map[string]struct{})
		pc.subclasses[superclass] = subs
	}
	subs[subclass] = struct{}{}
	pc.superOf[subclass] = superclass
}

// unlinkLocked removes the edge naming subclass as a subclass.
func (pc *projectCache) unlinkLocked(subclass string) {
	prev, ok := pc.superOf[subclass]
	if !ok {
		return
	}
	delete(pc.superOf, subclass)
	if subs := pc.subclasses[prev]; subs != nil {
		delete(subs, subclass)
		if len(subs) == 0 {
			delete(pc.subclasses, prev)
		}
	}
}

// InvalidateAll drops the project's entries and subclass index.
func (c *Cache) InvalidateAll(project string) {
	cacheInvalidations.WithLabelValues("project").Inc()
	c.mu.Lock()
	delete(c.projects, project)
	c.mu.Unlock()
}

// InvalidateProject drops everything cached for a project.
func (c *Cache) InvalidateProject(project string) {
	c.InvalidateAll(project)
}

// Clear drops every project.
func (c *Cache) Clear() {
	cacheInvalidations.WithLabelValues("all").Inc()
	c.mu.Lock()
	c.projects = make(map[string]*projectCache)
	c.mu.Unlock()
}

// Subclasses returns the recorded direct subclasses of qualifiedName, sorted.
func (c *Cache) Subclasses(project, qualifiedName string) []string {
	pc := c.project(project, false)
	if pc == nil {
		return nil
	}
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	subs := pc.subclasses[fqn.Normalize(qualifiedName)]
	out := make([]string, 0, len(subs))
	for s := range subs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes the cache for one project.
type Stats struct {
	Entries    int `json:"entries"`
	Supertypes int `json:"superclasses_indexed"`
	Edges      int `json:"subclass_edges"`
}

// Stats returns entry and index sizes for a project.
func (c *Cache) Stats(project string) Stats {
	pc := c.project(project, false)
	if pc == nil {
		return Stats{}
	}
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return Stats{Entries: len(pc.entries), Supertypes: len(pc.subclasses), Edges: len(pc.superOf)}
}

// Projects returns the names of projects with cached state, sorted.
func (c *Cache) Projects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.projects))
	for p := range c.projects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// cacheHierarchy routes ancestor lookups through the cache so ancestors are
// published and indexed too. It serves one get; the superclass it is told
// about is linked when that get publishes.
type cacheHierarchy struct {
	c          *Cache
	visiting   map[string]struct{}
	superclass string
	linked     bool
}

func (h *cacheHierarchy) Link(_, superclass, _ string) {
	h.superclass = superclass
	h.linked = true
}

func (h *cacheHierarchy) Lookup(ctx context.Context, project, qn string) *PropertyInfo {
	return h.c.get(ctx, project, qn, h.visiting)
}

func containsKey(keys []string, k string) bool {
	for _, v := range keys {
		if v == k {
			return true
		}
	}
	return false
}
