package beancache

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/zerr"

	"github.com/DeusData/beanprops-mcp/internal/accessor"
	"github.com/DeusData/beanprops-mcp/internal/fqn"
	"github.com/DeusData/beanprops-mcp/internal/introspect"
	"github.com/DeusData/beanprops-mcp/internal/lang"
)

// RootType is the universal superclass. Resolution never recurses into it.
var RootType = lang.ForLanguage(lang.Java).RootType

// DefaultMaxDepth bounds superclass recursion on malformed, cyclic hierarchies.
const DefaultMaxDepth = 64

// Hierarchy is what a Resolver needs to reach a type's ancestors.
type Hierarchy interface {
	// Link records superclass as the direct superclass of subclass.
	// An empty superclass clears any previous link.
	Link(project, superclass, subclass string)
	// Lookup returns the resolved properties of an ancestor, or nil.
	Lookup(ctx context.Context, project, qualifiedName string) *PropertyInfo
}

// Resolver computes the bean properties of one type from its declarations.
type Resolver struct {
	introspector introspect.Introspector
	logger       *slog.Logger
	maxDepth     int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for introspection failures.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithMaxDepth sets the superclass recursion limit for standalone resolution.
func WithMaxDepth(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// NewResolver creates a Resolver backed by an introspector.
func NewResolver(in introspect.Introspector, opts ...ResolverOption) *Resolver {
	r := &Resolver{introspector: in, logger: slog.Default(), maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes the properties of qualifiedName without caching, following
// superclasses directly. Unknown types resolve to an empty PropertyInfo.
func (r *Resolver) Resolve(ctx context.Context, project, qualifiedName string) *PropertyInfo {
	h := &directHierarchy{r: r, visiting: make(map[string]struct{})}
	qn := fqn.Normalize(qualifiedName)
	h.visiting[qn] = struct{}{}
	return r.resolve(ctx, project, qn, h)
}

// resolve computes own properties, links the superclass and merges inherited
// entries underneath the type's own.
func (r *Resolver) resolve(ctx context.Context, project, qn string, h Hierarchy) *PropertyInfo {
	ctx, span := tracer.Start(ctx, "PropertyResolver.Resolve",
		trace.WithAttributes(attrProject.String(project), attrType.String(qn)))
	defer span.End()

	b := newBuilder(qn)
	start := time.Now()
	origin, err := r.introspector.FindType(ctx, project, qn)
	if err != nil && !introspect.IsNotFound(err) {
		r.fail(ctx, span, qn, err)
		resolveDuration.WithLabelValues(originMissing).Observe(time.Since(start).Seconds())
		return b.build()
	}
	if origin == nil {
		span.SetAttributes(attrOrigin.String(originMissing))
		resolveDuration.WithLabelValues(originMissing).Observe(time.Since(start).Seconds())
		return b.build()
	}

	label := originBinary
	switch o := origin.(type) {
	case *introspect.Binary:
		collectBinary(b, o)
	case *introspect.Source:
		label = originSource
		err = o.VisitDeclarations(&sourceCollector{b: b})
	}
	span.SetAttributes(attrOrigin.String(label))
	resolveDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		// Keep what the visitor delivered before failing; ancestors are skipped.
		r.fail(ctx, span, qn, err)
		return b.build()
	}

	super := fqn.Erasure(fqn.Normalize(origin.SuperclassName()))
	if super == "" || super == RootType || super == qn {
		h.Link(project, "", qn)
	} else {
		h.Link(project, super, qn)
		b.inherit(h.Lookup(ctx, project, super))
	}

	info := b.build()
	span.SetAttributes(attrReadable.Int(info.Readable().Len()), attrWritable.Int(info.Writable().Len()))
	return info
}

func (r *Resolver) fail(ctx context.Context, span trace.Span, qn string, err error) {
	resolveFailures.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "introspection failed")
	if !zerrHasType(err) {
		err = zerr.With(err, "type", qn)
	}
	zerr.Log(ctx, r.logger, err)
}

// zerrHasType reports whether err already carries the type attribute.
func zerrHasType(err error) bool {
	z, ok := err.(*zerr.Error)
	if !ok {
		return false
	}
	_, has := z.Metadata()["type"]
	return has
}

// collectBinary applies the bean conventions to listed declarations.
func collectBinary(b *builder, t *introspect.Binary) {
	for _, f := range t.Fields {
		collectField(b, f)
	}
	for _, m := range t.Methods {
		collectMethod(b, m)
	}
}

// collectField: non-final fields are writable (the target framework writes
// private fields reflectively); public fields are readable.
func collectField(b *builder, f introspect.Field) {
	if !f.Final {
		b.writable.put(f.Name, f.Type)
	}
	if f.Public {
		b.readable.put(f.Name, f.Type)
	}
}

func collectMethod(b *builder, m introspect.Method) {
	if !m.Public {
		return
	}
	switch {
	case m.IsVoid() || m.Fluent:
		if accessor.IsSetter(m.Name, len(m.Params)) {
			b.writable.put(accessor.PropertyName(m.Name), m.Params[0])
		}
	default:
		if accessor.IsGetter(m.Name, len(m.Params)) {
			b.readable.put(accessor.PropertyName(m.Name), m.Return)
		}
	}
}

// sourceCollector applies the same conventions to visited source declarations.
type sourceCollector struct {
	b *builder
}

func (c *sourceCollector) VisitField(f introspect.Field)   { collectField(c.b, f) }
func (c *sourceCollector) VisitMethod(m introspect.Method) { collectMethod(c.b, m) }

// directHierarchy resolves ancestors without a cache.
type directHierarchy struct {
	r        *Resolver
	visiting map[string]struct{}
}

func (h *directHierarchy) Link(string, string, string) {}

func (h *directHierarchy) Lookup(ctx context.Context, project, qn string) *PropertyInfo {
	if _, cycle := h.visiting[qn]; cycle || len(h.visiting) >= h.r.maxDepth {
		h.r.logger.Warn("resolver.cycle", "project", project, "type", qn)
		return nil
	}
	h.visiting[qn] = struct{}{}
	defer delete(h.visiting, qn)
	return h.r.resolve(ctx, project, qn, h)
}
