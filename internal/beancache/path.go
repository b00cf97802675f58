package beancache

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/DeusData/beanprops-mcp/internal/fqn"
)

// maxPathDepth bounds recursion through nested path segments.
const maxPathDepth = 128

// PathMatcher resolves dotted and indexed property paths such as
// "customer.addresses[0].city" against a Cache.
type PathMatcher struct {
	cache *Cache
}

// NewPathMatcher creates a PathMatcher reading from c.
func NewPathMatcher(c *Cache) *PathMatcher {
	return &PathMatcher{cache: c}
}

// Resolve matches rawPath from its first segment against qualifiedName.
// The final segment is matched against the readable or writable map per
// wantReadable; strict requires exact names, otherwise the final segment is a
// case-insensitive prefix.
func (m *PathMatcher) Resolve(ctx context.Context, project, qualifiedName, rawPath string, wantReadable, strict bool) *PropertyMap {
	ctx, span := tracer.Start(ctx, "PathMatcher.Resolve",
		trace.WithAttributes(attrProject.String(project), attrType.String(qualifiedName), attrPath.String(rawPath)))
	defer span.End()

	result := m.ResolveSegment(ctx, project, qualifiedName, rawPath, wantReadable, -1, strict)
	span.SetAttributes(attrMatches.Int(result.Len()))
	return result
}

// ResolveSegment matches the segment of path that starts after currentIndex.
func (m *PathMatcher) ResolveSegment(ctx context.Context, project, qualifiedName, path string, wantReadable bool, currentIndex int, strict bool) *PropertyMap {
	return m.search(ctx, project, qualifiedName, path, wantReadable, currentIndex, strict, 0)
}

func (m *PathMatcher) search(ctx context.Context, project, qualifiedName, path string, wantReadable bool, currentIndex int, strict bool, depth int) *PropertyMap {
	results := newPropertyMap()
	if depth > maxPathDepth {
		return results
	}

	start := max(min(currentIndex+1, len(path)), 0)
	dotIdx := DotIndex(path, start)
	end := dotIdx
	if end == -1 {
		end = len(path)
	}
	search, indexed := SegmentName(path[start:end])
	final := dotIdx == -1
	prefix := !strict && final

	info := m.cache.Get(ctx, project, qualifiedName)
	if info == nil {
		return results
	}
	// Intermediate segments must be readable to navigate through them.
	fields := info.Select(wantReadable || !final)

	for name, typ := range fields.All() {
		if !Matches(name, search, prefix) {
			continue
		}
		if !final {
			next := fqn.Erasure(typ)
			if indexed {
				next = fqn.ElementType(typ)
			}
			return m.search(ctx, project, next, path, wantReadable, dotIdx, strict, depth+1)
		}
		results.put(name, typ)
	}
	return results
}

// DotIndex returns the index of the first '.' at or after start that is not
// inside an index bracket, or -1. Unbalanced brackets never fail: an unclosed
// '[' simply suppresses every later '.'.
func DotIndex(path string, start int) int {
	inIndex := false
	for i := max(start, 0); i < len(path); i++ {
		switch c := path[i]; {
		case !inIndex && c == '.':
			return i
		case !inIndex && c == '[':
			inIndex = true
		case c == ']':
			inIndex = false
		}
	}
	return -1
}

// SegmentName strips an index suffix from one path segment and reports
// whether there was one: "items[2]" -> ("items", true).
func SegmentName(segment string) (string, bool) {
	if i := strings.IndexByte(segment, '['); i >= 0 {
		return segment[:i], true
	}
	return segment, false
}

// Matches reports whether a property name satisfies a search string.
// An empty search matches everything.
func Matches(name, search string, prefix bool) bool {
	if search == "" {
		return true
	}
	if prefix {
		return strings.HasPrefix(strings.ToLower(name), strings.ToLower(search))
	}
	return name == search
}
