package beancache

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpansAndMetrics(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues(resultHit))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues(resultMiss))
	evicted := testutil.ToFloat64(cacheEvicted)

	c := newTestCache(newFake(shopTypes()...))
	m := NewPathMatcher(c)
	ctx := context.Background()

	got := m.Resolve(ctx, "p", "shop.Order", "customer.name", true, true)
	require.Equal(t, []string{"name"}, got.Names())
	c.Get(ctx, "p", "shop.Order")
	c.Invalidate(ctx, "p", "shop.Customer")

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues(resultHit)))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues(resultMiss)))
	assert.Equal(t, evicted+1, testutil.ToFloat64(cacheEvicted))

	names := map[string]int{}
	for _, s := range exporter.GetSpans() {
		names[s.Name]++
	}
	assert.Equal(t, 1, names["PathMatcher.Resolve"])
	assert.Equal(t, 2, names["PropertyResolver.Resolve"])
	assert.GreaterOrEqual(t, names["PropertyCache.Get"], 3)
}
