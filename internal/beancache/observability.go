package beancache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/DeusData/beanprops-mcp/internal/beancache")

const (
	attrProject  = attribute.Key("beanprops.project")
	attrType     = attribute.Key("beanprops.type")
	attrOrigin   = attribute.Key("beanprops.origin")
	attrReadable = attribute.Key("beanprops.readable")
	attrWritable = attribute.Key("beanprops.writable")
	attrPath     = attribute.Key("beanprops.path")
	attrMatches  = attribute.Key("beanprops.matches")
)

// Lookup results.
const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultIgnored = "ignored"
)

// Origins reported by the resolver.
const (
	originBinary  = "binary"
	originSource  = "source"
	originMissing = "missing"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beanprops",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Property lookups by result (hit, miss, ignored).",
		},
		[]string{"result"},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beanprops",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Invalidation requests by kind (type, project, all).",
		},
		[]string{"kind"},
	)

	cacheEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beanprops",
			Subsystem: "cache",
			Name:      "evicted_entries_total",
			Help:      "Cached property entries removed by type invalidation.",
		},
	)

	resolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "beanprops",
			Subsystem: "resolver",
			Name:      "duration_seconds",
			Help:      "Time spent resolving the own properties of one type.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"origin"},
	)

	resolveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beanprops",
			Subsystem: "resolver",
			Name:      "failures_total",
			Help:      "Introspection failures absorbed during resolution.",
		},
	)
)
