package parser

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idlunify_parse_seconds",
		Help:    "Time spent in one Parse call, resolution included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect"})

	FilesParsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idlunify_files_parsed_total",
		Help: "Total number of files tokenized and parsed by a front-end.",
	}, []string{"dialect"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idlunify_cache_hits_total",
		Help: "Total number of parse cache hits.",
	}, []string{"layer"})

	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idlunify_cache_misses_total",
		Help: "Total number of parse cache misses.",
	}, []string{"layer"})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idlunify_parse_errors_total",
		Help: "Total number of failed Parse calls.",
	})
)

// cache layers
const (
	layerFile     = "file"
	layerDocument = "document"
)
