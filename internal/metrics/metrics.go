// Package metrics defines Prometheus collectors for the stream resolution
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts event submissions by outcome:
	// applied, conflict, malformed, chain_integrity, unknown_stream, error.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_submissions_total",
			Help: "Total number of event submissions by outcome",
		},
		[]string{"outcome"},
	)

	// TipConflictsTotal counts lost compare-and-swap races.
	TipConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_tip_conflicts_total",
			Help: "Total number of tip compare-and-swap conflicts",
		},
	)

	// StreamsCreatedTotal counts streams created from genesis events.
	StreamsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_streams_created_total",
			Help: "Total number of streams created",
		},
	)

	// ProjectionDuration observes content fold latency.
	ProjectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamhub_projection_duration_seconds",
			Help:    "Duration of stream content projection in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ApplyDuration observes the transactional tip advancement latency.
	ApplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamhub_apply_duration_seconds",
			Help:    "Duration of transactional tip advancement in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FoldCacheHits counts projector fold-cache hits and misses.
	FoldCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamhub_fold_cache_total",
			Help: "Projector fold cache lookups by result",
		},
		[]string{"result"},
	)

	// SignalMirrorErrors counts failed best-effort signal mirror writes.
	SignalMirrorErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamhub_signal_mirror_errors_total",
			Help: "Total number of failed signal mirror writes",
		},
	)
)
