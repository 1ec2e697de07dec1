package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_processor_ticks_total",
		Help: "Ticks processed, by strategy",
	}, []string{"strategy"})

	playerCrashes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_processor_player_crashes_total",
		Help: "Players removed from a run after a failed request",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_processor_tick_duration_seconds",
		Help:    "Wall time of one tick including player round trips",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})
)
