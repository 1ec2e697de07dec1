package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_history_ticks_pushed_total",
		Help: "Ticks appended to a history",
	})

	fullSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_history_full_snapshots_total",
		Help: "Entries stored as a full value instead of a delta",
	})

	deltaBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_history_delta_bytes_total",
		Help: "Encoded size of the deltas stored",
	})

	seekDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_history_seek_duration_seconds",
		Help:    "Duration of History.GoTo",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
)
