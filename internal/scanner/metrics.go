package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winnow",
		Subsystem: "scanner",
		Name:      "cycles_total",
		Help:      "Scan cycles by outcome",
	}, []string{"outcome"})

	cyclesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "winnow",
		Subsystem: "scanner",
		Name:      "cycles_skipped_total",
		Help:      "Cycles skipped because a previous cycle was still running",
	})

	tilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "winnow",
		Subsystem: "scanner",
		Name:      "tiles_scanned_total",
		Help:      "Undecided tiles submitted for classification",
	})

	tilesMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "winnow",
		Subsystem: "scanner",
		Name:      "tiles_matched_total",
		Help:      "Tiles that matched at least one excluded topic",
	})

	backendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "winnow",
		Subsystem: "scanner",
		Name:      "backend_errors_total",
		Help:      "Classification batches that failed open",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "winnow",
		Subsystem: "scanner",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one scan cycle",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	})
)

const (
	outcomeClean    = "clean"
	outcomeNoWork   = "no_work"
	outcomeFailOpen = "fail_open"
	outcomeError    = "error"
)
