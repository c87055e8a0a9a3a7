package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "musage_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musage_files_scanned_total",
		Help: "Total number of source files scanned.",
	})

	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "musage_parse_failures_total",
		Help: "Total number of files that could not be parsed.",
	}, []string{"language"})

	HitsObservedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musage_hits_observed_total",
		Help: "Total number of call sites attributed to the target module.",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "musage_scan_seconds",
		Help:    "Wall time for a full tree scan.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musage_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRescansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musage_watcher_rescans_total",
		Help: "Total number of incremental rescans triggered by the watcher.",
	})

	HistoryWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "musage_history_writes_total",
		Help: "Total number of scan summaries persisted to the history store.",
	})
)
