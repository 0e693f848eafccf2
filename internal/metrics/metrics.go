// Package metrics exposes prometheus instruments for the history engine and
// its recovery path. All collectors live in the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label of EntriesRejected.
const (
	ReasonEmpty     = "empty"
	ReasonDuplicate = "duplicate"
	ReasonSelfCopy  = "self_copy"
	ReasonQueueFull = "queue_full"
)

// Restore sources used as the "source" label of Restores.
const (
	SourcePrimary = "primary"
	SourceBackup  = "backup"
	SourceEmpty   = "empty"
)

var (
	QueueEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipq_queue_entries",
		Help: "Number of entries currently in the history queue.",
	})

	EntriesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipq_entries_recorded_total",
		Help: "Entries added to the history queue.",
	}, []string{"kind", "origin"})

	EntriesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipq_entries_rejected_total",
		Help: "Add attempts that did not produce an entry.",
	}, []string{"reason"})

	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipq_evictions_total",
		Help: "Unpinned entries evicted to stay within capacity.",
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipq_store_errors_total",
		Help: "Persistent store operations that failed.",
	}, []string{"op"})

	BackupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clipq_backup_duration_seconds",
		Help:    "Time spent writing the backup snapshot.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	Restores = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipq_restores_total",
		Help: "Startup or restart recoveries by the source that populated the queue.",
	}, []string{"source"})
)
