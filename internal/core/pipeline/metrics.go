package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total number of pipeline runs by mode and result kind",
	}, []string{"mode", "result"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coprocessor",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
	}, []string{"stage"})

	sharedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "pipeline",
		Name:      "shared_runs_total",
		Help:      "Requests served by an identical in-flight run",
	})
)
