package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 各模式证明次数
	provingTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "engine",
		Name:      "proving_total",
		Help:      "Total number of proving operations by mode and result",
	}, []string{"mode", "result"})

	provingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coprocessor",
		Subsystem: "engine",
		Name:      "proving_duration_seconds",
		Help:      "Proving latency in seconds by mode",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"mode"})

	executedCycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "engine",
		Name:      "executed_cycles_total",
		Help:      "Total guest cycles executed by the emulator",
	})

	queueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coprocessor",
		Subsystem: "engine",
		Name:      "queue_wait_seconds",
		Help:      "Time spent by proving jobs waiting for a worker",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coprocessor",
		Subsystem: "engine",
		Name:      "active_workers",
		Help:      "Number of workers currently running a job",
	})
)
