package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "jobs",
		Name:      "handled_total",
		Help:      "Jobs handled by job name and result kind",
	}, []string{"job", "result"})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coprocessor",
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Successful job latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"job"})
)
