package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "fetcher",
		Name:      "fetch_total",
		Help:      "Total number of program fetches by scheme and result kind",
	}, []string{"scheme", "result"})

	fetchBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "fetcher",
		Name:      "fetched_bytes_total",
		Help:      "Total program bytes transferred by scheme",
	}, []string{"scheme"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coprocessor",
		Subsystem: "fetcher",
		Name:      "fetch_duration_seconds",
		Help:      "Program transfer latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
	}, []string{"scheme"})

	// 缓存命中/未命中
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "fetcher",
		Name:      "cache_lookups_total",
		Help:      "Verified-program cache lookups by outcome",
	}, []string{"outcome"})
)
