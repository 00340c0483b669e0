package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weisyn/coprocessor/pkg/types"
)

const (
	sourceEth   = "eth"
	sourceLocal = "local"
)

var (
	// 解析次数
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coprocessor",
		Subsystem: "registry",
		Name:      "resolve_total",
		Help:      "Total number of program resolutions by source and result kind",
	}, []string{"source", "result"})

	// 解析耗时
	resolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coprocessor",
		Subsystem: "registry",
		Name:      "resolve_duration_seconds",
		Help:      "Program resolution latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source"})
)

func observeResolve(source string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = string(types.KindOf(err))
	}
	resolveTotal.WithLabelValues(source, result).Inc()
	resolveDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
