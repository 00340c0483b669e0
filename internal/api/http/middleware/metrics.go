package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coprocessor",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coprocessor",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.005, 0.05, 0.5, 1, 5, 30, 120, 600, 1800, 3600},
		},
		[]string{"method", "path"},
	)

	requestSize = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "coprocessor",
			Subsystem:  "api",
			Name:       "request_size_bytes",
			Help:       "API request size in bytes",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"method", "path"},
	)
)

// Metrics 指标收集中间件
//
// path 标签使用路由模板（/api/v1/jobs/:id），避免哈希参数撑爆标签基数。
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		if size := c.Request.ContentLength; size > 0 {
			requestSize.WithLabelValues(method, path).Observe(float64(size))
		}
		requestCounter.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
