package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	infralog "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// Logger 请求日志中间件（复用系统统一日志接口）
func Logger(logger infralog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}

		status := c.Writer.Status()
		latency := time.Since(start)
		if zl := logger.GetZapLogger(); zl != nil {
			fields := []zap.Field{
				zap.String("request_id", GetRequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.String("client_ip", c.ClientIP()),
			}
			if len(c.Errors) > 0 {
				fields = append(fields, zap.String("errors", c.Errors.String()))
			}
			switch {
			case status >= 500:
				zl.Error("HTTP request", fields...)
			case status >= 400:
				zl.Warn("HTTP request", fields...)
			default:
				zl.Info("HTTP request", fields...)
			}
			return
		}

		msg := fmt.Sprintf("HTTP request | id=%s method=%s path=%s status=%d latency=%s",
			GetRequestID(c), c.Request.Method, c.Request.URL.Path, status, latency)
		switch {
		case status >= 500:
			logger.Error(msg)
		case status >= 400:
			logger.Warn(msg)
		default:
			logger.Info(msg)
		}
	}
}
