// Package http 提供任务HTTP接口
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/coprocessor/internal/api/http/handlers"
	"github.com/weisyn/coprocessor/internal/api/http/middleware"
	apiconfig "github.com/weisyn/coprocessor/internal/config/api"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// Handlers 路由处理器集合；Programs 与 Health 可为 nil
type Handlers struct {
	Jobs     *handlers.JobHandlers
	Programs *handlers.ProgramHandlers
	Health   *handlers.HealthHandler
}

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	options    apiconfig.HTTPConfig
	logger     log.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer 创建HTTP服务器并注册路由
func NewServer(options apiconfig.HTTPConfig, h Handlers, logger log.Logger) *Server {
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.BodyLimit(options.MaxBodySize),
	)

	s := &Server{
		router:  router,
		options: options,
		logger:  logger,
		httpServer: &http.Server{
			Handler:      router,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			IdleTimeout:  options.IdleTimeout,
		},
	}
	s.setupRoutes(h)
	return s
}

func (s *Server) setupRoutes(h Handlers) {
	if h.Health != nil {
		s.router.GET("/health", h.Health.GetHealth)
	} else {
		s.router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	if h.Jobs != nil {
		h.Jobs.RegisterRoutes(v1)
	}
	if h.Programs != nil {
		h.Programs.RegisterRoutes(v1)
	}
	if s.logger != nil {
		s.logger.Debugf("HTTP路由注册完成: %d 条", len(s.router.Routes()))
	}
}

// Handler 返回路由处理器
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 监听并在后台提供服务
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.options.Host, fmt.Sprintf("%d", s.options.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("监听HTTP地址 %s 失败: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && s.logger != nil {
			s.logger.Errorf("HTTP服务异常退出: %v", err)
		}
	}()
	if s.logger != nil {
		s.logger.Infof("HTTP任务接口已启动: http://%s", ln.Addr())
	}
	return nil
}

// Addr 实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 优雅关闭，等待进行中的请求结束或 ctx 到期
func (s *Server) Stop(ctx context.Context) error {
	if s.Addr() == "" {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭HTTP服务失败: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("HTTP任务接口已停止")
	}
	return nil
}
