package http

import (
	"context"

	"go.uber.org/fx"

	"github.com/weisyn/coprocessor/internal/api/http/handlers"
	"github.com/weisyn/coprocessor/internal/core/engine"
	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/internal/core/jobs"
	"github.com/weisyn/coprocessor/internal/core/registry"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ModuleInput HTTP模块依赖
type ModuleInput struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Provider   config.Provider
	Dispatcher *jobs.Dispatcher
	Resolver   coprocessor.Resolver
	Local      *registry.Local    `optional:"true"`
	Pool       *engine.WorkerPool `optional:"true"`
	Logger     log.Logger         `optional:"true"`
}

// Module 返回HTTP模块
func Module() fx.Option {
	return fx.Module("api.http",
		fx.Provide(ProvideServer),
		fx.Invoke(func(*Server) {}),
	)
}

// ProvideServer 创建HTTP服务器；http.enabled=false 时不监听
func ProvideServer(input ModuleInput) *Server {
	options := input.Provider.GetAPI().HTTP
	logger := logimpl.NewModuleLogger(input.Logger, "api")

	var lister handlers.ProgramLister
	if input.Local != nil {
		lister = input.Local
	}
	var pool handlers.PoolStats
	if input.Pool != nil {
		pool = input.Pool
	}
	server := NewServer(options, Handlers{
		Jobs:     handlers.NewJobHandlers(input.Dispatcher, logger),
		Programs: handlers.NewProgramHandlers(input.Resolver, lister),
		Health:   handlers.NewHealthHandler(input.Provider.GetRegistry().Mode, pool),
	}, logger)

	if !options.Enabled {
		if logger != nil {
			logger.Info("HTTP任务接口未启用")
		}
		return server
	}
	input.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error { return server.Start() },
		OnStop:  server.Stop,
	})
	return server
}
