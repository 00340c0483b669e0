package log

import (
	"context"
	"fmt"

	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	logInterface "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams 日志模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle `optional:"true"`
	Provider  config.Provider
}

// ModuleOutput 定义日志模块的输出结构
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger // 日志记录器接口
	ZapLogger *zap.Logger         // zap.Logger 具体类型
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 按配置创建日志记录器并替换全局记录器，停止时刷盘
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(params.Provider.GetLog())
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("根据用户配置创建日志记录器失败: %w", err)
	}
	SetLogger(logger)
	if params.Lifecycle != nil {
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				// 终端输出的 sync 在部分平台返回 EINVAL，忽略
				_ = logger.Sync()
				return nil
			},
		})
	}

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}

// NewModuleLogger 为组件打上 module 字段
//
// 多文件模式下 registry/fetcher/engine 等写入 system 日志，pipeline/jobs/api 写入 business 日志。
func NewModuleLogger(baseLogger logInterface.Logger, module string) logInterface.Logger {
	if baseLogger == nil {
		return nil
	}
	return baseLogger.With("module", module)
}
