// Package config 提供应用配置管理功能
package config

import (
	"go.uber.org/fx"

	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	fetcherconfig "github.com/weisyn/coprocessor/internal/config/fetcher"
	pipelineconfig "github.com/weisyn/coprocessor/internal/config/pipeline"
	registryconfig "github.com/weisyn/coprocessor/internal/config/registry"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/types"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	// 应用配置选项
	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	// 配置提供者
	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			// 提供具体的配置类型用于依赖注入
			func(provider config.Provider) *registryconfig.RegistryOptions {
				return provider.GetRegistry()
			},
			func(provider config.Provider) *fetcherconfig.FetcherOptions {
				return provider.GetFetcher()
			},
			func(provider config.Provider) *engineconfig.EngineOptions {
				return provider.GetEngine()
			},
			func(provider config.Provider) *pipelineconfig.PipelineOptions {
				return provider.GetPipeline()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}
	return ConfigOutput{
		Provider: NewProvider(appConfig),
	}, nil
}
