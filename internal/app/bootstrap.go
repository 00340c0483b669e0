package app

import (
	"go.uber.org/fx"

	apihttp "github.com/weisyn/coprocessor/internal/api/http"
	"github.com/weisyn/coprocessor/internal/config"
	"github.com/weisyn/coprocessor/internal/core/engine"
	"github.com/weisyn/coprocessor/internal/core/fetcher"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/event"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/storage"
	"github.com/weisyn/coprocessor/internal/core/jobs"
	"github.com/weisyn/coprocessor/internal/core/pipeline"
	"github.com/weisyn/coprocessor/internal/core/registry"
	configiface "github.com/weisyn/coprocessor/pkg/interfaces/config"
)

// 模块分层
const (
	LayerInfrastructure = "infrastructure"
	LayerCore           = "core"
	LayerApplication    = "application"
)

// Bootstrap 按层组装fx模块
type Bootstrap struct {
	opts *options
}

// NewBootstrap 创建引导器
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 配置、日志、事件、存储
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() configiface.AppOptions { return b.opts }),
		config.Module(),
		log.Module(),
		event.Module(),
		storage.Module(),
	}
}

// SetupCoreLayer 注册表、拉取器、证明引擎、流水线、任务分发
func (b *Bootstrap) SetupCoreLayer() []fx.Option {
	return []fx.Option{
		registry.Module(),
		fetcher.Module(),
		engine.Module(),
		pipeline.Module(),
		jobs.Module(),
	}
}

// SetupApplicationLayer 对外接口
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	if !b.opts.enableAPI {
		return nil
	}
	return []fx.Option{apihttp.Module()}
}

// SetupModules 汇总所有层
func (b *Bootstrap) SetupModules() []fx.Option {
	var modules []fx.Option
	modules = append(modules, b.SetupInfrastructureLayer()...)
	modules = append(modules, b.SetupCoreLayer()...)
	modules = append(modules, b.SetupApplicationLayer()...)
	return modules
}

// CreateFxApp 创建fx应用，extra 用于注入调用方需要的组件（fx.Populate）
func (b *Bootstrap) CreateFxApp(extra ...fx.Option) *fx.App {
	all := append(b.SetupModules(), fx.NopLogger,
		fx.StartTimeout(b.opts.startTimeout),
		fx.StopTimeout(b.opts.stopTimeout))
	all = append(all, extra...)
	return fx.New(all...)
}
