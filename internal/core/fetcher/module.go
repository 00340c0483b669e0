package fetcher

import (
	"net/http"

	"go.uber.org/fx"

	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
)

// ModuleInput 拉取模块依赖
type ModuleInput struct {
	fx.In

	Provider config.Provider
	Logger   log.Logger           `optional:"true"`
	Cache    storage.ProgramCache `optional:"true"`
}

// Module 返回拉取模块
func Module() fx.Option {
	return fx.Module("fetcher",
		fx.Provide(ProvideFetcher),
	)
}

// ProvideFetcher 提供 coprocessor.Fetcher
func ProvideFetcher(input ModuleInput) coprocessor.Fetcher {
	options := input.Provider.GetFetcher()
	client := &http.Client{Transport: http.DefaultTransport}
	return New(options, input.Cache, client, logimpl.NewModuleLogger(input.Logger, "fetcher"))
}
