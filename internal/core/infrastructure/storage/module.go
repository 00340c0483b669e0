// Package storage 提供存储服务的依赖注入装配
package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	fetcherconfig "github.com/weisyn/coprocessor/internal/config/fetcher"
	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/storage/redis"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 定义存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    log.Logger
}

// Module 返回存储模块
//
// 模块只提供程序缓存；BadgerDB 由本地注册表在 local 模式下通过 OpenBadgerStore 按需打开，
// eth 模式不会触碰数据目录。
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideProgramCache),
	)
}

// OpenBadgerStore 打开BadgerDB并注册关闭钩子
func OpenBadgerStore(lc fx.Lifecycle, provider config.Provider, logger log.Logger) (storageInterface.BadgerStore, error) {
	store, err := badger.New(provider.GetBadger(), logimpl.NewModuleLogger(logger, "storage"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// ProvideProgramCache 按 fetcher.cache_backend 选择程序缓存
//
// none 时返回 nil，拉取器据此关闭缓存。
func ProvideProgramCache(params ModuleParams) (storageInterface.ProgramCache, error) {
	logger := logimpl.NewModuleLogger(params.Logger, "storage")
	fetcherOpts := params.Provider.GetFetcher()

	cache, err := NewProgramCache(context.Background(), fetcherOpts.CacheBackend, params.Provider, logger)
	if err != nil || cache == nil {
		return nil, err
	}
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})
	return cache, nil
}

// NewProgramCache 创建指定后端的程序缓存
func NewProgramCache(ctx context.Context, backend string, provider config.Provider, logger log.Logger) (storageInterface.ProgramCache, error) {
	switch backend {
	case fetcherconfig.CacheNone, "":
		return nil, nil
	case fetcherconfig.CacheMemory:
		store, err := memory.New(ctx, provider.GetMemory(), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case fetcherconfig.CacheRedis:
		store, err := redis.NewFromOptions(provider.GetRedis(), provider.GetFetcher().CacheTTL, logger)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Infof("使用Redis共享程序缓存: %s", provider.GetRedis().Addr)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
