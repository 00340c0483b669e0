// Package app 组装并运行证明编排服务
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	apihttp "github.com/weisyn/coprocessor/internal/api/http"
	"github.com/weisyn/coprocessor/internal/config"
	"github.com/weisyn/coprocessor/internal/core/jobs"
	"github.com/weisyn/coprocessor/internal/core/pipeline"
	"github.com/weisyn/coprocessor/internal/core/registry"
	logiface "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

const (
	defaultStartTimeout = 30 * time.Second
	// defaultStopTimeout 需要覆盖进行中的证明子进程被终止与工作目录清理
	defaultStopTimeout = 60 * time.Second
)

// App 运行中的应用
type App struct {
	fxApp *fx.App
	opts  *options

	// Pipeline 证明流水线
	Pipeline *pipeline.Pipeline
	// Dispatcher 任务分发器
	Dispatcher *jobs.Dispatcher
	// Local 本地注册表，eth 模式下为 nil
	Local *registry.Local
	// Server HTTP服务器，禁用API时为 nil
	Server *apihttp.Server

	Logger logiface.Logger
}

type populated struct {
	fx.In

	Pipeline   *pipeline.Pipeline
	Dispatcher *jobs.Dispatcher
	Local      *registry.Local `optional:"true"`
	Server     *apihttp.Server `optional:"true"`
	Logger     logiface.Logger
}

// New 加载配置并组装应用（尚未启动）
func New(appOptions ...Option) (*App, error) {
	opts := newOptions(appOptions...)
	if err := loadConfig(opts); err != nil {
		return nil, err
	}

	var deps populated
	fxApp := NewBootstrap(opts).CreateFxApp(fx.Populate(&deps))
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("组装应用失败: %w", err)
	}
	return &App{
		fxApp:      fxApp,
		opts:       opts,
		Pipeline:   deps.Pipeline,
		Dispatcher: deps.Dispatcher,
		Local:      deps.Local,
		Server:     deps.Server,
		Logger:     deps.Logger,
	}, nil
}

// loadConfig 按优先级确定配置：WithAppConfig > 嵌入内容 > 配置文件
//
// 配置文件不存在时使用默认配置；存在但无法解析时报错。
func loadConfig(opts *options) error {
	if err := readConfig(opts); err != nil {
		return err
	}
	if opts.logLevel == "" && !opts.logQuiet {
		return nil
	}
	if opts.appConfig == nil {
		opts.appConfig = &types.AppConfig{}
	}
	if opts.appConfig.Log == nil {
		opts.appConfig.Log = &types.UserLogConfig{}
	}
	if opts.logLevel != "" {
		opts.appConfig.Log.Level = types.StringPtr(opts.logLevel)
	}
	if opts.logQuiet {
		opts.appConfig.Log.ToConsole = types.BoolPtr(false)
	}
	return nil
}

func readConfig(opts *options) error {
	if opts.appConfig != nil {
		return nil
	}
	if len(opts.embeddedConfig) > 0 {
		cfg, err := config.Parse(opts.embeddedConfig, opts.embeddedExt)
		if err != nil {
			return err
		}
		opts.appConfig = cfg
		return nil
	}
	path := config.ResolveConfigPath(opts.configFilePath)
	cfg, err := config.LoadFile(path)
	switch {
	case err == nil:
		opts.appConfig = cfg
	case errors.Is(err, config.ErrConfigNotFound) && opts.configFilePath == "":
		opts.appConfig = nil
	default:
		return err
	}
	return nil
}

// Start 启动所有生命周期钩子
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.opts.startTimeout)
	defer cancel()
	if err := a.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// Stop 停止应用
func (a *App) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.opts.stopTimeout)
	defer cancel()
	if err := a.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return nil
}

// Wait 阻塞直到收到 SIGINT/SIGTERM 或 ctx 结束，然后停止应用
func (a *App) Wait(ctx context.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		if a.Logger != nil {
			a.Logger.Infof("收到信号 %v，正在优雅退出", sig)
		}
	case <-ctx.Done():
	}
	return a.Stop()
}
