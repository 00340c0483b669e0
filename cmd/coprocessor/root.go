package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weisyn/coprocessor/configs"
	"github.com/weisyn/coprocessor/internal/app"
	"github.com/weisyn/coprocessor/internal/cli/ui"
	"github.com/weisyn/coprocessor/internal/core/jobs"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件路径
	LogLevel     string // 日志级别覆盖
	OutputFormat string // 输出格式
	Profile      string // 内置配置名
}

var (
	globalFlags GlobalFlags
	components  *ui.Components
)

// errReported 错误已经渲染给用户，只需要非零退出码
var errReported = errors.New("reported")

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "coprocessor",
	Short: "零知识证明编排服务",
	Long: `coprocessor - 零知识证明编排服务

按程序哈希从注册表解析程序位置，拉取并校验程序二进制，
再以 Fast / Full / FullWithEvm 模式执行或证明。

  coprocessor serve                 # 启动HTTP服务
  coprocessor prove --hash ...      # 单次证明
  coprocessor registry list         # 管理本地注册表`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		components = ui.NewComponents(ui.Format(globalFlags.OutputFormat), os.Stdout)
		return nil
	},
}

// Execute 执行根命令
//
// SIGINT/SIGTERM 取消命令上下文，进行中的证明随之终止。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "配置文件路径 (默认: $COPROCESSOR_CONFIG_PATH 或 configs/coprocessor.json)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "日志级别: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Profile, "profile", "", "使用内置配置: default|local（优先于 --config）")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.OutputFormat, "output", "o", "pretty", "输出格式: json|pretty")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(versionCmd)
}

// withApp 启动一个不带API的应用执行单次操作，结束后停止
//
// 单次命令的日志只写文件，终端留给结果输出。
func withApp(ctx context.Context, fn func(ctx context.Context, a *app.App) error) error {
	opts, err := appOptions(false)
	if err != nil {
		return err
	}
	a, err := app.New(opts...)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	runErr := fn(ctx, a)
	if err := a.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// appOptions 由全局标志构造应用选项；只有常驻服务把日志打到终端
func appOptions(serve bool) ([]app.Option, error) {
	opts := []app.Option{app.WithLogLevel(globalFlags.LogLevel, !serve)}
	if serve {
		opts = append(opts, app.WithAPI())
	} else {
		opts = append(opts, app.WithoutAPI())
	}
	if globalFlags.Profile == "" {
		return append(opts, app.WithConfigFile(globalFlags.ConfigPath)), nil
	}
	profile, err := configs.Get(globalFlags.Profile)
	if err != nil {
		return nil, err
	}
	return append(opts, app.WithEmbeddedConfig(profile.Content, profile.Ext)), nil
}

// reportError 渲染错误并返回 errReported
func reportError(jobID string, err error) error {
	components.ShowJobError(jobs.NewJobError(jobID, err))
	return errReported
}
