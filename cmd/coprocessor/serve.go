package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/coprocessor/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务，直到收到 SIGINT/SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := appOptions(true)
		if err != nil {
			return err
		}
		a, err := app.New(opts...)
		if err != nil {
			return err
		}
		if err := a.Start(cmd.Context()); err != nil {
			return err
		}
		if a.Server != nil {
			components.ShowSuccess("服务已启动: " + a.Server.Addr())
		} else {
			components.ShowWarning("HTTP API 已在配置中禁用")
		}
		return a.Wait(cmd.Context())
	},
}
