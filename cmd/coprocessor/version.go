package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/coprocessor/internal/app/version"
	"github.com/weisyn/coprocessor/internal/cli/ui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		if components.Format() == ui.FormatJSON {
			return components.ShowJSON(version.GetBuildInfo())
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
		return nil
	},
}
