// Package version 构建版本信息
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// 通过 -ldflags "-X github.com/weisyn/coprocessor/internal/app/version.Version=..." 注入
var (
	Version   = "v0.1.0-dev"
	Commit    = ""
	BuildTime = ""
	BuildEnv  = "development"
)

// BuildInfo 构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	BuildEnv  string `json:"build_env"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetBuildInfo 返回构建信息
//
// 未通过 ldflags 注入提交号时，从 Go 工具链嵌入的 vcs 信息补齐。
func GetBuildInfo() *BuildInfo {
	info := &BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		BuildEnv:  BuildEnv,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	return info
}

// GetFullVersion 多行版本描述，用于 version 命令
func GetFullVersion() string {
	info := GetBuildInfo()
	var b strings.Builder
	fmt.Fprintf(&b, "coprocessor %s", info.Version)
	if info.Commit != "" {
		commit := info.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if info.Modified {
			commit += "-dirty"
		}
		fmt.Fprintf(&b, " (%s)", commit)
	}
	if info.BuildTime != "" {
		fmt.Fprintf(&b, "\n构建时间: %s", info.BuildTime)
	}
	fmt.Fprintf(&b, "\n构建环境: %s\nGo版本: %s\n平台: %s", info.BuildEnv, info.GoVersion, info.Platform)
	return b.String()
}
