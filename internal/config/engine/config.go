// Package engine 提供证明引擎配置
package engine

import (
	"path/filepath"
	"strings"
	"time"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// 完整证明后端
const (
	ProverBackendGnark   = "gnark"   // 进程内 Groth16
	ProverBackendCommand = "command" // 外部工具链
	ProverBackendNone    = "none"
)

// ProverOptions 完整证明后端配置
type ProverOptions struct {
	Backend string        `json:"backend"`
	Command string        `json:"command"`
	Args    []string      `json:"args"`
	Timeout time.Duration `json:"timeout"`
}

// EvmOptions EVM包装进程配置
type EvmOptions struct {
	Command  string        `json:"command"`
	Args     []string      `json:"args"`
	Timeout  time.Duration `json:"timeout"`
	SetupDir string        `json:"setup_dir"` // pk/vk 目录，为空时使用 {work_dir}/evm-setup
	Field    string        `json:"field"`
}

// EngineOptions 证明引擎配置选项
type EngineOptions struct {
	WorkDir          string `json:"work_dir"`
	Workers          int    `json:"workers"`
	QueueSize        int    `json:"queue_size"`
	MemoryPerProofMB int    `json:"memory_per_proof_mb"`
	MaxCycles        uint64 `json:"max_cycles"`
	KeepArtifacts    bool   `json:"keep_artifacts"`
	OutputLimit      int    `json:"output_limit"`

	Prover ProverOptions `json:"prover"`
	Evm    EvmOptions    `json:"evm"`
}

// Config 证明引擎配置实现
type Config struct {
	options *EngineOptions
}

// New 创建证明引擎配置
func New(userConfig interface{}) *Config {
	options := &EngineOptions{
		WorkDir:          defaultWorkDir,
		Workers:          defaultWorkers,
		QueueSize:        defaultQueueSize,
		MemoryPerProofMB: defaultMemoryPerProofMB,
		MaxCycles:        defaultMaxCycles,
		KeepArtifacts:    defaultKeepArtifacts,
		OutputLimit:      defaultOutputLimit,
		Prover: ProverOptions{
			Backend: defaultProverBackend,
			Timeout: defaultProverTimeout,
		},
		Evm: EvmOptions{
			Command: defaultEvmCommand,
			Timeout: defaultEvmTimeout,
			Field:   defaultEvmField,
		},
	}
	if userConfig != nil {
		applyUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

func applyUserConfig(options *EngineOptions, userConfig interface{}) {
	cfg, ok := userConfig.(*configtypes.UserEngineConfig)
	if !ok || cfg == nil {
		return
	}
	if cfg.WorkDir != nil && *cfg.WorkDir != "" {
		options.WorkDir = *cfg.WorkDir
	}
	if cfg.Workers != nil && *cfg.Workers >= 0 {
		options.Workers = *cfg.Workers
	}
	if cfg.QueueSize != nil && *cfg.QueueSize > 0 {
		options.QueueSize = *cfg.QueueSize
	}
	if cfg.MemoryPerProofMB != nil && *cfg.MemoryPerProofMB > 0 {
		options.MemoryPerProofMB = *cfg.MemoryPerProofMB
	}
	if cfg.MaxCycles != nil && *cfg.MaxCycles > 0 {
		options.MaxCycles = *cfg.MaxCycles
	}
	if cfg.KeepArtifacts != nil {
		options.KeepArtifacts = *cfg.KeepArtifacts
	}

	if cfg.ProverCommand != nil {
		options.Prover.Command = *cfg.ProverCommand
	}
	if len(cfg.ProverArgs) > 0 {
		options.Prover.Args = append([]string(nil), cfg.ProverArgs...)
	}
	if d, ok := parseDuration(cfg.ProverTimeout); ok {
		options.Prover.Timeout = d
	}
	switch {
	case cfg.ProverBackend != nil && *cfg.ProverBackend != "":
		options.Prover.Backend = strings.ToLower(*cfg.ProverBackend)
	case options.Prover.Command != "":
		// 只配置了命令时沿用外部工具链
		options.Prover.Backend = ProverBackendCommand
	}

	if cfg.EvmCommand != nil && *cfg.EvmCommand != "" {
		options.Evm.Command = *cfg.EvmCommand
	}
	if len(cfg.EvmArgs) > 0 {
		options.Evm.Args = append([]string(nil), cfg.EvmArgs...)
	}
	if d, ok := parseDuration(cfg.EvmTimeout); ok {
		options.Evm.Timeout = d
	}
	if cfg.EvmSetupDir != nil {
		options.Evm.SetupDir = *cfg.EvmSetupDir
	}
	if cfg.EvmField != nil && *cfg.EvmField != "" {
		options.Evm.Field = *cfg.EvmField
	}
}

func parseDuration(s *string) (time.Duration, bool) {
	if s == nil {
		return 0, false
	}
	d, err := time.ParseDuration(*s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// GetOptions 获取证明引擎配置选项
func (c *Config) GetOptions() *EngineOptions {
	return c.options
}

// EvmSetupDir 返回生效的 pk/vk 目录
func (o *EngineOptions) EvmSetupDir() string {
	if o.Evm.SetupDir != "" {
		return o.Evm.SetupDir
	}
	return filepath.Join(o.WorkDir, "evm-setup")
}
