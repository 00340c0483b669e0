package engine

import "time"

// 证明引擎默认值
const (
	// defaultWorkDir 临时目录根（环境变量 TEMP_DIR_BASE 可覆盖）
	defaultWorkDir = "/tmp/pico-service"

	// defaultWorkers 0 表示按CPU与内存自动计算
	defaultWorkers = 0

	// defaultQueueSize 等待执行的任务上限
	defaultQueueSize = 64

	// defaultMemoryPerProofMB 单个证明任务的预估内存
	defaultMemoryPerProofMB = 2048

	// defaultMaxCycles 模拟器执行步数上限
	defaultMaxCycles uint64 = 1 << 30

	defaultKeepArtifacts = false

	// defaultProverBackend 默认使用进程内 gnark 后端
	defaultProverBackend = ProverBackendGnark

	// defaultProverTimeout 外部证明后端超时
	defaultProverTimeout = 30 * time.Minute

	// defaultEvmCommand EVM包装进程
	defaultEvmCommand = "evm-wrapper"

	// defaultEvmTimeout EVM包装进程超时
	defaultEvmTimeout = 20 * time.Minute

	// defaultEvmField 外层证明域
	defaultEvmField = "kb"

	// defaultOutputLimit 子进程 stdout/stderr 各自的捕获上限
	defaultOutputLimit = 64 << 10
)
