package types

// AppConfig 应用程序根配置
// 只包含配置文件（JSON/YAML）解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
//
// 🔧 零值陷阱处理：所有字段都是指针
// - nil: 用户未在配置文件中设置，使用系统默认值
// - &value: 用户明确设置，即使是零值（0、false、""）也会被采用
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty" yaml:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"` // 数据目录路径
	Version *string `json:"version,omitempty" yaml:"version,omitempty"`   // 应用版本

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// 程序注册表配置
	Registry *UserRegistryConfig `json:"registry,omitempty" yaml:"registry,omitempty"`

	// 程序拉取配置
	Fetcher *UserFetcherConfig `json:"fetcher,omitempty" yaml:"fetcher,omitempty"`

	// 证明引擎配置
	Engine *UserEngineConfig `json:"engine,omitempty" yaml:"engine,omitempty"`

	// 流水线配置
	Pipeline *UserPipelineConfig `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`

	// 存储配置
	Storage *UserStorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`

	// API服务配置
	API *UserAPIConfig `json:"api,omitempty" yaml:"api,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level          *string `json:"level,omitempty" yaml:"level,omitempty"`                       // 日志级别
	FilePath       *string `json:"file_path,omitempty" yaml:"file_path,omitempty"`               // 日志文件路径
	ToConsole      *bool   `json:"to_console,omitempty" yaml:"to_console,omitempty"`             // 是否输出到控制台
	EnableMultiLog *bool   `json:"enable_multi_file,omitempty" yaml:"enable_multi_file,omitempty"` // 是否拆分 system/business 日志
	MaxSize        *int    `json:"max_size,omitempty" yaml:"max_size,omitempty"`                 // 单文件大小(MB)
}

// UserRegistryConfig 用户注册表配置
type UserRegistryConfig struct {
	// Mode 注册表模式：eth（链上合约）| local（本地BadgerDB注册表）
	Mode            *string `json:"mode,omitempty" yaml:"mode,omitempty"`
	RPCURL          *string `json:"eth_rpc_url,omitempty" yaml:"eth_rpc_url,omitempty"`
	ContractAddress *string `json:"contract_address,omitempty" yaml:"contract_address,omitempty"`
	CallTimeout     *string `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"` // 如 "10s"
}

// UserFetcherConfig 用户程序拉取配置
type UserFetcherConfig struct {
	MaxProgramSize  *int64  `json:"max_program_size,omitempty" yaml:"max_program_size,omitempty"` // 字节
	Timeout         *string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	IPFSGateway     *string `json:"ipfs_gateway,omitempty" yaml:"ipfs_gateway,omitempty"`
	AllowLocalPaths *bool   `json:"allow_local_paths,omitempty" yaml:"allow_local_paths,omitempty"`

	// 缓存：memory | redis | none
	CacheBackend *string `json:"cache_backend,omitempty" yaml:"cache_backend,omitempty"`
	CacheTTL     *string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

// UserEngineConfig 用户证明引擎配置
type UserEngineConfig struct {
	WorkDir          *string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
	Workers          *int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	QueueSize        *int    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	MemoryPerProofMB *int    `json:"memory_per_proof_mb,omitempty" yaml:"memory_per_proof_mb,omitempty"`
	MaxCycles        *uint64 `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty"`
	KeepArtifacts    *bool   `json:"keep_artifacts,omitempty" yaml:"keep_artifacts,omitempty"`

	// 完整证明后端：gnark | command | none
	ProverBackend *string  `json:"prover_backend,omitempty" yaml:"prover_backend,omitempty"`
	ProverCommand *string  `json:"prover_command,omitempty" yaml:"prover_command,omitempty"`
	ProverArgs    []string `json:"prover_args,omitempty" yaml:"prover_args,omitempty"`
	ProverTimeout *string  `json:"prover_timeout,omitempty" yaml:"prover_timeout,omitempty"`

	// EVM包装进程
	EvmCommand  *string  `json:"evm_command,omitempty" yaml:"evm_command,omitempty"`
	EvmArgs     []string `json:"evm_args,omitempty" yaml:"evm_args,omitempty"`
	EvmTimeout  *string  `json:"evm_timeout,omitempty" yaml:"evm_timeout,omitempty"`
	EvmSetupDir *string  `json:"evm_setup_dir,omitempty" yaml:"evm_setup_dir,omitempty"`
	EvmField    *string  `json:"evm_field,omitempty" yaml:"evm_field,omitempty"`
}

// UserPipelineConfig 用户流水线配置
type UserPipelineConfig struct {
	RequestTimeout          *string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	DedupeIdenticalRequests *bool   `json:"dedupe_identical_requests,omitempty" yaml:"dedupe_identical_requests,omitempty"`
}

// UserStorageConfig 用户存储配置
type UserStorageConfig struct {
	DataRoot   *string `json:"data_root,omitempty" yaml:"data_root,omitempty"`     // BadgerDB 根目录
	InMemory   *bool   `json:"in_memory,omitempty" yaml:"in_memory,omitempty"`     // BadgerDB 内存模式
	SyncWrites *bool   `json:"sync_writes,omitempty" yaml:"sync_writes,omitempty"` // 同步写入

	// 内存缓存（BigCache）
	MemoryLifeWindow   *string `json:"memory_life_window,omitempty" yaml:"memory_life_window,omitempty"`
	MemoryMaxEntrySize *int    `json:"memory_max_entry_size,omitempty" yaml:"memory_max_entry_size,omitempty"`
	MemoryHardMaxMB    *int    `json:"memory_hard_max_mb,omitempty" yaml:"memory_hard_max_mb,omitempty"`

	// Redis 缓存
	RedisAddr     *string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword *string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       *int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	RedisPrefix   *string `json:"redis_prefix,omitempty" yaml:"redis_prefix,omitempty"`
}

// UserAPIConfig 用户API配置
type UserAPIConfig struct {
	HTTPEnabled *bool   `json:"http_enabled,omitempty" yaml:"http_enabled,omitempty"`
	HTTPHost    *string `json:"http_host,omitempty" yaml:"http_host,omitempty"`
	HTTPPort    *int    `json:"http_port,omitempty" yaml:"http_port,omitempty"`
	MaxBodySize *int64  `json:"max_body_size,omitempty" yaml:"max_body_size,omitempty"`
}

// StringPtr 返回字符串指针（配置构造辅助）
func StringPtr(s string) *string { return &s }

// BoolPtr 返回布尔指针
func BoolPtr(b bool) *bool { return &b }

// IntPtr 返回整数指针
func IntPtr(i int) *int { return &i }

// Int64Ptr 返回int64指针
func Int64Ptr(i int64) *int64 { return &i }

// Uint64Ptr 返回uint64指针
func Uint64Ptr(i uint64) *uint64 { return &i }
