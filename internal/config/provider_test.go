package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	"github.com/weisyn/coprocessor/internal/config/registry"
	"github.com/weisyn/coprocessor/pkg/types"
)

func envOf(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

// TestGetRegistry 测试注册表配置与环境变量覆盖
func TestGetRegistry(t *testing.T) {
	t.Run("未配置时使用本地注册表", func(t *testing.T) {
		p := newProvider(nil, envOf(nil))
		opts := p.GetRegistry()
		assert.Equal(t, registry.ModeLocal, opts.Mode)
		assert.Equal(t, 10*time.Second, opts.CallTimeout)
	})

	t.Run("配置文件指定RPC切换为链上模式", func(t *testing.T) {
		p := newProvider(&types.AppConfig{
			Registry: &types.UserRegistryConfig{
				RPCURL:          types.StringPtr("http://node:8545"),
				ContractAddress: types.StringPtr("0x00000000000000000000000000000000000000aa"),
				CallTimeout:     types.StringPtr("3s"),
			},
		}, envOf(nil))
		opts := p.GetRegistry()
		assert.Equal(t, registry.ModeEth, opts.Mode)
		assert.Equal(t, "http://node:8545", opts.RPCURL)
		assert.Equal(t, common.HexToAddress("0xaa"), opts.ContractAddress)
		assert.Equal(t, 3*time.Second, opts.CallTimeout)
	})

	t.Run("环境变量优先于配置文件", func(t *testing.T) {
		p := newProvider(&types.AppConfig{
			Registry: &types.UserRegistryConfig{RPCURL: types.StringPtr("http://file:8545")},
		}, envOf(map[string]string{
			EnvEthRPCURL:       "http://env:8545",
			EnvRegistryAddress: "0x00000000000000000000000000000000000000bb",
		}))
		opts := p.GetRegistry()
		assert.Equal(t, "http://env:8545", opts.RPCURL)
		assert.Equal(t, common.HexToAddress("0xbb"), opts.ContractAddress)
	})

	t.Run("非法合约地址被忽略", func(t *testing.T) {
		p := newProvider(nil, envOf(map[string]string{EnvRegistryAddress: "not-an-address"}))
		assert.Equal(t, common.Address{}, p.GetRegistry().ContractAddress)
	})
}

// TestGetEngine 测试引擎配置
func TestGetEngine(t *testing.T) {
	t.Run("默认值", func(t *testing.T) {
		opts := newProvider(nil, envOf(nil)).GetEngine()
		assert.Equal(t, "/tmp/pico-service", opts.WorkDir)
		assert.Equal(t, 0, opts.Workers)
		assert.Equal(t, "evm-wrapper", opts.Evm.Command)
		assert.Equal(t, "/tmp/pico-service/evm-setup", opts.EvmSetupDir())
		assert.Equal(t, engineconfig.ProverBackendGnark, opts.Prover.Backend)
	})

	t.Run("TEMP_DIR_BASE 覆盖工作目录", func(t *testing.T) {
		opts := newProvider(&types.AppConfig{
			Engine: &types.UserEngineConfig{WorkDir: types.StringPtr("/data/work")},
		}, envOf(map[string]string{EnvTempDirBase: "/env/work"})).GetEngine()
		assert.Equal(t, "/env/work", opts.WorkDir)
	})

	t.Run("显式设置零值保留", func(t *testing.T) {
		opts := newProvider(&types.AppConfig{
			Engine: &types.UserEngineConfig{
				KeepArtifacts: types.BoolPtr(true),
				ProverCommand: types.StringPtr("pico-prover"),
				ProverArgs:    []string{"prove", "--fast"},
				EvmTimeout:    types.StringPtr("90s"),
			},
		}, envOf(nil)).GetEngine()
		assert.True(t, opts.KeepArtifacts)
		assert.Equal(t, "pico-prover", opts.Prover.Command)
		assert.Equal(t, []string{"prove", "--fast"}, opts.Prover.Args)
		assert.Equal(t, engineconfig.ProverBackendCommand, opts.Prover.Backend)
		assert.Equal(t, 90*time.Second, opts.Evm.Timeout)
	})

	t.Run("显式后端优先于命令", func(t *testing.T) {
		opts := newProvider(&types.AppConfig{
			Engine: &types.UserEngineConfig{
				ProverBackend: types.StringPtr("None"),
				ProverCommand: types.StringPtr("pico-prover"),
			},
		}, envOf(nil)).GetEngine()
		assert.Equal(t, engineconfig.ProverBackendNone, opts.Prover.Backend)
	})
}

// TestGetPipeline 测试去重开关默认关闭
func TestGetPipeline(t *testing.T) {
	assert.False(t, newProvider(nil, envOf(nil)).GetPipeline().DedupeIdenticalRequests)

	opts := newProvider(&types.AppConfig{
		Pipeline: &types.UserPipelineConfig{
			DedupeIdenticalRequests: types.BoolPtr(true),
			RequestTimeout:          types.StringPtr("5m"),
		},
	}, envOf(nil)).GetPipeline()
	assert.True(t, opts.DedupeIdenticalRequests)
	assert.Equal(t, 5*time.Minute, opts.RequestTimeout)
}

// TestGetStorage 测试存储路径推导
func TestGetStorage(t *testing.T) {
	p := newProvider(&types.AppConfig{DataDir: types.StringPtr("/var/lib/coprocessor")}, envOf(nil))
	assert.Equal(t, filepath.Join("/var/lib/coprocessor", "badger"), p.GetBadger().Path)

	p = newProvider(&types.AppConfig{
		DataDir: types.StringPtr("/ignored"),
		Storage: &types.UserStorageConfig{DataRoot: types.StringPtr("/srv/data")},
	}, envOf(nil))
	assert.Equal(t, filepath.Join("/srv/data", "badger"), p.GetBadger().Path)

	p = newProvider(&types.AppConfig{
		Fetcher: &types.UserFetcherConfig{CacheTTL: types.StringPtr("2m")},
	}, envOf(nil))
	assert.Equal(t, 2*time.Minute, p.GetMemory().LifeWindow)
}

// TestGetLog 测试日志配置
func TestGetLog(t *testing.T) {
	opts := newProvider(&types.AppConfig{
		Log: &types.UserLogConfig{
			Level:    types.StringPtr("DEBUG"),
			FilePath: types.StringPtr("/tmp/x.log"),
		},
	}, envOf(nil)).GetLog()
	assert.Equal(t, "debug", opts.Level)
	assert.False(t, opts.ToConsole, "指定文件路径时默认关闭控制台输出")
	assert.Equal(t, "coprocessor-system.log", opts.SystemLogFile)
}

// TestLoadFile 测试JSON与YAML配置文件加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "c.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"app_name":"cp","engine":{"workers":3}}`), 0o600))
	cfg, err := LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "cp", *cfg.AppName)
	assert.Equal(t, 3, *cfg.Engine.Workers)

	yamlPath := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("registry:\n  mode: eth\n  eth_rpc_url: http://x:8545\n"), 0o600))
	cfg, err = LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "eth", *cfg.Registry.Mode)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{`), 0o600))
	_, err = LoadFile(badPath)
	assert.Error(t, err)
}

// TestResolveConfigPath 测试配置路径优先级
func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	assert.Equal(t, DefaultConfigPath, ResolveConfigPath(""))
	assert.Equal(t, "x.json", ResolveConfigPath("x.json"))
	t.Setenv(EnvConfigPath, "/etc/cp.yaml")
	assert.Equal(t, "/etc/cp.yaml", ResolveConfigPath("x.json"))
}
