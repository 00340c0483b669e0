package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/testutil"
	"github.com/weisyn/coprocessor/pkg/types"
)

func testConfig(t *testing.T) *types.AppConfig {
	t.Helper()
	dir := t.TempDir()
	return &types.AppConfig{
		Log: &types.UserLogConfig{
			Level:     types.StringPtr("error"),
			FilePath:  types.StringPtr(filepath.Join(dir, "logs", "coprocessor.log")),
			ToConsole: types.BoolPtr(false),
		},
		Registry: &types.UserRegistryConfig{Mode: types.StringPtr("local")},
		Storage:  &types.UserStorageConfig{InMemory: types.BoolPtr(true)},
		Engine: &types.UserEngineConfig{
			WorkDir: types.StringPtr(filepath.Join(dir, "work")),
			Workers: types.IntPtr(1),
		},
		API: &types.UserAPIConfig{HTTPEnabled: types.BoolPtr(false)},
	}
}

func TestApp_LocalRoundTrip(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	t.Setenv("TEMP_DIR_BASE", "")

	program := testutil.EchoELF()
	elfPath := filepath.Join(t.TempDir(), "echo.elf")
	require.NoError(t, os.WriteFile(elfPath, program, 0o644))

	a, err := New(WithAppConfig(testConfig(t)), WithoutAPI())
	require.NoError(t, err)
	require.NotNil(t, a.Local)
	assert.Nil(t, a.Server)

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	defer func() { require.NoError(t, a.Stop()) }()

	h := testutil.HashOf(program)
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, a.Local.RegisterProgram(ctx, owner, h, "file://"+elfPath))

	res, err := a.Pipeline.Run(ctx, &types.ProofRequest{ProgramHash: h, Inputs: []byte{0x12, 0x34}, Mode: types.ProvingModeFast})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, res.PublicValues)
	assert.False(t, res.Sound)

	// 默认 gnark 后端产出可靠证明
	res, err = a.Pipeline.Run(ctx, &types.ProofRequest{ProgramHash: h, Inputs: []byte{0x56}, Mode: types.ProvingModeFull})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x56}, res.PublicValues)
	assert.True(t, res.Sound)
	assert.NotEmpty(t, res.Proof)
}

func TestApp_ProverBackendNone(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "")
	t.Setenv("TEMP_DIR_BASE", "")

	program := testutil.EchoELF()
	elfPath := filepath.Join(t.TempDir(), "echo.elf")
	require.NoError(t, os.WriteFile(elfPath, program, 0o644))

	cfg := testConfig(t)
	cfg.Engine.ProverBackend = types.StringPtr("none")
	a, err := New(WithAppConfig(cfg), WithoutAPI())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, a.Start(ctx))
	defer func() { require.NoError(t, a.Stop()) }()

	h := testutil.HashOf(program)
	require.NoError(t, a.Local.RegisterProgram(ctx, common.HexToAddress("0xaa"), h, "file://"+elfPath))
	_, err = a.Pipeline.Run(ctx, &types.ProofRequest{ProgramHash: h, Mode: types.ProvingModeFull})
	require.Error(t, err)
	assert.Equal(t, types.KindProvingFailed, types.KindOf(err))
}

func TestApp_ConfigFileErrors(t *testing.T) {
	t.Setenv("COPROCESSOR_CONFIG_PATH", "")

	_, err := New(WithConfigFile(filepath.Join(t.TempDir(), "missing.json")))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log: [unclosed"), 0o644))
	_, err = New(WithConfigFile(bad))
	require.Error(t, err)
}

func TestApp_EmbeddedYAML(t *testing.T) {
	dir := t.TempDir()
	yml := []byte(`
log:
  level: error
  to_console: false
  file_path: ` + filepath.Join(dir, "c.log") + `
registry:
  mode: local
storage:
  in_memory: true
engine:
  work_dir: ` + filepath.Join(dir, "work") + `
  workers: 1
api:
  http_enabled: false
`)
	a, err := New(WithEmbeddedConfig(yml, ".yaml"), WithoutAPI())
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop())
	assert.DirExists(t, filepath.Join(dir, "work"))
}
