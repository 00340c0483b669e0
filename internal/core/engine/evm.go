package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/weisyn/coprocessor/internal/core/infrastructure/process"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

// EvmRequest 包装进程输入
type EvmRequest struct {
	ProofPath        string
	PublicValuesPath string
	ProgramHash      types.ProgramHash
	SetupDir         string
	OutputDir        string
	ForceSetup       bool
	Field            string
	Timeout          time.Duration
}

// EvmOutput 包装进程产出
type EvmOutput struct {
	Proof        []byte
	PublicValues []byte
	Calldata     []byte
}

// EvmWrapper 调用外部 EVM 包装进程（默认 evm-wrapper）
//
//	<command> [args...] wrap --proof <file> --public-values <file> --program-hash <hex>
//	  --setup-dir <dir> --output <dir> [--force-setup] [--field kb]
type EvmWrapper struct {
	command string
	args    []string
	runner  *process.Runner
	logger  log.Logger
}

// NewEvmWrapper 创建包装器
func NewEvmWrapper(command string, args []string, runner *process.Runner, logger log.Logger) *EvmWrapper {
	return &EvmWrapper{command: command, args: args, runner: runner, logger: logger}
}

// Wrap 运行包装进程并读回 proof.data / pv_file / calldata
func (w *EvmWrapper) Wrap(ctx context.Context, req *EvmRequest) (*EvmOutput, error) {
	if err := os.MkdirAll(req.SetupDir, 0o755); err != nil {
		return nil, WrapProvingError("evm", err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, WrapProvingError("evm", err)
	}

	args := append(append([]string(nil), w.args...),
		"wrap",
		"--proof", req.ProofPath,
		"--public-values", req.PublicValuesPath,
		"--program-hash", req.ProgramHash.Hex(),
		"--setup-dir", req.SetupDir,
		"--output", req.OutputDir,
	)
	if req.ForceSetup {
		args = append(args, "--force-setup")
	}
	if req.Field != "" {
		args = append(args, "--field", req.Field)
	}

	cmd := process.Command{Name: w.command, Args: args, Dir: req.OutputDir, Timeout: req.Timeout}
	res, err := w.runner.Run(ctx, cmd)
	if err != nil {
		if res != nil && w.logger != nil {
			w.logger.Warnf("EVM包装进程失败: exit=%d stderr=%s", res.ExitCode, string(res.Stderr))
		}
		return nil, wrapProcessError("evm", res, err)
	}
	if w.logger != nil {
		w.logger.Debugf("EVM包装进程输出: %s", string(res.Stdout))
	}

	proof, err := readArtifact(req.OutputDir, ProofFile)
	if err != nil {
		return nil, WrapProvingError("evm", err)
	}
	pv, err := readPublicValues(req.OutputDir)
	if err != nil {
		return nil, WrapProvingError("evm", err)
	}
	calldata, err := readArtifact(req.OutputDir, CalldataFile)
	if err != nil {
		return nil, WrapProvingError("evm", err)
	}
	return &EvmOutput{Proof: proof, PublicValues: pv, Calldata: calldata}, nil
}

// setupExists pk/vk 是否已生成
func setupExists(dir string) bool {
	for _, name := range []string{"pk.bin", "vk.bin"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
