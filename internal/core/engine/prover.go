package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/weisyn/coprocessor/internal/core/infrastructure/process"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ProveRequest 交给完整证明后端的输入
type ProveRequest struct {
	ProgramPath string
	InputsPath  string
	OutputDir   string
	// PublicValues 模拟执行得到的公开值
	PublicValues []byte

	ProgramHash [32]byte
	Inputs      []byte
	// Report 模拟执行的报告（周期数与轨迹承诺）
	Report ExecutionReport
}

// ProverOutput 后端产出
type ProverOutput struct {
	Proof        []byte
	PublicValues []byte
}

// Prover 完整证明后端
type Prover interface {
	Name() string
	Prove(ctx context.Context, req *ProveRequest) (*ProverOutput, error)
}

// UnconfiguredProver 未配置后端时使用
type UnconfiguredProver struct{}

// Name 实现 Prover
func (UnconfiguredProver) Name() string { return "unconfigured" }

// Prove 总是失败
func (UnconfiguredProver) Prove(context.Context, *ProveRequest) (*ProverOutput, error) {
	return nil, ErrProverNotConfigured
}

// 命令参数占位符
const (
	placeholderELF    = "{elf}"
	placeholderInputs = "{inputs}"
	placeholderOutput = "{output}"
)

// CommandProver 通过外部证明工具链生成证明
//
// Args 中的 {elf} {inputs} {output} 会被替换；没有任何占位符时追加
// --elf --inputs --output 三个参数。工具链把 proof.data 与 pv_file 写入输出目录。
type CommandProver struct {
	command string
	args    []string
	timeout time.Duration
	runner  *process.Runner
	logger  log.Logger
}

// NewCommandProver 创建命令行后端
func NewCommandProver(command string, args []string, timeout time.Duration, runner *process.Runner, logger log.Logger) *CommandProver {
	return &CommandProver{command: command, args: args, timeout: timeout, runner: runner, logger: logger}
}

// Name 实现 Prover
func (p *CommandProver) Name() string { return p.command }

// Prove 实现 Prover
func (p *CommandProver) Prove(ctx context.Context, req *ProveRequest) (*ProverOutput, error) {
	cmd := process.Command{
		Name:    p.command,
		Args:    expandArgs(p.args, req),
		Dir:     req.OutputDir,
		Timeout: p.timeout,
	}
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		if res != nil && p.logger != nil {
			p.logger.Warnf("证明后端失败: %s stderr=%s", cmd, strings.TrimSpace(string(res.Stderr)))
		}
		return nil, wrapProcessError("prove", res, err)
	}

	proof, err := readArtifact(req.OutputDir, ProofFile)
	if err != nil {
		return nil, err
	}
	pv, err := readPublicValues(req.OutputDir)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(pv, req.PublicValues) {
		return nil, fmt.Errorf("%w: backend reported %d bytes, executed %d bytes", ErrPublicValuesMismatch, len(pv), len(req.PublicValues))
	}
	if p.logger != nil {
		p.logger.Infof("完整证明完成: backend=%s proof=%dB duration=%s", p.command, len(proof), res.Duration)
	}
	return &ProverOutput{Proof: proof, PublicValues: pv}, nil
}

func expandArgs(args []string, req *ProveRequest) []string {
	replacer := strings.NewReplacer(
		placeholderELF, req.ProgramPath,
		placeholderInputs, req.InputsPath,
		placeholderOutput, req.OutputDir,
	)
	out := make([]string, 0, len(args)+6)
	templated := false
	for _, a := range args {
		if strings.Contains(a, placeholderELF) || strings.Contains(a, placeholderInputs) || strings.Contains(a, placeholderOutput) {
			templated = true
		}
		out = append(out, replacer.Replace(a))
	}
	if !templated {
		out = append(out, "--elf", req.ProgramPath, "--inputs", req.InputsPath, "--output", req.OutputDir)
	}
	return out
}
