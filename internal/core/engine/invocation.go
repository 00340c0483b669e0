package engine

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/weisyn/coprocessor/internal/core/engine/riscv"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/types"
)

// 交给外部后端的文件名
const (
	programFile = "program.elf"
	inputsFile  = "inputs.bin"
)

// invocation 单次证明调用
type invocation struct {
	engine *Engine

	mu      sync.Mutex
	state   coprocessor.State
	program *riscv.Program
	elf     []byte
	inputs  []byte
	exec    *execution
	dirs    []string
	closed  bool
}

// State 实现 coprocessor.Invocation
func (inv *invocation) State() coprocessor.State {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.state
}

// Load 实现 coprocessor.Invocation
func (inv *invocation) Load(program, inputs []byte) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state != coprocessor.StateIdle {
		return inv.fail(WrapTransitionError("load", inv.state))
	}
	parsed, err := riscv.ParseELF(program)
	if err != nil {
		return inv.fail(WrapLoadError(err))
	}
	if err := parsed.CheckFootprint(inv.engine.maxPages); err != nil {
		return inv.fail(WrapLoadError(err))
	}
	inv.program = parsed
	inv.elf = program
	inv.inputs = inputs
	inv.state = coprocessor.StateLoaded
	return nil
}

// ExecuteFast 实现 coprocessor.Invocation
func (inv *invocation) ExecuteFast(ctx context.Context) (*types.ProvingOutput, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	start := time.Now()
	out, err := inv.executeFast(ctx)
	inv.observe(types.ProvingModeFast, start, err)
	return out, err
}

func (inv *invocation) executeFast(ctx context.Context) (*types.ProvingOutput, error) {
	if inv.state != coprocessor.StateLoaded {
		return nil, inv.fail(WrapTransitionError("execute_fast", inv.state))
	}
	if err := inv.runExecution(ctx); err != nil {
		return nil, err
	}

	proof, _ := inv.exec.report.MarshalBinary()
	dir, err := inv.engine.newOutputDir("fast")
	if err != nil {
		return nil, inv.fail(WrapProvingError("execute", err))
	}
	inv.dirs = append(inv.dirs, dir)
	if err := writeProofFiles(dir, proof, inv.exec.output); err != nil {
		return nil, inv.fail(WrapProvingError("execute", err))
	}

	return &types.ProvingOutput{
		Mode:         types.ProvingModeFast,
		Proof:        proof,
		PublicValues: inv.exec.output,
		OutputDir:    inv.reportedDir(dir),
		Cycles:       inv.exec.report.Cycles,
	}, nil
}

// ProveFull 实现 coprocessor.Invocation
func (inv *invocation) ProveFull(ctx context.Context) (*types.ProvingOutput, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	start := time.Now()
	out, _, err := inv.proveFull(ctx, "full")
	if err == nil {
		out.OutputDir = inv.reportedDir(out.OutputDir)
	}
	inv.observe(types.ProvingModeFull, start, err)
	return out, err
}

// proveFull 执行并调用完整证明后端，返回产出与运行目录
func (inv *invocation) proveFull(ctx context.Context, kind string) (*types.ProvingOutput, string, error) {
	if inv.state != coprocessor.StateLoaded {
		return nil, "", inv.fail(WrapTransitionError("prove_"+kind, inv.state))
	}
	if err := inv.runExecution(ctx); err != nil {
		return nil, "", err
	}

	dir, err := inv.engine.newOutputDir(kind)
	if err != nil {
		return nil, "", inv.fail(WrapProvingError("prove", err))
	}
	inv.dirs = append(inv.dirs, dir)

	req := &ProveRequest{
		ProgramPath:  filepath.Join(dir, programFile),
		InputsPath:   filepath.Join(dir, inputsFile),
		OutputDir:    dir,
		PublicValues: inv.exec.output,
		ProgramHash:  sha256Sum(inv.elf),
		Inputs:       inv.inputs,
		Report:       inv.exec.report,
	}
	if err := os.WriteFile(req.ProgramPath, inv.elf, 0o644); err != nil {
		return nil, "", inv.fail(WrapProvingError("prove", err))
	}
	if err := os.WriteFile(req.InputsPath, inv.inputs, 0o644); err != nil {
		return nil, "", inv.fail(WrapProvingError("prove", err))
	}

	var proved *ProverOutput
	err = inv.engine.pool.Submit(ctx, func(ctx context.Context) error {
		var proveErr error
		proved, proveErr = inv.engine.prover.Prove(ctx, req)
		return proveErr
	})
	if err != nil {
		inv.discard(dir)
		return nil, "", inv.fail(classify(ctx, "prove", err))
	}
	if !bytes.Equal(proved.PublicValues, inv.exec.output) {
		inv.discard(dir)
		return nil, "", inv.fail(WrapProvingError("prove", ErrPublicValuesMismatch))
	}
	if err := writeProofFiles(dir, proved.Proof, proved.PublicValues); err != nil {
		return nil, "", inv.fail(WrapProvingError("prove", err))
	}

	inv.state = coprocessor.StateProved
	return &types.ProvingOutput{
		Mode:         types.ProvingModeFull,
		Proof:        proved.Proof,
		PublicValues: proved.PublicValues,
		OutputDir:    dir,
		Cycles:       inv.exec.report.Cycles,
	}, dir, nil
}

// ProveEvm 实现 coprocessor.Invocation
func (inv *invocation) ProveEvm(ctx context.Context, cfg *types.EvmConfig) (*types.ProvingOutput, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	start := time.Now()
	out, err := inv.proveEvm(ctx, cfg)
	inv.observe(types.ProvingModeFullWithEvm, start, err)
	return out, err
}

func (inv *invocation) proveEvm(ctx context.Context, cfg *types.EvmConfig) (*types.ProvingOutput, error) {
	if inv.engine.evm == nil {
		return nil, inv.fail(WrapProvingError("evm", errors.New("evm wrapper not configured")))
	}
	full, dir, err := inv.proveFull(ctx, "evm")
	if err != nil {
		return nil, err
	}

	req := inv.evmRequest(cfg, dir)
	if !req.ForceSetup && !setupExists(req.SetupDir) && inv.engine.logger != nil {
		inv.engine.logger.Infof("EVM pk/vk 不存在，将由包装进程生成: %s", req.SetupDir)
	}
	wrapped, err := inv.engine.evm.Wrap(ctx, req)
	if err != nil {
		inv.discard(dir)
		return nil, inv.fail(classify(ctx, "evm", err))
	}
	if !bytes.Equal(wrapped.PublicValues, inv.exec.output) {
		inv.discard(dir)
		return nil, inv.fail(WrapProvingError("evm", ErrPublicValuesMismatch))
	}

	return &types.ProvingOutput{
		Mode:              types.ProvingModeFullWithEvm,
		Proof:             wrapped.Proof,
		PublicValues:      wrapped.PublicValues,
		VerifierArtifacts: wrapped.Calldata,
		OutputDir:         inv.reportedDir(dir),
		Cycles:            full.Cycles,
	}, nil
}

func (inv *invocation) evmRequest(cfg *types.EvmConfig, dir string) *EvmRequest {
	opts := inv.engine.options
	req := &EvmRequest{
		ProofPath:        filepath.Join(dir, ProofFile),
		PublicValuesPath: filepath.Join(dir, PublicValuesFile),
		ProgramHash:      types.ProgramHash(sha256Sum(inv.elf)),
		SetupDir:         opts.EvmSetupDir(),
		OutputDir:        filepath.Join(dir, "evm"),
		Field:            opts.Evm.Field,
		Timeout:          opts.Evm.Timeout,
	}
	if cfg != nil {
		if cfg.SetupDir != "" {
			req.SetupDir = cfg.SetupDir
		}
		if cfg.Field != "" {
			req.Field = cfg.Field
		}
		if cfg.Timeout > 0 {
			req.Timeout = cfg.Timeout
		}
		req.ForceSetup = cfg.ForceSetup
	}
	return req
}

// Close 实现 coprocessor.Invocation
func (inv *invocation) Close() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.closed {
		return nil
	}
	inv.closed = true
	if inv.engine.options.KeepArtifacts {
		return nil
	}
	var errs []error
	for _, dir := range inv.dirs {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}
	inv.dirs = nil
	return errors.Join(errs...)
}

// runExecution 在工作线程池中执行程序，成功后进入 Executed
func (inv *invocation) runExecution(ctx context.Context) error {
	maxCycles := inv.engine.options.MaxCycles
	var exec *execution
	err := inv.engine.pool.Submit(ctx, func(ctx context.Context) error {
		var runErr error
		exec, runErr = execute(ctx, inv.program, inv.inputs, maxCycles, inv.engine.maxPages)
		return runErr
	})
	if err != nil {
		return inv.fail(classify(ctx, "execute", err))
	}
	executedCycles.Add(float64(exec.report.Cycles))
	inv.exec = exec
	inv.state = coprocessor.StateExecuted
	return nil
}

// discard 失败时立即删除运行目录，不留部分产物
func (inv *invocation) discard(dir string) {
	_ = os.RemoveAll(dir)
	for i, d := range inv.dirs {
		if d == dir {
			inv.dirs = append(inv.dirs[:i], inv.dirs[i+1:]...)
			break
		}
	}
}

func (inv *invocation) fail(err error) error {
	inv.state = coprocessor.StateFailed
	return err
}

// reportedDir 只有保留产物时才向调用方报告目录
func (inv *invocation) reportedDir(dir string) string {
	if inv.engine.options.KeepArtifacts {
		return dir
	}
	return ""
}

func (inv *invocation) observe(mode types.ProvingMode, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = string(types.KindOf(err))
	}
	provingTotal.WithLabelValues(mode.String(), result).Inc()
	provingDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	if inv.engine.logger == nil {
		return
	}
	if err != nil {
		inv.engine.logger.Warnf("证明失败: mode=%s err=%v", mode, err)
	} else {
		inv.engine.logger.Infof("证明完成: mode=%s elapsed=%s", mode, time.Since(start))
	}
}

// classify 调用方 ctx 结束优先归为 Cancelled / Timeout，其余归为 ProvingFailed
func classify(ctx context.Context, stage string, err error) error {
	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.Canceled):
		return fmt.Errorf("%w: stage=%s: %w", types.ErrCancelled, stage, ctxErr)
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return fmt.Errorf("%w: stage=%s: %w", types.ErrTimeout, stage, ctxErr)
	case errors.Is(err, types.ErrProvingFailed):
		return err
	default:
		return WrapProvingError(stage, err)
	}
}

// writeProofFiles 写出 proof.data 与十六进制 pv_file
func writeProofFiles(dir string, proof, publicValues []byte) error {
	if err := os.WriteFile(filepath.Join(dir, ProofFile), proof, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, PublicValuesFile), []byte(hex.EncodeToString(publicValues)), 0o644)
}
