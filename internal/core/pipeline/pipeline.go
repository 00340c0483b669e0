package pipeline

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/sha256-simd"

	pipelineconfig "github.com/weisyn/coprocessor/internal/config/pipeline"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

// Pipeline 证明流水线
type Pipeline struct {
	resolvers coprocessor.ResolverFactory
	fetcher   coprocessor.Fetcher
	engine    coprocessor.Engine
	assembler Assembler
	options   *pipelineconfig.PipelineOptions
	logger    log.Logger

	sharedMu sync.Mutex
	shared   map[string]*sharedRun
}

// sharedRun 一次被多个相同请求共享的运行
//
// waiters 归零时取消运行，子进程随之被杀死。
type sharedRun struct {
	cancel  context.CancelFunc
	done    chan struct{}
	result  *types.ProofResult
	err     error
	waiters int
}

// New 创建流水线
func New(resolvers coprocessor.ResolverFactory, fetcher coprocessor.Fetcher, engine coprocessor.Engine, options *pipelineconfig.PipelineOptions, logger log.Logger) *Pipeline {
	if options == nil {
		options = pipelineconfig.New(nil).GetOptions()
	}
	return &Pipeline{
		resolvers: resolvers,
		fetcher:   fetcher,
		engine:    engine,
		options:   options,
		logger:    logger,
		shared:    make(map[string]*sharedRun),
	}
}

// Run 执行一次证明请求
//
// 失败时返回 *Error；请求本身不会被修改。
func (p *Pipeline) Run(ctx context.Context, req *types.ProofRequest) (*types.ProofResult, error) {
	if req == nil {
		return nil, newStageError(StageRequest, fmt.Errorf("%w: nil request", types.ErrInvalidRequest))
	}
	start := time.Now()
	var (
		result *types.ProofResult
		err    error
	)
	if p.options.DedupeIdenticalRequests {
		result, err = p.runShared(ctx, req)
	} else {
		result, err = p.runWithTimeout(ctx, req)
	}

	outcome := "ok"
	if err != nil {
		outcome = string(types.KindOf(err))
	}
	runsTotal.WithLabelValues(req.Mode.String(), outcome).Inc()
	if p.logger != nil {
		if err != nil {
			p.logger.Warnf("证明请求失败: hash=%s mode=%s elapsed=%s err=%v", req.ProgramHash, req.Mode, time.Since(start), err)
		} else {
			p.logger.Infof("证明请求完成: hash=%s mode=%s sound=%t elapsed=%s", req.ProgramHash, req.Mode, result.Sound, time.Since(start))
		}
	}
	return result, err
}

// runShared 相同 (hash, inputs, mode) 的并发请求共享一次运行
func (p *Pipeline) runShared(ctx context.Context, req *types.ProofRequest) (*types.ProofResult, error) {
	key := dedupeKey(req)
	run := p.joinShared(ctx, key, req)
	defer p.leaveShared(key, run)

	select {
	case <-run.done:
		if run.err != nil {
			return nil, run.err
		}
		shared := *run.result
		return &shared, nil
	case <-ctx.Done():
		return nil, newStageError(StageExecute, contextError(ctx.Err()))
	}
}

func (p *Pipeline) joinShared(ctx context.Context, key string, req *types.ProofRequest) *sharedRun {
	p.sharedMu.Lock()
	defer p.sharedMu.Unlock()

	if run, ok := p.shared[key]; ok {
		run.waiters++
		sharedRuns.Inc()
		return run
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &sharedRun{cancel: cancel, done: make(chan struct{}), waiters: 1}
	p.shared[key] = run
	go func() {
		defer cancel()
		run.result, run.err = p.runWithTimeout(runCtx, req)
		p.sharedMu.Lock()
		if p.shared[key] == run {
			delete(p.shared, key)
		}
		p.sharedMu.Unlock()
		close(run.done)
	}()
	return run
}

// leaveShared 最后一个等待者离开时取消仍在进行的运行
func (p *Pipeline) leaveShared(key string, run *sharedRun) {
	p.sharedMu.Lock()
	defer p.sharedMu.Unlock()

	run.waiters--
	if run.waiters > 0 {
		return
	}
	select {
	case <-run.done:
		return
	default:
	}
	run.cancel()
	// 已取消的运行不再接纳新的等待者
	if p.shared[key] == run {
		delete(p.shared, key)
	}
}

func dedupeKey(req *types.ProofRequest) string {
	digest := sha256.Sum256(req.Inputs)
	return req.ProgramHash.Hex() + "|" + hex.EncodeToString(digest[:]) + "|" + req.Mode.String()
}

func (p *Pipeline) runWithTimeout(ctx context.Context, req *types.ProofRequest) (*types.ProofResult, error) {
	if p.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.options.RequestTimeout)
		defer cancel()
	}
	result, err := p.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, req *types.ProofRequest) (*types.ProofResult, error) {
	// resolve
	location, err := timed(StageResolve, func() (string, error) { return p.resolve(ctx, req) })
	if err != nil {
		return nil, newStageError(StageResolve, err)
	}

	// fetch
	program, err := timed(StageFetch, func() ([]byte, error) { return p.fetcher.Fetch(ctx, location, req.ProgramHash) })
	if err != nil {
		return nil, newStageError(StageFetch, err)
	}

	// verify：不一致时不进入加载
	if _, err := timed(StageVerify, func() (struct{}, error) { return struct{}{}, p.fetcher.Verify(program, req.ProgramHash) }); err != nil {
		return nil, newStageError(StageVerify, err)
	}

	// load
	inv := p.engine.NewInvocation()
	defer func() {
		if cerr := inv.Close(); cerr != nil && p.logger != nil {
			p.logger.Warnf("清理证明目录失败: %v", cerr)
		}
	}()
	if _, err := timed(StageLoad, func() (struct{}, error) { return struct{}{}, inv.Load(program, req.Inputs) }); err != nil {
		return nil, newStageError(StageLoad, err)
	}

	// execute
	out, err := timed(StageExecute, func() (*types.ProvingOutput, error) { return p.execute(ctx, inv, req) })
	if err != nil {
		return nil, newStageError(StageExecute, err)
	}

	// assemble
	result, err := timed(StageAssemble, func() (*types.ProofResult, error) { return p.assembler.Assemble(req, out) })
	if err != nil {
		return nil, newStageError(StageAssemble, err)
	}
	return result, nil
}

func (p *Pipeline) resolve(ctx context.Context, req *types.ProofRequest) (string, error) {
	location := strings.TrimSpace(req.LocationOverride)
	if location == "" {
		resolver, err := p.resolvers.ForOverride(ctx, req.Registry)
		if err != nil {
			return "", err
		}
		record, err := resolver.Resolve(ctx, req.ProgramHash)
		if err != nil {
			return "", err
		}
		location = record.Location
		if p.logger != nil {
			p.logger.Debugf("解析程序位置: hash=%s location=%s owner=%s", req.ProgramHash, location, record.Owner.Hex())
		}
	}
	if location == "" {
		return "", fmt.Errorf("%w: hash=%s", types.ErrLocationEmpty, req.ProgramHash)
	}
	return location, nil
}

func (p *Pipeline) execute(ctx context.Context, inv coprocessor.Invocation, req *types.ProofRequest) (*types.ProvingOutput, error) {
	switch req.Mode {
	case types.ProvingModeFast:
		return inv.ExecuteFast(ctx)
	case types.ProvingModeFull:
		return inv.ProveFull(ctx)
	case types.ProvingModeFullWithEvm:
		return inv.ProveEvm(ctx, req.Evm)
	default:
		return nil, fmt.Errorf("%w: unknown proving mode %s", types.ErrInvalidRequest, req.Mode)
	}
}

// RunCoprocessor 打包链上数据为程序输入后执行证明
//
// 结果的 Inputs 为序列化后的 {data, sizes}。
func (p *Pipeline) RunCoprocessor(ctx context.Context, req *types.CoprocessorProofRequest) (*types.ProofResult, error) {
	if req == nil {
		return nil, newStageError(StageRequest, fmt.Errorf("%w: nil request", types.ErrInvalidRequest))
	}
	inputs, err := EncodeCoprocessorInputs(req.BlockchainData, req.MaxSizes)
	if err != nil {
		return nil, newStageError(StageRequest, err)
	}
	return p.Run(ctx, &types.ProofRequest{
		ProgramHash:      req.ProgramHash,
		Inputs:           inputs,
		Mode:             req.Mode,
		LocationOverride: req.LocationOverride,
		Evm:              req.Evm,
		Registry:         req.Registry,
	})
}

// EncodeCoprocessorInputs 校验容量上限并序列化输入包
func EncodeCoprocessorInputs(data types.BlockchainData, sizes types.MaxSizes) ([]byte, error) {
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(types.CoprocessorInputBundle{Data: data, Sizes: sizes})
	if err != nil {
		return nil, fmt.Errorf("%w: encode coprocessor inputs: %v", types.ErrInvalidRequest, err)
	}
	return b, nil
}

func timed[T any](stage Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	stageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	return v, err
}

func contextError(err error) error {
	if err == context.DeadlineExceeded {
		return fmt.Errorf("%w: %w", types.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", types.ErrCancelled, err)
}
