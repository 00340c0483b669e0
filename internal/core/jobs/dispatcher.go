package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

// 任务编号
const (
	JobGenerateProof    uint8 = 1
	JobCoprocessorProof uint8 = 2
)

// JobName 任务编号对应的名称
func JobName(id uint8) string {
	switch id {
	case JobGenerateProof:
		return "generate_proof"
	case JobCoprocessorProof:
		return "coprocessor_proof"
	default:
		return fmt.Sprintf("job_%d", id)
	}
}

// Runner 证明流水线能力
type Runner interface {
	Run(ctx context.Context, req *types.ProofRequest) (*types.ProofResult, error)
	RunCoprocessor(ctx context.Context, req *types.CoprocessorProofRequest) (*types.ProofResult, error)
}

// Dispatcher 按任务编号分发载荷
type Dispatcher struct {
	runner Runner
	logger log.Logger
}

// NewDispatcher 创建任务分发器
func NewDispatcher(runner Runner, logger log.Logger) *Dispatcher {
	return &Dispatcher{runner: runner, logger: logger}
}

// Handle 执行一个任务
//
// 成功返回 JSON 编码的 ProofResultWire；失败返回 *JobError。
func (d *Dispatcher) Handle(ctx context.Context, jobID uint8, payload []byte) ([]byte, error) {
	id := uuid.NewString()
	start := time.Now()

	res, err := d.dispatch(ctx, jobID, payload)
	if err != nil {
		je := NewJobError(id, err)
		jobsTotal.WithLabelValues(JobName(jobID), string(je.Kind)).Inc()
		if d.logger != nil {
			d.logger.Warnf("任务失败: job_id=%s job=%s kind=%s stage=%s retryable=%t err=%s",
				id, JobName(jobID), je.Kind, je.Stage, je.Retryable, je.Message)
		}
		return nil, je
	}

	out, err := json.Marshal(NewProofResultWire(res))
	if err != nil {
		return nil, NewJobError(id, fmt.Errorf("%w: encode result: %v", types.ErrAssemblyInvariantViolation, err))
	}
	jobsTotal.WithLabelValues(JobName(jobID), "ok").Inc()
	jobDuration.WithLabelValues(JobName(jobID)).Observe(time.Since(start).Seconds())
	if d.logger != nil {
		d.logger.Infof("任务完成: job_id=%s job=%s mode=%s elapsed=%s", id, JobName(jobID), res.Mode, time.Since(start))
	}
	return out, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, jobID uint8, payload []byte) (*types.ProofResult, error) {
	switch jobID {
	case JobGenerateProof:
		var wire ProofRequestWire
		if err := decodePayload(payload, &wire); err != nil {
			return nil, err
		}
		req, err := wire.ToRequest()
		if err != nil {
			return nil, err
		}
		return d.runner.Run(ctx, req)
	case JobCoprocessorProof:
		var wire CoprocessorRequestWire
		if err := decodePayload(payload, &wire); err != nil {
			return nil, err
		}
		req, err := wire.ToRequest()
		if err != nil {
			return nil, err
		}
		return d.runner.RunCoprocessor(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %w %d", types.ErrInvalidRequest, ErrUnknownJob, jobID)
	}
}

// decodePayload 拒绝未知字段，避免拼写错误的覆盖项被静默忽略
func decodePayload(payload []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode payload: %v", types.ErrInvalidRequest, err)
	}
	return nil
}
