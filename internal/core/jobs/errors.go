package jobs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weisyn/coprocessor/internal/core/pipeline"
	"github.com/weisyn/coprocessor/pkg/types"
)

// ErrUnknownJob 未知任务编号
var ErrUnknownJob = errors.New("unknown job id")

// JobError 任务失败结果，可直接序列化返回给调用方
type JobError struct {
	JobID     string          `json:"job_id,omitempty"`
	Kind      types.ErrorKind `json:"kind"`
	Stage     string          `json:"stage,omitempty"`
	Message   string          `json:"message"`
	Retryable bool            `json:"retryable"`

	err error
}

func (e *JobError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("job %s failed at %s: %s: %s", e.JobID, e.Stage, e.Kind, e.Message)
	}
	return fmt.Sprintf("job %s failed: %s: %s", e.JobID, e.Kind, e.Message)
}

// Unwrap 返回原始错误
func (e *JobError) Unwrap() error {
	return e.err
}

// JSON 序列化错误结果
func (e *JobError) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// NewJobError 从任意错误构造任务错误
func NewJobError(jobID string, err error) *JobError {
	var je *JobError
	if errors.As(err, &je) {
		return je
	}
	kind := types.KindOf(err)
	if kind == types.KindUnknown {
		kind = types.KindInvalidRequest
		err = fmt.Errorf("%w: %w", types.ErrInvalidRequest, err)
	}
	out := &JobError{
		JobID:     jobID,
		Kind:      kind,
		Message:   err.Error(),
		Retryable: types.Retryable(err),
		err:       err,
	}
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		out.Stage = string(perr.Stage)
		out.Message = perr.Err.Error()
	}
	return out
}
