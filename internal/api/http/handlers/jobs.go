package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/coprocessor/internal/core/jobs"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// JobRunner 任务执行能力
type JobRunner interface {
	Handle(ctx context.Context, jobID uint8, payload []byte) ([]byte, error)
}

// JobHandlers 任务接口
//
// 证明请求同步执行，响应即任务结果。
type JobHandlers struct {
	runner JobRunner
	logger log.Logger
}

// NewJobHandlers 创建任务处理器
func NewJobHandlers(runner JobRunner, logger log.Logger) *JobHandlers {
	return &JobHandlers{runner: runner, logger: logger}
}

// RegisterRoutes 注册任务路由
func (h *JobHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/jobs/:id", h.PostJob)
	r.POST("/proofs", h.PostProof)
	r.POST("/coprocessor/proofs", h.PostCoprocessorProof)
}

// PostJob POST /api/v1/jobs/:id
func (h *JobHandlers) PostJob(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 8)
	if err != nil {
		invalidRequest(c, fmt.Errorf("job id %q: %w", c.Param("id"), err))
		return
	}
	h.handle(c, uint8(id))
}

// PostProof POST /api/v1/proofs
func (h *JobHandlers) PostProof(c *gin.Context) {
	h.handle(c, jobs.JobGenerateProof)
}

// PostCoprocessorProof POST /api/v1/coprocessor/proofs
func (h *JobHandlers) PostCoprocessorProof(c *gin.Context) {
	h.handle(c, jobs.JobCoprocessorProof)
}

func (h *JobHandlers) handle(c *gin.Context, jobID uint8) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": gin.H{
				"kind":    "InvalidRequest",
				"message": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}})
			return
		}
		invalidRequest(c, fmt.Errorf("read body: %w", err))
		return
	}

	out, err := h.runner.Handle(c.Request.Context(), jobID, payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}
