// Package handlers 实现HTTP接口处理器
package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/coprocessor/internal/api/http/middleware"
	apitypes "github.com/weisyn/coprocessor/internal/api/http/types"
	"github.com/weisyn/coprocessor/internal/core/jobs"
	"github.com/weisyn/coprocessor/pkg/types"
)

// writeError 按错误分类写入统一错误响应
func writeError(c *gin.Context, err error) {
	je := jobs.NewJobError("", err)
	detail := apitypes.ErrorDetail{
		Kind:      je.Kind,
		Stage:     je.Stage,
		Message:   je.Message,
		Retryable: je.Retryable,
		JobID:     je.JobID,
		RequestID: middleware.GetRequestID(c),
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusForKind(je.Kind), apitypes.ErrorResponse{Error: detail})
}

func invalidRequest(c *gin.Context, err error) {
	writeError(c, fmt.Errorf("%w: %w", types.ErrInvalidRequest, err))
}
