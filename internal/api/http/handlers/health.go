package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/coprocessor/internal/api/http/types"
)

// PoolStats 工作线程池状态来源
type PoolStats interface {
	GetStats() map[string]interface{}
}

// HealthHandler 健康检查
type HealthHandler struct {
	startTime    time.Time
	registryMode string
	pool         PoolStats
}

// NewHealthHandler 创建健康检查处理器；pool 可为 nil
func NewHealthHandler(registryMode string, pool PoolStats) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), registryMode: registryMode, pool: pool}
}

// GetHealth GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	resp := apitypes.HealthResponse{
		Status:       "ok",
		Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
		RegistryMode: h.registryMode,
	}
	if h.pool != nil {
		resp.Workers = h.pool.GetStats()
	}
	c.JSON(http.StatusOK, resp)
}
