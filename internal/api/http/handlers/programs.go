package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apitypes "github.com/weisyn/coprocessor/internal/api/http/types"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/types"
)

// ProgramLister 可枚举的注册表（仅本地注册表）
type ProgramLister interface {
	List(ctx context.Context) ([]types.ProgramRecord, error)
}

// ProgramHandlers 注册表查询接口
type ProgramHandlers struct {
	resolver coprocessor.Resolver
	lister   ProgramLister
}

// NewProgramHandlers 创建注册表查询处理器；lister 可为 nil
func NewProgramHandlers(resolver coprocessor.Resolver, lister ProgramLister) *ProgramHandlers {
	return &ProgramHandlers{resolver: resolver, lister: lister}
}

// RegisterRoutes 注册程序路由
func (h *ProgramHandlers) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/programs/:hash", h.GetProgram)
	if h.lister != nil {
		r.GET("/programs", h.ListPrograms)
	}
}

// GetProgram GET /api/v1/programs/:hash
func (h *ProgramHandlers) GetProgram(c *gin.Context) {
	hash, err := types.ParseProgramHash(c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}
	rec, err := h.resolver.Resolve(c.Request.Context(), hash)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, apitypes.NewProgramResponse(rec))
}

// ListPrograms GET /api/v1/programs
func (h *ProgramHandlers) ListPrograms(c *gin.Context) {
	records, err := h.lister.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]apitypes.ProgramResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, apitypes.NewProgramResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"programs": out})
}
