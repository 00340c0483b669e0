// Package types 定义HTTP响应格式
package types

import "github.com/weisyn/coprocessor/pkg/types"

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Kind      types.ErrorKind `json:"kind"`
	Stage     string          `json:"stage,omitempty"`
	Message   string          `json:"message"`
	Retryable bool            `json:"retryable"`
	JobID     string          `json:"job_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// ProgramResponse 注册表条目
type ProgramResponse struct {
	Hash     string `json:"hash"`
	Location string `json:"location"`
	Owner    string `json:"owner"`
}

// NewProgramResponse 转换注册表条目
func NewProgramResponse(rec types.ProgramRecord) ProgramResponse {
	return ProgramResponse{Hash: rec.Hash.String(), Location: rec.Location, Owner: rec.Owner.Hex()}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status       string                 `json:"status"`
	Uptime       string                 `json:"uptime"`
	RegistryMode string                 `json:"registry_mode,omitempty"`
	Workers      map[string]interface{} `json:"workers,omitempty"`
}
