package handlers

import (
	"net/http"

	"github.com/weisyn/coprocessor/pkg/types"
)

// StatusClientClosedRequest 调用方在响应前断开
const StatusClientClosedRequest = 499

var kindStatus = map[types.ErrorKind]int{
	types.KindInvalidRequest:             http.StatusBadRequest,
	types.KindLocationEmpty:              http.StatusBadRequest,
	types.KindUnsupportedScheme:          http.StatusBadRequest,
	types.KindNotFound:                   http.StatusNotFound,
	types.KindHashMismatch:               http.StatusUnprocessableEntity,
	types.KindLoadFailed:                 http.StatusUnprocessableEntity,
	types.KindRegistryUnavailable:        http.StatusBadGateway,
	types.KindFetchFailed:                http.StatusBadGateway,
	types.KindTimeout:                    http.StatusGatewayTimeout,
	types.KindCancelled:                  StatusClientClosedRequest,
	types.KindProvingFailed:              http.StatusInternalServerError,
	types.KindAssemblyInvariantViolation: http.StatusInternalServerError,
}

// StatusForKind 错误分类对应的HTTP状态码
func StatusForKind(kind types.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
