// Package fetcher 按位置拉取程序二进制并校验摘要
//
// 支持的位置格式：
//   - http:// / https://：流式读取，受 fetcher.max_program_size 限制
//   - file:// URI 或不带 scheme 的本地路径（fetcher.allow_local_paths）
//   - ipfs://<cid>[/path]：经配置的 HTTP 网关解析
//
// 同一 (location, hash) 的并发拉取共享一次传输；摘要校验通过的程序写入程序缓存。
package fetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/weisyn/coprocessor/pkg/types"
)

// ErrProgramTooLarge 程序超过大小上限
var ErrProgramTooLarge = errors.New("program exceeds max size")

// WrapFetchError 根据原因把传输错误归入 Timeout / Cancelled / FetchFailed
func WrapFetchError(location string, cause error) error {
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		return fmt.Errorf("%w: location=%s, cause=%w", types.ErrTimeout, location, cause)
	case errors.Is(cause, context.Canceled):
		return fmt.Errorf("%w: location=%s, cause=%w", types.ErrCancelled, location, cause)
	default:
		return fmt.Errorf("%w: location=%s, cause=%w", types.ErrFetchFailed, location, cause)
	}
}

// WrapHashMismatchError 摘要不一致
func WrapHashMismatchError(expected, actual types.ProgramHash) error {
	return fmt.Errorf("%w: expected=%s, actual=%s", types.ErrHashMismatch, expected, actual)
}
