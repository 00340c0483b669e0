// Package registry 提供程序注册表客户端
//
// 🎯 **两种实现**
//   - EthClient：通过 ethclient 调用链上 ProgramRegistry 合约（只读）
//   - Local：进程内注册表，完整复刻合约语义，BadgerDB 持久化，事件总线广播变更
//
// 注册表自身的错误（合约 revert）保留注册表的分类，不被重新解释。
package registry

import (
	"fmt"

	"github.com/weisyn/coprocessor/pkg/types"
)

// RevertError 注册表拒绝操作（对应合约的命名 revert）
type RevertError struct {
	// Name 合约错误名
	Name string
	kind error
}

func (e *RevertError) Error() string {
	return "registry: " + e.Name
}

// Unwrap 返回对应的分类哨兵
func (e *RevertError) Unwrap() error {
	return e.kind
}

// 注册表错误
var (
	// ErrProgramNotFound 哈希未登记
	ErrProgramNotFound = &RevertError{Name: "ProgramNotFound", kind: types.ErrNotFound}

	// ErrLocationCannotBeEmpty 位置为空
	ErrLocationCannotBeEmpty = &RevertError{Name: "LocationCannotBeEmpty", kind: types.ErrLocationEmpty}

	// ErrNotProgramOwner 调用者不是条目所有者
	ErrNotProgramOwner = &RevertError{Name: "NotProgramOwner", kind: types.ErrInvalidRequest}

	// ErrProgramAlreadyExists 哈希已登记
	ErrProgramAlreadyExists = &RevertError{Name: "ProgramAlreadyExists", kind: types.ErrInvalidRequest}

	// ErrInvalidNewOwner 新所有者为零地址
	ErrInvalidNewOwner = &RevertError{Name: "InvalidNewOwner", kind: types.ErrInvalidRequest}
)

// revertsByName 按合约错误名索引
var revertsByName = map[string]*RevertError{
	ErrProgramNotFound.Name:       ErrProgramNotFound,
	ErrLocationCannotBeEmpty.Name: ErrLocationCannotBeEmpty,
	ErrNotProgramOwner.Name:       ErrNotProgramOwner,
	ErrProgramAlreadyExists.Name:  ErrProgramAlreadyExists,
	ErrInvalidNewOwner.Name:       ErrInvalidNewOwner,
}

// WrapUnavailableError 包装注册表传输错误
func WrapUnavailableError(op string, hash types.ProgramHash, cause error) error {
	return fmt.Errorf("%w: op=%s, hash=%s, cause=%w", types.ErrRegistryUnavailable, op, hash, cause)
}
