package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/coprocessor/pkg/types"
)

// 注册表事件类型
const (
	EventProgramRegistered           event.EventType = "registry.ProgramRegistered"
	EventProgramLocationUpdated      event.EventType = "registry.ProgramLocationUpdated"
	EventProgramOwnershipTransferred event.EventType = "registry.ProgramOwnershipTransferred"
)

// ProgramRegistered 程序登记事件
type ProgramRegistered struct {
	Hash     types.ProgramHash
	Owner    common.Address
	Location string
}

// Type 实现 event.Event
func (ProgramRegistered) Type() event.EventType { return EventProgramRegistered }

// Data 实现 event.Event
func (e ProgramRegistered) Data() interface{} { return e }

// ProgramLocationUpdated 位置更新事件
type ProgramLocationUpdated struct {
	Hash        types.ProgramHash
	OldLocation string
	NewLocation string
}

// Type 实现 event.Event
func (ProgramLocationUpdated) Type() event.EventType { return EventProgramLocationUpdated }

// Data 实现 event.Event
func (e ProgramLocationUpdated) Data() interface{} { return e }

// ProgramOwnershipTransferred 所有权转移事件
type ProgramOwnershipTransferred struct {
	Hash          types.ProgramHash
	PreviousOwner common.Address
	NewOwner      common.Address
}

// Type 实现 event.Event
func (ProgramOwnershipTransferred) Type() event.EventType {
	return EventProgramOwnershipTransferred
}

// Data 实现 event.Event
func (e ProgramOwnershipTransferred) Data() interface{} { return e }
