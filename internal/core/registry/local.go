package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/coprocessor/pkg/types"
)

// keyPrefix 注册表条目键前缀
const keyPrefix = "registry:program:"

// entry 持久化的注册表条目
type entry struct {
	Location string         `json:"location"`
	Owner    common.Address `json:"owner"`
}

// Local 进程内程序注册表
//
// 写操作串行化，事件在事务提交后、释放写锁前发布，因此事件顺序与事务顺序一致。
type Local struct {
	store  storage.BadgerStore
	bus    event.EventBus
	logger log.Logger

	mu sync.Mutex
}

var _ coprocessor.Resolver = (*Local)(nil)

// NewLocal 创建本地注册表；bus 可为 nil
func NewLocal(store storage.BadgerStore, bus event.EventBus, logger log.Logger) *Local {
	return &Local{store: store, bus: bus, logger: logger}
}

func entryKey(hash types.ProgramHash) []byte {
	return []byte(keyPrefix + hash.Hex())
}

// RegisterProgram 登记程序，调用者成为所有者
func (l *Local) RegisterProgram(ctx context.Context, caller common.Address, hash types.ProgramHash, location string) error {
	if location == "" {
		return ErrLocationCannotBeEmpty
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		exists, err := tx.Exists(entryKey(hash))
		if err != nil {
			return err
		}
		if exists {
			return ErrProgramAlreadyExists
		}
		return putEntry(tx, hash, entry{Location: location, Owner: caller})
	})
	if err != nil {
		return l.wrap("registerProgram", hash, err)
	}
	l.publish(ProgramRegistered{Hash: hash, Owner: caller, Location: location})
	return nil
}

// UpdateProgramLocation 所有者更新位置
func (l *Local) UpdateProgramLocation(ctx context.Context, caller common.Address, hash types.ProgramHash, newLocation string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var old string
	err := l.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		e, err := getEntry(tx, hash)
		if err != nil {
			return err
		}
		if e.Owner != caller {
			return ErrNotProgramOwner
		}
		if newLocation == "" {
			return ErrLocationCannotBeEmpty
		}
		old = e.Location
		e.Location = newLocation
		return putEntry(tx, hash, e)
	})
	if err != nil {
		return l.wrap("updateProgramLocation", hash, err)
	}
	l.publish(ProgramLocationUpdated{Hash: hash, OldLocation: old, NewLocation: newLocation})
	return nil
}

// TransferProgramEntryOwnership 所有者转移条目
func (l *Local) TransferProgramEntryOwnership(ctx context.Context, caller common.Address, hash types.ProgramHash, newOwner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.RunInTransaction(ctx, func(tx storage.BadgerTransaction) error {
		e, err := getEntry(tx, hash)
		if err != nil {
			return err
		}
		if e.Owner != caller {
			return ErrNotProgramOwner
		}
		if newOwner == (common.Address{}) {
			return ErrInvalidNewOwner
		}
		e.Owner = newOwner
		return putEntry(tx, hash, e)
	})
	if err != nil {
		return l.wrap("transferProgramEntryOwnership", hash, err)
	}
	l.publish(ProgramOwnershipTransferred{Hash: hash, PreviousOwner: caller, NewOwner: newOwner})
	return nil
}

// GetProgramInfo 查询条目
func (l *Local) GetProgramInfo(ctx context.Context, hash types.ProgramHash) (types.ProgramRecord, error) {
	raw, err := l.store.Get(ctx, entryKey(hash))
	if err != nil {
		return types.ProgramRecord{}, l.wrap("getProgramInfo", hash, err)
	}
	if raw == nil {
		return types.ProgramRecord{}, fmt.Errorf("%w: hash=%s", ErrProgramNotFound, hash)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return types.ProgramRecord{}, WrapUnavailableError("getProgramInfo", hash, err)
	}
	return types.ProgramRecord{Hash: hash, Location: e.Location, Owner: e.Owner}, nil
}

// GetProgramLocation 查询位置
func (l *Local) GetProgramLocation(ctx context.Context, hash types.ProgramHash) (string, error) {
	rec, err := l.GetProgramInfo(ctx, hash)
	return rec.Location, err
}

// GetProgramOwner 查询所有者
func (l *Local) GetProgramOwner(ctx context.Context, hash types.ProgramHash) (common.Address, error) {
	rec, err := l.GetProgramInfo(ctx, hash)
	return rec.Owner, err
}

// IsRegistered 是否登记；存储错误按未登记处理
func (l *Local) IsRegistered(ctx context.Context, hash types.ProgramHash) bool {
	ok, err := l.store.Exists(ctx, entryKey(hash))
	if err != nil && l.logger != nil {
		l.logger.Warnf("查询登记状态失败: hash=%s err=%v", hash, err)
	}
	return err == nil && ok
}

// Resolve 实现 Resolver
func (l *Local) Resolve(ctx context.Context, hash types.ProgramHash) (types.ProgramRecord, error) {
	start := time.Now()
	rec, err := l.GetProgramInfo(ctx, hash)
	observeResolve(sourceLocal, start, err)
	return rec, err
}

// List 按哈希排序列出所有条目
func (l *Local) List(ctx context.Context) ([]types.ProgramRecord, error) {
	raw, err := l.store.PrefixScan(ctx, []byte(keyPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", types.ErrRegistryUnavailable, err)
	}
	records := make([]types.ProgramRecord, 0, len(raw))
	for k, v := range raw {
		hash, err := types.ParseProgramHash(strings.TrimPrefix(k, keyPrefix))
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(v, &e); err != nil {
			continue
		}
		records = append(records, types.ProgramRecord{Hash: hash, Location: e.Location, Owner: e.Owner})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Hash.Hex() < records[j].Hash.Hex() })
	return records, nil
}

func (l *Local) publish(e event.Event) {
	if l.bus != nil {
		l.bus.PublishEvent(e)
	}
	if l.logger != nil {
		l.logger.Infof("注册表事件: %s %+v", e.Type(), e.Data())
	}
}

// wrap 注册表错误原样保留，其余存储错误归为 RegistryUnavailable
func (l *Local) wrap(op string, hash types.ProgramHash, err error) error {
	if revert := asRevert(err); revert != nil {
		return fmt.Errorf("%w: hash=%s", revert, hash)
	}
	return WrapUnavailableError(op, hash, err)
}

func asRevert(err error) *RevertError {
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert
	}
	return nil
}

func getEntry(tx storage.BadgerTransaction, hash types.ProgramHash) (entry, error) {
	raw, err := tx.Get(entryKey(hash))
	if err != nil {
		return entry{}, err
	}
	if raw == nil {
		return entry{}, ErrProgramNotFound
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return entry{}, err
	}
	return e, nil
}

func putEntry(tx storage.BadgerTransaction, hash types.ProgramHash, e entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return tx.Set(entryKey(hash), raw)
}
