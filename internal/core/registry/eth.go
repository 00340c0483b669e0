package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

// defaultCallTimeout 单次合约调用超时
const defaultCallTimeout = 10 * time.Second

// EthClient 链上注册表只读客户端
type EthClient struct {
	contract    *bind.BoundContract
	address     common.Address
	callTimeout time.Duration
	logger      log.Logger
}

var _ coprocessor.Resolver = (*EthClient)(nil)

// NewEthClient 基于合约调用后端创建客户端
func NewEthClient(caller bind.ContractCaller, address common.Address, callTimeout time.Duration, logger log.Logger) *EthClient {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &EthClient{
		contract:    bind.NewBoundContract(address, registryABI, caller, nil, nil),
		address:     address,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Address 合约地址
func (c *EthClient) Address() common.Address {
	return c.address
}

// Resolve 实现 Resolver
func (c *EthClient) Resolve(ctx context.Context, hash types.ProgramHash) (types.ProgramRecord, error) {
	start := time.Now()
	rec, err := c.GetProgramInfo(ctx, hash)
	observeResolve(sourceEth, start, err)
	return rec, err
}

// GetProgramInfo 查询位置与所有者
func (c *EthClient) GetProgramInfo(ctx context.Context, hash types.ProgramHash) (types.ProgramRecord, error) {
	out, err := c.call(ctx, "getProgramInfo", hash)
	if err != nil {
		return types.ProgramRecord{}, err
	}
	if len(out) != 2 {
		return types.ProgramRecord{}, WrapUnavailableError("getProgramInfo", hash, fmt.Errorf("unexpected %d return values", len(out)))
	}
	location, ok1 := out[0].(string)
	owner, ok2 := out[1].(common.Address)
	if !ok1 || !ok2 {
		return types.ProgramRecord{}, WrapUnavailableError("getProgramInfo", hash, errors.New("unexpected return types"))
	}
	if c.logger != nil {
		c.logger.Debugf("注册表解析: hash=%s location=%s owner=%s", hash, location, owner.Hex())
	}
	return types.ProgramRecord{Hash: hash, Location: location, Owner: owner}, nil
}

// IsRegistered 查询是否登记；传输失败仍然返回错误
func (c *EthClient) IsRegistered(ctx context.Context, hash types.ProgramHash) (bool, error) {
	out, err := c.call(ctx, "isRegistered", hash)
	if err != nil {
		return false, err
	}
	registered, _ := out[0].(bool)
	return registered, nil
}

func (c *EthClient) call(ctx context.Context, method string, hash types.ProgramHash) ([]interface{}, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: callCtx}, &out, method, [32]byte(hash))
	if err == nil {
		return out, nil
	}

	if revert := revertFromError(err); revert != nil {
		return nil, fmt.Errorf("%w: hash=%s", revert, hash)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, fmt.Errorf("%w: registry call %s: %w", types.ErrCancelled, method, ctx.Err())
	}
	return nil, WrapUnavailableError(method, hash, err)
}

// revertFromError 从 RPC 错误中提取合约 revert
func revertFromError(err error) error {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}
	var data []byte
	switch v := dataErr.ErrorData().(type) {
	case string:
		b, decErr := hexutil.Decode(v)
		if decErr != nil {
			return nil
		}
		data = b
	case []byte:
		data = v
	default:
		return nil
	}
	return decodeRevert(data)
}

// errorStringSelector Error(string) 的选择器
var errorStringSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// decodeRevert 把 revert 数据映射到注册表错误
//
// 依次尝试自定义错误选择器与 Error(string) 消息中的错误名。
func decodeRevert(data []byte) error {
	if len(data) < 4 {
		return nil
	}
	for name, e := range registryABI.Errors {
		if bytes.Equal(e.ID[:4], data[:4]) {
			if re, ok := revertsByName[name]; ok {
				return re
			}
		}
	}
	if bytes.Equal(data[:4], errorStringSelector) {
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return nil
		}
		for name, re := range revertsByName {
			if strings.Contains(reason, name) {
				return re
			}
		}
		return fmt.Errorf("%w: unrecognized revert %q", types.ErrRegistryUnavailable, reason)
	}
	return nil
}
