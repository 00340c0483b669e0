package registry

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru/v2"

	registryconfig "github.com/weisyn/coprocessor/internal/config/registry"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/types"
)

// DialFunc 建立合约调用后端
type DialFunc func(ctx context.Context, rpcURL string) (bind.ContractCaller, func(), error)

// dialEthClient 默认使用 ethclient
func dialEthClient(ctx context.Context, rpcURL string) (bind.ContractCaller, func(), error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// pooledCaller 缓存中的一条RPC连接
//
// 被淘汰后等最后一个持有者释放再关闭。
type pooledCaller struct {
	caller  bind.ContractCaller
	close   func()
	refs    int
	evicted bool
}

// ClientFactory 为单请求的注册表覆盖创建 EthClient
//
// 已建立的RPC连接按 URL 放入 LRU，超过上限时淘汰最久未用的连接。
type ClientFactory struct {
	defaultResolver coprocessor.Resolver
	options         *registryconfig.RegistryOptions
	dial            DialFunc
	logger          log.Logger

	// mu 保护 callers 与每个 pooledCaller 的引用计数
	mu      sync.Mutex
	callers *lru.Cache[string, *pooledCaller]
}

var _ coprocessor.ResolverFactory = (*ClientFactory)(nil)

// NewClientFactory 创建工厂；dial 为 nil 时使用 ethclient
func NewClientFactory(defaultResolver coprocessor.Resolver, options *registryconfig.RegistryOptions, dial DialFunc, logger log.Logger) *ClientFactory {
	if options == nil {
		options = registryconfig.New(nil).GetOptions()
	}
	if dial == nil {
		dial = dialEthClient
	}
	size := options.MaxCachedClients
	if size <= 0 {
		size = math.MaxInt32
	}
	// 回调总在持有 mu 时触发（Add / Purge）
	callers, err := lru.NewWithEvict(size, func(_ string, c *pooledCaller) {
		c.evicted = true
		if c.refs == 0 {
			c.shutdown()
		}
	})
	if err != nil {
		panic(err)
	}
	return &ClientFactory{
		defaultResolver: defaultResolver,
		options:         options,
		dial:            dial,
		logger:          logger,
		callers:         callers,
	}
}

// ForOverride 实现 ResolverFactory
//
// 只覆盖 RPC URL 或只覆盖地址时，另一项取配置值。
func (f *ClientFactory) ForOverride(ctx context.Context, override *types.RegistryOverride) (coprocessor.Resolver, error) {
	if override.IsEmpty() {
		if f.defaultResolver == nil {
			return nil, fmt.Errorf("%w: no registry configured", types.ErrRegistryUnavailable)
		}
		return f.defaultResolver, nil
	}

	rpcURL := override.RPCURL
	if rpcURL == "" {
		rpcURL = f.options.RPCURL
	}
	address := override.Address
	if address == (common.Address{}) {
		address = f.options.ContractAddress
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("%w: registry contract address not configured", types.ErrRegistryUnavailable)
	}

	// 先建立一次连接，拨号失败在此处报告
	c, err := f.acquire(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", types.ErrRegistryUnavailable, rpcURL, err)
	}
	f.release(c)
	return NewEthClient(&leasedCaller{factory: f, rpcURL: rpcURL}, address, f.options.CallTimeout, f.logger), nil
}

// Default 默认 Resolver
func (f *ClientFactory) Default() coprocessor.Resolver {
	return f.defaultResolver
}

// acquire 取出或建立 URL 对应的连接并持有一个引用
func (f *ClientFactory) acquire(ctx context.Context, rpcURL string) (*pooledCaller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.callers.Get(rpcURL); ok {
		c.refs++
		return c, nil
	}
	caller, closeFn, err := f.dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	c := &pooledCaller{caller: caller, close: closeFn, refs: 1}
	f.callers.Add(rpcURL, c)
	if f.logger != nil {
		f.logger.Debugf("建立注册表RPC连接: %s (cached=%d)", rpcURL, f.callers.Len())
	}
	return c, nil
}

func (f *ClientFactory) release(c *pooledCaller) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c.refs--
	if c.refs == 0 && c.evicted {
		c.shutdown()
	}
}

func (c *pooledCaller) shutdown() {
	if c.close != nil {
		c.close()
		c.close = nil
	}
}

// Close 关闭所有缓存连接；仍被持有的连接在释放时关闭
func (f *ClientFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callers.Purge()
}

// leasedCaller 每次调用从工厂租用当前连接
//
// 被淘汰的连接不会在调用中途关闭；淘汰后的下一次调用重新拨号。
type leasedCaller struct {
	factory *ClientFactory
	rpcURL  string
}

var _ bind.ContractCaller = (*leasedCaller)(nil)

// CodeAt 实现 bind.ContractCaller
func (l *leasedCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	c, err := l.factory.acquire(ctx, l.rpcURL)
	if err != nil {
		return nil, err
	}
	defer l.factory.release(c)
	return c.caller.CodeAt(ctx, contract, blockNumber)
}

// CallContract 实现 bind.ContractCaller
func (l *leasedCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c, err := l.factory.acquire(ctx, l.rpcURL)
	if err != nil {
		return nil, err
	}
	defer l.factory.release(c)
	return c.caller.CallContract(ctx, call, blockNumber)
}
