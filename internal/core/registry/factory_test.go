package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	registryconfig "github.com/weisyn/coprocessor/internal/config/registry"
	"github.com/weisyn/coprocessor/pkg/types"
)

type dialRecorder struct {
	dialed []string
	closed []string
	fail   bool
}

func (d *dialRecorder) dial(_ context.Context, rpcURL string) (bind.ContractCaller, func(), error) {
	if d.fail {
		return nil, nil, errors.New("dial refused")
	}
	d.dialed = append(d.dialed, rpcURL)
	return &fakeCaller{}, func() { d.closed = append(d.closed, rpcURL) }, nil
}

func factoryOptions(limit int) *registryconfig.RegistryOptions {
	opts := registryconfig.New(nil).GetOptions()
	opts.RPCURL = "http://default:8545"
	opts.ContractAddress = contractAddr
	opts.MaxCachedClients = limit
	return opts
}

func TestClientFactory_EmptyOverrideUsesDefault(t *testing.T) {
	local, _ := newLocal(t)
	rec := &dialRecorder{}
	f := NewClientFactory(local, factoryOptions(4), rec.dial, nil)

	r, err := f.ForOverride(context.Background(), nil)
	require.NoError(t, err)
	assert.Same(t, local, r)

	r, err = f.ForOverride(context.Background(), &types.RegistryOverride{})
	require.NoError(t, err)
	assert.Same(t, local, r)
	assert.Empty(t, rec.dialed)
}

func TestClientFactory_OverrideFallsBackToConfigured(t *testing.T) {
	rec := &dialRecorder{}
	f := NewClientFactory(nil, factoryOptions(4), rec.dial, nil)
	other := common.HexToAddress("0x1111111111111111111111111111111111111111")

	r, err := f.ForOverride(context.Background(), &types.RegistryOverride{Address: other})
	require.NoError(t, err)
	eth, ok := r.(*EthClient)
	require.True(t, ok)
	assert.Equal(t, other, eth.Address())
	assert.Equal(t, []string{"http://default:8545"}, rec.dialed)

	r, err = f.ForOverride(context.Background(), &types.RegistryOverride{RPCURL: "http://other:8545"})
	require.NoError(t, err)
	assert.Equal(t, contractAddr, r.(*EthClient).Address())

	// 同一 URL 复用连接
	_, err = f.ForOverride(context.Background(), &types.RegistryOverride{RPCURL: "http://other:8545", Address: other})
	require.NoError(t, err)
	assert.Len(t, rec.dialed, 2)
}

func TestClientFactory_EvictsOldest(t *testing.T) {
	rec := &dialRecorder{}
	f := NewClientFactory(nil, factoryOptions(2), rec.dial, nil)
	ctx := context.Background()

	for _, url := range []string{"http://a", "http://b", "http://c"} {
		_, err := f.ForOverride(ctx, &types.RegistryOverride{RPCURL: url})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"http://a"}, rec.closed)

	f.Close()
	assert.ElementsMatch(t, []string{"http://a", "http://b", "http://c"}, rec.closed)
}

func TestClientFactory_EvictedClientClosesAfterInFlightCall(t *testing.T) {
	ctx := context.Background()
	var (
		mu      sync.Mutex
		closed  = map[string]bool{}
		dials   = map[string]int{}
		once    sync.Once
		entered = make(chan struct{})
		unblock = make(chan struct{})
	)
	dial := func(_ context.Context, rpcURL string) (bind.ContractCaller, func(), error) {
		mu.Lock()
		dials[rpcURL]++
		mu.Unlock()
		caller := &fakeCaller{call: func(context.Context, ethereum.CallMsg) ([]byte, error) {
			if rpcURL == "http://a" {
				once.Do(func() {
					close(entered)
					<-unblock
				})
			}
			return registryABI.Methods["isRegistered"].Outputs.Pack(true)
		}}
		return caller, func() {
			mu.Lock()
			closed[rpcURL] = true
			mu.Unlock()
		}, nil
	}
	isClosed := func(url string) bool {
		mu.Lock()
		defer mu.Unlock()
		return closed[url]
	}

	f := NewClientFactory(nil, factoryOptions(1), dial, nil)
	r, err := f.ForOverride(ctx, &types.RegistryOverride{RPCURL: "http://a"})
	require.NoError(t, err)
	client := r.(*EthClient)

	done := make(chan error, 1)
	go func() {
		_, err := client.IsRegistered(ctx, types.ProgramHash{})
		done <- err
	}()
	<-entered

	// 上限为 1，b 淘汰 a；a 仍有调用在进行，不能关闭
	_, err = f.ForOverride(ctx, &types.RegistryOverride{RPCURL: "http://b"})
	require.NoError(t, err)
	assert.False(t, isClosed("http://a"))

	close(unblock)
	require.NoError(t, <-done)
	assert.True(t, isClosed("http://a"))

	// 淘汰后再次调用重新拨号
	ok, err := client.IsRegistered(ctx, types.ProgramHash{})
	require.NoError(t, err)
	assert.True(t, ok)
	mu.Lock()
	assert.Equal(t, 2, dials["http://a"])
	mu.Unlock()

	f.Close()
	assert.True(t, isClosed("http://b"))
}

func TestClientFactory_Errors(t *testing.T) {
	opts := factoryOptions(2)
	opts.ContractAddress = common.Address{}
	f := NewClientFactory(nil, opts, (&dialRecorder{}).dial, nil)
	_, err := f.ForOverride(context.Background(), &types.RegistryOverride{RPCURL: "http://a"})
	assert.ErrorIs(t, err, types.ErrRegistryUnavailable)

	_, err = f.ForOverride(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrRegistryUnavailable)

	f = NewClientFactory(nil, factoryOptions(2), (&dialRecorder{fail: true}).dial, nil)
	_, err = f.ForOverride(context.Background(), &types.RegistryOverride{RPCURL: "http://a"})
	assert.Equal(t, types.KindRegistryUnavailable, types.KindOf(err))
}
