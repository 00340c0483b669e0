package registry

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/testutil"
	"github.com/weisyn/coprocessor/pkg/types"
)

var contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// fakeCaller 模拟合约调用后端
type fakeCaller struct {
	call func(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

func (f *fakeCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return f.call(ctx, msg)
}

// rpcDataError 实现 rpc.DataError
type rpcDataError struct {
	data interface{}
}

func (e *rpcDataError) Error() string          { return "execution reverted" }
func (e *rpcDataError) ErrorData() interface{} { return e.data }

func customRevert(name string) []byte {
	id := registryABI.Errors[name].ID
	return append([]byte(nil), id[:4]...)
}

func stringRevert(t *testing.T, reason string) []byte {
	t.Helper()
	strType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strType}}.Pack(reason)
	require.NoError(t, err)
	return append(append([]byte(nil), errorStringSelector...), packed...)
}

func TestEthClient_Resolve(t *testing.T) {
	h := testutil.HashOf([]byte("elf"))
	owner := common.HexToAddress("0x00000000000000000000000000000000000a11ce")

	caller := &fakeCaller{call: func(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
		method := registryABI.Methods["getProgramInfo"]
		require.Equal(t, method.ID, msg.Data[:4])
		assert.Equal(t, contractAddr, *msg.To)
		return method.Outputs.Pack("ipfs://Qm1", owner)
	}}

	client := NewEthClient(caller, contractAddr, time.Second, testutil.NewTestLogger())
	rec, err := client.Resolve(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, types.ProgramRecord{Hash: h, Location: "ipfs://Qm1", Owner: owner}, rec)
}

func TestEthClient_IsRegistered(t *testing.T) {
	caller := &fakeCaller{call: func(context.Context, ethereum.CallMsg) ([]byte, error) {
		return registryABI.Methods["isRegistered"].Outputs.Pack(true)
	}}
	client := NewEthClient(caller, contractAddr, 0, nil)
	ok, err := client.IsRegistered(context.Background(), testutil.HashOf([]byte("x")))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEthClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind types.ErrorKind
		wantIs   error
	}{
		{
			name:     "custom ProgramNotFound",
			err:      &rpcDataError{data: hexutil.Encode(customRevert("ProgramNotFound"))},
			wantKind: types.KindNotFound,
			wantIs:   ErrProgramNotFound,
		},
		{
			name:     "custom LocationCannotBeEmpty as bytes",
			err:      &rpcDataError{data: customRevert("LocationCannotBeEmpty")},
			wantKind: types.KindLocationEmpty,
			wantIs:   ErrLocationCannotBeEmpty,
		},
		{
			name:     "Error(string) naming the error",
			err:      &rpcDataError{data: hexutil.Encode(stringRevert(t, "ProgramNotFound()"))},
			wantKind: types.KindNotFound,
			wantIs:   ErrProgramNotFound,
		},
		{
			name:     "unrecognized reason",
			err:      &rpcDataError{data: hexutil.Encode(stringRevert(t, "paused"))},
			wantKind: types.KindRegistryUnavailable,
		},
		{
			name:     "transport failure",
			err:      errors.New("connection refused"),
			wantKind: types.KindRegistryUnavailable,
			wantIs:   types.ErrRegistryUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := &fakeCaller{call: func(context.Context, ethereum.CallMsg) ([]byte, error) {
				return nil, tt.err
			}}
			client := NewEthClient(caller, contractAddr, time.Second, nil)
			_, err := client.Resolve(context.Background(), testutil.HashOf([]byte("y")))
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, types.KindOf(err))
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestEthClient_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	caller := &fakeCaller{call: func(ctx context.Context, _ ethereum.CallMsg) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	client := NewEthClient(caller, contractAddr, time.Second, nil)
	_, err := client.Resolve(ctx, testutil.HashOf([]byte("z")))
	require.Error(t, err)
	assert.Equal(t, types.KindCancelled, types.KindOf(err))
}

func TestDecodeRevert_ShortData(t *testing.T) {
	assert.Nil(t, decodeRevert([]byte{0x01, 0x02}))
	assert.Nil(t, decodeRevert([]byte{0xde, 0xad, 0xbe, 0xef}))
}
