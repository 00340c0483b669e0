package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/core/pipeline"
	"github.com/weisyn/coprocessor/internal/testutil"
	"github.com/weisyn/coprocessor/pkg/types"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, req *types.ProofRequest) (*types.ProofResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*types.ProofResult)
	return res, args.Error(1)
}

func (m *mockRunner) RunCoprocessor(ctx context.Context, req *types.CoprocessorProofRequest) (*types.ProofResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*types.ProofResult)
	return res, args.Error(1)
}

var testHash = testutil.HashOf([]byte("program"))

func TestDispatcher_GenerateProof(t *testing.T) {
	runner := new(mockRunner)
	d := NewDispatcher(runner, testutil.NewTestLogger())

	registry := "0x00000000000000000000000000000000000000aa"
	runner.On("Run", mock.Anything, mock.MatchedBy(func(req *types.ProofRequest) bool {
		return req.ProgramHash == testHash &&
			assert.ObjectsAreEqual([]byte{0x12, 0x34}, req.Inputs) &&
			req.Mode == types.ProvingModeFullWithEvm &&
			req.LocationOverride == "ipfs://Qm1" &&
			req.Registry != nil && req.Registry.Address == common.HexToAddress(registry) &&
			req.Evm != nil && req.Evm.Field == "kb" && req.Evm.Timeout == 5*time.Minute
	})).Return(&types.ProofResult{
		Mode:              types.ProvingModeFullWithEvm,
		Proof:             []byte{0xAA},
		PublicValues:      []byte{0x12, 0x34},
		VerifierArtifacts: []byte{0xCC},
		Sound:             true,
		ProgramHash:       testHash,
		Inputs:            []byte{0x12, 0x34},
	}, nil).Once()

	payload, err := json.Marshal(ProofRequestWire{
		ProgramHash:             testHash.Hex(),
		Inputs:                  "0x1234",
		ProvingType:             "FullWithEvm",
		ProgramLocationOverride: "ipfs://Qm1",
		RegistryAddressOverride: registry,
		EvmConfig:               &EvmConfigWire{Field: "kb", Timeout: "5m"},
	})
	require.NoError(t, err)

	out, err := d.Handle(context.Background(), JobGenerateProof, payload)
	require.NoError(t, err)

	var res ProofResultWire
	require.NoError(t, json.Unmarshal(out, &res))
	assert.Equal(t, "FullWithEvm", res.ProvingType)
	assert.Equal(t, "0xaa", res.Proof)
	assert.Equal(t, "0x1234", res.PublicValues)
	assert.Equal(t, "0xcc", res.VerifierArtifacts)
	assert.Equal(t, testHash.String(), res.ProgramHash)
	assert.True(t, res.Sound)
	runner.AssertExpectations(t)
}

func TestDispatcher_CoprocessorProof(t *testing.T) {
	runner := new(mockRunner)
	d := NewDispatcher(runner, nil)

	sizes := types.MaxSizes{MaxReceiptSize: 64, MaxStorageSize: 64, MaxTxSize: 64}
	runner.On("RunCoprocessor", mock.Anything, mock.MatchedBy(func(req *types.CoprocessorProofRequest) bool {
		return req.MaxSizes == sizes && req.Mode == types.ProvingModeFast && len(req.BlockchainData.Transactions) == 1
	})).Return(&types.ProofResult{Mode: types.ProvingModeFast, Proof: []byte{1}, ProgramHash: testHash}, nil).Once()

	payload := []byte(`{
		"program_hash": "` + testHash.String() + `",
		"proving_type": "Fast",
		"max_sizes": {"max_receipt_size": 64, "max_storage_size": 64, "max_tx_size": 64},
		"blockchain_data": {"transactions": [{
			"transaction_hash": "0x0000000000000000000000000000000000000000000000000000000000000001",
			"from": "0x00000000000000000000000000000000000000aa",
			"value": "0x0",
			"input_data_hex": "",
			"raw_data_hex": ""
		}]}
	}`)
	out, err := d.Handle(context.Background(), JobCoprocessorProof, payload)
	require.NoError(t, err)

	var res ProofResultWire
	require.NoError(t, json.Unmarshal(out, &res))
	assert.False(t, res.Sound)
	assert.Empty(t, res.VerifierArtifacts)
	runner.AssertExpectations(t)
}

func TestDispatcher_InvalidPayloads(t *testing.T) {
	tests := []struct {
		name    string
		job     uint8
		payload string
	}{
		{"unknown job", 9, `{}`},
		{"malformed json", JobGenerateProof, `{"program_hash":`},
		{"unknown field", JobGenerateProof, `{"program_hash":"` + testHash.Hex() + `","inputs":"","programhash":"x"}`},
		{"short hash", JobGenerateProof, `{"program_hash":"0x1234","inputs":""}`},
		{"bad inputs hex", JobGenerateProof, `{"program_hash":"` + testHash.Hex() + `","inputs":"0xZZ"}`},
		{"unknown mode", JobGenerateProof, `{"program_hash":"` + testHash.Hex() + `","inputs":"","proving_type":"Turbo"}`},
		{"bad registry address", JobGenerateProof, `{"program_hash":"` + testHash.Hex() + `","inputs":"","registry_address_override":"0x12"}`},
		{"bad evm timeout", JobGenerateProof, `{"program_hash":"` + testHash.Hex() + `","inputs":"","evm_config":{"timeout":"soon"}}`},
		{"coprocessor short hash", JobCoprocessorProof, `{"program_hash":"abc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			d := NewDispatcher(runner, testutil.NewTestLogger())
			_, err := d.Handle(context.Background(), tt.job, []byte(tt.payload))

			var je *JobError
			require.ErrorAs(t, err, &je)
			assert.Equal(t, types.KindInvalidRequest, je.Kind)
			assert.False(t, je.Retryable)
			assert.NotEmpty(t, je.JobID)
			runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
		})
	}
}

func TestDispatcher_PipelineErrorCarriesStage(t *testing.T) {
	runner := new(mockRunner)
	d := NewDispatcher(runner, testutil.NewTestLogger())
	stageErr := &pipeline.Error{
		Stage: pipeline.StageFetch,
		Kind:  types.KindFetchFailed,
		Err:   errors.Join(types.ErrFetchFailed, errors.New("connection reset")),
	}
	runner.On("Run", mock.Anything, mock.Anything).Return(nil, stageErr).Once()

	_, err := d.Handle(context.Background(), JobGenerateProof, []byte(`{"program_hash":"`+testHash.Hex()+`","inputs":"00"}`))
	var je *JobError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, types.KindFetchFailed, je.Kind)
	assert.Equal(t, "fetch", je.Stage)
	assert.True(t, je.Retryable)
	assert.ErrorIs(t, err, types.ErrFetchFailed)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(je.JSON(), &decoded))
	assert.Equal(t, "FetchFailed", decoded["kind"])
	assert.Equal(t, true, decoded["retryable"])
}

func TestDecodeHex(t *testing.T) {
	b, err := DecodeHex("inputs", "")
	require.NoError(t, err)
	assert.Empty(t, b)

	b, err = DecodeHex("inputs", "0XaBcD")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, b)

	_, err = DecodeHex("inputs", "abc")
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
}
