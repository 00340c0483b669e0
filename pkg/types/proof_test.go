package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgramHash(t *testing.T) {
	raw := strings.Repeat("aB", 32)

	h, err := ParseProgramHash(raw)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(raw), h.Hex())
	assert.Equal(t, "0x"+strings.ToLower(raw), h.String())

	prefixed, err := ParseProgramHash("  0x" + raw + "\n")
	require.NoError(t, err)
	assert.Equal(t, h, prefixed)

	for _, bad := range []string{"", "0x", raw[:62], raw + "00", strings.Repeat("zz", 32)} {
		_, err := ParseProgramHash(bad)
		assert.ErrorIs(t, err, ErrInvalidRequest, bad)
	}
	assert.True(t, ProgramHash{}.IsZero())
	assert.False(t, h.IsZero())
}

func TestProgramHash_JSON(t *testing.T) {
	rec := ProgramRecord{Location: "ipfs://Qm", Owner: common.HexToAddress("0x01")}
	rec.Hash[31] = 7
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"hash":"0x`+strings.Repeat("0", 62)+`07"`)

	var back ProgramRecord
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rec, back)
}

func TestParseProvingMode(t *testing.T) {
	tests := map[string]ProvingMode{
		"":            ProvingModeFull,
		"Full":        ProvingModeFull,
		"fast":        ProvingModeFast,
		"FullWithEvm": ProvingModeFullWithEvm,
		"evm":         ProvingModeFullWithEvm,
	}
	for in, want := range tests {
		got, err := ParseProvingMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseProvingMode("turbo")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.False(t, ProvingModeFast.IsSound())
	assert.True(t, ProvingModeFull.IsSound())
	assert.True(t, ProvingModeFullWithEvm.IsSound())
	assert.Equal(t, "ProvingMode(9)", ProvingMode(9).String())
}

func TestRegistryOverride_IsEmpty(t *testing.T) {
	var nilOverride *RegistryOverride
	assert.True(t, nilOverride.IsEmpty())
	assert.True(t, (&RegistryOverride{}).IsEmpty())
	assert.False(t, (&RegistryOverride{RPCURL: "http://x"}).IsEmpty())
}

func TestMaxSizes_Validate(t *testing.T) {
	assert.NoError(t, MaxSizes{MaxReceiptSize: 32, MaxStorageSize: 64, MaxTxSize: 1024}.Validate())
	assert.ErrorIs(t, MaxSizes{MaxReceiptSize: 0, MaxStorageSize: 64, MaxTxSize: 64}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, MaxSizes{MaxReceiptSize: 32, MaxStorageSize: 33, MaxTxSize: 64}.Validate(), ErrInvalidRequest)
}
