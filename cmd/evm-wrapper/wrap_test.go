package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, dir string, pv []byte) *wrapRequest {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	proofPath := filepath.Join(dir, "inner.proof")
	pvPath := filepath.Join(dir, "inner.pv")
	require.NoError(t, os.WriteFile(proofPath, []byte("succinct-proof"), 0o644))
	require.NoError(t, os.WriteFile(pvPath, []byte(hex.EncodeToString(pv)+"\n"), 0o644))
	return &wrapRequest{
		ProofPath:        proofPath,
		PublicValuesPath: pvPath,
		ProgramHash:      "0x" + strings.Repeat("ab", 32),
		SetupDir:         filepath.Join(dir, "setup"),
		OutputDir:        filepath.Join(dir, "out"),
		Field:            "kb",
	}
}

func TestRunWrap_WritesArtifactsAndReusesSetup(t *testing.T) {
	configureGnarkLogger(false, io.Discard)
	dir := t.TempDir()
	pv := []byte{0xca, 0xfe}
	req := writeInputs(t, dir, pv)

	res, err := runWrap(req)
	require.NoError(t, err)
	assert.True(t, res.SetupGenerated)
	assert.Positive(t, res.Constraints)

	for _, name := range []string{provingKeyFile, verifyingKeyFile, verifierSolFile} {
		assert.FileExists(t, filepath.Join(req.SetupDir, name))
	}

	proof, err := os.ReadFile(filepath.Join(req.OutputDir, proofFile))
	require.NoError(t, err)
	assert.Len(t, proof, 8*fpSize)

	pvOut, err := os.ReadFile(filepath.Join(req.OutputDir, publicValuesFile))
	require.NoError(t, err)
	assert.Equal(t, "cafe", string(pvOut))

	raw, err := os.ReadFile(filepath.Join(req.OutputDir, inputsJSONFile))
	require.NoError(t, err)
	var doc solidityProof
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "0xcafe", doc.PublicValues)
	assert.Len(t, doc.Inputs, numPublicInputs)

	calldata, err := os.ReadFile(filepath.Join(req.OutputDir, calldataFile))
	require.NoError(t, err)
	// 4 字节选择器 + 13 个 uint256
	assert.Len(t, calldata, 4+13*32)

	again, err := runWrap(req)
	require.NoError(t, err)
	assert.False(t, again.SetupGenerated)
}

func TestRunWrap_InvalidArguments(t *testing.T) {
	dir := t.TempDir()

	req := writeInputs(t, dir, []byte{1})
	req.Field = "goldilocks"
	_, err := runWrap(req)
	assert.ErrorContains(t, err, "unsupported field")

	req = writeInputs(t, dir, []byte{1})
	req.ProgramHash = "abcd"
	_, err = runWrap(req)
	assert.ErrorContains(t, err, "32 bytes")

	req = writeInputs(t, dir, []byte{1})
	req.ProofPath = filepath.Join(dir, "missing")
	_, err = runWrap(req)
	assert.ErrorContains(t, err, "read proof")
}

func TestNewStatement_BindsEveryInput(t *testing.T) {
	var hash [32]byte
	base, err := newStatement(hash, []byte("pv"), []byte("proof"))
	require.NoError(t, err)

	other, err := newStatement(hash, []byte("pv2"), []byte("proof"))
	require.NoError(t, err)
	assert.NotEqual(t, base.Commitment, other.Commitment)

	hash[0] = 1
	third, err := newStatement(hash, []byte("pv"), []byte("proof"))
	require.NoError(t, err)
	assert.NotEqual(t, base.Commitment, third.Commitment)
}

func TestRunWrap_ConcurrentFirstSetupSharesOneKeyPair(t *testing.T) {
	configureGnarkLogger(false, io.Discard)
	dir := t.TempDir()
	setupDir := filepath.Join(dir, "setup")

	const n = 4
	var (
		wg        sync.WaitGroup
		errs      = make([]error, n)
		generated atomic.Int32
	)
	for i := 0; i < n; i++ {
		req := writeInputs(t, filepath.Join(dir, fmt.Sprintf("w%d", i)), []byte{byte(i)})
		req.SetupDir = setupDir
		wg.Add(1)
		go func(i int, req *wrapRequest) {
			defer wg.Done()
			res, err := runWrap(req)
			errs[i] = err
			if err == nil && res.SetupGenerated {
				generated.Add(1)
			}
		}(i, req)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "wrap %d", i)
	}
	assert.EqualValues(t, 1, generated.Load())

	req := writeInputs(t, filepath.Join(dir, "after"), []byte{0xff})
	req.SetupDir = setupDir
	res, err := runWrap(req)
	require.NoError(t, err)
	assert.False(t, res.SetupGenerated)

	entries, err := os.ReadDir(setupDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
