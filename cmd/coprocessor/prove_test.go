package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/core/jobs"
)

func TestBuildPayload_Flags(t *testing.T) {
	dir := t.TempDir()
	inputsFile := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(inputsFile, []byte{0xde, 0xad}, 0o644))

	jobID, payload, err := buildPayload(&proveFlags{
		hash:       "0x01",
		inputs:     "ignored",
		inputsFile: inputsFile,
		mode:       "Fast",
		evmField:   "kb",
		job:        jobs.JobGenerateProof,
	})
	require.NoError(t, err)
	assert.Equal(t, jobs.JobGenerateProof, jobID)

	var req jobs.ProofRequestWire
	require.NoError(t, json.Unmarshal(payload, &req))
	assert.Equal(t, "dead", req.Inputs)
	assert.Equal(t, "Fast", req.ProvingType)
	require.NotNil(t, req.EvmConfig)
	assert.Equal(t, "kb", req.EvmConfig.Field)
}

func TestBuildPayload_PayloadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"program_hash":"00"}`), 0o644))

	jobID, payload, err := buildPayload(&proveFlags{job: jobs.JobCoprocessorProof, payload: path})
	require.NoError(t, err)
	assert.Equal(t, jobs.JobCoprocessorProof, jobID)
	assert.JSONEq(t, `{"program_hash":"00"}`, string(payload))
}

func TestBuildPayload_CoprocessorNeedsPayload(t *testing.T) {
	_, _, err := buildPayload(&proveFlags{job: jobs.JobCoprocessorProof})
	assert.Error(t, err)
}

func TestAppOptions_Profile(t *testing.T) {
	defer func(old GlobalFlags) { globalFlags = old }(globalFlags)

	globalFlags = GlobalFlags{Profile: "local"}
	opts, err := appOptions(false)
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	globalFlags = GlobalFlags{Profile: "nope"}
	_, err = appOptions(true)
	assert.Error(t, err)
}
