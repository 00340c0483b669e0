package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	"github.com/weisyn/coprocessor/internal/core/engine/riscv"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/process"
	"github.com/weisyn/coprocessor/internal/testutil"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/types"
)

func TestGnarkProver_ProveFullRoundTrip(t *testing.T) {
	opts := testEngineOptions(t)
	opts.KeepArtifacts = true
	prover := NewGnarkProver(testutil.NewTestLogger())
	eng := newTestEngine(t, opts, prover, nil)

	program := testutil.EchoELF()
	inv := eng.NewInvocation()
	require.NoError(t, inv.Load(program, []byte("hello")))
	out, err := inv.ProveFull(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = inv.Close() })

	assert.Equal(t, coprocessor.StateProved, inv.State())
	assert.Equal(t, []byte("hello"), out.PublicValues)
	assert.NotEmpty(t, out.Proof)
	assert.FileExists(t, filepath.Join(out.OutputDir, VerifyingKeyFile))

	onDisk, err := os.ReadFile(filepath.Join(out.OutputDir, ProofFile))
	require.NoError(t, err)
	assert.Equal(t, out.Proof, onDisk)

	exec, err := execute(context.Background(), mustParse(t, program), []byte("hello"), opts.MaxCycles, 0)
	require.NoError(t, err)
	req := &ProveRequest{
		PublicValues: exec.output,
		ProgramHash:  sha256Sum(program),
		Inputs:       []byte("hello"),
		Report:       exec.report,
	}
	require.NoError(t, prover.Verify(out.Proof, req))

	// 任何公开输入被改动都无法通过校验
	tampered := *req
	tampered.Inputs = []byte("hellO")
	assert.Error(t, prover.Verify(out.Proof, &tampered))
	tampered = *req
	tampered.ProgramHash[0] ^= 1
	assert.Error(t, prover.Verify(out.Proof, &tampered))
}

func TestGnarkProver_RejectsInconsistentReport(t *testing.T) {
	prover := NewGnarkProver(nil)
	_, err := prover.Prove(context.Background(), &ProveRequest{PublicValues: []byte("pv")})
	require.ErrorIs(t, err, ErrPublicValuesMismatch)
}

func TestGnarkProver_Cancelled(t *testing.T) {
	eng := newTestEngine(t, testEngineOptions(t), NewGnarkProver(nil), nil)
	inv := eng.NewInvocation()
	require.NoError(t, inv.Load(testutil.EchoELF(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inv.ProveFull(ctx)
	assert.Equal(t, types.KindCancelled, types.KindOf(err))
}

func TestNewProver_Backends(t *testing.T) {
	runner := process.NewRunner(0, nil)
	opts := engineconfig.New(nil).GetOptions()

	p, err := newProver(opts, runner, nil)
	require.NoError(t, err)
	assert.IsType(t, &GnarkProver{}, p)

	opts.Prover.Backend = engineconfig.ProverBackendCommand
	_, err = newProver(opts, runner, nil)
	assert.ErrorContains(t, err, "prover_command")

	opts.Prover.Command = "pico-prover"
	p, err = newProver(opts, runner, nil)
	require.NoError(t, err)
	assert.IsType(t, &CommandProver{}, p)

	opts.Prover.Backend = engineconfig.ProverBackendNone
	p, err = newProver(opts, runner, nil)
	require.NoError(t, err)
	assert.IsType(t, UnconfiguredProver{}, p)

	opts.Prover.Backend = "sp1"
	_, err = newProver(opts, runner, nil)
	assert.Error(t, err)
}

func mustParse(t *testing.T, program []byte) *riscv.Program {
	t.Helper()
	p, err := riscv.ParseELF(program)
	require.NoError(t, err)
	return p
}
