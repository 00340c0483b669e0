//go:build unix

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	pipelineconfig "github.com/weisyn/coprocessor/internal/config/pipeline"
	"github.com/weisyn/coprocessor/internal/core/engine"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/process"
	"github.com/weisyn/coprocessor/internal/testutil"
	"github.com/weisyn/coprocessor/pkg/types"
)

// sleepingWrapper 记录自身 PID 后长时间休眠
const sleepingWrapper = `#!/bin/sh
echo $$ > %q
exec sleep 30
`

func processEngine(t *testing.T, pidFile string) *engine.Engine {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "evm.sh")
	require.NoError(t, os.WriteFile(script, []byte(fmt.Sprintf(sleepingWrapper, pidFile)), 0o755))

	opts := engineconfig.New(nil).GetOptions()
	opts.WorkDir = filepath.Join(dir, "work")
	opts.Workers = 1
	opts.MaxCycles = 1 << 20
	opts.Evm.SetupDir = filepath.Join(dir, "setup")

	runner := process.NewRunner(0, testutil.NewTestLogger())
	eng, err := engine.New(opts, engine.NewGnarkProver(nil), engine.NewEvmWrapper(script, nil, runner, nil), nil, testutil.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(eng.Pool().Stop)
	return eng
}

func readPID(t *testing.T, path string) int {
	t.Helper()
	var pid int
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(b)))
		return err == nil && pid > 0
	}, 30*time.Second, 20*time.Millisecond, "wrapper never started")
	return pid
}

func processGone(pid int) bool {
	return errors.Is(unix.Kill(pid, 0), unix.ESRCH)
}

func TestPipeline_CancelKillsEvmWrapper(t *testing.T) {
	for _, dedupe := range []bool{false, true} {
		t.Run(fmt.Sprintf("dedupe=%t", dedupe), func(t *testing.T) {
			program := testutil.EchoELF()
			pidFile := filepath.Join(t.TempDir(), "wrapper.pid")
			opts := pipelineconfig.New(nil).GetOptions()
			opts.DedupeIdenticalRequests = dedupe
			p := New(&staticFactory{resolver: &staticResolver{record: types.ProgramRecord{Location: "file:///p.elf"}}},
				&fakeFetcher{program: program}, processEngine(t, pidFile), opts, testutil.NewTestLogger())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			errCh := make(chan error, 1)
			go func() {
				_, err := p.Run(ctx, &types.ProofRequest{ProgramHash: testutil.HashOf(program), Inputs: []byte{1}, Mode: types.ProvingModeFullWithEvm})
				errCh <- err
			}()

			pid := readPID(t, pidFile)
			require.False(t, processGone(pid))
			cancel()

			select {
			case err := <-errCh:
				assert.Equal(t, types.KindCancelled, types.KindOf(err))
			case <-time.After(10 * time.Second):
				t.Fatal("Run did not return after cancel")
			}
			assert.Eventually(t, func() bool { return processGone(pid) }, 5*time.Second, 20*time.Millisecond)
		})
	}
}
