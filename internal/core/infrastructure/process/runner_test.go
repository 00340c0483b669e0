//go:build unix

package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/testutil"
)

func sh(script string) Command {
	return Command{Name: "/bin/sh", Args: []string{"-c", script}}
}

func TestRunner_Success(t *testing.T) {
	r := NewRunner(0, testutil.NewTestLogger())
	cmd := sh(`echo out; echo err 1>&2; echo "$FOO"; pwd`)
	cmd.Env = []string{"FOO=bar"}
	cmd.Dir = t.TempDir()

	res, err := r.Run(context.Background(), cmd)
	require.NoError(t, err)
	assert.Zero(t, res.ExitCode)
	assert.Contains(t, string(res.Stdout), "out\nbar\n")
	assert.Contains(t, string(res.Stdout), cmd.Dir)
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.False(t, res.Truncated)
}

func TestRunner_NonZeroExit(t *testing.T) {
	r := NewRunner(0, nil)
	res, err := r.Run(context.Background(), sh(`echo boom 1>&2; exit 3`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonZeroExit)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunner_TimeoutKillsGroup(t *testing.T) {
	r := NewRunner(0, nil)
	cmd := sh(`sleep 30 & sleep 30; wait`)
	cmd.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := r.Run(context.Background(), cmd)
	assert.ErrorIs(t, err, ErrProcessTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunner_Cancelled(t *testing.T) {
	r := NewRunner(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := r.Run(ctx, sh(`sleep 30`))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrProcessTimeout))
}

func TestRunner_StartFailure(t *testing.T) {
	r := NewRunner(0, nil)
	res, err := r.Run(context.Background(), Command{Name: "/nonexistent/binary"})
	assert.ErrorIs(t, err, ErrStartFailed)
	assert.Nil(t, res)
}

func TestRunner_OutputBounded(t *testing.T) {
	r := NewRunner(16, nil)
	res, err := r.Run(context.Background(), sh(`i=0; while [ $i -lt 100 ]; do echo line$i; i=$((i+1)); done`))
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Stdout, 16)
	assert.True(t, strings.HasSuffix(string(res.Stdout), "line99\n"))
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(4)
	_, _ = b.Write([]byte("ab"))
	_, _ = b.Write([]byte("cd"))
	assert.Equal(t, "abcd", string(b.Bytes()))
	assert.False(t, b.truncated)
	_, _ = b.Write([]byte("e"))
	assert.Equal(t, "bcde", string(b.Bytes()))
	_, _ = b.Write([]byte("123456"))
	assert.Equal(t, "3456", string(b.Bytes()))
	assert.True(t, b.truncated)
}
