// Package process 提供外部进程的受控执行
//
// 每个子进程都有显式超时、有界的输出捕获，取消或超时时整组进程被杀死；
// WaitDelay 保证孙进程持有管道时 Wait 也能返回。
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// 进程错误
var (
	// ErrNonZeroExit 进程以非零状态退出（含被信号终止）
	ErrNonZeroExit = errors.New("process exited with non-zero status")
	// ErrProcessTimeout 进程超时被杀死
	ErrProcessTimeout = errors.New("process timed out")
	// ErrStartFailed 进程无法启动
	ErrStartFailed = errors.New("process failed to start")
)

const (
	// DefaultOutputLimit stdout/stderr 各自保留的字节数
	DefaultOutputLimit = 64 << 10

	// waitDelay 杀死进程后等待管道关闭的上限
	waitDelay = 2 * time.Second

	// stderrTailInError 错误消息中附带的 stderr 尾部长度
	stderrTailInError = 512
)

// Command 待执行的命令
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env 追加到当前进程环境之后
	Env   []string
	Stdin io.Reader
	// Timeout 0 表示只受 ctx 约束
	Timeout time.Duration
}

// String 便于日志输出
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result 进程执行结果
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
	// Truncated 任一输出流超过上限被截断（保留尾部）
	Truncated bool
}

// Runner 进程执行器，可并发使用
type Runner struct {
	outputLimit int
	logger      log.Logger
}

// NewRunner 创建执行器，outputLimit <= 0 时使用默认值
func NewRunner(outputLimit int, logger log.Logger) *Runner {
	if outputLimit <= 0 {
		outputLimit = DefaultOutputLimit
	}
	return &Runner{outputLimit: outputLimit, logger: logger}
}

// Run 执行命令直到退出、超时或 ctx 结束
//
// 出错时 Result 仍然返回（若进程已启动），供诊断使用。
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	stdout := newTailBuffer(r.outputLimit)
	stderr := newTailBuffer(r.outputLimit)
	c.Stdout = stdout
	c.Stderr = stderr
	setProcessGroup(c)
	c.Cancel = func() error { return killProcessGroup(c) }
	c.WaitDelay = waitDelay

	if r.logger != nil {
		r.logger.Debugf("启动子进程: %s (dir=%s timeout=%s)", cmd, cmd.Dir, cmd.Timeout)
	}
	start := time.Now()
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStartFailed, cmd.Name, err)
	}
	waitErr := c.Wait()

	res := &Result{
		ExitCode:  -1,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Duration:  time.Since(start),
		Truncated: stdout.truncated || stderr.truncated,
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}
	if r.logger != nil {
		r.logger.Debugf("子进程结束: %s exit=%d duration=%s", cmd.Name, res.ExitCode, res.Duration)
	}

	switch {
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return res, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	case runCtx.Err() != nil:
		return res, fmt.Errorf("%w: %s after %s: %w", ErrProcessTimeout, cmd.Name, res.Duration.Round(time.Millisecond), context.DeadlineExceeded)
	case waitErr == nil:
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return res, fmt.Errorf("%w: %s exit=%d: %s", ErrNonZeroExit, cmd.Name, res.ExitCode, tail(res.Stderr, stderrTailInError))
	}
	// 例如 WaitDelay 到期后管道未关闭
	return res, fmt.Errorf("%s: %w", cmd.Name, waitErr)
}

// tailBuffer 只保留最近写入的 limit 字节
type tailBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= b.limit {
		b.buf.Reset()
		b.buf.Write(p[n-b.limit:])
		b.truncated = true
		return n, nil
	}
	if over := b.buf.Len() + n - b.limit; over > 0 {
		b.buf.Next(over)
		b.truncated = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *tailBuffer) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
