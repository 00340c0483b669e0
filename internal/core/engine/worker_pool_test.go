package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/testutil"
)

// TestWorkerPool_BoundsConcurrency 同时运行的任务数不超过工作线程数
func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 8, 0, testutil.NewTestLogger())
	pool.Start()
	defer pool.Stop()

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.Submit(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))

	stats := pool.GetStats()
	assert.Equal(t, int64(8), stats["total_processed"])
	assert.Equal(t, int64(8), stats["total_success"])
}

func TestWorkerPool_PropagatesErrorsAndPanics(t *testing.T) {
	pool := NewWorkerPool(1, 1, 0, nil)
	pool.Start()
	defer pool.Stop()

	boom := errors.New("boom")
	assert.ErrorIs(t, pool.Submit(context.Background(), func(context.Context) error { return boom }), boom)

	err := pool.Submit(context.Background(), func(context.Context) error { panic("bad job") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	// 工作线程在 panic 后继续服务
	assert.NoError(t, pool.Submit(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, 1, pool.GetStats()["degraded_workers"])
}

func TestWorkerPool_CancelWhileQueued(t *testing.T) {
	pool := NewWorkerPool(1, 1, 0, nil)
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = pool.Submit(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	err := pool.Submit(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)

	// 出队时 ctx 已结束的任务被跳过
	require.NoError(t, pool.Submit(context.Background(), func(context.Context) error { return nil }))
	assert.False(t, ran.Load())
}

func TestWorkerPool_Stopped(t *testing.T) {
	pool := NewWorkerPool(1, 1, 0, nil)
	pool.Start()
	pool.Stop()
	pool.Stop()
	assert.ErrorIs(t, pool.Submit(context.Background(), func(context.Context) error { return nil }), ErrPoolStopped)
}

func TestAutoWorkerCount(t *testing.T) {
	const gb = 1 << 30
	tests := []struct {
		name      string
		cpus      int
		memory    uint64
		perProof  int
		wantCount int
	}{
		{"cpu bound", 4, 64 * gb, 2048, 4},
		{"memory bound", 16, 8 * gb, 2048, 4},
		{"unknown memory", 8, 0, 2048, 8},
		{"at least one", 4, 1 * gb, 4096, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCount, AutoWorkerCount(tt.cpus, tt.memory, tt.perProof))
		})
	}
}
