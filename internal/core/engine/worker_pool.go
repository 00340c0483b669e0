package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pbnjay/memory"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ============================================================================
// 证明工作线程池
// ============================================================================
//
// 🎯 **设计目的**：
// 模拟执行与完整证明都是CPU/内存密集型任务，由固定数量的工作线程处理，
// 等待队列有界，提交受调用方 ctx 约束。
//
// ⚠️ **注意**：
// - 任务在出队时若其 ctx 已结束则直接跳过
// - Stop 后不再接收新任务，已入队的任务仍会被处理完
//
// ============================================================================

// 工作线程池错误
var (
	ErrPoolStopped = errors.New("engine: worker pool stopped")
)

// Job 交给工作线程执行的任务
type Job func(ctx context.Context) error

type poolTask struct {
	ctx  context.Context
	job  Job
	done chan error
	// enqueuedAt 用于排队耗时统计
	enqueuedAt time.Time
}

// WorkerHealthStatus 工作线程健康状态
type WorkerHealthStatus string

const (
	// WorkerHealthHealthy 健康
	WorkerHealthHealthy WorkerHealthStatus = "healthy"
	// WorkerHealthDegraded 降级（失败率超过一半）
	WorkerHealthDegraded WorkerHealthStatus = "degraded"
)

// proofWorker 单个工作线程
type proofWorker struct {
	workerID int
	tasks    <-chan *poolTask
	logger   log.Logger

	processedCount atomic.Int64
	successCount   atomic.Int64
	errorCount     atomic.Int64

	healthStatus atomic.Value // WorkerHealthStatus
}

func newProofWorker(workerID int, tasks <-chan *poolTask, logger log.Logger) *proofWorker {
	w := &proofWorker{workerID: workerID, tasks: tasks, logger: logger}
	w.healthStatus.Store(WorkerHealthHealthy)
	return w
}

// run 工作线程主循环，任务通道关闭时退出
func (w *proofWorker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range w.tasks {
		w.processTask(task)
	}
}

func (w *proofWorker) processTask(task *poolTask) {
	if err := task.ctx.Err(); err != nil {
		task.done <- err
		return
	}
	queueWait.Observe(time.Since(task.enqueuedAt).Seconds())
	activeWorkers.Inc()
	err := w.safeRun(task)
	activeWorkers.Dec()

	w.processedCount.Add(1)
	if err != nil {
		w.errorCount.Add(1)
	} else {
		w.successCount.Add(1)
	}
	w.updateHealthStatus()
	task.done <- err
}

// safeRun 任务 panic 时转为错误，工作线程继续服务
func (w *proofWorker) safeRun(task *poolTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: worker %d panic: %v", w.workerID, r)
			if w.logger != nil {
				w.logger.Errorf("工作线程%d任务panic: %v", w.workerID, r)
			}
		}
	}()
	return task.job(task.ctx)
}

func (w *proofWorker) updateHealthStatus() {
	errs, ok := w.errorCount.Load(), w.successCount.Load()
	if errs > 0 && float64(errs)/float64(errs+ok) > 0.5 {
		w.healthStatus.Store(WorkerHealthDegraded)
		return
	}
	w.healthStatus.Store(WorkerHealthHealthy)
}

// GetHealthStatus 获取健康状态
func (w *proofWorker) GetHealthStatus() WorkerHealthStatus {
	status, _ := w.healthStatus.Load().(WorkerHealthStatus)
	return status
}

// WorkerPool 固定大小的证明工作线程池
type WorkerPool struct {
	workers []*proofWorker
	tasks   chan *poolTask
	logger  log.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool 创建工作线程池
//
// workerCount <= 0 时按 AutoWorkerCount 计算；queueSize 为等待中任务上限。
func NewWorkerPool(workerCount, queueSize, memoryPerProofMB int, logger log.Logger) *WorkerPool {
	if workerCount <= 0 {
		workerCount = AutoWorkerCount(runtime.NumCPU(), memory.TotalMemory(), memoryPerProofMB)
	}
	if queueSize <= 0 {
		queueSize = workerCount
	}
	p := &WorkerPool{
		tasks:  make(chan *poolTask, queueSize),
		logger: logger,
	}
	for i := 0; i < workerCount; i++ {
		p.workers = append(p.workers, newProofWorker(i, p.tasks, logger))
	}
	return p
}

// AutoWorkerCount 取 CPU 数与内存可容纳证明数中的较小者，至少为 1
//
// totalMemory 为 0（无法探测）时只看 CPU。
func AutoWorkerCount(cpus int, totalMemory uint64, memoryPerProofMB int) int {
	n := cpus
	if totalMemory > 0 && memoryPerProofMB > 0 {
		byMemory := int(totalMemory / (uint64(memoryPerProofMB) << 20))
		if byMemory < n {
			n = byMemory
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Start 启动所有工作线程
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	for _, w := range p.workers {
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	p.started = true
	if p.logger != nil {
		p.logger.Infof("证明工作线程池已启动: workers=%d queue=%d", len(p.workers), cap(p.tasks))
	}
}

// Stop 停止接收任务并等待工作线程退出
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	started := p.started
	p.mu.Unlock()

	if !started {
		for task := range p.tasks {
			task.done <- ErrPoolStopped
		}
		return
	}
	p.wg.Wait()
	if p.logger != nil {
		p.logger.Info("证明工作线程池已停止")
	}
}

// Submit 提交任务并等待完成
//
// 队列已满时阻塞等待空位；ctx 结束时放弃等待。已开始执行的任务通过 ctx 感知取消。
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	task := &poolTask{ctx: ctx, job: job, done: make(chan error, 1), enqueuedAt: time.Now()}

	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		return ErrPoolStopped
	}
	select {
	case p.tasks <- task:
		p.mu.RUnlock()
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-task.done:
		return err
	case <-ctx.Done():
		// 任务仍会在出队时被跳过或在 job 内部感知取消
		return ctx.Err()
	}
}

// Size 工作线程数
func (p *WorkerPool) Size() int {
	return len(p.workers)
}

// GetStats 获取统计信息
func (p *WorkerPool) GetStats() map[string]interface{} {
	var processed, success, errs int64
	healthy, degraded := 0, 0
	for _, w := range p.workers {
		processed += w.processedCount.Load()
		success += w.successCount.Load()
		errs += w.errorCount.Load()
		switch w.GetHealthStatus() {
		case WorkerHealthHealthy:
			healthy++
		case WorkerHealthDegraded:
			degraded++
		}
	}
	return map[string]interface{}{
		"worker_count":     len(p.workers),
		"queue_size":       len(p.tasks),
		"queue_capacity":   cap(p.tasks),
		"total_processed":  processed,
		"total_success":    success,
		"total_errors":     errs,
		"healthy_workers":  healthy,
		"degraded_workers": degraded,
	}
}
