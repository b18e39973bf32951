package utils

import (
	"sync"

	"go.uber.org/zap"
)

// WorkerPool 固定数量协程消费任务队列
// 用于把通知投递等非关键路径的工作移出请求协程
type WorkerPool struct {
	jobs      chan func()
	workerNum int
	wg        sync.WaitGroup
	stopOnce  sync.Once
	log       *zap.Logger
}

// NewWorkerPool 创建协程池，需调用 Start 启动
func NewWorkerPool(workerNum, queueSize int, log *zap.Logger) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		jobs:      make(chan func(), queueSize),
		workerNum: workerNum,
		log:       log,
	}
}

// Start 启动协程池
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(workerID, job)
			}
		}(i)
	}
	p.log.Info("worker pool started", zap.Int("workers", p.workerNum), zap.Int("queue", cap(p.jobs)))
}

// run 单个任务 panic 不会导致 worker 退出
func (p *WorkerPool) run(workerID int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker panic", zap.Int("worker", workerID), zap.Any("panic", r))
		}
	}()
	job()
}

// TrySubmit 提交任务，队列已满时立即返回 false
func (p *WorkerPool) TrySubmit(job func()) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop 停止接收任务，并等待队列中已有任务执行完毕
// Stop 之后不能再调用 TrySubmit
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
