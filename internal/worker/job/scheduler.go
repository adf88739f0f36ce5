package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc 定义作业执行函数
type JobFunc func(ctx context.Context) error

// Scheduler 作业调度器
type Scheduler struct {
	jobs    map[string]*ScheduledJob
	running bool
	mu      sync.Mutex
	logger  *zap.Logger
}

// ScheduledJob 表示一个调度的作业
type ScheduledJob struct {
	name     string
	interval time.Duration
	offset   time.Duration
	fn       JobFunc
	stopCh   chan struct{}
	done     sync.WaitGroup

	// cancel 由作业协程写、Stop 读，用 mu 保护
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler 创建调度器
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*ScheduledJob),
		logger: logger,
	}
}

// RegisterJob 注册作业，offset 为首次执行前的启动错峰延迟
func (s *Scheduler) RegisterJob(name string, interval, offset time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[name] = &ScheduledJob{
		name:     name,
		interval: interval,
		offset:   offset,
		fn:       fn,
		stopCh:   make(chan struct{}),
	}

	s.logger.Info("Registered job",
		zap.String("job", name),
		zap.Duration("interval", interval),
		zap.Duration("offset", offset))
}

// Start 启动调度器
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.running = true

	for _, job := range s.jobs {
		// 对每个作业创建副本以避免闭包陷阱
		j := job
		j.done.Add(1)

		go func() {
			defer j.done.Done()
			s.runJob(ctx, j)
		}()
	}
}

// Stop 停止调度器
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false

	// 关闭所有作业的停止通道
	for _, job := range s.jobs {
		job.mu.Lock()
		if job.cancel != nil {
			job.cancel() // 调用 cancel 来提前终止任务
		}
		job.mu.Unlock()
		close(job.stopCh)
	}
	s.mu.Unlock()

	s.logger.Warn("Stopping scheduler...")

	// 等待所有作业完成
	wg := &sync.WaitGroup{}
	for _, job := range s.jobs {
		wg.Add(1)
		go func(j *ScheduledJob) {
			defer wg.Done()
			waitCh := make(chan struct{})
			go func() {
				j.done.Wait()
				close(waitCh)
			}()

			select {
			case <-waitCh:
				return
			case <-ctx.Done():
				s.logger.Warn("Context deadline exceeded while waiting for job to stop",
					zap.String("job", j.name))
				return
			}
		}(job)
	}

	// 等待所有作业或超时
	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		s.logger.Info("All jobs stopped successfully")
	case <-ctx.Done():
		s.logger.Warn("Context deadline exceeded while waiting for jobs to stop")
	}
}

// runJob 运行单个作业
func (s *Scheduler) runJob(ctx context.Context, job *ScheduledJob) {
	s.logger.Info("Running job", zap.String("job", job.name))

	// 启动错峰
	if job.offset > 0 {
		t := time.NewTimer(job.offset)
		select {
		case <-t.C:
		case <-job.stopCh:
			t.Stop()
			return
		case <-ctx.Done():
			t.Stop()
			return
		}
	}

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	// 立即运行一次
	s.executeJob(ctx, job)

	for {
		select {
		case <-ticker.C:
			s.executeJob(ctx, job)
		case <-job.stopCh:
			s.logger.Info("Stopping job", zap.String("job", job.name))
			return
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping job", zap.String("job", job.name))
			return
		}
	}
}

// executeJob 执行作业并处理错误
func (s *Scheduler) executeJob(ctx context.Context, job *ScheduledJob) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.mu.Lock()
	job.cancel = cancel
	job.mu.Unlock()
	defer cancel()

	s.logger.Debug("Starting job execution", zap.String("job", job.name))
	startTime := time.Now()

	if err := job.fn(jobCtx); err != nil {
		s.logger.Error("Job execution failed",
			zap.String("job", job.name),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
	} else {
		s.logger.Debug("Job execution completed",
			zap.String("job", job.name),
			zap.Duration("duration", time.Since(startTime)))
	}
}
