package job

import (
	"context"
	"sync/atomic"
	"time"

	"trench-radar/internal/worker/monitor"

	"go.uber.org/zap"
)

// Result 任务执行结果，任务入口只返回它，从不向调度器或 HTTP 层抛错
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func skipped() Result {
	return Result{Success: false, Message: "Job already running"}
}

func failed(msg string) Result {
	return Result{Success: false, Message: msg}
}

// runGuarded 每个任务实例一个 atomic 守卫：定时触发与手动触发
// 打到同一实例上，已在跑就直接跳过，不排队不阻塞
func runGuarded(name string, guard *atomic.Bool, logger *zap.Logger, fn func() Result) Result {
	if !guard.CompareAndSwap(false, true) {
		logger.Info("job already running, skipping", zap.String("job", name))
		monitor.JobRuns.WithLabelValues(name, "skipped").Inc()
		return skipped()
	}
	defer guard.Store(false)

	start := time.Now()
	res := fn()
	elapsed := time.Since(start)

	monitor.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if res.Success {
		monitor.JobRuns.WithLabelValues(name, "ok").Inc()
		logger.Info("job completed", zap.String("job", name), zap.String("result", res.Message), zap.Duration("elapsed", elapsed))
	} else {
		monitor.JobRuns.WithLabelValues(name, "failed").Inc()
		logger.Warn("job failed", zap.String("job", name), zap.String("result", res.Message), zap.Duration("elapsed", elapsed))
	}
	return res
}

// throttle 单币之间的限速等待，上下文取消时提前返回
func throttle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
