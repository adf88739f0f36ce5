package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSchedulerRunsImmediatelyAfterOffset(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	var runs int32
	s.RegisterJob("tick", time.Hour, 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	// 偏移到期前不执行
	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)
}

func TestSchedulerTicksOnInterval(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	var runs int32
	s.RegisterJob("tick", 20*time.Millisecond, 0, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) >= 3
	}, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)

	// 停止后不再执行
	stopped := atomic.LoadInt32(&runs)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&runs))
}

// Stop 要取消正在执行中的作业，且与作业协程写 cancel 不冲突（-race 下可验）
func TestSchedulerStopCancelsRunningJob(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	started := make(chan struct{})
	cancelled := make(chan struct{})
	s.RegisterJob("blocker", time.Hour, 0, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("job never started")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running job was not cancelled by Stop")
	}
}
