package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/monitor"

	"go.uber.org/zap"
)

// CleanupJob 按保留时长删除过期代币，控制表体积
type CleanupJob struct {
	cfg     config.JobsConfig
	tokens  dao.TokenDAO
	logger  *zap.Logger
	running atomic.Bool
}

func NewCleanupJob(cfg config.JobsConfig, tokens dao.TokenDAO, logger *zap.Logger) *CleanupJob {
	return &CleanupJob{
		cfg:    cfg,
		tokens: tokens,
		logger: logger,
	}
}

func (j *CleanupJob) Run(ctx context.Context) error {
	j.Execute(ctx)
	return nil
}

func (j *CleanupJob) Execute(ctx context.Context) Result {
	return runGuarded("token_cleanup", &j.running, j.logger, func() Result {
		return j.run(ctx)
	})
}

func (j *CleanupJob) run(ctx context.Context) Result {
	retention := time.Duration(j.cfg.RetentionHours) * time.Hour
	deleted, err := j.tokens.DeleteOlderThan(ctx, retention)
	if err != nil {
		return failed(fmt.Sprintf("delete old tokens failed: %v", err))
	}

	if deleted > 0 {
		monitor.TokensDeleted.Add(float64(deleted))
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Deleted %d old tokens", deleted),
		Details: map[string]interface{}{
			"tokensDeleted": deleted,
		},
	}
}
