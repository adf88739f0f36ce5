package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/monitor"
	"trench-radar/internal/worker/service"

	"go.uber.org/zap"
)

// AnalysisJob 给新导入且未分析过的代币做首次行情分析与评分
type AnalysisJob struct {
	cfg      config.JobsConfig
	tokens   dao.TokenDAO
	enricher *service.Enricher
	logger   *zap.Logger
	running  atomic.Bool
}

func NewAnalysisJob(cfg config.JobsConfig, tokens dao.TokenDAO, enricher *service.Enricher, logger *zap.Logger) *AnalysisJob {
	return &AnalysisJob{cfg: cfg, tokens: tokens, enricher: enricher, logger: logger}
}

func (j *AnalysisJob) Run(ctx context.Context) error {
	j.Execute(ctx)
	return nil
}

func (j *AnalysisJob) Execute(ctx context.Context) Result {
	return runGuarded("token_analysis", &j.running, j.logger, func() Result {
		return j.run(ctx)
	})
}

func (j *AnalysisJob) run(ctx context.Context) Result {
	window := time.Duration(j.cfg.AnalysisWindowMin) * time.Minute
	tokens, err := j.tokens.ListUnanalyzed(ctx, window)
	if err != nil {
		return failed(fmt.Sprintf("list unanalyzed tokens failed: %v", err))
	}

	j.logger.Info("found tokens to analyze", zap.Int("count", len(tokens)))

	analyzed := 0
	for _, token := range tokens {
		if ctx.Err() != nil {
			break
		}

		// 单币失败只记日志，继续下一个
		ok, err := j.enricher.EnrichToken(ctx, token)
		if err != nil {
			j.logger.Error("failed to analyze token", zap.String("address", token.Address), zap.Error(err))
		} else if ok {
			analyzed++
			monitor.TokensAnalyzed.WithLabelValues("token_analysis").Inc()
		}

		// 限速，避免打爆上游
		throttle(ctx, time.Duration(j.cfg.ThrottleMs)*time.Millisecond)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Analyzed %d tokens", analyzed),
		Details: map[string]interface{}{
			"tokensFound":    len(tokens),
			"tokensAnalyzed": analyzed,
		},
	}
}
