package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/service"

	"go.uber.org/zap"
)

// ScoringJob 全量重算窗口内代币的综合评分
// 不重新拉取行情，只基于库里已有字段重跑评分公式，保证配置调整后分数收敛
type ScoringJob struct {
	cfg     config.JobsConfig
	tokens  dao.TokenDAO
	scorer  *service.Scorer
	logger  *zap.Logger
	running atomic.Bool
}

func NewScoringJob(cfg config.JobsConfig, tokens dao.TokenDAO, scorer *service.Scorer, logger *zap.Logger) *ScoringJob {
	return &ScoringJob{
		cfg:    cfg,
		tokens: tokens,
		scorer: scorer,
		logger: logger,
	}
}

func (j *ScoringJob) Run(ctx context.Context) error {
	j.Execute(ctx)
	return nil
}

func (j *ScoringJob) Execute(ctx context.Context) Result {
	return runGuarded("token_scoring", &j.running, j.logger, func() Result {
		return j.run(ctx)
	})
}

func (j *ScoringJob) run(ctx context.Context) Result {
	window := time.Duration(j.cfg.ScoringWindowHours) * time.Hour
	tokens, err := j.tokens.ListMintedWithin(ctx, window)
	if err != nil {
		return failed(fmt.Sprintf("list tokens for scoring failed: %v", err))
	}

	scored := 0
	errors := 0
	now := time.Now()
	for _, token := range tokens {
		if ctx.Err() != nil {
			break
		}

		score := j.scorer.Score(service.ScoreInputFromToken(token))
		if err := j.tokens.UpdateScore(ctx, token.Address, score, now); err != nil {
			j.logger.Error("failed to update token score", zap.String("address", token.Address), zap.Error(err))
			errors++
			continue
		}
		scored++
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Scored %d tokens, %d errors", scored, errors),
		Details: map[string]interface{}{
			"tokensFound":  len(tokens),
			"tokensScored": scored,
			"errors":       errors,
		},
	}
}
