package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/model"
	"trench-radar/internal/worker/monitor"
	"trench-radar/internal/worker/service"

	"go.uber.org/zap"
)

// RefreshJob 周期性重拉行情并重算评分，保持榜单数据新鲜
// 两个档位共用同一套更新逻辑，只差候选集查询
type RefreshJob struct {
	name     string
	selectFn func(ctx context.Context) ([]model.Token, error)
	throttle time.Duration
	enricher *service.Enricher
	logger   *zap.Logger
	running  atomic.Bool
}

// NewHotRefreshJob 热档：当前评分最高的前 N 个，最快节奏刷新
func NewHotRefreshJob(cfg config.JobsConfig, tokens dao.TokenDAO, enricher *service.Enricher, logger *zap.Logger) *RefreshJob {
	return &RefreshJob{
		name: "token_refresh_hot",
		selectFn: func(ctx context.Context) ([]model.Token, error) {
			return tokens.ListTopScored(ctx, cfg.RefreshHotLimit)
		},
		throttle: time.Duration(cfg.ThrottleMs) * time.Millisecond,
		enricher: enricher,
		logger:   logger,
	}
}

// NewMidRefreshJob 中档：铸造时长落在中间窗口的代币，节奏与热档错开
func NewMidRefreshJob(cfg config.JobsConfig, tokens dao.TokenDAO, enricher *service.Enricher, logger *zap.Logger) *RefreshJob {
	minAge := time.Duration(cfg.RefreshMidMinAgeMin) * time.Minute
	maxAge := time.Duration(cfg.RefreshMidMaxAgeMin) * time.Minute
	return &RefreshJob{
		name: "token_refresh_mid",
		selectFn: func(ctx context.Context) ([]model.Token, error) {
			return tokens.ListByMintAge(ctx, minAge, maxAge)
		},
		throttle: time.Duration(cfg.ThrottleMs) * time.Millisecond,
		enricher: enricher,
		logger:   logger,
	}
}

func (j *RefreshJob) Run(ctx context.Context) error {
	j.Execute(ctx)
	return nil
}

func (j *RefreshJob) Execute(ctx context.Context) Result {
	return runGuarded(j.name, &j.running, j.logger, func() Result {
		return j.run(ctx)
	})
}

func (j *RefreshJob) run(ctx context.Context) Result {
	tokens, err := j.selectFn(ctx)
	if err != nil {
		return failed(fmt.Sprintf("list refresh candidates failed: %v", err))
	}

	refreshed := 0
	errors := 0
	for _, token := range tokens {
		if ctx.Err() != nil {
			break
		}

		ok, err := j.enricher.EnrichToken(ctx, token)
		if err != nil {
			j.logger.Error("failed to refresh token", zap.String("address", token.Address), zap.Error(err))
			errors++
		} else if ok {
			refreshed++
			monitor.TokensAnalyzed.WithLabelValues(j.name).Inc()
		}

		throttle(ctx, j.throttle)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Refreshed %d tokens, %d errors", refreshed, errors),
		Details: map[string]interface{}{
			"tokensFound":     len(tokens),
			"tokensRefreshed": refreshed,
			"errors":          errors,
		},
	}
}
