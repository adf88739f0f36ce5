package worker

import (
	"context"
	"time"

	"trench-radar/internal/worker/api"
	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/job"
	"trench-radar/internal/worker/monitor"
	"trench-radar/internal/worker/repository"
	"trench-radar/internal/worker/service"
	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/jupiter"

	"go.uber.org/zap"
)

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	apiServer *api.Server
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) *Core {
	// 初始化作业调度器
	scheduler := job.NewScheduler(logger)

	// 初始化repo
	repo := repository.New(cfg, logger)
	tokens := dao.NewTokenDAO(repo.GetDB())

	// 上游客户端与评分/补全服务
	discovery := jupiter.NewClient(cfg.Jupiter, logger)
	market := dexscreener.NewClient(cfg.DexScreener, logger)
	scorer := service.NewScorer(cfg.Scoring)
	enricher := service.NewEnricher(market, scorer, tokens, logger)
	leaderboard := service.NewLeaderboard(tokens, repo.GetMainRDB(), logger)

	// 定时：拉取新铸造代币入库
	importJob := job.NewImportJob(cfg.Jobs, discovery, tokens, repo.GetMQ(), logger)
	scheduler.RegisterJob("token_import",
		secs(cfg.Jobs.ImportIntervalSec), secs(cfg.Jobs.ImportOffsetSec), importJob.Run)

	// 定时：补全窗口内未分析代币的行情并首评
	analysisJob := job.NewAnalysisJob(cfg.Jobs, tokens, enricher, logger)
	scheduler.RegisterJob("token_analysis",
		secs(cfg.Jobs.AnalysisIntervalSec), secs(cfg.Jobs.AnalysisOffsetSec), analysisJob.Run)

	// 定时：高分代币快速刷新 / 中窗口代币常规刷新
	hotRefresh := job.NewHotRefreshJob(cfg.Jobs, tokens, enricher, logger)
	scheduler.RegisterJob("token_refresh_hot",
		secs(cfg.Jobs.RefreshHotIntervalSec), secs(cfg.Jobs.RefreshHotOffsetSec), hotRefresh.Run)

	midRefresh := job.NewMidRefreshJob(cfg.Jobs, tokens, enricher, logger)
	scheduler.RegisterJob("token_refresh_mid",
		secs(cfg.Jobs.RefreshMidIntervalSec), secs(cfg.Jobs.RefreshMidOffsetSec), midRefresh.Run)

	// 定时：基于库内字段重算全窗口评分
	scoringJob := job.NewScoringJob(cfg.Jobs, tokens, scorer, logger)
	scheduler.RegisterJob("token_scoring",
		secs(cfg.Jobs.ScoringIntervalSec), secs(cfg.Jobs.ScoringOffsetSec), scoringJob.Run)

	// 定时：清理过期代币
	cleanupJob := job.NewCleanupJob(cfg.Jobs, tokens, logger)
	scheduler.RegisterJob("token_cleanup",
		secs(cfg.Jobs.CleanupIntervalSec), secs(cfg.Jobs.CleanupOffsetSec), cleanupJob.Run)

	apiServer := api.NewServer(cfg.API, api.Deps{
		ImportJob:   importJob,
		AnalysisJob: analysisJob,
		ScoringJob:  scoringJob,
		Leaderboard: leaderboard,
	}, logger)

	core := &Core{
		cfg:       cfg,
		repo:      repo,
		tl:        logger,
		scheduler: scheduler,
		apiServer: apiServer,
		metrics:   monitor.NewMetricsServer(cfg.Monitor),
	}
	return core
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting worker core...")
	// 启动监控服务
	if c.metrics != nil {
		c.metrics.Run()
	}

	// 启动 HTTP 服务
	c.apiServer.Run()

	// 启动调度器
	c.scheduler.Start(ctx)
	c.tl.Info("Worker started successfully")

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down worker due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping worker core...")

	// 停止对外服务，不再接受新请求
	c.apiServer.Stop()

	// 停止调度器
	if c.scheduler != nil {
		c.scheduler.Stop(ctx)
	}

	// 停止 Prometheus 监控服务
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}

	c.repo.Close()

	c.tl.Info("Worker core stopped.")
}
