package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/job"
	"trench-radar/internal/worker/service"
	"trench-radar/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Trigger 可被 HTTP 手动触发的任务
type Trigger interface {
	Execute(ctx context.Context) job.Result
}

// Server 对外 HTTP 服务：手动触发任务 + 榜单查询 + 健康检查
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

type Deps struct {
	ImportJob   Trigger
	AnalysisJob Trigger
	ScoringJob  Trigger
	Leaderboard *service.Leaderboard
}

func NewServer(cfg config.APIConfig, deps Deps, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware(), traceMiddleware())

	s := &Server{
		srv: &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: engine,
		},
		logger: log,
	}
	s.registerRoutes(engine, deps)
	return s
}

// Handler 暴露路由给测试用
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) registerRoutes(engine *gin.Engine, deps Deps) {
	api := engine.Group("/api")
	api.POST("/import-tokens", triggerHandler(deps.ImportJob))
	api.POST("/analyze-tokens", triggerHandler(deps.AnalysisJob))
	api.POST("/score-tokens", triggerHandler(deps.ScoringJob))
	api.GET("/tokens", s.listTokens(deps.Leaderboard))
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// triggerHandler 同步执行任务，结果原样返回；并发触发时由任务自身的守卫去重
func triggerHandler(t Trigger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := t.Execute(c.Request.Context())
		status := http.StatusOK
		if !result.Success {
			status = http.StatusInternalServerError
		}
		c.JSON(status, result)
	}
}

func (s *Server) listTokens(board *service.Leaderboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens, err := board.Get(c.Request.Context())
		if err != nil {
			s.logger.Error("failed to build leaderboard", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tokens"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tokens": tokens})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// traceMiddleware 从请求头接续 trace 上下文，每个请求一个 span
func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := logger.StartSpanWithRequest(c.Request, "trench-radar", c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) Run() {
	go func() {
		s.logger.Info("api server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server exited", zap.Error(err))
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("api server shutdown failed", zap.Error(err))
	}
}
