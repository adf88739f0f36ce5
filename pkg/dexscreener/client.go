package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/monitor"
	"trench-radar/pkg/httpclient"

	"go.uber.org/zap"
)

// SleepFunc 可注入的休眠函数，测试时替换以避免真实等待
type SleepFunc func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Client DexScreener 行情客户端
// 429 在客户端内部做有上限的退避重试，重试耗尽退化为"无数据"而不是错误
type Client struct {
	baseURL    string
	chain      string
	backoff    time.Duration
	maxRetries int
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
	sleep      SleepFunc
}

func NewClient(cfg config.DexScreenerConfig, logger *zap.Logger) *Client {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
		RateLimit: cfg.RateLimit,
	}

	backoff := time.Duration(cfg.RetryBackoffSec) * time.Second
	if backoff <= 0 {
		backoff = 60 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		chain:      cfg.Chain,
		backoff:    backoff,
		maxRetries: maxRetries,
		httpClient: httpclient.NewHTTPClient(httpCfg, logger),
		logger:     logger,
		sleep:      defaultSleep,
	}
}

// SetSleep 替换休眠实现
func (c *Client) SetSleep(fn SleepFunc) {
	c.sleep = fn
}

// GetTokenPairs 拉取代币的全部交易对
// 返回 nil, nil 表示该代币暂无行情数据，调用方跳过本轮
func (c *Client) GetTokenPairs(ctx context.Context, address string) ([]Pair, error) {
	url := fmt.Sprintf("%s/token-pairs/v1/%s/%s", c.baseURL, c.chain, address)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var pairs []Pair
		err := c.httpClient.Get(ctx, url, nil, nil, &pairs)
		if err == nil {
			monitor.UpstreamRequests.WithLabelValues("dexscreener", "ok").Inc()
			if len(pairs) == 0 {
				return nil, nil
			}
			return pairs, nil
		}

		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusTooManyRequests {
			monitor.UpstreamRequests.WithLabelValues("dexscreener", "rate_limited").Inc()
			if attempt == c.maxRetries {
				break
			}
			c.logger.Warn("dexscreener rate limited, backing off",
				zap.String("address", address),
				zap.Duration("backoff", c.backoff),
				zap.Int("attempt", attempt+1))
			c.sleep(ctx, c.backoff)
			if ctx.Err() != nil {
				return nil, nil
			}
			continue
		}

		// 其他错误记录后视为无数据，不阻断整批任务
		monitor.UpstreamRequests.WithLabelValues("dexscreener", "error").Inc()
		c.logger.Warn("dexscreener request failed, skip token this cycle",
			zap.String("address", address), zap.Error(err))
		return nil, nil
	}

	c.logger.Warn("dexscreener retries exhausted, skip token this cycle", zap.String("address", address))
	return nil, nil
}
