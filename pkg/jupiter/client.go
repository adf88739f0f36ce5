package jupiter

import (
	"context"
	"fmt"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/pkg/errs"
	"trench-radar/pkg/httpclient"

	"go.uber.org/zap"
)

// Client Jupiter 新币发现客户端
type Client struct {
	baseURL    string
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewClient(cfg config.JupiterConfig, logger *zap.Logger) *Client {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
		RateLimit: cfg.RateLimit,
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpclient.NewHTTPClient(httpCfg, logger),
		logger:     logger,
	}
}

// GetNewTokens 拉取最新铸造的代币列表
// 非 2xx 或网络错误整体失败，不做部分重试，由任务层把失败转换为 Result
func (c *Client) GetNewTokens(ctx context.Context) ([]NewToken, error) {
	url := fmt.Sprintf("%s/tokens/v1/new", c.baseURL)

	var tokens []NewToken
	if err := c.httpClient.Get(ctx, url, nil, nil, &tokens); err != nil {
		return nil, errs.Upstream("jupiter", err)
	}

	c.logger.Debug("fetched new tokens from jupiter", zap.Int("count", len(tokens)))
	return tokens, nil
}
