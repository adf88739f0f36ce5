package job

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/model"
	"trench-radar/internal/worker/monitor"
	"trench-radar/internal/worker/repository"
	"trench-radar/pkg/errs"
	"trench-radar/pkg/jupiter"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/lib/pq"
	"github.com/segmentio/kafka-go"
	"gorm.io/datatypes"

	"go.uber.org/zap"
)

// DiscoveryClient 新币发现数据源
type DiscoveryClient interface {
	GetNewTokens(ctx context.Context) ([]jupiter.NewToken, error)
}

// ImportJob 拉取新铸造代币并入库
type ImportJob struct {
	cfg       config.JobsConfig
	discovery DiscoveryClient
	tokens    dao.TokenDAO
	mq        repository.MQClient
	logger    *zap.Logger
	running   atomic.Bool
}

func NewImportJob(cfg config.JobsConfig, discovery DiscoveryClient, tokens dao.TokenDAO, mq repository.MQClient, logger *zap.Logger) *ImportJob {
	return &ImportJob{cfg: cfg, discovery: discovery, tokens: tokens, mq: mq, logger: logger}
}

// Run 供调度器使用的入口，内部错误已转换为 Result，不向外抛
func (j *ImportJob) Run(ctx context.Context) error {
	j.Execute(ctx)
	return nil
}

// Execute 执行一轮导入
func (j *ImportJob) Execute(ctx context.Context) Result {
	return runGuarded("token_import", &j.running, j.logger, func() Result {
		return j.run(ctx)
	})
}

func (j *ImportJob) run(ctx context.Context) Result {
	newTokens, err := j.discovery.GetNewTokens(ctx)
	if err != nil {
		return failed(fmt.Sprintf("fetch new tokens failed: %v", err))
	}

	cutoff := time.Now().Add(-time.Duration(j.cfg.ImportCutoffMin) * time.Minute)

	rows := make([]model.Token, 0, len(newTokens))
	for _, t := range newTokens {
		row, err := buildTokenRow(t, cutoff)
		if err != nil {
			j.logger.Debug("skip malformed token", zap.String("mint", t.Mint), zap.Error(err))
			continue
		}
		if row == nil {
			continue // 铸造时间早于窗口
		}
		rows = append(rows, *row)
	}

	inserted, err := j.tokens.InsertNewTokens(ctx, rows)
	if err != nil {
		return failed(fmt.Sprintf("insert tokens failed: %v", err))
	}
	monitor.TokensImported.Add(float64(len(inserted)))

	// 发现接口每轮都会重复返回窗口内的旧币，只为真正新插入的行发事件
	if len(inserted) > 0 {
		j.publishEvents(ctx, pickRows(rows, inserted))
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Imported %d new tokens", len(inserted)),
		Details: map[string]interface{}{
			"tokensFound":    len(newTokens),
			"tokensImported": len(inserted),
		},
	}
}

// pickRows 按地址挑出实际入库的行
func pickRows(rows []model.Token, addrs []string) []model.Token {
	set := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		set[a] = struct{}{}
	}

	out := make([]model.Token, 0, len(addrs))
	for _, r := range rows {
		if _, ok := set[r.Address]; ok {
			out = append(out, r)
		}
	}
	return out
}

// buildTokenRow 单个上游条目转行，校验失败返回 error，超龄返回 nil, nil
func buildTokenRow(t jupiter.NewToken, cutoff time.Time) (*model.Token, error) {
	if _, err := solana.PublicKeyFromBase58(t.Mint); err != nil {
		return nil, errs.Validation("mint", err)
	}

	sec, err := strconv.ParseInt(t.CreatedAt, 10, 64)
	if err != nil {
		return nil, errs.Validation("created_at", err)
	}
	mintDate := time.Unix(sec, 0)

	if !mintDate.After(cutoff) {
		return nil, nil
	}

	row := &model.Token{
		Address:      t.Mint,
		Name:         t.Name,
		Symbol:       t.Symbol,
		MintDate:     mintDate,
		ImportDate:   time.Now(),
		KnownMarkets: pq.StringArray(t.KnownMarkets),
	}

	if t.MintAuthority != nil || t.FreezeAuthority != nil {
		if data, err := sonic.Marshal(map[string]*string{
			"mint_authority":   t.MintAuthority,
			"freeze_authority": t.FreezeAuthority,
		}); err == nil {
			info := datatypes.JSON(data)
			row.SecurityInfo = &info
		}
	}

	return row, nil
}

// publishEvents 新币事件发 MQ，尽力而为，失败不影响导入结果
func (j *ImportJob) publishEvents(ctx context.Context, rows []model.Token) {
	if j.mq == nil {
		return
	}

	msgs := make([]kafka.Message, 0, len(rows))
	for _, row := range rows {
		data, err := sonic.Marshal(model.NewTokenEventFrom(row))
		if err != nil {
			continue
		}
		msgs = append(msgs, kafka.Message{Key: []byte(row.Address), Value: data})
	}

	newCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := j.mq.WriteMessages(newCtx, msgs...); err != nil {
		j.logger.Warn("publish new token events failed", zap.Error(err))
	}
}
