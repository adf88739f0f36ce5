package dao

import (
	"context"
	"time"

	"trench-radar/internal/worker/model"

	"github.com/shopspring/decimal"
)

// Enrichment 一次成功分析得到的整组行情字段与评分
// 整体覆写到 tokens 行，行情与评分在同一条 UPDATE 里生效
type Enrichment struct {
	CurrentPrice   *decimal.Decimal
	PriceChange24h *decimal.Decimal
	PriceChangeH6  *decimal.Decimal
	PriceChangeH1  *decimal.Decimal
	PriceChangeM5  *decimal.Decimal
	Volume24h      *decimal.Decimal
	VolumeH6       *decimal.Decimal
	VolumeH1       *decimal.Decimal
	VolumeM5       *decimal.Decimal
	MarketCap      *decimal.Decimal
	Fdv            *decimal.Decimal
	Liquidity      *decimal.Decimal
	HolderCount    *int64
	Buys24h        *int64
	Sells24h       *int64
	TotalScore     float64
	AnalyzedAt     time.Time
}

// TokenDAO tokens 表的全部读写
type TokenDAO interface {
	// InsertNewTokens 批量插入，主键冲突静默跳过，返回实际新插入的地址
	// 调用方据此区分真正的新币与重复发现的旧币
	InsertNewTokens(ctx context.Context, tokens []model.Token) ([]string, error)

	// ListUnanalyzed 查 window 内铸造且尚未分析过的代币
	ListUnanalyzed(ctx context.Context, window time.Duration) ([]model.Token, error)

	// ListTopScored 按 total_score 降序取前 limit 个已评分代币
	ListTopScored(ctx context.Context, limit int) ([]model.Token, error)

	// ListByMintAge 查铸造时长在 [minAge, maxAge) 区间内的代币
	ListByMintAge(ctx context.Context, minAge, maxAge time.Duration) ([]model.Token, error)

	// ListMintedWithin 查 window 内铸造的全部代币（评分巡检用）
	ListMintedWithin(ctx context.Context, window time.Duration) ([]model.Token, error)

	// UpdateEnrichment 整体覆写行情字段 + total_score + last_analysis + last_score
	UpdateEnrichment(ctx context.Context, address string, e Enrichment) error

	// UpdateScore 只更新 total_score 与 last_score
	UpdateScore(ctx context.Context, address string, score float64, at time.Time) error

	// ReplaceSocials 先删后插整体替换社媒链接
	ReplaceSocials(ctx context.Context, address string, socials []model.TokenSocial) error

	// GetSocials 批量取社媒链接，按 token 地址分组
	GetSocials(ctx context.Context, addresses []string) (map[string][]model.TokenSocial, error)

	// DeleteOlderThan 删除铸造时间早于 age 的代币，返回删除行数
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)

	// LatestMintDate 库内最新的铸造时间，空库返回 nil
	LatestMintDate(ctx context.Context) (*time.Time, error)

	// ListScoreOrdered 查相对 latest 铸造时长在 [fromAge, toAge) 的代币，
	// 按 total_score 降序、volume_24h 降序，最多 limit 条
	ListScoreOrdered(ctx context.Context, latest time.Time, fromAge, toAge time.Duration, limit int) ([]model.Token, error)
}
