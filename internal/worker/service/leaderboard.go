package service

import (
	"context"
	"sync"
	"time"

	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/model"
	"trench-radar/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const bucketLimit = 20

// bucketDef 分桶边界，窗口相对库内最新 mint_date 计算而不是墙钟
type bucketDef struct {
	label string
	from  time.Duration // 含
	to    time.Duration // 不含
}

var buckets = []bucketDef{
	{label: "last_5m", from: 0, to: 5 * time.Minute},
	{label: "last_10m", from: 5 * time.Minute, to: 10 * time.Minute},
	{label: "last_15m", from: 10 * time.Minute, to: 15 * time.Minute},
	{label: "last_30m", from: 15 * time.Minute, to: 30 * time.Minute},
}

// TokenRecord 榜单里的单个代币
type TokenRecord struct {
	Address        string         `json:"address"`
	Name           string         `json:"name"`
	Symbol         string         `json:"symbol"`
	MintDate       time.Time      `json:"mintDate"`
	CurrentPrice   *float64       `json:"currentPrice"`
	PriceChange24h *float64       `json:"priceChange24h"`
	Volume24h      *float64       `json:"volume24h"`
	VolumeH1       *float64       `json:"volumeH1"`
	VolumeM5       *float64       `json:"volumeM5"`
	MarketCap      *float64       `json:"marketCap"`
	Fdv            *float64       `json:"fdv"`
	Liquidity      *float64       `json:"liquidity"`
	HolderCount    *int64         `json:"holderCount"`
	TotalScore     *float64       `json:"totalScore"`
	Socials        []SocialRecord `json:"socials"`
	Txns24h        TxnsRecord     `json:"txns24h"`
}

type SocialRecord struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type TxnsRecord struct {
	Buys  *int64 `json:"buys"`
	Sells *int64 `json:"sells"`
}

// Leaderboard 时间分桶榜单，整份结果走 本地缓存 → Redis → DB
type Leaderboard struct {
	tokens     dao.TokenDAO
	rds        *redis.Client
	localCache *cache.Cache
	logger     *zap.Logger
}

func NewLeaderboard(tokens dao.TokenDAO, rds *redis.Client, logger *zap.Logger) *Leaderboard {
	return &Leaderboard{
		tokens:     tokens,
		rds:        rds,
		localCache: cache.New(3*time.Second, time.Minute),
		logger:     logger,
	}
}

// Get 返回 bucket label → 有序代币列表
func (l *Leaderboard) Get(ctx context.Context) (map[string][]TokenRecord, error) {
	cacheKey := utils.LeaderboardKey()

	// 先查本地缓存
	if cached, found := l.localCache.Get(cacheKey); found {
		if board, ok := cached.(map[string][]TokenRecord); ok {
			return board, nil
		}
	}

	// 再查Redis缓存
	if l.rds != nil {
		if cached, err := l.rds.Get(ctx, cacheKey).Result(); err == nil {
			var board map[string][]TokenRecord
			if sonic.Unmarshal([]byte(cached), &board) == nil {
				l.localCache.Set(cacheKey, board, cache.DefaultExpiration)
				return board, nil
			}
		}
	}

	board, err := l.build(ctx)
	if err != nil {
		return nil, err
	}

	l.localCache.Set(cacheKey, board, cache.DefaultExpiration)
	if l.rds != nil {
		if data, err := sonic.Marshal(board); err == nil {
			if err := l.rds.Set(ctx, cacheKey, data, 3*time.Second).Err(); err != nil {
				l.logger.Debug("leaderboard redis cache set failed", zap.Error(err))
			}
		}
	}

	return board, nil
}

func (l *Leaderboard) build(ctx context.Context) (map[string][]TokenRecord, error) {
	board := make(map[string][]TokenRecord, len(buckets))
	for _, b := range buckets {
		board[b.label] = []TokenRecord{}
	}

	latest, err := l.tokens.LatestMintDate(ctx)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return board, nil // 空库
	}

	// 四个分桶并行查询
	var mu sync.Mutex
	bucketTokens := make(map[string][]model.Token, len(buckets))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(buckets))
	for _, b := range buckets {
		bucket := b
		p.Go(func(ctx context.Context) error {
			tokens, err := l.tokens.ListScoreOrdered(ctx, *latest, bucket.from, bucket.to, bucketLimit)
			if err != nil {
				return err
			}
			mu.Lock()
			bucketTokens[bucket.label] = tokens
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	// 批量取社媒链接
	var addresses []string
	for _, tokens := range bucketTokens {
		for _, t := range tokens {
			addresses = append(addresses, t.Address)
		}
	}
	socials, err := l.tokens.GetSocials(ctx, addresses)
	if err != nil {
		return nil, err
	}

	for label, tokens := range bucketTokens {
		records := make([]TokenRecord, 0, len(tokens))
		for _, t := range tokens {
			records = append(records, toRecord(t, socials[t.Address]))
		}
		board[label] = records
	}

	return board, nil
}

func toRecord(t model.Token, socials []model.TokenSocial) TokenRecord {
	rec := TokenRecord{
		Address:        t.Address,
		Name:           t.Name,
		Symbol:         t.Symbol,
		MintDate:       t.MintDate.UTC(),
		CurrentPrice:   utils.Float64Ptr(t.CurrentPrice),
		PriceChange24h: utils.Float64Ptr(t.PriceChange24h),
		Volume24h:      utils.Float64Ptr(t.Volume24h),
		VolumeH1:       utils.Float64Ptr(t.VolumeH1),
		VolumeM5:       utils.Float64Ptr(t.VolumeM5),
		MarketCap:      utils.Float64Ptr(t.MarketCap),
		Fdv:            utils.Float64Ptr(t.Fdv),
		Liquidity:      utils.Float64Ptr(t.Liquidity),
		HolderCount:    t.HolderCount,
		TotalScore:     t.TotalScore,
		Socials:        []SocialRecord{},
		Txns24h:        TxnsRecord{Buys: t.Buys24h, Sells: t.Sells24h},
	}
	for _, s := range socials {
		rec.Socials = append(rec.Socials, SocialRecord{Type: s.Type, URL: s.URL})
	}
	return rec
}

// BucketFor 返回铸造时间相对 latest 应落入的分桶 label，超出 30 分钟返回空串
func BucketFor(latest, mint time.Time) string {
	age := latest.Sub(mint)
	for _, b := range buckets {
		if age >= b.from && age < b.to {
			return b.label
		}
	}
	return ""
}
