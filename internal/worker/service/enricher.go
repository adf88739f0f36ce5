package service

import (
	"context"
	"time"

	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/model"
	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/utils"

	"go.uber.org/zap"
)

// MarketDataClient 行情数据源，nil 快照表示该币本轮无数据
type MarketDataClient interface {
	GetTokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error)
}

// Enricher 单币分析流水：拉行情 → 聚合 → 评分 → 一次性落库
// 行情字段与评分写在同一条更新里，不会出现只更新了行情没更新评分的行
type Enricher struct {
	market MarketDataClient
	scorer *Scorer
	tokens dao.TokenDAO
	logger *zap.Logger
}

func NewEnricher(market MarketDataClient, scorer *Scorer, tokens dao.TokenDAO, logger *zap.Logger) *Enricher {
	return &Enricher{market: market, scorer: scorer, tokens: tokens, logger: logger}
}

// EnrichToken 分析并落库单个代币，返回是否实际写入
func (e *Enricher) EnrichToken(ctx context.Context, token model.Token) (bool, error) {
	pairs, err := e.market.GetTokenPairs(ctx, token.Address)
	if err != nil {
		return false, err
	}

	analysis := AggregatePairs(pairs)
	if analysis == nil {
		e.logger.Debug("no market data for token, skip this cycle", zap.String("address", token.Address))
		return false, nil
	}

	score := e.scorer.Score(ScoreInputFromAnalysis(analysis))

	enrichment := dao.Enrichment{
		CurrentPrice:   utils.DecimalPtr(analysis.Price),
		PriceChange24h: utils.DecimalPtr(analysis.PriceChange24h),
		PriceChangeH6:  utils.DecimalPtr(analysis.PriceChangeH6),
		PriceChangeH1:  utils.DecimalPtr(analysis.PriceChangeH1),
		PriceChangeM5:  utils.DecimalPtr(analysis.PriceChangeM5),
		Volume24h:      utils.DecimalPtr(analysis.Volume24h),
		VolumeH6:       utils.DecimalPtr(analysis.VolumeH6),
		VolumeH1:       utils.DecimalPtr(analysis.VolumeH1),
		VolumeM5:       utils.DecimalPtr(analysis.VolumeM5),
		MarketCap:      utils.DecimalPtr(analysis.MarketCap),
		Fdv:            utils.DecimalPtr(analysis.Fdv),
		Liquidity:      utils.DecimalPtr(analysis.Liquidity),
		HolderCount:    analysis.HolderCount,
		Buys24h:        analysis.Buys24h,
		Sells24h:       analysis.Sells24h,
		TotalScore:     score,
		AnalyzedAt:     time.Now(),
	}

	if err := e.tokens.UpdateEnrichment(ctx, token.Address, enrichment); err != nil {
		return false, err
	}

	// 社媒链接整体替换；失败只记日志，行情已落库不回滚
	if len(analysis.Socials) > 0 {
		if err := e.tokens.ReplaceSocials(ctx, token.Address, analysis.Socials); err != nil {
			e.logger.Warn("replace socials failed", zap.String("address", token.Address), zap.Error(err))
		}
	}

	return true, nil
}
