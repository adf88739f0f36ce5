package service

import (
	"strconv"

	"trench-radar/internal/worker/model"
	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/utils"
)

// TokenAnalysis 多个交易对聚合后的单币行情快照，nil 字段表示上游完全缺失
type TokenAnalysis struct {
	Price          *float64
	Volume24h      *float64
	VolumeH6       *float64
	VolumeH1       *float64
	VolumeM5       *float64
	PriceChange24h *float64
	PriceChangeH6  *float64
	PriceChangeH1  *float64
	PriceChangeM5  *float64
	MarketCap      *float64
	Fdv            *float64
	Liquidity      *float64
	HolderCount    *int64
	Buys24h        *int64
	Sells24h       *int64
	Socials        []model.TokenSocial
}

// AggregatePairs 把一个代币的多个交易对聚成一份快照
// 价格取均值；成交量/流动性/交易笔数求和（缺失的对不计入，全缺为 nil）；
// 涨跌幅与市值/FDV 取 24h 成交量最高的交易对
func AggregatePairs(pairs []dexscreener.Pair) *TokenAnalysis {
	if len(pairs) == 0 {
		return nil
	}

	a := &TokenAnalysis{}

	// 平均价格
	var priceSum float64
	var priceCount int
	for _, p := range pairs {
		if v, err := strconv.ParseFloat(p.PriceUsd, 64); err == nil {
			priceSum += v
			priceCount++
		}
	}
	if priceCount > 0 {
		a.Price = utils.Ptr(priceSum / float64(priceCount))
	}

	// 各窗口成交量求和
	a.Volume24h = sumFloat(pairs, func(p dexscreener.Pair) *float64 { return p.Volume.H24 })
	a.VolumeH6 = sumFloat(pairs, func(p dexscreener.Pair) *float64 { return p.Volume.H6 })
	a.VolumeH1 = sumFloat(pairs, func(p dexscreener.Pair) *float64 { return p.Volume.H1 })
	a.VolumeM5 = sumFloat(pairs, func(p dexscreener.Pair) *float64 { return p.Volume.M5 })

	// 流动性求和
	a.Liquidity = sumFloat(pairs, func(p dexscreener.Pair) *float64 {
		if p.Liquidity == nil {
			return nil
		}
		return p.Liquidity.Usd
	})

	// 24h 买卖笔数求和
	var buys, sells int64
	for _, p := range pairs {
		buys += p.Txns.H24.Buys
		sells += p.Txns.H24.Sells
	}
	a.Buys24h = utils.Ptr(buys)
	a.Sells24h = utils.Ptr(sells)

	// 24h 成交量最高的交易对胜出
	top := pairs[0]
	for _, p := range pairs[1:] {
		if floatOrZero(p.Volume.H24) > floatOrZero(top.Volume.H24) {
			top = p
		}
	}
	a.PriceChange24h = top.PriceChange.H24
	a.PriceChangeH6 = top.PriceChange.H6
	a.PriceChangeH1 = top.PriceChange.H1
	a.PriceChangeM5 = top.PriceChange.M5
	a.MarketCap = top.MarketCap
	a.Fdv = top.Fdv

	a.Socials = extractSocials(pairs)

	return a
}

// extractSocials 取第一个带社媒信息的交易对，website 映射为 type "website"
func extractSocials(pairs []dexscreener.Pair) []model.TokenSocial {
	for _, p := range pairs {
		if p.Info == nil {
			continue
		}
		var socials []model.TokenSocial
		for _, s := range p.Info.Socials {
			socials = append(socials, model.TokenSocial{Type: s.Type, URL: s.URL})
		}
		for _, w := range p.Info.Websites {
			socials = append(socials, model.TokenSocial{Type: "website", URL: w.URL})
		}
		if len(socials) > 0 {
			return socials
		}
	}
	return nil
}

// ScoreInputFromAnalysis 从行情快照构造评分输入
func ScoreInputFromAnalysis(a *TokenAnalysis) ScoreInput {
	return ScoreInput{
		Volume24h:      floatOrZero(a.Volume24h),
		MarketCap:      floatOrZero(a.MarketCap),
		Liquidity:      a.Liquidity,
		HolderCount:    int64OrZero(a.HolderCount),
		Buys24h:        int64OrZero(a.Buys24h),
		Sells24h:       int64OrZero(a.Sells24h),
		PriceChange24h: floatOrZero(a.PriceChange24h),
		PriceChangeM5:  floatOrZero(a.PriceChangeM5),
	}
}

// ScoreInputFromToken 从已存行构造评分输入（评分巡检用）
func ScoreInputFromToken(t model.Token) ScoreInput {
	return ScoreInput{
		Volume24h:      utils.Float64OrZero(t.Volume24h),
		MarketCap:      utils.Float64OrZero(t.MarketCap),
		Liquidity:      utils.Float64Ptr(t.Liquidity),
		HolderCount:    utils.Int64OrZero(t.HolderCount),
		Buys24h:        utils.Int64OrZero(t.Buys24h),
		Sells24h:       utils.Int64OrZero(t.Sells24h),
		PriceChange24h: utils.Float64OrZero(t.PriceChange24h),
		PriceChangeM5:  utils.Float64OrZero(t.PriceChangeM5),
	}
}

func sumFloat(pairs []dexscreener.Pair, pick func(dexscreener.Pair) *float64) *float64 {
	var sum float64
	found := false
	for _, p := range pairs {
		if v := pick(p); v != nil {
			sum += *v
			found = true
		}
	}
	if !found {
		return nil
	}
	return &sum
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func int64OrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
