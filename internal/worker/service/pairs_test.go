package service

import (
	"testing"

	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairWith(priceUsd string, vol24 *float64, liq *float64) dexscreener.Pair {
	p := dexscreener.Pair{PriceUsd: priceUsd}
	p.Volume.H24 = vol24
	if liq != nil {
		p.Liquidity = &struct {
			Usd   *float64 `json:"usd"`
			Base  float64  `json:"base"`
			Quote float64  `json:"quote"`
		}{Usd: liq}
	}
	return p
}

func TestAggregatePairsEmpty(t *testing.T) {
	assert.Nil(t, AggregatePairs(nil))
	assert.Nil(t, AggregatePairs([]dexscreener.Pair{}))
}

func TestAggregatePairsAveragesAndSums(t *testing.T) {
	p1 := pairWith("1.0", utils.Ptr(30_000.0), utils.Ptr(10_000.0))
	p2 := pairWith("3.0", utils.Ptr(70_000.0), utils.Ptr(5_000.0))
	p1.Txns.H24 = dexscreener.TxnCount{Buys: 40, Sells: 20}
	p2.Txns.H24 = dexscreener.TxnCount{Buys: 10, Sells: 5}

	a := AggregatePairs([]dexscreener.Pair{p1, p2})
	require.NotNil(t, a)

	require.NotNil(t, a.Price)
	assert.InDelta(t, 2.0, *a.Price, 1e-9)
	require.NotNil(t, a.Volume24h)
	assert.InDelta(t, 100_000, *a.Volume24h, 1e-9)
	require.NotNil(t, a.Liquidity)
	assert.InDelta(t, 15_000, *a.Liquidity, 1e-9)
	assert.Equal(t, int64(50), *a.Buys24h)
	assert.Equal(t, int64(25), *a.Sells24h)
}

// 不可解析的价格不计入均值，全部缺失的字段保持 nil
func TestAggregatePairsMissingFields(t *testing.T) {
	p1 := pairWith("", nil, nil)
	p2 := pairWith("2.5", nil, nil)

	a := AggregatePairs([]dexscreener.Pair{p1, p2})
	require.NotNil(t, a)

	require.NotNil(t, a.Price)
	assert.InDelta(t, 2.5, *a.Price, 1e-9)
	assert.Nil(t, a.Volume24h)
	assert.Nil(t, a.Liquidity)
	assert.Nil(t, a.MarketCap)
}

// 涨跌幅与市值取 24h 成交量最高的交易对
func TestAggregatePairsTopVolumeWins(t *testing.T) {
	small := pairWith("1.0", utils.Ptr(1_000.0), nil)
	small.PriceChange.H24 = utils.Ptr(-5.0)
	small.MarketCap = utils.Ptr(100_000.0)

	big := pairWith("1.0", utils.Ptr(90_000.0), nil)
	big.PriceChange.H24 = utils.Ptr(42.0)
	big.PriceChange.M5 = utils.Ptr(1.5)
	big.MarketCap = utils.Ptr(800_000.0)
	big.Fdv = utils.Ptr(900_000.0)

	a := AggregatePairs([]dexscreener.Pair{small, big})
	require.NotNil(t, a)

	assert.Equal(t, 42.0, *a.PriceChange24h)
	assert.Equal(t, 1.5, *a.PriceChangeM5)
	assert.Equal(t, 800_000.0, *a.MarketCap)
	assert.Equal(t, 900_000.0, *a.Fdv)
}

func TestExtractSocials(t *testing.T) {
	p1 := pairWith("1.0", nil, nil)
	p2 := pairWith("1.0", nil, nil)
	p2.Info = &dexscreener.PairInfo{}
	p2.Info.Socials = append(p2.Info.Socials, struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	}{Type: "twitter", URL: "https://x.com/example"})
	p2.Info.Websites = append(p2.Info.Websites, struct {
		Label string `json:"label"`
		URL   string `json:"url"`
	}{Label: "Website", URL: "https://example.com"})

	socials := extractSocials([]dexscreener.Pair{p1, p2})
	require.Len(t, socials, 2)
	assert.Equal(t, "twitter", socials[0].Type)
	assert.Equal(t, "website", socials[1].Type)
	assert.Equal(t, "https://example.com", socials[1].URL)
}

func TestScoreInputFromAnalysis(t *testing.T) {
	a := &TokenAnalysis{
		Volume24h:      utils.Ptr(50_000.0),
		MarketCap:      utils.Ptr(500_000.0),
		Liquidity:      utils.Ptr(20_000.0),
		Buys24h:        utils.Ptr(int64(100)),
		Sells24h:       utils.Ptr(int64(60)),
		PriceChange24h: utils.Ptr(15.0),
	}

	in := ScoreInputFromAnalysis(a)
	assert.Equal(t, 50_000.0, in.Volume24h)
	assert.Equal(t, 500_000.0, in.MarketCap)
	require.NotNil(t, in.Liquidity)
	assert.Equal(t, 20_000.0, *in.Liquidity)
	assert.Equal(t, int64(100), in.Buys24h)
	assert.Equal(t, 0.0, in.PriceChangeM5)
}
