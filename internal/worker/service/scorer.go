package service

import (
	"math"

	"trench-radar/internal/worker/config"
)

// ScoreInput 评分所需的指标子集，从行情快照或已存行构造，本身不落库
type ScoreInput struct {
	Volume24h      float64
	MarketCap      float64
	Liquidity      *float64 // nil 表示上游未给出流动性
	HolderCount    int64
	Buys24h        int64
	Sells24h       int64
	PriceChange24h float64
	PriceChangeM5  float64
}

// Scorer 纯函数评分器：硬性淘汰 → 加权合成 → 乘法惩罚
// 不访问存储与网络，相同输入必得相同输出
type Scorer struct {
	cfg config.ScoringConfig
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score 返回 [0,100] 的综合评分，命中硬性淘汰规则时返回保底分 1
func (s *Scorer) Score(in ScoreInput) float64 {
	c := s.cfg

	// 硬性淘汰
	if in.MarketCap > c.MarketCapCeiling ||
		in.PriceChangeM5 < c.HardDropM5 ||
		in.PriceChange24h < c.HardDrop24h ||
		in.MarketCap < c.MarketCapFloor ||
		(in.Liquidity != nil && *in.Liquidity < c.MinLiquidity) {
		return 1
	}

	var liquidity float64
	if in.Liquidity != nil {
		liquidity = *in.Liquidity
	}

	var volumeScore float64
	if liquidity > 0 {
		volumeScore = clamp01((in.Volume24h / liquidity) / c.VolumeLiquidityCap)
	}

	var liquidityScore float64
	if liquidity > 0 {
		liquidityScore = clamp01(math.Log10(liquidity) / math.Log10(c.LiquidityLogCap))
	}

	// 持有人数据暂不可用，权重保留
	holderScore := 0.0

	var txScore float64
	if txCount := in.Buys24h + in.Sells24h; txCount > 0 {
		txScore = clamp01(math.Log10(float64(txCount)) / math.Log10(c.TxLogCap))
	}

	priceActionScore := s.priceAction(in.PriceChange24h)

	total := c.WeightVolume*volumeScore +
		c.WeightLiquidity*liquidityScore +
		c.WeightHolder*holderScore +
		c.WeightTx*txScore +
		c.WeightPriceAction*priceActionScore

	total *= 1 - s.buyRatioPenalty(in.Buys24h, in.Sells24h)
	total *= s.dropPenalty(in.PriceChange24h)

	return clamp(total*100, 0, 100)
}

// buyRatioPenalty 买卖比异常惩罚，疑似刷量的买单占比越高扣得越多
func (s *Scorer) buyRatioPenalty(buys, sells int64) float64 {
	c := s.cfg
	if buys <= 0 || buys <= c.MinBuysForPenalty {
		return 0
	}

	var ratio float64
	if sells > 0 {
		ratio = float64(buys) / float64(sells)
	} else {
		ratio = float64(buys)
	}
	if ratio <= c.BuyRatioThreshold {
		return 0
	}

	if sells == 0 {
		return math.Min(c.ZeroSellPenaltyCap, float64(buys-c.MinBuysForPenalty)/c.ZeroSellPenaltyDiv)
	}
	return math.Min(c.RatioPenaltyCap, (ratio-c.BuyRatioThreshold)/c.RatioPenaltyDiv)
}

// dropPenalty 24h 下跌的级联惩罚，指数衰减基底乘上命中的各档系数
func (s *Scorer) dropPenalty(change24h float64) float64 {
	if change24h >= 0 {
		return 1
	}
	c := s.cfg

	drop := -change24h
	penalty := math.Exp(-drop / c.DropDecayDiv)
	for _, tier := range c.DropTiers {
		if change24h < tier.Below {
			penalty *= tier.Factor
		}
	}
	return penalty
}

// priceAction 价格走势子评分
// 正向在 PumpLinearMax 以内线性给分，过热回落；负向 DipLinearMax 内线性衰减，更深跌幅指数衰减
func (s *Scorer) priceAction(change24h float64) float64 {
	c := s.cfg
	if change24h > 0 {
		if change24h <= c.PumpLinearMax {
			return math.Min(change24h/c.PumpLinearMax, 1)
		}
		return math.Max(c.PumpFadeFloor, 1-(change24h-c.PumpLinearMax)/c.PumpFadeDiv)
	}

	drop := -change24h
	if drop <= c.DipLinearMax {
		return 1 - drop/c.DipLinearMax
	}
	return math.Max(0, math.Exp(-c.DipDecayRate*(drop-c.DipLinearMax))*c.DipDecayScale)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
