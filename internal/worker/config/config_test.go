package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readConfig(t *testing.T, yaml string) Config {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(yaml)))
	return decodeConfig()
}

// 只覆盖个别评分字段时，其余字段保持默认值而不是归零
func TestDecodeConfigPartialScoring(t *testing.T) {
	cfg := readConfig(t, `
scoring:
  market_cap_ceiling: 25000000
  weight_volume: 0.30
`)

	assert.Equal(t, 25_000_000.0, cfg.Scoring.MarketCapCeiling)
	assert.Equal(t, 0.30, cfg.Scoring.WeightVolume)

	ds := DefaultScoring()
	assert.Equal(t, ds.WeightLiquidity, cfg.Scoring.WeightLiquidity)
	assert.Equal(t, ds.WeightTx, cfg.Scoring.WeightTx)
	assert.Equal(t, ds.HardDropM5, cfg.Scoring.HardDropM5)
	assert.Equal(t, ds.HardDrop24h, cfg.Scoring.HardDrop24h)
	assert.Equal(t, ds.BuyRatioThreshold, cfg.Scoring.BuyRatioThreshold)
	assert.Equal(t, ds.MinBuysForPenalty, cfg.Scoring.MinBuysForPenalty)
	assert.Equal(t, ds.DropTiers, cfg.Scoring.DropTiers)
	assert.Equal(t, ds.DropDecayDiv, cfg.Scoring.DropDecayDiv)
}

// 完全不配置 scoring 时整块取默认值
func TestDecodeConfigNoScoringBlock(t *testing.T) {
	cfg := readConfig(t, "log:\n  level: debug\n")

	assert.Equal(t, DefaultScoring(), cfg.Scoring)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DefaultJobs(), cfg.Jobs)
}

// 显式配置为 0 的权重保持 0，不被默认值覆盖
func TestDecodeConfigExplicitZeroWeight(t *testing.T) {
	cfg := readConfig(t, "scoring:\n  weight_holder: 0\n")

	assert.Equal(t, 0.0, cfg.Scoring.WeightHolder)
	assert.Equal(t, DefaultScoring().WeightVolume, cfg.Scoring.WeightVolume)
}
