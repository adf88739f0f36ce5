package config

import (
	"fmt"
	"trench-radar/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config 定义整个配置的结构
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Postgres    PostgresConfig    `mapstructure:"postgres"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	API         APIConfig         `mapstructure:"api"`
	Jupiter     JupiterConfig     `mapstructure:"jupiter"`
	DexScreener DexScreenerConfig `mapstructure:"dexscreener"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka 配置（可选，brokers 为空则不发事件）
type KafkaConfig struct {
	Brokers       string `mapstructure:"brokers"`
	TopicNewToken string `mapstructure:"topic_new_token"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// APIConfig HTTP 服务配置
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// JupiterConfig 新币发现数据源配置
type JupiterConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	RateLimit int    `mapstructure:"rate_limit"`
	Timeout   int    `mapstructure:"timeout"`
}

// DexScreenerConfig 行情数据源配置
type DexScreenerConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	Chain           string `mapstructure:"chain"`
	RateLimit       int    `mapstructure:"rate_limit"`
	Timeout         int    `mapstructure:"timeout"`
	RetryBackoffSec int    `mapstructure:"retry_backoff_sec"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// JobsConfig 各任务的周期/启动偏移与窗口参数，单位见字段名
type JobsConfig struct {
	ImportIntervalSec     int `mapstructure:"import_interval_sec"`
	ImportOffsetSec       int `mapstructure:"import_offset_sec"`
	ImportCutoffMin       int `mapstructure:"import_cutoff_min"`
	AnalysisIntervalSec   int `mapstructure:"analysis_interval_sec"`
	AnalysisOffsetSec     int `mapstructure:"analysis_offset_sec"`
	AnalysisWindowMin     int `mapstructure:"analysis_window_min"`
	ThrottleMs            int `mapstructure:"throttle_ms"`
	RefreshHotIntervalSec int `mapstructure:"refresh_hot_interval_sec"`
	RefreshHotOffsetSec   int `mapstructure:"refresh_hot_offset_sec"`
	RefreshHotLimit       int `mapstructure:"refresh_hot_limit"`
	RefreshMidIntervalSec int `mapstructure:"refresh_mid_interval_sec"`
	RefreshMidOffsetSec   int `mapstructure:"refresh_mid_offset_sec"`
	RefreshMidMinAgeMin   int `mapstructure:"refresh_mid_min_age_min"`
	RefreshMidMaxAgeMin   int `mapstructure:"refresh_mid_max_age_min"`
	ScoringIntervalSec    int `mapstructure:"scoring_interval_sec"`
	ScoringOffsetSec      int `mapstructure:"scoring_offset_sec"`
	ScoringWindowHours    int `mapstructure:"scoring_window_hours"`
	CleanupIntervalSec    int `mapstructure:"cleanup_interval_sec"`
	CleanupOffsetSec      int `mapstructure:"cleanup_offset_sec"`
	RetentionHours        int `mapstructure:"retention_hours"`
}

// ScoringConfig 评分公式的全部可调参数
// 阈值与权重都是经验值，放配置便于重新标定
type ScoringConfig struct {
	MarketCapCeiling float64 `mapstructure:"market_cap_ceiling"`
	MarketCapFloor   float64 `mapstructure:"market_cap_floor"`
	MinLiquidity     float64 `mapstructure:"min_liquidity"`
	HardDropM5       float64 `mapstructure:"hard_drop_m5"`
	HardDrop24h      float64 `mapstructure:"hard_drop_24h"`

	VolumeLiquidityCap float64 `mapstructure:"volume_liquidity_cap"`
	LiquidityLogCap    float64 `mapstructure:"liquidity_log_cap"`
	TxLogCap           float64 `mapstructure:"tx_log_cap"`

	WeightVolume      float64 `mapstructure:"weight_volume"`
	WeightLiquidity   float64 `mapstructure:"weight_liquidity"`
	WeightHolder      float64 `mapstructure:"weight_holder"`
	WeightTx          float64 `mapstructure:"weight_tx"`
	WeightPriceAction float64 `mapstructure:"weight_price_action"`

	BuyRatioThreshold float64 `mapstructure:"buy_ratio_threshold"`
	MinBuysForPenalty int64   `mapstructure:"min_buys_for_penalty"`

	ZeroSellPenaltyCap float64 `mapstructure:"zero_sell_penalty_cap"`
	ZeroSellPenaltyDiv float64 `mapstructure:"zero_sell_penalty_div"`
	RatioPenaltyCap    float64 `mapstructure:"ratio_penalty_cap"`
	RatioPenaltyDiv    float64 `mapstructure:"ratio_penalty_div"`

	DropDecayDiv float64    `mapstructure:"drop_decay_div"`
	DropTiers    []DropTier `mapstructure:"drop_tiers"`

	PumpLinearMax float64 `mapstructure:"pump_linear_max"`
	PumpFadeDiv   float64 `mapstructure:"pump_fade_div"`
	PumpFadeFloor float64 `mapstructure:"pump_fade_floor"`
	DipLinearMax  float64 `mapstructure:"dip_linear_max"`
	DipDecayRate  float64 `mapstructure:"dip_decay_rate"`
	DipDecayScale float64 `mapstructure:"dip_decay_scale"`
}

// DropTier 下跌级联惩罚的一档，24h 跌幅低于 Below 时评分乘以 Factor
type DropTier struct {
	Below  float64 `mapstructure:"below"`
	Factor float64 `mapstructure:"factor"`
}

// DefaultScoring 评分参数默认值
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		MarketCapCeiling: 30_000_000,
		MarketCapFloor:   100_000,
		MinLiquidity:     5_000,
		HardDropM5:       -20,
		HardDrop24h:      -30,

		VolumeLiquidityCap: 3,
		LiquidityLogCap:    1_000_000,
		TxLogCap:           1_000,

		WeightVolume:      0.20,
		WeightLiquidity:   0.35,
		WeightHolder:      0.15,
		WeightTx:          0.25,
		WeightPriceAction: 0.05,

		BuyRatioThreshold: 4,
		MinBuysForPenalty: 7,

		ZeroSellPenaltyCap: 0.9,
		ZeroSellPenaltyDiv: 50,
		RatioPenaltyCap:    0.7,
		RatioPenaltyDiv:    20,

		DropDecayDiv: 50,
		DropTiers: []DropTier{
			{Below: -10, Factor: 0.7},
			{Below: -20, Factor: 0.5},
			{Below: -30, Factor: 0.3},
			{Below: -50, Factor: 0.1},
			{Below: -70, Factor: 0.01},
		},

		PumpLinearMax: 50,
		PumpFadeDiv:   150,
		PumpFadeFloor: 0.5,
		DipLinearMax:  10,
		DipDecayRate:  0.15,
		DipDecayScale: 0.5,
	}
}

// DefaultJobs 任务周期默认值
func DefaultJobs() JobsConfig {
	return JobsConfig{
		ImportIntervalSec:     20,
		ImportOffsetSec:       0,
		ImportCutoffMin:       35,
		AnalysisIntervalSec:   20,
		AnalysisOffsetSec:     10,
		AnalysisWindowMin:     15,
		ThrottleMs:            200,
		RefreshHotIntervalSec: 60,
		RefreshHotOffsetSec:   5,
		RefreshHotLimit:       50,
		RefreshMidIntervalSec: 120,
		RefreshMidOffsetSec:   30,
		RefreshMidMinAgeMin:   5,
		RefreshMidMaxAgeMin:   15,
		ScoringIntervalSec:    300,
		ScoringOffsetSec:      45,
		ScoringWindowHours:    24,
		CleanupIntervalSec:    3600,
		CleanupOffsetSec:      120,
		RetentionHours:        6,
	}
}

func InitConfig() Config {
	viper.SetConfigName("config.worker")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config/")

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	return decodeConfig()
}

// decodeConfig 注册默认值后解码当前 viper 状态
func decodeConfig() Config {
	var config Config

	setScoringDefaults()

	if err := mapstructure.Decode(viper.AllSettings(), &config); err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	config.applyDefaults()

	return config
}

// setScoringDefaults 评分参数逐项走 viper 默认层
// 权重与阈值的合法取值包含 0 和负数，解码后按零值兜底会把
// 部分配置的文件解读成"其余参数全为零"，必须在解码前合并默认值
func setScoringDefaults() {
	ds := DefaultScoring()
	viper.SetDefault("scoring.market_cap_ceiling", ds.MarketCapCeiling)
	viper.SetDefault("scoring.market_cap_floor", ds.MarketCapFloor)
	viper.SetDefault("scoring.min_liquidity", ds.MinLiquidity)
	viper.SetDefault("scoring.hard_drop_m5", ds.HardDropM5)
	viper.SetDefault("scoring.hard_drop_24h", ds.HardDrop24h)
	viper.SetDefault("scoring.volume_liquidity_cap", ds.VolumeLiquidityCap)
	viper.SetDefault("scoring.liquidity_log_cap", ds.LiquidityLogCap)
	viper.SetDefault("scoring.tx_log_cap", ds.TxLogCap)
	viper.SetDefault("scoring.weight_volume", ds.WeightVolume)
	viper.SetDefault("scoring.weight_liquidity", ds.WeightLiquidity)
	viper.SetDefault("scoring.weight_holder", ds.WeightHolder)
	viper.SetDefault("scoring.weight_tx", ds.WeightTx)
	viper.SetDefault("scoring.weight_price_action", ds.WeightPriceAction)
	viper.SetDefault("scoring.buy_ratio_threshold", ds.BuyRatioThreshold)
	viper.SetDefault("scoring.min_buys_for_penalty", ds.MinBuysForPenalty)
	viper.SetDefault("scoring.zero_sell_penalty_cap", ds.ZeroSellPenaltyCap)
	viper.SetDefault("scoring.zero_sell_penalty_div", ds.ZeroSellPenaltyDiv)
	viper.SetDefault("scoring.ratio_penalty_cap", ds.RatioPenaltyCap)
	viper.SetDefault("scoring.ratio_penalty_div", ds.RatioPenaltyDiv)
	viper.SetDefault("scoring.drop_decay_div", ds.DropDecayDiv)
	viper.SetDefault("scoring.drop_tiers", ds.DropTiers)
	viper.SetDefault("scoring.pump_linear_max", ds.PumpLinearMax)
	viper.SetDefault("scoring.pump_fade_div", ds.PumpFadeDiv)
	viper.SetDefault("scoring.pump_fade_floor", ds.PumpFadeFloor)
	viper.SetDefault("scoring.dip_linear_max", ds.DipLinearMax)
	viper.SetDefault("scoring.dip_decay_rate", ds.DipDecayRate)
	viper.SetDefault("scoring.dip_decay_scale", ds.DipDecayScale)
}

// applyDefaults 未配置的字段回落到默认值
func (c *Config) applyDefaults() {
	dj := DefaultJobs()
	if c.Jobs.ImportIntervalSec <= 0 {
		c.Jobs.ImportIntervalSec = dj.ImportIntervalSec
	}
	if c.Jobs.ImportCutoffMin <= 0 {
		c.Jobs.ImportCutoffMin = dj.ImportCutoffMin
	}
	if c.Jobs.AnalysisIntervalSec <= 0 {
		c.Jobs.AnalysisIntervalSec = dj.AnalysisIntervalSec
	}
	if c.Jobs.AnalysisOffsetSec <= 0 {
		c.Jobs.AnalysisOffsetSec = dj.AnalysisOffsetSec
	}
	if c.Jobs.AnalysisWindowMin <= 0 {
		c.Jobs.AnalysisWindowMin = dj.AnalysisWindowMin
	}
	if c.Jobs.ThrottleMs <= 0 {
		c.Jobs.ThrottleMs = dj.ThrottleMs
	}
	if c.Jobs.RefreshHotIntervalSec <= 0 {
		c.Jobs.RefreshHotIntervalSec = dj.RefreshHotIntervalSec
	}
	if c.Jobs.RefreshHotOffsetSec <= 0 {
		c.Jobs.RefreshHotOffsetSec = dj.RefreshHotOffsetSec
	}
	if c.Jobs.RefreshHotLimit <= 0 {
		c.Jobs.RefreshHotLimit = dj.RefreshHotLimit
	}
	if c.Jobs.RefreshMidIntervalSec <= 0 {
		c.Jobs.RefreshMidIntervalSec = dj.RefreshMidIntervalSec
	}
	if c.Jobs.RefreshMidOffsetSec <= 0 {
		c.Jobs.RefreshMidOffsetSec = dj.RefreshMidOffsetSec
	}
	if c.Jobs.RefreshMidMinAgeMin <= 0 {
		c.Jobs.RefreshMidMinAgeMin = dj.RefreshMidMinAgeMin
	}
	if c.Jobs.RefreshMidMaxAgeMin <= 0 {
		c.Jobs.RefreshMidMaxAgeMin = dj.RefreshMidMaxAgeMin
	}
	if c.Jobs.ScoringIntervalSec <= 0 {
		c.Jobs.ScoringIntervalSec = dj.ScoringIntervalSec
	}
	if c.Jobs.ScoringOffsetSec <= 0 {
		c.Jobs.ScoringOffsetSec = dj.ScoringOffsetSec
	}
	if c.Jobs.ScoringWindowHours <= 0 {
		c.Jobs.ScoringWindowHours = dj.ScoringWindowHours
	}
	if c.Jobs.CleanupIntervalSec <= 0 {
		c.Jobs.CleanupIntervalSec = dj.CleanupIntervalSec
	}
	if c.Jobs.CleanupOffsetSec <= 0 {
		c.Jobs.CleanupOffsetSec = dj.CleanupOffsetSec
	}
	if c.Jobs.RetentionHours <= 0 {
		c.Jobs.RetentionHours = dj.RetentionHours
	}
}

func WatchConfig(config *Config) {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := InitConfig()
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
