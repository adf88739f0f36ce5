package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Token 一个链上 mint 地址一行，address 为主键且不可变
// 行情字段在首次分析前均为 NULL，每次成功分析整体覆写
type Token struct {
	Address    string    `gorm:"column:address;primaryKey" json:"address"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Symbol     string    `gorm:"column:symbol;not null" json:"symbol"`
	MintDate   time.Time `gorm:"column:mint_date;not null;index" json:"mint_date"` // 链上铸造时间，只写一次
	ImportDate time.Time `gorm:"column:import_date;not null" json:"import_date"`

	LastAnalysis *time.Time `gorm:"column:last_analysis" json:"last_analysis"`
	LastScore    *time.Time `gorm:"column:last_score" json:"last_score"`

	CurrentPrice   *decimal.Decimal `gorm:"column:current_price" json:"current_price"`
	PriceChange24h *decimal.Decimal `gorm:"column:price_change_24h" json:"price_change_24h"`
	PriceChangeH6  *decimal.Decimal `gorm:"column:price_change_h6" json:"price_change_h6"`
	PriceChangeH1  *decimal.Decimal `gorm:"column:price_change_h1" json:"price_change_h1"`
	PriceChangeM5  *decimal.Decimal `gorm:"column:price_change_m5" json:"price_change_m5"`
	Volume24h      *decimal.Decimal `gorm:"column:volume_24h" json:"volume_24h"`
	VolumeH6       *decimal.Decimal `gorm:"column:volume_h6" json:"volume_h6"`
	VolumeH1       *decimal.Decimal `gorm:"column:volume_h1" json:"volume_h1"`
	VolumeM5       *decimal.Decimal `gorm:"column:volume_m5" json:"volume_m5"`
	MarketCap      *decimal.Decimal `gorm:"column:market_cap" json:"market_cap"`
	Fdv            *decimal.Decimal `gorm:"column:fdv" json:"fdv"`
	Liquidity      *decimal.Decimal `gorm:"column:liquidity" json:"liquidity"`
	HolderCount    *int64           `gorm:"column:holder_count" json:"holder_count"`
	Buys24h        *int64           `gorm:"column:buys_24h" json:"buys_24h"`
	Sells24h       *int64           `gorm:"column:sells_24h" json:"sells_24h"`

	TotalScore *float64 `gorm:"column:total_score;index" json:"total_score"` // NULL 表示尚未评分

	KnownMarkets pq.StringArray  `gorm:"column:known_markets;type:text[]" json:"known_markets"`
	SecurityInfo *datatypes.JSON `gorm:"column:security_info" json:"security_info"` // mint/freeze authority 快照
}

func (*Token) TableName() string {
	return "tokens"
}

// TokenSocial 代币社媒链接，随每次成功分析整体替换
type TokenSocial struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	TokenAddress string `gorm:"column:token_address;not null;index" json:"token_address"`
	Type         string `gorm:"column:type;not null" json:"type"`
	URL          string `gorm:"column:url;not null" json:"url"`
}

func (*TokenSocial) TableName() string {
	return "token_socials"
}
