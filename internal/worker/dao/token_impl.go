package dao

import (
	"context"
	"time"

	"trench-radar/internal/worker/model"
	"trench-radar/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenDAO 实现TokenDAO接口
type tokenDAO struct {
	db *gorm.DB
}

// NewTokenDAO 创建TokenDAO实例
func NewTokenDAO(db *gorm.DB) TokenDAO {
	return &tokenDAO{db: db}
}

func (t *tokenDAO) InsertNewTokens(ctx context.Context, tokens []model.Token) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	addrs := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		addrs = append(addrs, tok.Address)
	}

	var inserted []string
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&model.Token{}).
			Where("address IN ?", addrs).
			Pluck("address", &existing).Error; err != nil {
			return err
		}

		// 冲突即跳过，并发导入同一地址不会报错也不会产生重复行
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
			Create(&tokens)
		if res.Error != nil {
			return res.Error
		}

		known := make(map[string]struct{}, len(existing))
		for _, a := range existing {
			known[a] = struct{}{}
		}
		for _, a := range addrs {
			if _, ok := known[a]; !ok {
				inserted = append(inserted, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.Store("insert tokens", err)
	}
	return inserted, nil
}

func (t *tokenDAO) ListUnanalyzed(ctx context.Context, window time.Duration) ([]model.Token, error) {
	var tokens []model.Token
	cutoff := time.Now().Add(-window)
	res := t.db.WithContext(ctx).
		Where("mint_date > ? AND last_analysis IS NULL", cutoff).
		Order("mint_date DESC").
		Find(&tokens)
	if res.Error != nil {
		return nil, errs.Store("list unanalyzed", res.Error)
	}
	return tokens, nil
}

func (t *tokenDAO) ListTopScored(ctx context.Context, limit int) ([]model.Token, error) {
	var tokens []model.Token
	res := t.db.WithContext(ctx).
		Where("total_score > 0").
		Order("total_score DESC").
		Limit(limit).
		Find(&tokens)
	if res.Error != nil {
		return nil, errs.Store("list top scored", res.Error)
	}
	return tokens, nil
}

func (t *tokenDAO) ListByMintAge(ctx context.Context, minAge, maxAge time.Duration) ([]model.Token, error) {
	var tokens []model.Token
	now := time.Now()
	res := t.db.WithContext(ctx).
		Where("mint_date <= ? AND mint_date > ?", now.Add(-minAge), now.Add(-maxAge)).
		Order("mint_date DESC").
		Find(&tokens)
	if res.Error != nil {
		return nil, errs.Store("list by mint age", res.Error)
	}
	return tokens, nil
}

func (t *tokenDAO) ListMintedWithin(ctx context.Context, window time.Duration) ([]model.Token, error) {
	var tokens []model.Token
	res := t.db.WithContext(ctx).
		Where("mint_date > ?", time.Now().Add(-window)).
		Find(&tokens)
	if res.Error != nil {
		return nil, errs.Store("list minted within", res.Error)
	}
	return tokens, nil
}

func (t *tokenDAO) UpdateEnrichment(ctx context.Context, address string, e Enrichment) error {
	// 单条 UPDATE 覆写全部行情列与评分，不存在"行情更新了但评分没更新"的中间态
	updates := map[string]interface{}{
		"current_price":    e.CurrentPrice,
		"price_change_24h": e.PriceChange24h,
		"price_change_h6":  e.PriceChangeH6,
		"price_change_h1":  e.PriceChangeH1,
		"price_change_m5":  e.PriceChangeM5,
		"volume_24h":       e.Volume24h,
		"volume_h6":        e.VolumeH6,
		"volume_h1":        e.VolumeH1,
		"volume_m5":        e.VolumeM5,
		"market_cap":       e.MarketCap,
		"fdv":              e.Fdv,
		"liquidity":        e.Liquidity,
		"holder_count":     e.HolderCount,
		"buys_24h":         e.Buys24h,
		"sells_24h":        e.Sells24h,
		"total_score":      e.TotalScore,
		"last_analysis":    e.AnalyzedAt,
		"last_score":       e.AnalyzedAt,
	}

	res := t.db.WithContext(ctx).Model(&model.Token{}).
		Where("address = ?", address).
		Updates(updates)
	if res.Error != nil {
		return errs.Store("update enrichment", res.Error)
	}
	return nil
}

func (t *tokenDAO) UpdateScore(ctx context.Context, address string, score float64, at time.Time) error {
	res := t.db.WithContext(ctx).Model(&model.Token{}).
		Where("address = ?", address).
		Updates(map[string]interface{}{
			"total_score": score,
			"last_score":  at,
		})
	if res.Error != nil {
		return errs.Store("update score", res.Error)
	}
	return nil
}

func (t *tokenDAO) ReplaceSocials(ctx context.Context, address string, socials []model.TokenSocial) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token_address = ?", address).Delete(&model.TokenSocial{}).Error; err != nil {
			return err
		}
		if len(socials) == 0 {
			return nil
		}
		for i := range socials {
			socials[i].TokenAddress = address
		}
		return tx.Create(&socials).Error
	})
	if err != nil {
		return errs.Store("replace socials", err)
	}
	return nil
}

func (t *tokenDAO) GetSocials(ctx context.Context, addresses []string) (map[string][]model.TokenSocial, error) {
	grouped := make(map[string][]model.TokenSocial, len(addresses))
	if len(addresses) == 0 {
		return grouped, nil
	}

	var socials []model.TokenSocial
	res := t.db.WithContext(ctx).
		Where("token_address IN ?", addresses).
		Find(&socials)
	if res.Error != nil {
		return nil, errs.Store("get socials", res.Error)
	}

	for _, s := range socials {
		grouped[s.TokenAddress] = append(grouped[s.TokenAddress], s)
	}
	return grouped, nil
}

func (t *tokenDAO) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)

	var deleted int64
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先删社媒链接，避免留下孤儿行
		expired := tx.Model(&model.Token{}).Select("address").Where("mint_date < ?", cutoff)
		if err := tx.Where("token_address IN (?)", expired).Delete(&model.TokenSocial{}).Error; err != nil {
			return err
		}

		res := tx.Where("mint_date < ?", cutoff).Delete(&model.Token{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, errs.Store("delete older than", err)
	}
	return deleted, nil
}

func (t *tokenDAO) LatestMintDate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	res := t.db.WithContext(ctx).Model(&model.Token{}).
		Select("MAX(mint_date)").
		Scan(&latest)
	if res.Error != nil {
		return nil, errs.Store("latest mint date", res.Error)
	}
	return latest, nil
}

func (t *tokenDAO) ListScoreOrdered(ctx context.Context, latest time.Time, fromAge, toAge time.Duration, limit int) ([]model.Token, error) {
	var tokens []model.Token
	res := t.db.WithContext(ctx).
		Where("mint_date > ? AND mint_date <= ?", latest.Add(-toAge), latest.Add(-fromAge)).
		Order("total_score DESC NULLS LAST, volume_24h DESC NULLS LAST").
		Limit(limit).
		Find(&tokens)
	if res.Error != nil {
		return nil, errs.Store("list score ordered", res.Error)
	}
	return tokens, nil
}
