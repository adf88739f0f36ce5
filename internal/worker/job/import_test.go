package job

import (
	"context"
	"strconv"
	"testing"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/dao"
	"trench-radar/internal/worker/model"
	"trench-radar/pkg/jupiter"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memDAO 内存版 TokenDAO，按主键去重模拟冲突跳过
type memDAO struct {
	tokens  map[string]model.Token
	socials map[string][]model.TokenSocial
}

func newMemDAO() *memDAO {
	return &memDAO{
		tokens:  make(map[string]model.Token),
		socials: make(map[string][]model.TokenSocial),
	}
}

func (d *memDAO) InsertNewTokens(ctx context.Context, tokens []model.Token) ([]string, error) {
	var inserted []string
	for _, t := range tokens {
		if _, ok := d.tokens[t.Address]; ok {
			continue
		}
		d.tokens[t.Address] = t
		inserted = append(inserted, t.Address)
	}
	return inserted, nil
}

func (d *memDAO) ListUnanalyzed(ctx context.Context, window time.Duration) ([]model.Token, error) {
	cutoff := time.Now().Add(-window)
	var out []model.Token
	for _, t := range d.tokens {
		if t.LastAnalysis == nil && t.MintDate.After(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *memDAO) ListTopScored(ctx context.Context, limit int) ([]model.Token, error) {
	var out []model.Token
	for _, t := range d.tokens {
		if t.TotalScore != nil {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (d *memDAO) ListByMintAge(ctx context.Context, minAge, maxAge time.Duration) ([]model.Token, error) {
	now := time.Now()
	var out []model.Token
	for _, t := range d.tokens {
		age := now.Sub(t.MintDate)
		if age >= minAge && age < maxAge {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *memDAO) ListMintedWithin(ctx context.Context, window time.Duration) ([]model.Token, error) {
	cutoff := time.Now().Add(-window)
	var out []model.Token
	for _, t := range d.tokens {
		if t.MintDate.After(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (d *memDAO) UpdateEnrichment(ctx context.Context, address string, e dao.Enrichment) error {
	t, ok := d.tokens[address]
	if !ok {
		return nil
	}
	t.Volume24h = e.Volume24h
	t.MarketCap = e.MarketCap
	t.Liquidity = e.Liquidity
	t.Buys24h = e.Buys24h
	t.Sells24h = e.Sells24h
	t.TotalScore = &e.TotalScore
	at := e.AnalyzedAt
	t.LastAnalysis = &at
	t.LastScore = &at
	d.tokens[address] = t
	return nil
}

func (d *memDAO) UpdateScore(ctx context.Context, address string, score float64, at time.Time) error {
	t, ok := d.tokens[address]
	if !ok {
		return nil
	}
	t.TotalScore = &score
	t.LastScore = &at
	d.tokens[address] = t
	return nil
}

func (d *memDAO) ReplaceSocials(ctx context.Context, address string, socials []model.TokenSocial) error {
	d.socials[address] = socials
	return nil
}

func (d *memDAO) GetSocials(ctx context.Context, addresses []string) (map[string][]model.TokenSocial, error) {
	return d.socials, nil
}

func (d *memDAO) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	var deleted int64
	for addr, t := range d.tokens {
		if t.MintDate.Before(cutoff) {
			delete(d.tokens, addr)
			deleted++
		}
	}
	return deleted, nil
}

func (d *memDAO) LatestMintDate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	for _, t := range d.tokens {
		md := t.MintDate
		if latest == nil || md.After(*latest) {
			latest = &md
		}
	}
	return latest, nil
}

func (d *memDAO) ListScoreOrdered(ctx context.Context, latest time.Time, fromAge, toAge time.Duration, limit int) ([]model.Token, error) {
	var out []model.Token
	for _, t := range d.tokens {
		age := latest.Sub(t.MintDate)
		if age >= fromAge && age < toAge {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

var _ dao.TokenDAO = (*memDAO)(nil)

// fakeDiscovery 固定返回预置的新币列表
type fakeDiscovery struct {
	tokens []jupiter.NewToken
	err    error
}

func (f *fakeDiscovery) GetNewTokens(ctx context.Context) ([]jupiter.NewToken, error) {
	return f.tokens, f.err
}

func unixStr(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

const (
	mintA = "So11111111111111111111111111111111111111112"
	mintB = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func TestImportJobInsertsFreshTokens(t *testing.T) {
	now := time.Now()
	discovery := &fakeDiscovery{tokens: []jupiter.NewToken{
		{Mint: mintA, CreatedAt: unixStr(now.Add(-2 * time.Minute)), Name: "Fresh", Symbol: "FRS"},
		{Mint: mintB, CreatedAt: unixStr(now.Add(-40 * time.Minute)), Name: "Stale", Symbol: "STL"}, // 超过窗口
		{Mint: "not-a-valid-mint", CreatedAt: unixStr(now), Name: "Bad", Symbol: "BAD"},
		{Mint: mintA, CreatedAt: "garbage", Name: "BadTime", Symbol: "BTM"},
	}}

	d := newMemDAO()
	j := NewImportJob(config.DefaultJobs(), discovery, d, nil, zap.NewNop())

	res := j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Details["tokensImported"])
	assert.Equal(t, 4, res.Details["tokensFound"])

	require.Contains(t, d.tokens, mintA)
	assert.NotContains(t, d.tokens, mintB)
	assert.Equal(t, "Fresh", d.tokens[mintA].Name)
}

// 重复导入不重复入库
func TestImportJobIdempotent(t *testing.T) {
	now := time.Now()
	discovery := &fakeDiscovery{tokens: []jupiter.NewToken{
		{Mint: mintA, CreatedAt: unixStr(now.Add(-time.Minute)), Name: "Fresh", Symbol: "FRS"},
	}}

	d := newMemDAO()
	j := NewImportJob(config.DefaultJobs(), discovery, d, nil, zap.NewNop())

	first := j.Execute(context.Background())
	require.True(t, first.Success)
	assert.Equal(t, 1, first.Details["tokensImported"])

	second := j.Execute(context.Background())
	require.True(t, second.Success)
	assert.Equal(t, 0, second.Details["tokensImported"])
	assert.Len(t, d.tokens, 1)
}

// fakeMQ 记录发出的消息
type fakeMQ struct {
	msgs []kafka.Message
}

func (f *fakeMQ) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

// 重复发现的旧币不再触发事件
func TestImportJobPublishesOnlyNewTokens(t *testing.T) {
	now := time.Now()
	discovery := &fakeDiscovery{tokens: []jupiter.NewToken{
		{Mint: mintA, CreatedAt: unixStr(now.Add(-time.Minute)), Name: "Fresh", Symbol: "FRS"},
	}}

	d := newMemDAO()
	mq := &fakeMQ{}
	j := NewImportJob(config.DefaultJobs(), discovery, d, mq, zap.NewNop())

	first := j.Execute(context.Background())
	require.True(t, first.Success)
	require.Len(t, mq.msgs, 1)
	assert.Equal(t, mintA, string(mq.msgs[0].Key))

	// 第二轮发现接口带回旧币 A 和新币 B
	discovery.tokens = append(discovery.tokens, jupiter.NewToken{
		Mint: mintB, CreatedAt: unixStr(now.Add(-time.Minute)), Name: "Next", Symbol: "NXT",
	})

	second := j.Execute(context.Background())
	require.True(t, second.Success)
	assert.Equal(t, 1, second.Details["tokensImported"])
	require.Len(t, mq.msgs, 2)
	assert.Equal(t, mintB, string(mq.msgs[1].Key))
}

func TestImportJobUpstreamFailure(t *testing.T) {
	discovery := &fakeDiscovery{err: assert.AnError}
	j := NewImportJob(config.DefaultJobs(), discovery, newMemDAO(), nil, zap.NewNop())

	res := j.Execute(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "fetch new tokens failed")
}

func TestBuildTokenRowSecurityInfo(t *testing.T) {
	cutoff := time.Now().Add(-35 * time.Minute)
	auth := "authority1"

	row, err := buildTokenRow(jupiter.NewToken{
		Mint:          mintA,
		CreatedAt:     unixStr(time.Now()),
		Name:          "Fresh",
		Symbol:        "FRS",
		KnownMarkets:  []string{"m1", "m2"},
		MintAuthority: &auth,
	}, cutoff)
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, []string{"m1", "m2"}, []string(row.KnownMarkets))
	require.NotNil(t, row.SecurityInfo)
	assert.Contains(t, string(*row.SecurityInfo), "authority1")

	// 无权限信息时不写 security_info
	plain, err := buildTokenRow(jupiter.NewToken{Mint: mintA, CreatedAt: unixStr(time.Now())}, cutoff)
	require.NoError(t, err)
	require.NotNil(t, plain)
	assert.Nil(t, plain.SecurityInfo)
}
