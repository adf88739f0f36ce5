package job

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trench-radar/internal/worker/config"
	"trench-radar/internal/worker/model"
	"trench-radar/internal/worker/service"
	"trench-radar/pkg/dexscreener"
	"trench-radar/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 同一守卫下并发执行，只有一个真正跑，另一个拿到 skipped
func TestRunGuardedSkipsConcurrent(t *testing.T) {
	var guard atomic.Bool
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	go func() {
		defer wg.Done()
		first = runGuarded("test_job", &guard, zap.NewNop(), func() Result {
			close(started)
			<-release
			return Result{Success: true, Message: "done"}
		})
	}()

	<-started
	second := runGuarded("test_job", &guard, zap.NewNop(), func() Result {
		return Result{Success: true, Message: "should not run"}
	})
	close(release)
	wg.Wait()

	assert.True(t, first.Success)
	assert.False(t, second.Success)
	assert.Equal(t, "Job already running", second.Message)

	// 守卫释放后可再次执行
	third := runGuarded("test_job", &guard, zap.NewNop(), func() Result {
		return Result{Success: true, Message: "again"}
	})
	assert.True(t, third.Success)
}

// fakeMarket 固定行情返回
type fakeMarket struct {
	pairs []dexscreener.Pair
	calls int32
}

func (f *fakeMarket) GetTokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.pairs, nil
}

func marketPair() dexscreener.Pair {
	p := dexscreener.Pair{PriceUsd: "1.0"}
	p.Volume.H24 = utils.Ptr(50_000.0)
	p.Liquidity = &struct {
		Usd   *float64 `json:"usd"`
		Base  float64  `json:"base"`
		Quote float64  `json:"quote"`
	}{Usd: utils.Ptr(20_000.0)}
	p.MarketCap = utils.Ptr(500_000.0)
	p.Txns.H24 = dexscreener.TxnCount{Buys: 100, Sells: 60}
	return p
}

func testJobsConfig() config.JobsConfig {
	cfg := config.DefaultJobs()
	cfg.ThrottleMs = 1
	return cfg
}

func TestAnalysisJobEnrichesAndScores(t *testing.T) {
	d := newMemDAO()
	d.tokens[mintA] = model.Token{Address: mintA, MintDate: time.Now().Add(-2 * time.Minute)}
	d.tokens[mintB] = model.Token{Address: mintB, MintDate: time.Now().Add(-20 * time.Minute)} // 超出分析窗口

	market := &fakeMarket{pairs: []dexscreener.Pair{marketPair()}}
	scorer := service.NewScorer(config.DefaultScoring())
	enricher := service.NewEnricher(market, scorer, d, zap.NewNop())

	j := NewAnalysisJob(testJobsConfig(), d, enricher, zap.NewNop())
	res := j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Details["tokensFound"])
	assert.Equal(t, 1, res.Details["tokensAnalyzed"])

	got := d.tokens[mintA]
	require.NotNil(t, got.TotalScore)
	assert.Greater(t, *got.TotalScore, 1.0)
	require.NotNil(t, got.LastAnalysis)
	require.NotNil(t, got.Volume24h)

	// 分析过的代币下一轮不再入选
	res = j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Details["tokensFound"])
}

func TestHotRefreshJobTargetsScored(t *testing.T) {
	d := newMemDAO()
	d.tokens[mintA] = model.Token{Address: mintA, MintDate: time.Now().Add(-10 * time.Minute), TotalScore: utils.Ptr(60.0)}
	d.tokens[mintB] = model.Token{Address: mintB, MintDate: time.Now().Add(-10 * time.Minute)} // 未评分不进热档

	market := &fakeMarket{pairs: []dexscreener.Pair{marketPair()}}
	scorer := service.NewScorer(config.DefaultScoring())
	enricher := service.NewEnricher(market, scorer, d, zap.NewNop())

	j := NewHotRefreshJob(testJobsConfig(), d, enricher, zap.NewNop())
	res := j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Details["tokensFound"])
	assert.Equal(t, 1, res.Details["tokensRefreshed"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&market.calls))
}

func TestMidRefreshJobTargetsAgeWindow(t *testing.T) {
	d := newMemDAO()
	d.tokens[mintA] = model.Token{Address: mintA, MintDate: time.Now().Add(-8 * time.Minute)}
	d.tokens[mintB] = model.Token{Address: mintB, MintDate: time.Now().Add(-2 * time.Minute)} // 太新，不在中档窗口

	market := &fakeMarket{pairs: []dexscreener.Pair{marketPair()}}
	scorer := service.NewScorer(config.DefaultScoring())
	enricher := service.NewEnricher(market, scorer, d, zap.NewNop())

	j := NewMidRefreshJob(testJobsConfig(), d, enricher, zap.NewNop())
	res := j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Details["tokensFound"])
}

func TestScoringJobRescoresWindow(t *testing.T) {
	d := newMemDAO()
	d.tokens[mintA] = model.Token{
		Address:        mintA,
		MintDate:       time.Now().Add(-time.Hour),
		Volume24h:      utils.DecimalPtr(utils.Ptr(50_000.0)),
		MarketCap:      utils.DecimalPtr(utils.Ptr(500_000.0)),
		Liquidity:      utils.DecimalPtr(utils.Ptr(20_000.0)),
		Buys24h:        utils.Ptr(int64(100)),
		Sells24h:       utils.Ptr(int64(60)),
		PriceChange24h: utils.DecimalPtr(utils.Ptr(15.0)),
	}
	d.tokens[mintB] = model.Token{Address: mintB, MintDate: time.Now().Add(-48 * time.Hour)} // 超出评分窗口

	scorer := service.NewScorer(config.DefaultScoring())
	j := NewScoringJob(testJobsConfig(), d, scorer, zap.NewNop())

	res := j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, 1, res.Details["tokensScored"])

	got := d.tokens[mintA]
	require.NotNil(t, got.TotalScore)
	expected := scorer.Score(service.ScoreInputFromToken(got))
	assert.Equal(t, expected, *got.TotalScore)
	assert.Nil(t, d.tokens[mintB].TotalScore)
}

func TestCleanupJobDeletesExpired(t *testing.T) {
	d := newMemDAO()
	d.tokens[mintA] = model.Token{Address: mintA, MintDate: time.Now().Add(-7 * time.Hour)}
	d.tokens[mintB] = model.Token{Address: mintB, MintDate: time.Now().Add(-time.Hour)}

	j := NewCleanupJob(testJobsConfig(), d, zap.NewNop())
	res := j.Execute(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, int64(1), res.Details["tokensDeleted"])
	assert.NotContains(t, d.tokens, mintA)
	assert.Contains(t, d.tokens, mintB)
}
