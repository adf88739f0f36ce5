package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// JobRuns 任务执行相关
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Total number of job runs by result.",
		},
		[]string{"job", "status"},
	)
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Time taken by each job run.",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
		},
		[]string{"job"},
	)

	// 代币生命周期指标
	TokensImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tokens_imported_total",
			Help: "Total number of tokens inserted by the import job.",
		},
	)
	TokensAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_analyzed_total",
			Help: "Total number of tokens enriched, by job.",
		},
		[]string{"job"},
	)
	TokensDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tokens_deleted_total",
			Help: "Total number of tokens removed by the cleanup job.",
		},
	)

	// UpstreamRequests 上游数据源请求
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of upstream API requests by provider and status.",
		},
		[]string{"provider", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		// 任务指标
		JobRuns,
		JobDuration,

		// 代币指标
		TokensImported,
		TokensAnalyzed,
		TokensDeleted,

		// 上游指标
		UpstreamRequests,
	)
}
