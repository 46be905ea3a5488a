package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collection pipeline metrics, labelled by job so one dashboard covers the
// whole schedule.
var (
	CollectionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "collection_runs_total",
		Help:      "Completed collection job runs by job and outcome.",
	}, []string{"job", "outcome"})

	CollectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "trending_tracker",
		Name:      "collection_duration_seconds",
		Help:      "Wall time of collection job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"job"})

	VideosCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "videos_collected_total",
		Help:      "Normalized video records persisted, by job.",
	}, []string{"job"})

	StatsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "stats_inserted_total",
		Help:      "Stat observations appended to the time series.",
	})

	APIQuotaUsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "api_quota_units_total",
		Help:      "YouTube Data API quota units consumed.",
	})

	QuotaExhaustedSkips = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "quota_exhausted_skips_total",
		Help:      "Collection runs skipped because the daily quota threshold was reached.",
	})

	AnomaliesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "anomalous_stats_deleted_total",
		Help:      "Stat rows removed by the anomaly cleanup pass.",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trending_tracker",
		Name:      "board_cache_requests_total",
		Help:      "Leaderboard cache lookups by result.",
	}, []string{"result"})
)

// Outcome label values for CollectionRuns.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)
