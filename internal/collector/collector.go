package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/internal/youtube"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// Collection targets per chart pull. The dedicated video and shorts cycles
// pull deep; the per-country sweep stays at one page per board to keep its
// quota cost bounded.
const (
	globalVideosTarget   = 100
	categoryVideosTarget = 100
	globalShortsTarget   = 500
	categoryShortsTarget = 200
	countryBoardTarget   = 50
)

// Estimated quota cost per job, checked up front so a run that cannot finish
// under the daily threshold does not start at all.
const (
	videosJobCost    = 50
	shortsJobCost    = 200
	countriesJobCost = 150
	creatorsJobCost  = 5
	refreshJobCost   = 10
)

// anomalyScanLimit bounds one cleanup pass.
const anomalyScanLimit = 100

// Source is the adapter surface the collector pulls from.
type Source interface {
	TrendingVideos(ctx context.Context, q youtube.TrendingQuery) ([]*models.VideoWithStats, int, error)
	TrendingShorts(ctx context.Context, q youtube.TrendingQuery) ([]*models.VideoWithStats, int, error)
	ChannelDetails(ctx context.Context, channelIDs []string) ([]*models.Creator, int, error)
	RefreshStats(ctx context.Context, videoIDs []string) ([]*models.VideoStat, int, error)
}

// QuotaGuard gates collection on the daily API budget.
type QuotaGuard interface {
	CheckQuotaAvailable(ctx context.Context, requiredQuota int) (bool, *models.QuotaInfo, error)
	RecordQuotaUsage(ctx context.Context, quotaCost int) error
}

// CacheInvalidator clears cached board responses after a write cycle.
type CacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Config tunes the collection jobs.
type Config struct {
	// Categories are the chart category IDs worth polling. Several taxonomy
	// entries (Movies, Trailers and the like) return errors from the chart
	// endpoint and are deliberately absent.
	Categories []int64

	// Countries are the regions the country sweep covers.
	Countries []string

	CallDelay    time.Duration
	CountryDelay time.Duration

	RefreshBatchSize int
	RefreshMaxAge    time.Duration

	CreatorBatchSize int
	CreatorMaxAge    time.Duration

	// SearchDiscovery would widen collection beyond the charts with keyword
	// search. One search call costs 100 quota units, twice a full videos
	// cycle, so the toggle never fetches anything; the videos job only logs
	// the skipped step.
	SearchDiscovery bool
}

// DefaultConfig returns the production collection tuning.
func DefaultConfig() Config {
	return Config{
		Categories:       []int64{10, 20, 17, 24, 25, 26, 23, 22, 28, 1, 2, 15, 29},
		Countries:        []string{"US", "GB", "CA", "AU", "IN"},
		CallDelay:        100 * time.Millisecond,
		CountryDelay:     500 * time.Millisecond,
		RefreshBatchSize: 500,
		RefreshMaxAge:    30 * time.Minute,
		CreatorBatchSize: 50,
		CreatorMaxAge:    12 * time.Hour,
	}
}

// Collector runs the scheduled collection jobs: chart pulls, stat refreshes,
// creator profile updates and stat anomaly cleanup.
type Collector struct {
	source        Source
	countrySource Source
	videos        repository.VideoRepository
	stats         repository.StatsRepository
	creators      repository.CreatorRepository
	quota         QuotaGuard
	invalidator   CacheInvalidator
	cfg           Config
	log           *zap.Logger

	now func() time.Time
}

// New creates a collector. countrySource may equal source; the country sweep
// is split onto its own API key in production so regional pulls cannot starve
// the main charts. invalidator may be nil when no cache is deployed.
func New(source, countrySource Source, videos repository.VideoRepository, stats repository.StatsRepository,
	creators repository.CreatorRepository, quota QuotaGuard, invalidator CacheInvalidator, cfg Config) *Collector {

	if countrySource == nil {
		countrySource = source
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultConfig().Categories
	}
	if len(cfg.Countries) == 0 {
		cfg.Countries = DefaultConfig().Countries
	}

	return &Collector{
		source:        source,
		countrySource: countrySource,
		videos:        videos,
		stats:         stats,
		creators:      creators,
		quota:         quota,
		invalidator:   invalidator,
		cfg:           cfg,
		log:           logger.Named("collector"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// checkQuota reports whether a job with the given estimated cost may run.
func (c *Collector) checkQuota(ctx context.Context, job string, cost int) (bool, error) {
	ok, info, err := c.quota.CheckQuotaAvailable(ctx, cost)
	if err != nil {
		return false, err
	}
	if !ok {
		c.log.Warn("skipping job, quota threshold reached",
			zap.String("job", job),
			zap.Int("quota_used", info.QuotaUsed),
			zap.Int("quota_limit", info.QuotaLimit))
	}
	return ok, nil
}

// recordUsage books consumed units, tolerating accounting failures: losing a
// usage row is better than failing a collection that already happened.
func (c *Collector) recordUsage(ctx context.Context, quotaUsed int) {
	if quotaUsed <= 0 {
		return
	}
	if err := c.quota.RecordQuotaUsage(ctx, quotaUsed); err != nil {
		c.log.Error("failed to record quota usage", zap.Int("cost", quotaUsed), zap.Error(err))
	}
}

// invalidateBoards drops cached board responses after a successful write
// cycle.
func (c *Collector) invalidateBoards(ctx context.Context) {
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.InvalidatePrefix(ctx, "board:"); err != nil {
		c.log.Warn("board cache invalidation failed", zap.Error(err))
	}
}

// sleep pauses between API calls, honoring cancellation.
func (c *Collector) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
