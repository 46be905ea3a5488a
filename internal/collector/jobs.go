package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/metrics"
	"github.com/mostviewed/trending-tracker-go/internal/youtube"
)

// VideosResult summarizes one regular-videos collection cycle.
type VideosResult struct {
	Skipped             bool   `json:"skipped,omitempty"`
	SkipReason          string `json:"skip_reason,omitempty"`
	RefreshedStats      int    `json:"refreshed_stats"`
	GlobalVideos        int    `json:"global_videos"`
	CategoryVideos      int    `json:"category_videos"`
	CategoriesProcessed int    `json:"categories_processed"`
	Errors              int    `json:"errors"`
	QuotaUsed           int    `json:"quota_used"`
}

// CollectVideos refreshes stats for tracked videos that have gone stale, then
// pulls the global chart and every configured category chart. Shorts are
// excluded here; they have their own cycle.
//
// Per-category failures are counted, logged and skipped so one broken
// category cannot sink the whole run.
func (c *Collector) CollectVideos(ctx context.Context) (*VideosResult, error) {
	start := time.Now()
	result := &VideosResult{}

	ok, err := c.checkQuota(ctx, "videos", videosJobCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.QuotaExhaustedSkips.Inc()
		metrics.CollectionRuns.WithLabelValues("videos", metrics.OutcomeSkipped).Inc()
		result.Skipped = true
		result.SkipReason = "quota threshold reached"
		return result, nil
	}

	capturedAt := c.now()

	// Stat refresh keeps high performers' time series dense even after they
	// rotate off the charts.
	refreshed, err := c.refreshStaleStats(ctx, capturedAt)
	if err != nil {
		c.log.Error("stat refresh failed", zap.Error(err))
		result.Errors++
	}
	result.RefreshedStats = refreshed.inserted
	result.QuotaUsed += refreshed.quotaUsed

	if c.cfg.SearchDiscovery {
		c.log.Warn("search discovery enabled but dormant, search costs 100 quota units per call")
	} else {
		c.log.Debug("search discovery disabled, collecting from charts only")
	}

	// Global chart.
	records, quotaUsed, err := c.source.TrendingVideos(ctx, youtube.TrendingQuery{Target: globalVideosTarget})
	result.QuotaUsed += quotaUsed
	if err != nil {
		c.log.Error("global chart collection failed", zap.Error(err))
		result.Errors++
	} else if n, err := c.persist(ctx, records, capturedAt); err != nil {
		c.log.Error("global chart persist failed", zap.Error(err))
		result.Errors++
	} else {
		result.GlobalVideos = n
	}

	// Category charts.
	for _, categoryID := range c.cfg.Categories {
		if err := c.sleep(ctx, c.cfg.CallDelay); err != nil {
			return result, err
		}

		records, quotaUsed, err := c.source.TrendingVideos(ctx, youtube.TrendingQuery{
			CategoryID: categoryID,
			Target:     categoryVideosTarget,
		})
		result.QuotaUsed += quotaUsed
		if err != nil {
			c.log.Error("category chart collection failed",
				zap.Int64("category_id", categoryID), zap.Error(err))
			result.Errors++
			continue
		}

		n, err := c.persist(ctx, records, capturedAt)
		if err != nil {
			c.log.Error("category chart persist failed",
				zap.Int64("category_id", categoryID), zap.Error(err))
			result.Errors++
			continue
		}

		result.CategoryVideos += n
		result.CategoriesProcessed++
	}

	c.recordUsage(ctx, result.QuotaUsed)
	c.invalidateBoards(ctx)

	metrics.APIQuotaUsed.Add(float64(result.QuotaUsed))
	metrics.VideosCollected.WithLabelValues("videos").Add(float64(result.GlobalVideos + result.CategoryVideos))
	metrics.CollectionRuns.WithLabelValues("videos", metrics.OutcomeOK).Inc()
	metrics.CollectionDuration.WithLabelValues("videos").Observe(time.Since(start).Seconds())

	c.log.Info("videos collection completed",
		zap.Int("refreshed_stats", result.RefreshedStats),
		zap.Int("global_videos", result.GlobalVideos),
		zap.Int("category_videos", result.CategoryVideos),
		zap.Int("errors", result.Errors),
		zap.Int("quota_used", result.QuotaUsed),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// ShortsResult summarizes one shorts collection cycle.
type ShortsResult struct {
	Skipped             bool   `json:"skipped,omitempty"`
	SkipReason          string `json:"skip_reason,omitempty"`
	GlobalShorts        int    `json:"global_shorts"`
	CategoryShorts      int    `json:"category_shorts"`
	CategoriesProcessed int    `json:"categories_processed"`
	Errors              int    `json:"errors"`
	QuotaUsed           int    `json:"quota_used"`
}

// CollectShorts pulls the global and per-category charts keeping only Shorts.
// Targets are deeper than the regular cycle because the shorts boards rank
// from a larger pool.
func (c *Collector) CollectShorts(ctx context.Context) (*ShortsResult, error) {
	start := time.Now()
	result := &ShortsResult{}

	ok, err := c.checkQuota(ctx, "shorts", shortsJobCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.QuotaExhaustedSkips.Inc()
		metrics.CollectionRuns.WithLabelValues("shorts", metrics.OutcomeSkipped).Inc()
		result.Skipped = true
		result.SkipReason = "quota threshold reached"
		return result, nil
	}

	capturedAt := c.now()

	records, quotaUsed, err := c.source.TrendingShorts(ctx, youtube.TrendingQuery{Target: globalShortsTarget})
	result.QuotaUsed += quotaUsed
	if err != nil {
		c.log.Error("global shorts collection failed", zap.Error(err))
		result.Errors++
	} else if n, err := c.persist(ctx, records, capturedAt); err != nil {
		c.log.Error("global shorts persist failed", zap.Error(err))
		result.Errors++
	} else {
		result.GlobalShorts = n
	}

	for _, categoryID := range c.cfg.Categories {
		if err := c.sleep(ctx, c.cfg.CallDelay); err != nil {
			return result, err
		}

		records, quotaUsed, err := c.source.TrendingShorts(ctx, youtube.TrendingQuery{
			CategoryID: categoryID,
			Target:     categoryShortsTarget,
		})
		result.QuotaUsed += quotaUsed
		if err != nil {
			c.log.Error("category shorts collection failed",
				zap.Int64("category_id", categoryID), zap.Error(err))
			result.Errors++
			continue
		}

		n, err := c.persist(ctx, records, capturedAt)
		if err != nil {
			c.log.Error("category shorts persist failed",
				zap.Int64("category_id", categoryID), zap.Error(err))
			result.Errors++
			continue
		}

		result.CategoryShorts += n
		result.CategoriesProcessed++
	}

	c.recordUsage(ctx, result.QuotaUsed)
	c.invalidateBoards(ctx)

	metrics.APIQuotaUsed.Add(float64(result.QuotaUsed))
	metrics.VideosCollected.WithLabelValues("shorts").Add(float64(result.GlobalShorts + result.CategoryShorts))
	metrics.CollectionRuns.WithLabelValues("shorts", metrics.OutcomeOK).Inc()
	metrics.CollectionDuration.WithLabelValues("shorts").Observe(time.Since(start).Seconds())

	c.log.Info("shorts collection completed",
		zap.Int("global_shorts", result.GlobalShorts),
		zap.Int("category_shorts", result.CategoryShorts),
		zap.Int("errors", result.Errors),
		zap.Int("quota_used", result.QuotaUsed),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// CountryResult summarizes the sweep for one region.
type CountryResult struct {
	Videos         int    `json:"videos"`
	Shorts         int    `json:"shorts"`
	CategoryVideos int    `json:"category_videos"`
	CategoryShorts int    `json:"category_shorts"`
	Errors         int    `json:"errors,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CountriesResult summarizes one country sweep.
type CountriesResult struct {
	Skipped    bool                      `json:"skipped,omitempty"`
	SkipReason string                    `json:"skip_reason,omitempty"`
	Countries  map[string]*CountryResult `json:"countries"`
	Errors     int                       `json:"errors"`
	QuotaUsed  int                       `json:"quota_used"`
}

// CollectCountries pulls the regional charts for every configured country:
// the region's own videos and shorts boards, then the region crossed with
// every configured category. The sweep runs on its own API key, so its quota
// accounting is advisory rather than shared.
//
// Per-country and per-category failures are recorded independently in the
// result map; the sweep always continues.
func (c *Collector) CollectCountries(ctx context.Context) (*CountriesResult, error) {
	start := time.Now()
	result := &CountriesResult{Countries: make(map[string]*CountryResult)}

	ok, err := c.checkQuota(ctx, "countries", countriesJobCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.QuotaExhaustedSkips.Inc()
		metrics.CollectionRuns.WithLabelValues("countries", metrics.OutcomeSkipped).Inc()
		result.Skipped = true
		result.SkipReason = "quota threshold reached"
		return result, nil
	}

	capturedAt := c.now()
	collected := 0

	for i, country := range c.cfg.Countries {
		if i > 0 {
			if err := c.sleep(ctx, c.cfg.CountryDelay); err != nil {
				return result, err
			}
		}

		cr := &CountryResult{}
		result.Countries[country] = cr

		n, quotaUsed, err := c.pullCountryBoard(ctx, country, 0, false, capturedAt)
		result.QuotaUsed += quotaUsed
		if err != nil {
			c.log.Error("country videos collection failed",
				zap.String("country", country), zap.Error(err))
			cr.Error = err.Error()
			cr.Errors++
			result.Errors++
			continue
		}
		cr.Videos = n

		if err := c.sleep(ctx, c.cfg.CallDelay); err != nil {
			return result, err
		}

		n, quotaUsed, err = c.pullCountryBoard(ctx, country, 0, true, capturedAt)
		result.QuotaUsed += quotaUsed
		if err != nil {
			c.log.Error("country shorts collection failed",
				zap.String("country", country), zap.Error(err))
			cr.Error = err.Error()
			cr.Errors++
			result.Errors++
			continue
		}
		cr.Shorts = n

		for _, categoryID := range c.cfg.Categories {
			if err := c.sleep(ctx, c.cfg.CallDelay); err != nil {
				return result, err
			}

			n, quotaUsed, err := c.pullCountryBoard(ctx, country, categoryID, false, capturedAt)
			result.QuotaUsed += quotaUsed
			if err != nil {
				c.log.Error("country category collection failed",
					zap.String("country", country),
					zap.Int64("category_id", categoryID), zap.Error(err))
				cr.Errors++
				result.Errors++
			} else {
				cr.CategoryVideos += n
			}

			if err := c.sleep(ctx, c.cfg.CallDelay); err != nil {
				return result, err
			}

			n, quotaUsed, err = c.pullCountryBoard(ctx, country, categoryID, true, capturedAt)
			result.QuotaUsed += quotaUsed
			if err != nil {
				c.log.Error("country category shorts collection failed",
					zap.String("country", country),
					zap.Int64("category_id", categoryID), zap.Error(err))
				cr.Errors++
				result.Errors++
			} else {
				cr.CategoryShorts += n
			}
		}

		collected += cr.Videos + cr.Shorts + cr.CategoryVideos + cr.CategoryShorts
	}

	c.recordUsage(ctx, result.QuotaUsed)
	c.invalidateBoards(ctx)

	metrics.APIQuotaUsed.Add(float64(result.QuotaUsed))
	metrics.VideosCollected.WithLabelValues("countries").Add(float64(collected))
	metrics.CollectionRuns.WithLabelValues("countries", metrics.OutcomeOK).Inc()
	metrics.CollectionDuration.WithLabelValues("countries").Observe(time.Since(start).Seconds())

	c.log.Info("countries collection completed",
		zap.Int("countries", len(c.cfg.Countries)),
		zap.Int("collected", collected),
		zap.Int("errors", result.Errors),
		zap.Int("quota_used", result.QuotaUsed),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// pullCountryBoard fetches and persists one regional chart page. categoryID
// zero means the region's unfiltered chart.
func (c *Collector) pullCountryBoard(ctx context.Context, country string, categoryID int64,
	shorts bool, capturedAt time.Time) (int, int, error) {

	query := youtube.TrendingQuery{
		Region:     country,
		CategoryID: categoryID,
		Target:     countryBoardTarget,
	}

	var (
		records   []*models.VideoWithStats
		quotaUsed int
		err       error
	)
	if shorts {
		records, quotaUsed, err = c.countrySource.TrendingShorts(ctx, query)
	} else {
		records, quotaUsed, err = c.countrySource.TrendingVideos(ctx, query)
	}
	if err != nil {
		return 0, quotaUsed, err
	}

	n, err := c.persist(ctx, records, capturedAt)
	return n, quotaUsed, err
}

// RefreshResult summarizes one standalone stat refresh run.
type RefreshResult struct {
	Skipped       bool   `json:"skipped,omitempty"`
	SkipReason    string `json:"skip_reason,omitempty"`
	Candidates    int    `json:"candidates"`
	StatsInserted int    `json:"stats_inserted"`
	QuotaUsed     int    `json:"quota_used"`
}

// RefreshTopStats re-reads counters for tracked videos whose latest
// observation has gone stale, without pulling any charts. The videos cycle
// runs the same step inline; this entry point exists for ad-hoc runs.
func (c *Collector) RefreshTopStats(ctx context.Context) (*RefreshResult, error) {
	start := time.Now()
	result := &RefreshResult{}

	ok, err := c.checkQuota(ctx, "refresh", refreshJobCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.QuotaExhaustedSkips.Inc()
		metrics.CollectionRuns.WithLabelValues("refresh", metrics.OutcomeSkipped).Inc()
		result.Skipped = true
		result.SkipReason = "quota threshold reached"
		return result, nil
	}

	refreshed, err := c.refreshStaleStats(ctx, c.now())
	result.QuotaUsed = refreshed.quotaUsed
	if err != nil {
		metrics.CollectionRuns.WithLabelValues("refresh", metrics.OutcomeError).Inc()
		return result, err
	}
	result.Candidates = refreshed.candidates
	result.StatsInserted = refreshed.inserted

	c.recordUsage(ctx, result.QuotaUsed)
	if result.StatsInserted > 0 {
		c.invalidateBoards(ctx)
	}

	metrics.APIQuotaUsed.Add(float64(result.QuotaUsed))
	metrics.CollectionRuns.WithLabelValues("refresh", metrics.OutcomeOK).Inc()
	metrics.CollectionDuration.WithLabelValues("refresh").Observe(time.Since(start).Seconds())

	c.log.Info("stat refresh completed",
		zap.Int("candidates", result.Candidates),
		zap.Int("stats_inserted", result.StatsInserted),
		zap.Int("quota_used", result.QuotaUsed),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// CreatorsResult summarizes one creator profile refresh.
type CreatorsResult struct {
	Skipped         bool   `json:"skipped,omitempty"`
	SkipReason      string `json:"skip_reason,omitempty"`
	ChannelsFound   int    `json:"channels_found"`
	ProfilesUpdated int    `json:"profiles_updated"`
	QuotaUsed       int    `json:"quota_used"`
}

// CollectCreators refreshes channel profiles for creators that are missing or
// stale. Finding nothing to update is a successful no-op.
func (c *Collector) CollectCreators(ctx context.Context) (*CreatorsResult, error) {
	start := time.Now()
	result := &CreatorsResult{}

	ok, err := c.checkQuota(ctx, "creators", creatorsJobCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.QuotaExhaustedSkips.Inc()
		metrics.CollectionRuns.WithLabelValues("creators", metrics.OutcomeSkipped).Inc()
		result.Skipped = true
		result.SkipReason = "quota threshold reached"
		return result, nil
	}

	staleBefore := c.now().Add(-c.cfg.CreatorMaxAge)
	channelIDs, err := c.creators.StaleCreatorIDs(ctx, staleBefore, c.cfg.CreatorBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find stale creators: %w", err)
	}
	result.ChannelsFound = len(channelIDs)

	if len(channelIDs) == 0 {
		c.log.Info("no creator profiles need updating")
		metrics.CollectionRuns.WithLabelValues("creators", metrics.OutcomeOK).Inc()
		return result, nil
	}

	profiles, quotaUsed, err := c.source.ChannelDetails(ctx, channelIDs)
	result.QuotaUsed = quotaUsed
	if err != nil {
		return result, fmt.Errorf("fetch channel details: %w", err)
	}

	updated, err := c.creators.BatchUpsertCreators(ctx, profiles)
	if err != nil {
		return result, fmt.Errorf("upsert creators: %w", err)
	}
	result.ProfilesUpdated = updated

	c.recordUsage(ctx, result.QuotaUsed)
	c.invalidateBoards(ctx)

	metrics.APIQuotaUsed.Add(float64(result.QuotaUsed))
	metrics.CollectionRuns.WithLabelValues("creators", metrics.OutcomeOK).Inc()
	metrics.CollectionDuration.WithLabelValues("creators").Observe(time.Since(start).Seconds())

	c.log.Info("creator collection completed",
		zap.Int("channels_found", result.ChannelsFound),
		zap.Int("profiles_updated", result.ProfilesUpdated),
		zap.Int("quota_used", result.QuotaUsed),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// CleanupResult summarizes one anomaly cleanup pass.
type CleanupResult struct {
	AnomaliesFound int                     `json:"anomalies_found"`
	Deleted        int                     `json:"deleted"`
	Errors         int                     `json:"errors"`
	Removed        []*models.AnomalousStat `json:"removed,omitempty"`
}

// CleanupAnomalousStats deletes stat rows that a later observation proves
// inflated. No API quota is involved; the pass is triggered manually.
func (c *Collector) CleanupAnomalousStats(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{}

	anomalies, err := c.stats.FindAnomalousStats(ctx, anomalyScanLimit)
	if err != nil {
		return nil, fmt.Errorf("find anomalous stats: %w", err)
	}
	result.AnomaliesFound = len(anomalies)

	for _, a := range anomalies {
		if err := c.stats.DeleteStat(ctx, a.VideoID, a.PrevCapturedAt); err != nil {
			c.log.Error("failed to delete anomalous stat",
				zap.String("video_id", a.VideoID),
				zap.Time("captured_at", a.PrevCapturedAt),
				zap.Error(err))
			result.Errors++
			continue
		}
		result.Deleted++
		result.Removed = append(result.Removed, a)
	}

	if result.Deleted > 0 {
		metrics.AnomaliesDeleted.Add(float64(result.Deleted))
		c.invalidateBoards(ctx)
	}

	c.log.Info("anomaly cleanup completed",
		zap.Int("found", result.AnomaliesFound),
		zap.Int("deleted", result.Deleted),
		zap.Int("errors", result.Errors))

	return result, nil
}

// refreshResult carries the outcome of the stat refresh step.
type refreshResult struct {
	candidates int
	inserted   int
	quotaUsed  int
}

// refreshStaleStats re-reads counters for tracked videos whose latest
// observation predates the refresh window.
func (c *Collector) refreshStaleStats(ctx context.Context, capturedAt time.Time) (refreshResult, error) {
	var res refreshResult

	cutoff := c.now().Add(-c.cfg.RefreshMaxAge)
	ids, err := c.videos.RefreshCandidates(ctx, cutoff, c.cfg.RefreshBatchSize)
	if err != nil {
		return res, fmt.Errorf("find refresh candidates: %w", err)
	}
	res.candidates = len(ids)
	if len(ids) == 0 {
		return res, nil
	}

	stats, quotaUsed, err := c.source.RefreshStats(ctx, ids)
	res.quotaUsed = quotaUsed
	if err != nil {
		return res, fmt.Errorf("refresh stats: %w", err)
	}

	inserted, err := c.stats.BatchInsertStats(ctx, stats, capturedAt)
	if err != nil {
		return res, fmt.Errorf("insert refreshed stats: %w", err)
	}
	res.inserted = inserted

	metrics.StatsInserted.Add(float64(inserted))
	return res, nil
}

// persist writes one chart pull's records with the cycle's shared timestamp.
func (c *Collector) persist(ctx context.Context, records []*models.VideoWithStats, capturedAt time.Time) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	n, err := c.videos.BatchUpsertVideosWithStats(ctx, records, capturedAt)
	if err != nil {
		return 0, err
	}

	metrics.StatsInserted.Add(float64(n))
	return len(records), nil
}
