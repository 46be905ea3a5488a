package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/youtube"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Categories = []int64{10, 20}
	cfg.Countries = []string{"US", "GB"}
	cfg.CallDelay = 0
	cfg.CountryDelay = 0
	return cfg
}

func record(id string) *models.VideoWithStats {
	return &models.VideoWithStats{
		Video: &models.Video{ID: id, ChannelID: "UC1", CountryCode: "US"},
		Stats: &models.VideoStat{VideoID: id, ViewCount: 100},
	}
}

func records(ids ...string) []*models.VideoWithStats {
	out := make([]*models.VideoWithStats, 0, len(ids))
	for _, id := range ids {
		out = append(out, record(id))
	}
	return out
}

func quotaAvailable(q *mockQuota) {
	q.On("CheckQuotaAvailable", mock.Anything, mock.Anything).
		Return(true, &models.QuotaInfo{QuotaLimit: 10000}, nil)
	q.On("RecordQuotaUsage", mock.Anything, mock.Anything).Return(nil)
}

func newTestCollector(source *mockSource, videos *mockVideoRepo, stats *mockStatsRepo,
	creators *mockCreatorRepo, quota *mockQuota, inv *mockInvalidator) *Collector {
	var invalidator CacheInvalidator
	if inv != nil {
		invalidator = inv
	}
	c := New(source, source, videos, stats, creators, quota, invalidator, testConfig())
	c.now = func() time.Time { return time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC) }
	return c
}

func TestCollectVideos(t *testing.T) {
	t.Run("continues past category failures", func(t *testing.T) {
		source := new(mockSource)
		videos := new(mockVideoRepo)
		stats := new(mockStatsRepo)
		quota := new(mockQuota)
		inv := new(mockInvalidator)
		quotaAvailable(quota)

		// No stale videos to refresh this cycle.
		videos.On("RefreshCandidates", mock.Anything, mock.Anything, 500).Return([]string{}, nil)

		source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{Target: globalVideosTarget}).
			Return(records("g1", "g2"), 2, nil)
		source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{CategoryID: 10, Target: categoryVideosTarget}).
			Return(nil, 1, errors.New("api unavailable"))
		source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{CategoryID: 20, Target: categoryVideosTarget}).
			Return(records("c1"), 2, nil)

		videos.On("BatchUpsertVideosWithStats", mock.Anything, mock.Anything, mock.Anything).
			Return(1, nil)

		inv.On("InvalidatePrefix", mock.Anything, "board:").Return(nil)

		c := newTestCollector(source, videos, stats, new(mockCreatorRepo), quota, inv)
		result, err := c.CollectVideos(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, result.GlobalVideos)
		assert.Equal(t, 1, result.CategoryVideos)
		assert.Equal(t, 1, result.CategoriesProcessed)
		assert.Equal(t, 1, result.Errors)
		assert.Equal(t, 5, result.QuotaUsed)

		quota.AssertCalled(t, "RecordQuotaUsage", mock.Anything, 5)
		inv.AssertCalled(t, "InvalidatePrefix", mock.Anything, "board:")
	})

	t.Run("refreshes stale stats first", func(t *testing.T) {
		source := new(mockSource)
		videos := new(mockVideoRepo)
		stats := new(mockStatsRepo)
		quota := new(mockQuota)
		quotaAvailable(quota)

		videos.On("RefreshCandidates", mock.Anything, mock.Anything, 500).
			Return([]string{"v1", "v2"}, nil)
		source.On("RefreshStats", mock.Anything, []string{"v1", "v2"}).
			Return([]*models.VideoStat{{VideoID: "v1", ViewCount: 500}}, 1, nil)
		stats.On("BatchInsertStats", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

		source.On("TrendingVideos", mock.Anything, mock.Anything).Return(nil, 1, nil)

		c := newTestCollector(source, videos, stats, new(mockCreatorRepo), quota, nil)
		result, err := c.CollectVideos(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.RefreshedStats)
		stats.AssertExpectations(t)
	})

	t.Run("search discovery toggle fetches nothing", func(t *testing.T) {
		source := new(mockSource)
		videos := new(mockVideoRepo)
		quota := new(mockQuota)
		quotaAvailable(quota)

		videos.On("RefreshCandidates", mock.Anything, mock.Anything, 500).Return([]string{}, nil)
		source.On("TrendingVideos", mock.Anything, mock.Anything).Return(nil, 1, nil)

		c := newTestCollector(source, videos, new(mockStatsRepo), new(mockCreatorRepo), quota, nil)
		c.cfg.SearchDiscovery = true

		result, err := c.CollectVideos(context.Background())
		require.NoError(t, err)

		// Only the chart pulls spend quota: global plus both categories.
		assert.Equal(t, 3, result.QuotaUsed)
		source.AssertNumberOfCalls(t, "TrendingVideos", 3)
		source.AssertNotCalled(t, "RefreshStats", mock.Anything, mock.Anything)
	})

	t.Run("skips when quota exhausted", func(t *testing.T) {
		quota := new(mockQuota)
		quota.On("CheckQuotaAvailable", mock.Anything, videosJobCost).
			Return(false, &models.QuotaInfo{QuotaUsed: 9500, QuotaLimit: 10000}, nil)

		source := new(mockSource)
		c := newTestCollector(source, new(mockVideoRepo), new(mockStatsRepo), new(mockCreatorRepo), quota, nil)

		result, err := c.CollectVideos(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		source.AssertNotCalled(t, "TrendingVideos", mock.Anything, mock.Anything)
	})
}

func TestCollectShorts(t *testing.T) {
	source := new(mockSource)
	videos := new(mockVideoRepo)
	quota := new(mockQuota)
	quotaAvailable(quota)

	source.On("TrendingShorts", mock.Anything, youtube.TrendingQuery{Target: globalShortsTarget}).
		Return(records("s1", "s2", "s3"), 6, nil)
	source.On("TrendingShorts", mock.Anything, youtube.TrendingQuery{CategoryID: 10, Target: categoryShortsTarget}).
		Return(records("s4"), 4, nil)
	source.On("TrendingShorts", mock.Anything, youtube.TrendingQuery{CategoryID: 20, Target: categoryShortsTarget}).
		Return(nil, 4, nil)

	videos.On("BatchUpsertVideosWithStats", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	c := newTestCollector(source, videos, new(mockStatsRepo), new(mockCreatorRepo), quota, nil)
	result, err := c.CollectShorts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.GlobalShorts)
	assert.Equal(t, 1, result.CategoryShorts)
	assert.Equal(t, 2, result.CategoriesProcessed)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 14, result.QuotaUsed)
}

func TestCollectCountries(t *testing.T) {
	source := new(mockSource)
	videos := new(mockVideoRepo)
	quota := new(mockQuota)
	quotaAvailable(quota)

	source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{Region: "US", Target: countryBoardTarget}).
		Return(records("us1"), 1, nil)
	source.On("TrendingShorts", mock.Anything, youtube.TrendingQuery{Region: "US", Target: countryBoardTarget}).
		Return(records("us2"), 2, nil)
	source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{Region: "US", CategoryID: 10, Target: countryBoardTarget}).
		Return(records("us3"), 1, nil)
	source.On("TrendingShorts", mock.Anything, youtube.TrendingQuery{Region: "US", CategoryID: 10, Target: countryBoardTarget}).
		Return(nil, 1, nil)

	// One US category chart fails; the rest of the fan-out still runs.
	source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{Region: "US", CategoryID: 20, Target: countryBoardTarget}).
		Return(nil, 1, errors.New("chart unavailable"))
	source.On("TrendingShorts", mock.Anything, youtube.TrendingQuery{Region: "US", CategoryID: 20, Target: countryBoardTarget}).
		Return(records("us4"), 1, nil)

	// GB fails on its first pull; the country is skipped entirely.
	source.On("TrendingVideos", mock.Anything, youtube.TrendingQuery{Region: "GB", Target: countryBoardTarget}).
		Return(nil, 1, errors.New("quota exceeded"))

	videos.On("BatchUpsertVideosWithStats", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	c := newTestCollector(source, videos, new(mockStatsRepo), new(mockCreatorRepo), quota, nil)
	result, err := c.CollectCountries(context.Background())
	require.NoError(t, err)

	require.Contains(t, result.Countries, "US")
	require.Contains(t, result.Countries, "GB")

	us := result.Countries["US"]
	assert.Equal(t, 1, us.Videos)
	assert.Equal(t, 1, us.Shorts)
	assert.Equal(t, 1, us.CategoryVideos)
	assert.Equal(t, 1, us.CategoryShorts)
	assert.Equal(t, 1, us.Errors)

	assert.NotEmpty(t, result.Countries["GB"].Error)
	assert.Equal(t, 2, result.Errors)
	assert.Equal(t, 8, result.QuotaUsed)
	source.AssertNotCalled(t, "TrendingShorts", mock.Anything,
		youtube.TrendingQuery{Region: "GB", Target: countryBoardTarget})
}

func TestRefreshTopStats(t *testing.T) {
	source := new(mockSource)
	videos := new(mockVideoRepo)
	stats := new(mockStatsRepo)
	quota := new(mockQuota)
	inv := new(mockInvalidator)
	quotaAvailable(quota)

	videos.On("RefreshCandidates", mock.Anything, mock.Anything, 500).
		Return([]string{"v1", "v2", "v3"}, nil)
	source.On("RefreshStats", mock.Anything, []string{"v1", "v2", "v3"}).
		Return([]*models.VideoStat{
			{VideoID: "v1", ViewCount: 500},
			{VideoID: "v3", ViewCount: 900},
		}, 1, nil)
	stats.On("BatchInsertStats", mock.Anything, mock.Anything, mock.Anything).Return(2, nil)
	inv.On("InvalidatePrefix", mock.Anything, "board:").Return(nil)

	c := newTestCollector(source, videos, stats, new(mockCreatorRepo), quota, inv)
	result, err := c.RefreshTopStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.StatsInserted)
	assert.Equal(t, 1, result.QuotaUsed)
	quota.AssertCalled(t, "RecordQuotaUsage", mock.Anything, 1)
	inv.AssertCalled(t, "InvalidatePrefix", mock.Anything, "board:")
}

func TestCollectCreators(t *testing.T) {
	t.Run("no stale creators is a no-op", func(t *testing.T) {
		creators := new(mockCreatorRepo)
		quota := new(mockQuota)
		quotaAvailable(quota)

		creators.On("StaleCreatorIDs", mock.Anything, mock.Anything, 50).Return([]string{}, nil)

		source := new(mockSource)
		c := newTestCollector(source, new(mockVideoRepo), new(mockStatsRepo), creators, quota, nil)

		result, err := c.CollectCreators(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, result.ChannelsFound)
		assert.Equal(t, 0, result.ProfilesUpdated)
		source.AssertNotCalled(t, "ChannelDetails", mock.Anything, mock.Anything)
	})

	t.Run("updates stale profiles", func(t *testing.T) {
		source := new(mockSource)
		creators := new(mockCreatorRepo)
		quota := new(mockQuota)
		quotaAvailable(quota)

		creators.On("StaleCreatorIDs", mock.Anything, mock.Anything, 50).
			Return([]string{"UC1", "UC2"}, nil)
		source.On("ChannelDetails", mock.Anything, []string{"UC1", "UC2"}).
			Return([]*models.Creator{{ChannelID: "UC1"}, {ChannelID: "UC2"}}, 1, nil)
		creators.On("BatchUpsertCreators", mock.Anything, mock.Anything).Return(2, nil)

		c := newTestCollector(source, new(mockVideoRepo), new(mockStatsRepo), creators, quota, nil)
		result, err := c.CollectCreators(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, result.ChannelsFound)
		assert.Equal(t, 2, result.ProfilesUpdated)
		assert.Equal(t, 1, result.QuotaUsed)
	})
}

func TestCleanupAnomalousStats(t *testing.T) {
	stats := new(mockStatsRepo)

	early := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	late := early.Add(2 * time.Hour)

	anomalies := []*models.AnomalousStat{
		{VideoID: "a", CapturedAt: late, ViewCount: 100, PrevCapturedAt: early, PrevViewCount: 1000, DecreasePct: 90},
		{VideoID: "b", CapturedAt: late, ViewCount: 40, PrevCapturedAt: early, PrevViewCount: 100, DecreasePct: 60},
	}
	stats.On("FindAnomalousStats", mock.Anything, anomalyScanLimit).Return(anomalies, nil)

	// Deleting a's earlier row succeeds; b's fails and is counted.
	stats.On("DeleteStat", mock.Anything, "a", early).Return(nil)
	stats.On("DeleteStat", mock.Anything, "b", early).Return(errors.New("gone"))

	inv := new(mockInvalidator)
	inv.On("InvalidatePrefix", mock.Anything, "board:").Return(nil)

	c := newTestCollector(new(mockSource), new(mockVideoRepo), stats, new(mockCreatorRepo), new(mockQuota), inv)
	result, err := c.CleanupAnomalousStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.AnomaliesFound)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "a", result.Removed[0].VideoID)
}
