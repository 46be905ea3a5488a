package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

func boolp(b bool) *bool { return &b }

func TestLeaderboardRepository_TopVideos(t *testing.T) {
	td := sharedTestDatabase(t)

	videoRepo := NewVideoRepository(td.Pool)
	boardRepo := NewLeaderboardRepository(td.Pool)
	ctx := context.Background()

	td.TruncateTables(t)

	now := time.Now().UTC().Truncate(time.Second)
	old := now.Add(-6 * time.Hour)

	regular := testRecord("regular", "UC1", 10, false, 5000)
	short := testRecord("short", "UC1", 10, true, 9000)
	other := testRecord("other-country", "UC2", 20, false, 7000)
	other.Video.CountryCode = "GB"
	stale := testRecord("stale", "UC2", 10, false, 100000)

	seedBatch(t, videoRepo, old, stale)
	seedBatch(t, videoRepo, now, regular, short, other)

	t.Run("window excludes stale observations", func(t *testing.T) {
		got, err := boardRepo.TopVideos(ctx, LeaderboardQuery{
			Since: now.Add(-2 * time.Hour),
			Limit: 100,
		})
		require.NoError(t, err)

		ids := make([]string, 0, len(got))
		for _, v := range got {
			ids = append(ids, v.ID)
		}
		assert.NotContains(t, ids, "stale")
		assert.Len(t, got, 3)
	})

	t.Run("ranks by view count descending", func(t *testing.T) {
		got, err := boardRepo.TopVideos(ctx, LeaderboardQuery{
			Since:   now.Add(-2 * time.Hour),
			Limit:   100,
			IsShort: boolp(false),
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "other-country", got[0].ID)
		assert.Equal(t, "regular", got[1].ID)
	})

	t.Run("shorts board", func(t *testing.T) {
		got, err := boardRepo.TopVideos(ctx, LeaderboardQuery{
			Since:   now.Add(-2 * time.Hour),
			Limit:   100,
			IsShort: boolp(true),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "short", got[0].ID)
	})

	t.Run("country and category filters", func(t *testing.T) {
		got, err := boardRepo.TopVideos(ctx, LeaderboardQuery{
			Since:       now.Add(-2 * time.Hour),
			Limit:       100,
			CountryCode: "GB",
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "other-country", got[0].ID)

		got, err = boardRepo.TopVideos(ctx, LeaderboardQuery{
			Since:      now.Add(-2 * time.Hour),
			Limit:      100,
			CategoryID: 20,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "other-country", got[0].ID)
	})

	t.Run("uses latest observation per video", func(t *testing.T) {
		bumped := testRecord("regular", "UC1", 10, false, 20000)
		seedBatch(t, videoRepo, now.Add(time.Minute), bumped)

		got, err := boardRepo.TopVideos(ctx, LeaderboardQuery{
			Since:   now.Add(-2 * time.Hour),
			Limit:   1,
			IsShort: boolp(false),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "regular", got[0].ID)
		assert.Equal(t, int64(20000), got[0].ViewCount)
	})
}

func TestLeaderboardRepository_TieBreak(t *testing.T) {
	td := sharedTestDatabase(t)

	videoRepo := NewVideoRepository(td.Pool)
	boardRepo := NewLeaderboardRepository(td.Pool)
	ctx := context.Background()

	td.TruncateTables(t)

	now := time.Now().UTC().Truncate(time.Second)
	seedBatch(t, videoRepo, now,
		testRecord("bbb", "UC1", 10, false, 1000),
		testRecord("aaa", "UC1", 10, false, 1000),
		testRecord("ccc", "UC1", 10, false, 1000),
	)

	got, err := boardRepo.TopVideos(ctx, LeaderboardQuery{Since: now.Add(-time.Hour), Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "aaa", got[0].ID)
	assert.Equal(t, "bbb", got[1].ID)
	assert.Equal(t, "ccc", got[2].ID)
}

func TestLeaderboardRepository_TopCreators(t *testing.T) {
	td := sharedTestDatabase(t)

	videoRepo := NewVideoRepository(td.Pool)
	creatorRepo := NewCreatorRepository(td.Pool)
	boardRepo := NewLeaderboardRepository(td.Pool)
	ctx := context.Background()

	td.TruncateTables(t)

	early := time.Now().Add(-3 * time.Hour).UTC().Truncate(time.Second)
	now := time.Now().UTC().Truncate(time.Second)

	// UC1 has two videos; v1 gets a later, higher observation that should be
	// the only one counted for it.
	seedBatch(t, videoRepo, early,
		testRecord("v1", "UC1", 10, false, 1000),
		testRecord("v2", "UC1", 10, false, 3000),
		testRecord("v3", "UC2", 20, false, 10000),
	)
	seedBatch(t, videoRepo, now, testRecord("v1", "UC1", 10, false, 2000))

	// UC1 has a stored profile; UC2 is profile-less and must still rank.
	_, err := creatorRepo.BatchUpsertCreators(ctx, []*models.Creator{{
		ChannelID:       "UC1",
		ChannelTitle:    "Profiled Channel",
		AvatarURL:       strp("https://yt3.ggpht.com/uc1.jpg"),
		SubscriberCount: i64p(42000),
		UpdatedAt:       now,
	}})
	require.NoError(t, err)

	creators, err := boardRepo.TopCreators(ctx, 10)
	require.NoError(t, err)
	require.Len(t, creators, 2)

	assert.Equal(t, "UC2", creators[0].ChannelID)
	assert.Equal(t, int64(10000), creators[0].TotalViews)
	assert.Equal(t, int64(1), creators[0].VideoCount)
	assert.Nil(t, creators[0].AvatarURL)

	uc1 := creators[1]
	assert.Equal(t, "UC1", uc1.ChannelID)
	assert.Equal(t, "Profiled Channel", uc1.ChannelTitle)
	assert.Equal(t, int64(5000), uc1.TotalViews)
	assert.Equal(t, int64(2), uc1.VideoCount)
	assert.InDelta(t, 2500.0, uc1.AvgViews, 0.01)
	assert.Equal(t, now.Unix(), uc1.LatestCapture.Unix())
	require.NotNil(t, uc1.SubscriberCount)
	assert.Equal(t, int64(42000), *uc1.SubscriberCount)
}

func TestLeaderboardRepository_CreatorVideos(t *testing.T) {
	td := sharedTestDatabase(t)

	videoRepo := NewVideoRepository(td.Pool)
	boardRepo := NewLeaderboardRepository(td.Pool)
	ctx := context.Background()

	td.TruncateTables(t)

	now := time.Now().UTC().Truncate(time.Second)
	seedBatch(t, videoRepo, now,
		testRecord("v1", "UC1", 10, false, 100),
		testRecord("v2", "UC1", 10, false, 300),
		testRecord("v3", "UC2", 10, false, 900),
	)
	// v4 was the channel's biggest hit, but its only observation is days
	// old. It must not resurface in the windowed view.
	seedBatch(t, videoRepo, now.Add(-72*time.Hour),
		testRecord("v4", "UC1", 10, false, 500000))

	since := now.Add(-6 * time.Hour)

	got, err := boardRepo.CreatorVideos(ctx, "UC1", since, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "v2", got[0].ID)
	assert.Equal(t, "v1", got[1].ID)

	got, err = boardRepo.CreatorVideos(ctx, "UC-none", since, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
