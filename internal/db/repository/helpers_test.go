package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/db/testutil"
)

func strp(s string) *string { return &s }

func i64p(i int64) *int64 { return &i }

// testRecord builds a video+stat pair in the shape the adapter emits.
func testRecord(id, channelID string, categoryID int64, isShort bool, views int64) *models.VideoWithStats {
	duration := "PT10M"
	if isShort {
		duration = "PT45S"
	}
	return &models.VideoWithStats{
		Video: &models.Video{
			ID:           id,
			Title:        "Video " + id,
			Description:  strp("description for " + id),
			ChannelID:    channelID,
			ChannelTitle: "Channel " + channelID,
			CategoryID:   categoryID,
			PublishedAt:  time.Now().Add(-48 * time.Hour).UTC().Truncate(time.Second),
			ThumbURL:     "https://i.ytimg.com/vi/" + id + "/mq.jpg",
			Duration:     duration,
			IsShort:      isShort,
			CountryCode:  "US",
			UpdatedAt:    time.Now().UTC(),
		},
		Stats: &models.VideoStat{
			VideoID:   id,
			ViewCount: views,
			LikeCount: i64p(views / 100),
		},
	}
}

// seedBatch writes records with a shared capture timestamp and fails the test
// on error.
func seedBatch(t *testing.T, repo VideoRepository, capturedAt time.Time, records ...*models.VideoWithStats) {
	t.Helper()
	n, err := repo.BatchUpsertVideosWithStats(context.Background(), records, capturedAt)
	require.NoError(t, err)
	require.Equal(t, len(records), n)
}

// sharedTestDatabase spins up one container per test function that needs it.
func sharedTestDatabase(t *testing.T) *testutil.TestDatabase {
	t.Helper()
	td := testutil.SetupTestDatabase(t)
	t.Cleanup(func() { td.Cleanup(t) })
	return td
}
