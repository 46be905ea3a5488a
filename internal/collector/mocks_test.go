package collector

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/youtube"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) TrendingVideos(ctx context.Context, q youtube.TrendingQuery) ([]*models.VideoWithStats, int, error) {
	args := m.Called(ctx, q)
	recs, _ := args.Get(0).([]*models.VideoWithStats)
	return recs, args.Int(1), args.Error(2)
}

func (m *mockSource) TrendingShorts(ctx context.Context, q youtube.TrendingQuery) ([]*models.VideoWithStats, int, error) {
	args := m.Called(ctx, q)
	recs, _ := args.Get(0).([]*models.VideoWithStats)
	return recs, args.Int(1), args.Error(2)
}

func (m *mockSource) ChannelDetails(ctx context.Context, channelIDs []string) ([]*models.Creator, int, error) {
	args := m.Called(ctx, channelIDs)
	creators, _ := args.Get(0).([]*models.Creator)
	return creators, args.Int(1), args.Error(2)
}

func (m *mockSource) RefreshStats(ctx context.Context, videoIDs []string) ([]*models.VideoStat, int, error) {
	args := m.Called(ctx, videoIDs)
	stats, _ := args.Get(0).([]*models.VideoStat)
	return stats, args.Int(1), args.Error(2)
}

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) UpsertVideo(ctx context.Context, video *models.Video) error {
	return m.Called(ctx, video).Error(0)
}

func (m *mockVideoRepo) BatchUpsertVideosWithStats(ctx context.Context, records []*models.VideoWithStats, capturedAt time.Time) (int, error) {
	args := m.Called(ctx, records, capturedAt)
	return args.Int(0), args.Error(1)
}

func (m *mockVideoRepo) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	args := m.Called(ctx, videoID)
	video, _ := args.Get(0).(*models.Video)
	return video, args.Error(1)
}

func (m *mockVideoRepo) RefreshCandidates(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, olderThan, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) BatchInsertStats(ctx context.Context, stats []*models.VideoStat, capturedAt time.Time) (int, error) {
	args := m.Called(ctx, stats, capturedAt)
	return args.Int(0), args.Error(1)
}

func (m *mockStatsRepo) LatestStat(ctx context.Context, videoID string) (*models.VideoStat, error) {
	args := m.Called(ctx, videoID)
	stat, _ := args.Get(0).(*models.VideoStat)
	return stat, args.Error(1)
}

func (m *mockStatsRepo) FindAnomalousStats(ctx context.Context, limit int) ([]*models.AnomalousStat, error) {
	args := m.Called(ctx, limit)
	anomalies, _ := args.Get(0).([]*models.AnomalousStat)
	return anomalies, args.Error(1)
}

func (m *mockStatsRepo) DeleteStat(ctx context.Context, videoID string, capturedAt time.Time) error {
	return m.Called(ctx, videoID, capturedAt).Error(0)
}

type mockCreatorRepo struct {
	mock.Mock
}

func (m *mockCreatorRepo) BatchUpsertCreators(ctx context.Context, creators []*models.Creator) (int, error) {
	args := m.Called(ctx, creators)
	return args.Int(0), args.Error(1)
}

func (m *mockCreatorRepo) GetCreator(ctx context.Context, channelID string) (*models.Creator, error) {
	args := m.Called(ctx, channelID)
	creator, _ := args.Get(0).(*models.Creator)
	return creator, args.Error(1)
}

func (m *mockCreatorRepo) StaleCreatorIDs(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, olderThan, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockQuota struct {
	mock.Mock
}

func (m *mockQuota) CheckQuotaAvailable(ctx context.Context, requiredQuota int) (bool, *models.QuotaInfo, error) {
	args := m.Called(ctx, requiredQuota)
	info, _ := args.Get(1).(*models.QuotaInfo)
	return args.Bool(0), info, args.Error(2)
}

func (m *mockQuota) RecordQuotaUsage(ctx context.Context, quotaCost int) error {
	return m.Called(ctx, quotaCost).Error(0)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) InvalidatePrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}
