package handler

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Init("error", ""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type mockLeaderboardRepo struct {
	mock.Mock
}

func (m *mockLeaderboardRepo) TopVideos(ctx context.Context, q repository.LeaderboardQuery) ([]*models.RankedVideo, error) {
	args := m.Called(ctx, q)
	videos, _ := args.Get(0).([]*models.RankedVideo)
	return videos, args.Error(1)
}

func (m *mockLeaderboardRepo) TopCreators(ctx context.Context, limit int) ([]*models.RankedCreator, error) {
	args := m.Called(ctx, limit)
	creators, _ := args.Get(0).([]*models.RankedCreator)
	return creators, args.Error(1)
}

func (m *mockLeaderboardRepo) CreatorVideos(ctx context.Context, channelID string, since time.Time, limit int) ([]*models.RankedVideo, error) {
	args := m.Called(ctx, channelID, since, limit)
	videos, _ := args.Get(0).([]*models.RankedVideo)
	return videos, args.Error(1)
}

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) ListCategories(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]*models.Category)
	return categories, args.Error(1)
}

func (m *mockCategoryRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	category, _ := args.Get(0).(*models.Category)
	return category, args.Error(1)
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

// perform runs one request through a router and captures the response.
func perform(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func rankedVideo(id string, views int64) *models.RankedVideo {
	return &models.RankedVideo{
		ID:         id,
		Title:      "Video " + id,
		ChannelID:  "UC1",
		ViewCount:  views,
		CapturedAt: time.Now().UTC(),
	}
}

// newTestRouter wires the full route table against mocks. Triggers and
// health are mounted but never exercised here; their routes only matter for
// the auth middleware tests.
func newTestRouter(board *mockLeaderboardRepo, categories *mockCategoryRepo, creators *mockCreatorRepo, keys []string) *gin.Engine {
	return NewRouter(Handlers{
		Leaderboard: NewLeaderboardHandler(board, categories, nil, 100),
		Creators:    NewCreatorHandler(board, creators, nil),
		Triggers:    &TriggerHandler{log: logger.Named("trigger")},
		Health:      NewHealthHandler(nil, nil),
		APIKeys:     keys,
	})
}
