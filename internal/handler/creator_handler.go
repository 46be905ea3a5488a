package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mostviewed/trending-tracker-go/internal/cache"
	"github.com/mostviewed/trending-tracker-go/internal/db"
	dbmodels "github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/internal/metrics"
	"github.com/mostviewed/trending-tracker-go/internal/models"
)

const (
	defaultCreatorLimit     = 10
	maxCreatorLimit         = 100
	defaultVideosPerCreator = 5
	maxVideosPerCreator     = 10
)

// CreatorHandler serves the creator boards and profiles.
type CreatorHandler struct {
	board    repository.LeaderboardRepository
	creators repository.CreatorRepository
	cache    *cache.Cache
}

// NewCreatorHandler creates a CreatorHandler. responseCache may be nil.
func NewCreatorHandler(board repository.LeaderboardRepository, creators repository.CreatorRepository,
	responseCache *cache.Cache) *CreatorHandler {
	return &CreatorHandler{
		board:    board,
		creators: creators,
		cache:    responseCache,
	}
}

// Top serves GET /api/v1/creators/top.
//
// include_videos=true attaches each creator's top videos, capped per creator.
// The per-creator fan-out is why the cap is tight.
func (h *CreatorHandler) Top(c *gin.Context) {
	limit := clampedQueryInt(c, "limit", defaultCreatorLimit, maxCreatorLimit)
	includeVideos := c.Query("include_videos") == "true"
	videosPerCreator := clampedQueryInt(c, "videos_per_creator", defaultVideosPerCreator, maxVideosPerCreator)

	params := map[string]string{"limit": strconv.Itoa(limit)}
	if includeVideos {
		params["include_videos"] = "true"
		params["videos_per_creator"] = strconv.Itoa(videosPerCreator)
	}
	key := cache.Key("creators-top", params)

	if h.cache != nil {
		var cached models.CreatorsResponse
		if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
			metrics.CacheHits.WithLabelValues("hit").Inc()
			c.JSON(http.StatusOK, cached)
			return
		}
		metrics.CacheHits.WithLabelValues("miss").Inc()
	}

	creators, err := h.board.TopCreators(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	if creators == nil {
		creators = []*dbmodels.RankedCreator{}
	}

	if includeVideos {
		since := timeNowUTC().Add(-categoryWindow)
		for _, creator := range creators {
			videos, err := h.board.CreatorVideos(c.Request.Context(), creator.ChannelID, since, videosPerCreator)
			if err != nil {
				internalError(c, err)
				return
			}
			creator.Videos = videos
		}
	}

	response := models.CreatorsResponse{
		Count:       len(creators),
		Creators:    creators,
		GeneratedAt: timeNowUTC(),
	}

	if h.cache != nil {
		h.cache.Set(c.Request.Context(), key, response)
	}

	c.JSON(http.StatusOK, response)
}

// Get serves GET /api/v1/creators/:channelId.
func (h *CreatorHandler) Get(c *gin.Context) {
	channelID := c.Param("channelId")

	creator, err := h.creators.GetCreator(c.Request.Context(), channelID)
	if err != nil {
		if db.IsNotFound(err) {
			abortWithError(c, http.StatusNotFound, "Not Found", "unknown creator: "+channelID)
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreatorResponse{Creator: creator})
}

// Videos serves GET /api/v1/creators/:channelId/videos.
func (h *CreatorHandler) Videos(c *gin.Context) {
	channelID := c.Param("channelId")
	limit := clampedQueryInt(c, "limit", defaultBoardLimit, maxCreatorLimit)

	since := timeNowUTC().Add(-categoryWindow)
	videos, err := h.board.CreatorVideos(c.Request.Context(), channelID, since, limit)
	if err != nil {
		internalError(c, err)
		return
	}
	if videos == nil {
		videos = []*dbmodels.RankedVideo{}
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": channelID,
		"count":      len(videos),
		"videos":     videos,
	})
}
