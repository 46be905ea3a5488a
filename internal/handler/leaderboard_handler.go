package handler

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mostviewed/trending-tracker-go/internal/cache"
	"github.com/mostviewed/trending-tracker-go/internal/db"
	dbmodels "github.com/mostviewed/trending-tracker-go/internal/db/models"
	"github.com/mostviewed/trending-tracker-go/internal/db/repository"
	"github.com/mostviewed/trending-tracker-go/internal/metrics"
	"github.com/mostviewed/trending-tracker-go/internal/models"
)

// Freshness windows. The chart cycles run every half hour, so two hours of
// slack tolerates a few missed cycles before a board goes empty. Category
// boards poll less often and get a wider window.
const (
	chartWindow    = 2 * time.Hour
	categoryWindow = 6 * time.Hour
)

const defaultBoardLimit = 50

var countryCodeRe = regexp.MustCompile(`^[A-Z]{2}$`)

// LeaderboardHandler serves the ranked video boards.
type LeaderboardHandler struct {
	board      repository.LeaderboardRepository
	categories repository.CategoryRepository
	cache      *cache.Cache
	maxLimit   int

	now func() time.Time
}

// NewLeaderboardHandler creates a LeaderboardHandler. responseCache may be
// nil; reads then go straight to the database.
func NewLeaderboardHandler(board repository.LeaderboardRepository, categories repository.CategoryRepository,
	responseCache *cache.Cache, maxLimit int) *LeaderboardHandler {

	if maxLimit <= 0 {
		maxLimit = 100
	}

	return &LeaderboardHandler{
		board:      board,
		categories: categories,
		cache:      responseCache,
		maxLimit:   maxLimit,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Global serves GET /api/v1/leaderboard/global.
func (h *LeaderboardHandler) Global(c *gin.Context) {
	h.serveBoard(c, "global", boardSpec{isShort: boolPtr(false), window: chartWindow})
}

// Shorts serves GET /api/v1/leaderboard/shorts.
func (h *LeaderboardHandler) Shorts(c *gin.Context) {
	h.serveBoard(c, "shorts", boardSpec{isShort: boolPtr(true), window: chartWindow})
}

// Category serves GET /api/v1/leaderboard/category/:slug.
func (h *LeaderboardHandler) Category(c *gin.Context) {
	category, ok := h.resolveCategory(c)
	if !ok {
		return
	}
	h.serveBoard(c, "category", boardSpec{
		category: category,
		isShort:  boolPtr(false),
		window:   categoryWindow,
	})
}

// CategoryShorts serves GET /api/v1/leaderboard/category/:slug/shorts.
func (h *LeaderboardHandler) CategoryShorts(c *gin.Context) {
	category, ok := h.resolveCategory(c)
	if !ok {
		return
	}
	h.serveBoard(c, "category-shorts", boardSpec{
		category: category,
		isShort:  boolPtr(true),
		window:   categoryWindow,
	})
}

// Country serves GET /api/v1/trending/:country.
func (h *LeaderboardHandler) Country(c *gin.Context) {
	country, ok := h.resolveCountry(c)
	if !ok {
		return
	}
	h.serveBoard(c, "country", boardSpec{
		country: country,
		isShort: boolPtr(false),
		window:  chartWindow,
	})
}

// CountryShorts serves GET /api/v1/trending/:country/shorts.
func (h *LeaderboardHandler) CountryShorts(c *gin.Context) {
	country, ok := h.resolveCountry(c)
	if !ok {
		return
	}
	h.serveBoard(c, "country-shorts", boardSpec{
		country: country,
		isShort: boolPtr(true),
		window:  chartWindow,
	})
}

// CountryCategory serves GET /api/v1/trending/:country/category/:slug.
func (h *LeaderboardHandler) CountryCategory(c *gin.Context) {
	country, ok := h.resolveCountry(c)
	if !ok {
		return
	}
	category, ok := h.resolveCategory(c)
	if !ok {
		return
	}
	h.serveBoard(c, "country-category", boardSpec{
		country:  country,
		category: category,
		isShort:  boolPtr(false),
		window:   categoryWindow,
	})
}

// Categories serves GET /api/v1/categories.
func (h *LeaderboardHandler) Categories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CategoriesResponse{
		Count:      len(categories),
		Categories: categories,
	})
}

// boardSpec captures which partition of the ranking a route serves.
type boardSpec struct {
	category *dbmodels.Category
	country  string
	isShort  *bool
	window   time.Duration
}

func (h *LeaderboardHandler) serveBoard(c *gin.Context, name string, spec boardSpec) {
	limit := clampedQueryInt(c, "limit", defaultBoardLimit, h.maxLimit)

	params := map[string]string{"limit": strconv.Itoa(limit), "country": spec.country}
	if spec.category != nil {
		params["category"] = spec.category.Slug
	}
	key := cache.Key(name, params)

	if h.cache != nil {
		var cached models.LeaderboardResponse
		if err := h.cache.Get(c.Request.Context(), key, &cached); err == nil {
			metrics.CacheHits.WithLabelValues("hit").Inc()
			c.JSON(http.StatusOK, cached)
			return
		}
		metrics.CacheHits.WithLabelValues("miss").Inc()
	}

	query := repository.LeaderboardQuery{
		Since:       h.now().Add(-spec.window),
		Limit:       limit,
		CountryCode: spec.country,
		IsShort:     spec.isShort,
	}
	if spec.category != nil {
		query.CategoryID = spec.category.ID
	}

	videos, err := h.board.TopVideos(c.Request.Context(), query)
	if err != nil {
		internalError(c, err)
		return
	}
	if videos == nil {
		videos = []*dbmodels.RankedVideo{}
	}

	response := models.LeaderboardResponse{
		Board:       name,
		Category:    spec.category,
		CountryCode: spec.country,
		Count:       len(videos),
		Videos:      videos,
		GeneratedAt: h.now(),
	}

	if h.cache != nil {
		h.cache.Set(c.Request.Context(), key, response)
	}

	c.JSON(http.StatusOK, response)
}

func (h *LeaderboardHandler) resolveCategory(c *gin.Context) (*dbmodels.Category, bool) {
	slug := c.Param("slug")

	category, err := h.categories.GetCategoryBySlug(c.Request.Context(), slug)
	if err != nil {
		if db.IsNotFound(err) {
			abortWithError(c, http.StatusNotFound, "Not Found", "unknown category: "+slug)
			return nil, false
		}
		internalError(c, err)
		return nil, false
	}

	return category, true
}

func (h *LeaderboardHandler) resolveCountry(c *gin.Context) (string, bool) {
	country := c.Param("country")
	if !countryCodeRe.MatchString(country) {
		abortWithError(c, http.StatusBadRequest, "Bad Request",
			"country must be a two-letter uppercase ISO code")
		return "", false
	}
	return country, true
}

func boolPtr(b bool) *bool { return &b }
