package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Leaderboard *LeaderboardHandler
	Creators    *CreatorHandler
	Triggers    *TriggerHandler
	Health      *HealthHandler
	APIKeys     []string
}

// NewRouter builds the gin engine with all routes mounted. Read endpoints are
// public; collection triggers and admin endpoints require an API key.
func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		board := v1.Group("/leaderboard")
		{
			board.GET("/global", h.Leaderboard.Global)
			board.GET("/shorts", h.Leaderboard.Shorts)
			board.GET("/category/:slug", h.Leaderboard.Category)
			board.GET("/category/:slug/shorts", h.Leaderboard.CategoryShorts)
		}

		trending := v1.Group("/trending")
		{
			trending.GET("/:country", h.Leaderboard.Country)
			trending.GET("/:country/shorts", h.Leaderboard.CountryShorts)
			trending.GET("/:country/category/:slug", h.Leaderboard.CountryCategory)
		}

		creators := v1.Group("/creators")
		{
			creators.GET("/top", h.Creators.Top)
			creators.GET("/:channelId", h.Creators.Get)
			creators.GET("/:channelId/videos", h.Creators.Videos)
		}

		v1.GET("/categories", h.Leaderboard.Categories)
		v1.GET("/quota", h.Health.Quota)

		protected := v1.Group("", APIKeyAuth(h.APIKeys))
		{
			protected.POST("/collect", h.Triggers.Full)
			protected.POST("/collect/videos", h.Triggers.Videos)
			protected.POST("/collect/shorts", h.Triggers.Shorts)
			protected.POST("/collect/countries", h.Triggers.Countries)
			protected.POST("/collect/creators", h.Triggers.Creators)
			protected.POST("/collect/refresh", h.Triggers.Refresh)
			protected.POST("/admin/cleanup-stats", h.Triggers.CleanupStats)
		}
	}

	return router
}
