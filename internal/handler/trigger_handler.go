package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/collector"
	"github.com/mostviewed/trending-tracker-go/internal/models"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// TriggerHandler exposes the collection jobs as synchronous, API-key
// protected endpoints. The scheduled worker covers normal operation; these
// exist for backfills and operational poking.
type TriggerHandler struct {
	collector *collector.Collector
	log       *zap.Logger
}

// NewTriggerHandler creates a TriggerHandler.
func NewTriggerHandler(c *collector.Collector) *TriggerHandler {
	return &TriggerHandler{
		collector: c,
		log:       logger.Named("trigger"),
	}
}

// Videos serves POST /api/v1/collect/videos.
func (h *TriggerHandler) Videos(c *gin.Context) {
	h.run(c, "videos_collection", func() (any, error) {
		return h.collector.CollectVideos(c.Request.Context())
	})
}

// Shorts serves POST /api/v1/collect/shorts.
func (h *TriggerHandler) Shorts(c *gin.Context) {
	h.run(c, "shorts_collection", func() (any, error) {
		return h.collector.CollectShorts(c.Request.Context())
	})
}

// Refresh serves POST /api/v1/collect/refresh.
func (h *TriggerHandler) Refresh(c *gin.Context) {
	h.run(c, "stats_refresh", func() (any, error) {
		return h.collector.RefreshTopStats(c.Request.Context())
	})
}

// Countries serves POST /api/v1/collect/countries.
func (h *TriggerHandler) Countries(c *gin.Context) {
	h.run(c, "countries_collection", func() (any, error) {
		return h.collector.CollectCountries(c.Request.Context())
	})
}

// Creators serves POST /api/v1/collect/creators.
func (h *TriggerHandler) Creators(c *gin.Context) {
	h.run(c, "creators_collection", func() (any, error) {
		return h.collector.CollectCreators(c.Request.Context())
	})
}

// Full serves POST /api/v1/collect: every chart cycle back to back.
func (h *TriggerHandler) Full(c *gin.Context) {
	h.run(c, "full_collection", func() (any, error) {
		videos, err := h.collector.CollectVideos(c.Request.Context())
		if err != nil {
			return nil, err
		}
		shorts, err := h.collector.CollectShorts(c.Request.Context())
		if err != nil {
			return nil, err
		}
		creators, err := h.collector.CollectCreators(c.Request.Context())
		if err != nil {
			return nil, err
		}
		return gin.H{
			"videos":   videos,
			"shorts":   shorts,
			"creators": creators,
		}, nil
	})
}

// CleanupStats serves POST /api/v1/admin/cleanup-stats.
func (h *TriggerHandler) CleanupStats(c *gin.Context) {
	h.run(c, "stats_cleanup", func() (any, error) {
		return h.collector.CleanupAnomalousStats(c.Request.Context())
	})
}

func (h *TriggerHandler) run(c *gin.Context, jobType string, job func() (any, error)) {
	if h.collector == nil {
		abortWithError(c, http.StatusServiceUnavailable, "Service Unavailable",
			"collection is not configured on this instance")
		return
	}

	runID := uuid.NewString()
	start := time.Now()

	h.log.Info("manual collection triggered",
		zap.String("type", jobType),
		zap.String("run_id", runID),
		zap.String("client_ip", c.ClientIP()))

	stats, err := job()
	if err != nil {
		h.log.Error("manual collection failed",
			zap.String("type", jobType),
			zap.String("run_id", runID),
			zap.Error(err))
		internalError(c, err)
		return
	}

	h.log.Info("manual collection finished",
		zap.String("type", jobType),
		zap.String("run_id", runID),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusOK, models.TriggerResponse{
		Success:    true,
		RunID:      runID,
		Type:       jobType,
		Timestamp:  time.Now().UTC(),
		Statistics: stats,
	})
}
