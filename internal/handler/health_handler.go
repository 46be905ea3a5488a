package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/service/quota"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	pool  *pgxpool.Pool
	quota *quota.Manager
}

// NewHealthHandler creates a HealthHandler. quotaManager may be nil when the
// process has no YouTube client configured.
func NewHealthHandler(pool *pgxpool.Pool, quotaManager *quota.Manager) *HealthHandler {
	return &HealthHandler{pool: pool, quota: quotaManager}
}

// Health serves GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.pool.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
			"time":   time.Now().UTC(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}

// Quota serves GET /api/v1/quota.
func (h *HealthHandler) Quota(c *gin.Context) {
	if h.quota == nil {
		abortWithError(c, http.StatusNotFound, "Not Found", "quota tracking not configured")
		return
	}

	info, err := h.quota.GetQuotaInfo(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}
