package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mostviewed/trending-tracker-go/internal/models"
	"github.com/mostviewed/trending-tracker-go/pkg/logger"
)

// APIKeyAuth guards mutating endpoints. The key arrives in the X-API-Key
// header; with no keys configured the guard rejects everything rather than
// failing open.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if _, ok := allowed[key]; !ok {
			logger.Log.Warn("rejected request with invalid API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			abortWithError(c, http.StatusUnauthorized, "Unauthorized", "valid API key required")
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request with latency and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Log.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// abortWithError writes the structured error envelope and stops the chain.
func abortWithError(c *gin.Context, status int, errName, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Status:    status,
		Error:     errName,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

// internalError logs the cause and returns an opaque 500 envelope.
func internalError(c *gin.Context, err error) {
	logger.Log.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	abortWithError(c, http.StatusInternalServerError, "Internal Server Error", "something went wrong")
}

func timeNowUTC() time.Time { return time.Now().UTC() }

// clampedQueryInt parses an integer query parameter, applying default and
// upper bound. Unparsable values fall back to the default.
func clampedQueryInt(c *gin.Context, name string, def, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
