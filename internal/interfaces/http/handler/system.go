package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// SystemHandler serves the health and readiness probes. These endpoints sit
// outside the versioned API and skip authentication.
type SystemHandler struct {
	db    *persistence.Database
	redis *redis.Client
}

// NewSystemHandler creates a new SystemHandler. The Redis client may be nil
// when the deployment runs without Redis.
func NewSystemHandler(db *persistence.Database, redisClient *redis.Client) *SystemHandler {
	return &SystemHandler{db: db, redis: redisClient}
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready reports whether the service can take traffic. The database is
// required; Redis is checked only when configured.
func (h *SystemHandler) Ready(c *gin.Context) {
	reqLog := logger.GetGinLogger(c)
	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(); err != nil {
		reqLog.Warn("Readiness check failed", zap.String("dependency", "database"), zap.Error(err))
		checks["database"] = "error"
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
			reqLog.Warn("Readiness check failed", zap.String("dependency", "redis"), zap.Error(err))
			checks["redis"] = "error"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}

	c.JSON(status, gin.H{
		"status": state,
		"time":   time.Now().Format(time.RFC3339),
		"checks": checks,
	})
}
