package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/vocab-practice/internal/common/errors"
	"github.com/jgirmay/vocab-practice/internal/common/middleware"
)

// HealthHandler provides health check endpoints
type HealthHandler struct {
	checker *HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// RegisterRoutes registers health check endpoints
func (h *HealthHandler) RegisterRoutes(engine *gin.Engine) {
	health := engine.Group("/api/health")
	{
		health.GET("", h.handleHealthStatus)
		health.GET("/live", h.handleLiveness)
		health.GET("/ready", h.handleReadiness)
	}
}

func (h *HealthHandler) handleHealthStatus(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())

	httpStatus := http.StatusOK
	if status.Status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, status)
}

func (h *HealthHandler) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"message": "Service is running",
	})
}

func (h *HealthHandler) handleReadiness(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())
	if status.Status != "healthy" {
		middleware.JSONErrorResponse(c, errors.StorageUnavailable("service is not ready", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"message": "Service is ready to serve requests",
	})
}
