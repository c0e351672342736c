package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"booking-platform/internal/storage"
	"booking-platform/internal/utils"
)

type HealthHandler struct {
	store   storage.Store
	started time.Time
}

func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{store: store, started: time.Now()}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("Storage unavailable", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("OK", gin.H{
		"status": "healthy",
		"uptime": time.Since(h.started).String(),
	}))
}
