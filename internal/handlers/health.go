package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/metrics"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store   *console.Store
	backend string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *console.Store, backendURL string) *HealthHandler {
	return &HealthHandler{store: store, backend: backendURL}
}

// Check handles the health check endpoint
func (h *HealthHandler) Check(c *gin.Context) {
	sessions := h.store.Len()
	metrics.SetSessions(sessions)

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "a2a-console",
		"backend":   h.backend,
		"sessions":  sessions,
	})
}
