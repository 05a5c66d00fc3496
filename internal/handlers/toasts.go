package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// ToastHandler exposes the toast queue of the console session
type ToastHandler struct {
	store *console.Store
}

// NewToastHandler creates a new ToastHandler instance
func NewToastHandler(store *console.Store) *ToastHandler {
	return &ToastHandler{store: store}
}

// List returns the visible toasts, oldest first
// GET /console/toasts
func (h *ToastHandler) List(c *gin.Context) {
	page := h.store.Get(middleware.SessionID(c))
	c.JSON(http.StatusOK, gin.H{"toasts": page.Toasts.List()})
}

// Dismiss removes a toast before its timer does
// DELETE /console/toasts/:id
func (h *ToastHandler) Dismiss(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "invalid toast id",
		})
		return
	}
	page := h.store.Get(middleware.SessionID(c))
	if !page.Toasts.Dismiss(id) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "toast_not_found",
			Message: "Toast already dismissed or expired",
		})
		return
	}
	c.Status(http.StatusNoContent)
}
