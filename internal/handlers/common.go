package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// Generic messages shown when the backend gives no detail
const (
	msgUnexpected = "An error occurred. Please try again."
)

// pageFor returns the console page of the request's session, refreshed
// with the identity resolved for this request.
func pageFor(c *gin.Context, store *console.Store) *console.Page {
	page := store.Get(middleware.SessionID(c))
	page.SetIdentity(middleware.Identity(c))
	return page
}

// backendStatus maps a failed backend call to the console response status
func backendStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, backend.ErrTransport) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// failAction reports a failed backend action as an error toast and in the
// response body. failed is used when the backend refused without detail.
func failAction(c *gin.Context, page *console.Page, code string, err error, failed string) {
	message := backend.Describe(err, failed, msgUnexpected)
	page.Toasts.Error(message)

	logger.WithFields(map[string]interface{}{
		"path":  c.Request.URL.Path,
		"code":  code,
		"error": err.Error(),
	}).Warn("Console action failed")

	c.JSON(backendStatus(err), models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// rejectAction reports a request refused before reaching the backend
func rejectAction(c *gin.Context, page *console.Page, status int, code, message string) {
	page.Toasts.Error(message)
	c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// confirmed reports whether a destructive action carries confirm=true;
// otherwise it answers 428 without touching the backend.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") == "true" {
		return true
	}
	c.JSON(http.StatusPreconditionRequired, models.ErrorResponse{
		Error:   "confirmation_required",
		Message: "Repeat the request with confirm=true to proceed",
	})
	return false
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}
