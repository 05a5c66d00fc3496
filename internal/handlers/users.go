package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// UsersHandler handles the user management part of the admin console
type UsersHandler struct {
	client *backend.Client
	store  *console.Store
	policy *access.Policy
}

// NewUsersHandler creates a new UsersHandler instance
func NewUsersHandler(client *backend.Client, store *console.Store, policy *access.Policy) *UsersHandler {
	return &UsersHandler{client: client, store: store, policy: policy}
}

type selectUserRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *UsersHandler) respondRows(c *gin.Context, page *console.Page, status int) {
	c.JSON(status, gin.H{
		"users":    page.UserRows(middleware.Identity(c), h.policy),
		"selected": page.SelectedUsers(),
		"roles":    models.AssignableRoles,
	})
}

// List fetches the users and renders the user table
// GET /console/users
func (h *UsersHandler) List(c *gin.Context) {
	page := pageFor(c, h.store)
	users, err := h.client.ListUsers(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		failAction(c, page, "list_users_failed", err, "Failed to fetch users")
		return
	}
	page.SetUsers(users)
	h.respondRows(c, page, http.StatusOK)
}

// Rows renders the user table without refetching
// GET /console/users/rows
func (h *UsersHandler) Rows(c *gin.Context) {
	h.respondRows(c, pageFor(c, h.store), http.StatusOK)
}

// ToggleSelection selects or deselects one user for log fetching
// POST /console/users/select
func (h *UsersHandler) ToggleSelection(c *gin.Context) {
	var req selectUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page := pageFor(c, h.store)
	if _, ok := page.ToggleUser(req.Email); !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "unknown_user",
			Message: "User is not in the list",
		})
		return
	}
	h.respondRows(c, page, http.StatusOK)
}

// SelectAll selects every listed user
// POST /console/users/select-all
func (h *UsersHandler) SelectAll(c *gin.Context) {
	page := pageFor(c, h.store)
	page.SelectAll()
	h.respondRows(c, page, http.StatusOK)
}

// ClearSelection deselects every user
// POST /console/users/select-none
func (h *UsersHandler) ClearSelection(c *gin.Context) {
	page := pageFor(c, h.store)
	page.ClearSelection()
	h.respondRows(c, page, http.StatusOK)
}

// checkTarget refuses actions on the operator's own account and on the
// anonymous sentinel before any backend call
func (h *UsersHandler) checkTarget(c *gin.Context, page *console.Page, email string) bool {
	err := access.CanManageUser(middleware.Identity(c), email)
	if err == nil {
		return true
	}
	code := "forbidden_target"
	if errors.Is(err, access.ErrAnonymousTarget) {
		code = "anonymous_target"
	}
	rejectAction(c, page, http.StatusForbidden, code, err.Error())
	return false
}

// Delete removes a user
// DELETE /console/users/:email?confirm=true
func (h *UsersHandler) Delete(c *gin.Context) {
	email := c.Param("email")
	page := pageFor(c, h.store)
	if !h.checkTarget(c, page, email) {
		return
	}
	if !confirmed(c) {
		return
	}

	if err := h.client.DeleteUser(c.Request.Context(), middleware.Credentials(c), email); err != nil {
		failAction(c, page, "delete_user_failed", err, "Failed to delete the user")
		return
	}

	page.RemoveUser(email)
	page.Toasts.Success("Deleted " + email)
	h.respondRows(c, page, http.StatusOK)
}

// ChangeRole sets the role of a user
// POST /console/users/role
func (h *UsersHandler) ChangeRole(c *gin.Context) {
	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page := pageFor(c, h.store)
	if !req.Role.Assignable() {
		rejectAction(c, page, http.StatusBadRequest, "invalid_role", "Unknown role "+string(req.Role))
		return
	}
	if !h.checkTarget(c, page, req.Email) {
		return
	}

	if err := h.client.ChangeRole(c.Request.Context(), middleware.Credentials(c), req); err != nil {
		failAction(c, page, "change_role_failed", err, "Failed to change the role")
		return
	}

	page.SetUserRole(req.Email, req.Role)
	page.Toasts.Success("Changed the role of " + req.Email + " to " + string(req.Role))
	h.respondRows(c, page, http.StatusOK)
}
