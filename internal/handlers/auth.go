package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// AuthHandler handles login, registration, identity and navigation
type AuthHandler struct {
	client   *backend.Client
	store    *console.Store
	sessions *middleware.Sessions
	policy   *access.Policy
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(client *backend.Client, store *console.Store, sessions *middleware.Sessions, policy *access.Policy) *AuthHandler {
	return &AuthHandler{
		client:   client,
		store:    store,
		sessions: sessions,
		policy:   policy,
	}
}

// LoginPage tells the front end a login is needed
// GET /login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"login":    "/login",
		"register": "/register-user",
	})
}

// Login forwards credentials to the backend and relays its session cookies
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	page := h.store.Get(middleware.SessionID(c))
	cookies, err := h.client.Login(c.Request.Context(), req)
	if err != nil {
		failAction(c, page, "login_failed", err, "Login failed")
		return
	}

	relayCookies(c, cookies)
	page.Reset()
	page.Toasts.Success("Logged in")

	logger.WithField("email", req.Email).Info("Operator logged in")
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged in"})
}

// Logout ends the backend session and forgets the console page
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	cookies, err := h.client.Logout(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		logger.WithField("error", err.Error()).Warn("Backend logout failed")
	}
	relayCookies(c, cookies)

	h.store.Drop(middleware.SessionID(c))
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// RegisterUser creates a backend account with a registration secret code
// POST /register-user
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req models.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	page := h.store.Get(middleware.SessionID(c))
	key, err := h.client.RegisterUser(c.Request.Context(), req)
	if err != nil {
		failAction(c, page, "registration_failed", err, "Registration failed")
		return
	}

	page.Toasts.Success("Account created")
	c.JSON(http.StatusCreated, key)
}

// Me returns the operator identity and the capabilities of their role
// GET /console/me
func (h *AuthHandler) Me(c *gin.Context) {
	id := middleware.Identity(c)
	c.JSON(http.StatusOK, gin.H{
		"email":        id.Email,
		"role":         id.Role,
		"capabilities": h.policy.Capabilities(id.Role),
	})
}

// HeaderView is the page header: who is signed in, or where to sign in
type HeaderView struct {
	Authenticated bool              `json:"authenticated"`
	Email         string            `json:"email,omitempty"`
	Role          models.Role       `json:"role"`
	Links         map[string]string `json:"links"`
}

// Header renders the header for the current operator
// GET /console/header
func (h *AuthHandler) Header(c *gin.Context) {
	id := middleware.Identity(c)
	view := HeaderView{Authenticated: id.Authenticated(), Role: id.Role}
	if view.Authenticated {
		view.Email = id.Email
		view.Links = map[string]string{"logout": "/logout", "api_key": "/console/api-key"}
	} else {
		view.Links = map[string]string{"login": "/login", "register": "/register-user"}
	}
	c.JSON(http.StatusOK, view)
}

// NavEntry is one navigation link
type NavEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type navItem struct {
	entry      NavEntry
	capability access.Capability
}

var navigation = []navItem{
	{NavEntry{"Agents", "/console/agents"}, access.ViewAgents},
	{NavEntry{"MCP Servers", "/console/mcp"}, access.ViewMcp},
	{NavEntry{"Marketplace", "/console/market"}, access.ViewAgents},
	{NavEntry{"My Logs", "/console/own-logs"}, access.ViewOwnLogs},
	{NavEntry{"Register Agent", "/console/agents/register-by-url"}, access.RegisterAgent},
	{NavEntry{"Register MCP Server", "/console/mcp"}, access.RegisterMcp},
	{NavEntry{"Users", "/console/users"}, access.ManageUsers},
	{NavEntry{"Conversation Logs", "/console/logs/conversations"}, access.ViewAllLogs},
	{NavEntry{"Platform Logs", "/console/logs/platform"}, access.ViewAllLogs},
}

// Nav lists the navigation entries the operator's role grants
// GET /console/nav
func (h *AuthHandler) Nav(c *gin.Context) {
	id := middleware.Identity(c)
	entries := make([]NavEntry, 0, len(navigation))
	for _, item := range navigation {
		if h.policy.Can(id.Role, item.capability) {
			entries = append(entries, item.entry)
		}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// APIKey shows the operator's personal API key
// GET /console/api-key
func (h *AuthHandler) APIKey(c *gin.Context) {
	page := pageFor(c, h.store)
	key, err := h.client.GetAPIKey(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		failAction(c, page, "api_key_failed", err, "Failed to load the API key")
		return
	}
	c.JSON(http.StatusOK, key)
}

// RegenerateAPIKey replaces the operator's personal API key
// POST /console/api-key/regenerate
func (h *AuthHandler) RegenerateAPIKey(c *gin.Context) {
	page := pageFor(c, h.store)
	key, err := h.client.RegenerateAPIKey(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		failAction(c, page, "api_key_failed", err, "Failed to regenerate the API key")
		return
	}
	page.Toasts.Success("API key regenerated")
	c.JSON(http.StatusOK, key)
}

func relayCookies(c *gin.Context, cookies []*http.Cookie) {
	for _, cookie := range cookies {
		// backend cookies must bind to the console host
		cookie.Domain = ""
		if cookie.Path == "" {
			cookie.Path = "/"
		}
		http.SetCookie(c.Writer, cookie)
	}
}
