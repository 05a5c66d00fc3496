package router

import (
	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/access"
	"github.com/a2a-routing/console/internal/handlers"
	"github.com/a2a-routing/console/internal/logs"
	"github.com/a2a-routing/console/internal/metrics"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// Deps are the collaborators the routes are wired to
type Deps struct {
	Resolver      middleware.IdentityResolver
	Policy        *access.Policy
	Sessions      *middleware.Sessions
	AllowedOrigin string

	LoginRatePerSecond float64
	LoginRateBurst     int

	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Users         *handlers.UsersHandler
	Agents        *handlers.AgentsHandler
	MCP           *handlers.MCPHandler
	Market        *handlers.MarketHandler
	Toasts        *handlers.ToastHandler
	Conversations *handlers.LogHandler[models.ConversationLog, logs.ConversationFilter]
	Platform      *handlers.LogHandler[models.PlatformLog, logs.PlatformFilter]
	OwnLogs       *handlers.LogHandler[models.ConversationLog, logs.ConversationFilter]
}

// logRoutes is the route set of one log pipeline
type logRoutes interface {
	Fetch(*gin.Context)
	View(*gin.Context)
	SetFilter(*gin.Context)
	ClearFilter(*gin.Context)
	Toggle(*gin.Context)
	ExportJSON(*gin.Context)
	ExportCSV(*gin.Context)
}

func mountLogs(g *gin.RouterGroup, h logRoutes) {
	g.GET("", h.View)
	g.POST("/fetch", h.Fetch)
	g.PUT("/filter", h.SetFilter)
	g.DELETE("/filter", h.ClearFilter)
	g.POST("/rows/:index/toggle", h.Toggle)
	g.GET("/export.json", h.ExportJSON)
	g.GET("/export.csv", h.ExportCSV)
}

// Setup configures and returns the application router
func Setup(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Instrument())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(d.AllowedOrigin))

	router.GET("/health", d.Health.Check)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Everything below carries a console session
	app := router.Group("")
	app.Use(middleware.ConsoleSession(d.Sessions))

	app.GET("/login", d.Auth.LoginPage)
	app.POST("/login", middleware.RateLimit(d.LoginRatePerSecond, d.LoginRateBurst), d.Auth.Login)
	app.POST("/register-user", middleware.RateLimit(d.LoginRatePerSecond, d.LoginRateBurst), d.Auth.RegisterUser)
	app.POST("/logout", d.Auth.Logout)

	public := app.Group("/console")
	public.Use(middleware.OptionalLogin(d.Resolver))
	{
		public.GET("/header", d.Auth.Header)
		public.GET("/nav", d.Auth.Nav)
		public.GET("/toasts", d.Toasts.List)
		public.DELETE("/toasts/:id", d.Toasts.Dismiss)
	}

	authed := app.Group("/console")
	authed.Use(middleware.RequireLogin(d.Resolver))
	{
		authed.GET("/me", d.Auth.Me)
		authed.GET("/api-key", d.Auth.APIKey)
		authed.POST("/api-key/regenerate", d.Auth.RegenerateAPIKey)

		can := func(c access.Capability) gin.HandlerFunc {
			return middleware.RequireCapability(d.Resolver, d.Policy, c)
		}

		agents := authed.Group("/agents")
		{
			agents.GET("", can(access.ViewAgents), d.Agents.List)
			agents.POST("/register-by-url", can(access.RegisterAgent), d.Agents.RegisterByURL)
			agents.DELETE("/:id", can(access.RegisterAgent), d.Agents.Delete)
			agents.PATCH("/:id/apikey", can(access.RegisterAgent), d.Agents.SaveAPIKey)
			agents.POST("/:id/publish", can(access.RegisterAgent), d.Agents.Publish)
		}

		mcp := authed.Group("/mcp")
		{
			mcp.GET("", can(access.ViewMcp), d.MCP.List)
			mcp.POST("", can(access.RegisterMcp), d.MCP.Register)
			mcp.DELETE("/:id", can(access.RegisterMcp), d.MCP.Delete)
			mcp.GET("/:id/tools", can(access.ViewMcp), d.MCP.Tools)
		}

		market := authed.Group("/market")
		market.Use(can(access.ViewAgents))
		{
			market.GET("", d.Market.Overview)
			market.GET("/agents/:id", d.Market.Agent)
			market.GET("/mcp/:id", d.Market.Server)
			market.POST("/agents/:id/install", can(access.RegisterAgent), d.Market.InstallAgent)
			market.POST("/mcp/:id/install", can(access.RegisterMcp), d.Market.InstallServer)
		}

		own := authed.Group("/own-logs")
		own.Use(can(access.ViewOwnLogs))
		mountLogs(own, d.OwnLogs)

		// Admin console: user management and everybody's logs
		admin := authed.Group("")
		admin.Use(middleware.RequireRole(d.Resolver, models.RoleAdmin, models.RoleManagement))
		{
			users := admin.Group("/users")
			users.GET("", d.Users.List)
			users.GET("/rows", d.Users.Rows)
			users.POST("/select", d.Users.ToggleSelection)
			users.POST("/select-all", d.Users.SelectAll)
			users.POST("/select-none", d.Users.ClearSelection)
			users.DELETE("/:email", can(access.ManageUsers), d.Users.Delete)
			users.POST("/role", can(access.ManageRoles), d.Users.ChangeRole)

			conversations := admin.Group("/logs/conversations")
			conversations.Use(can(access.ViewAllLogs))
			mountLogs(conversations, d.Conversations)

			platform := admin.Group("/logs/platform")
			platform.Use(can(access.ViewAllLogs))
			mountLogs(platform, d.Platform)
		}
	}

	return router
}
