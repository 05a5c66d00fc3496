package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// MarketHandler handles the marketplace of published agents and MCP servers
type MarketHandler struct {
	client *backend.Client
	store  *console.Store
}

// NewMarketHandler creates a new MarketHandler instance
func NewMarketHandler(client *backend.Client, store *console.Store) *MarketHandler {
	return &MarketHandler{client: client, store: store}
}

// Overview fetches the agent and MCP server listings concurrently
// GET /console/market
func (h *MarketHandler) Overview(c *gin.Context) {
	page := pageFor(c, h.store)
	creds := middleware.Credentials(c)

	var overview models.MarketOverview
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		agents, err := h.client.ListMarketAgents(ctx, creds)
		overview.Agents = agents
		return err
	})
	g.Go(func() error {
		servers, err := h.client.ListMarketMcpServers(ctx, creds)
		overview.Servers = servers
		return err
	})
	if err := g.Wait(); err != nil {
		failAction(c, page, "market_failed", err, "Failed to fetch the marketplace")
		return
	}

	if overview.Agents == nil {
		overview.Agents = []models.MarketAgent{}
	}
	if overview.Servers == nil {
		overview.Servers = []models.MarketMcpServer{}
	}
	c.JSON(http.StatusOK, overview)
}

// Agent shows one marketplace agent
// GET /console/market/agents/:id
func (h *MarketHandler) Agent(c *gin.Context) {
	page := pageFor(c, h.store)
	agent, err := h.client.GetMarketAgent(c.Request.Context(), middleware.Credentials(c), c.Param("id"))
	if err != nil {
		failAction(c, page, "market_agent_failed", err, "Failed to fetch the agent")
		return
	}
	c.JSON(http.StatusOK, agent)
}

// Server shows one marketplace MCP server
// GET /console/market/mcp/:id
func (h *MarketHandler) Server(c *gin.Context) {
	page := pageFor(c, h.store)
	server, err := h.client.GetMarketMcpServer(c.Request.Context(), middleware.Credentials(c), c.Param("id"))
	if err != nil {
		failAction(c, page, "market_mcp_failed", err, "Failed to fetch the MCP server")
		return
	}
	c.JSON(http.StatusOK, server)
}

// InstallAgent copies a marketplace agent into the operator's registry
// POST /console/market/agents/:id/install
func (h *MarketHandler) InstallAgent(c *gin.Context) {
	page := pageFor(c, h.store)
	if err := h.client.InstallMarketAgent(c.Request.Context(), middleware.Credentials(c), c.Param("id")); err != nil {
		failAction(c, page, "install_agent_failed", err, "Failed to install the agent")
		return
	}
	page.Toasts.Success("Agent installed")
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Installed"})
}

// InstallServer registers a marketplace MCP server for the operator
// POST /console/market/mcp/:id/install
func (h *MarketHandler) InstallServer(c *gin.Context) {
	page := pageFor(c, h.store)
	listing, server, err := h.installServer(c.Request.Context(), middleware.Credentials(c), c.Param("id"))
	if err != nil {
		failAction(c, page, "install_mcp_failed", err, "Failed to install the MCP server")
		return
	}
	page.Toasts.Success("Installed " + listing.Name)
	if !page.AddServer(server) {
		c.JSON(http.StatusOK, models.MessageResponse{Message: "Installed " + listing.Name})
		return
	}
	c.JSON(http.StatusOK, server)
}

func (h *MarketHandler) installServer(ctx context.Context, creds backend.Credentials, id string) (models.MarketMcpServer, models.McpServer, error) {
	listing, err := h.client.GetMarketMcpServer(ctx, creds, id)
	if err != nil {
		return listing, models.McpServer{}, err
	}
	server, err := h.client.RegisterMcpServer(ctx, creds, listing.ToRegisterRequest())
	return listing, server, err
}
