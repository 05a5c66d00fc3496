package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// MCPHandler handles MCP server-related requests
type MCPHandler struct {
	client *backend.Client
	store  *console.Store
}

// NewMCPHandler creates a new MCP handler
func NewMCPHandler(client *backend.Client, store *console.Store) *MCPHandler {
	return &MCPHandler{client: client, store: store}
}

// List fetches the registered MCP servers, with optional search
// GET /console/mcp
func (h *MCPHandler) List(c *gin.Context) {
	page := pageFor(c, h.store)
	servers, err := h.client.ListMcpServers(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		failAction(c, page, "list_mcp_failed", err, "Failed to fetch MCP servers")
		return
	}
	page.SetServers(servers)

	searchTerm := strings.ToLower(c.Query("search"))
	responses := make([]models.McpServer, 0, len(servers))
	for _, server := range servers {
		if searchTerm != "" &&
			!strings.Contains(strings.ToLower(server.Name), searchTerm) &&
			!strings.Contains(strings.ToLower(server.Description), searchTerm) {
			continue
		}
		responses = append(responses, server)
	}

	c.JSON(http.StatusOK, gin.H{
		"servers": responses,
		"total":   len(responses),
	})
}

// Register adds an MCP server
// POST /console/mcp
func (h *MCPHandler) Register(c *gin.Context) {
	var req models.RegisterMcpServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.Type.Valid() {
		badRequest(c, fmt.Errorf("type must be %q or %q", models.McpServerSSE, models.McpServerLocal))
		return
	}
	page := pageFor(c, h.store)

	server, err := h.client.RegisterMcpServer(c.Request.Context(), middleware.Credentials(c), req)
	if err != nil {
		failAction(c, page, "register_mcp_failed", err, "Failed to register the MCP server")
		return
	}

	page.Toasts.Success("Registered " + req.Name)
	if !page.AddServer(server) {
		c.JSON(http.StatusCreated, models.MessageResponse{Message: "Registered " + req.Name})
		return
	}
	c.JSON(http.StatusCreated, server)
}

// Delete removes an MCP server
// DELETE /console/mcp/:id?confirm=true
func (h *MCPHandler) Delete(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	id := c.Param("id")
	page := pageFor(c, h.store)

	if err := h.client.DeleteMcpServer(c.Request.Context(), middleware.Credentials(c), id); err != nil {
		failAction(c, page, "delete_mcp_failed", err, "Failed to delete the MCP server")
		return
	}

	page.RemoveServer(id)
	page.Toasts.Success("MCP server deleted")
	c.JSON(http.StatusOK, gin.H{"servers": page.Servers()})
}

// Tools lists the tools an MCP server exposes
// GET /console/mcp/:id/tools
func (h *MCPHandler) Tools(c *gin.Context) {
	page := pageFor(c, h.store)
	server, err := h.client.GetMcpServerDetail(c.Request.Context(), middleware.Credentials(c), c.Param("id"))
	if err != nil {
		failAction(c, page, "mcp_tools_failed", err, "Failed to fetch the MCP server tools")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server": server.Name,
		"tools":  server.Tools(),
	})
}
