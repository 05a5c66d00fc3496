package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/console"
	"github.com/a2a-routing/console/internal/logger"
	"github.com/a2a-routing/console/internal/middleware"
	"github.com/a2a-routing/console/internal/models"
)

// AgentsHandler handles the operator's registered agents
type AgentsHandler struct {
	client *backend.Client
	store  *console.Store
}

// NewAgentsHandler creates a new AgentsHandler instance
func NewAgentsHandler(client *backend.Client, store *console.Store) *AgentsHandler {
	return &AgentsHandler{client: client, store: store}
}

// List fetches the registered agents
// GET /console/agents
func (h *AgentsHandler) List(c *gin.Context) {
	page := pageFor(c, h.store)
	agents, err := h.client.ListAgents(c.Request.Context(), middleware.Credentials(c))
	if err != nil {
		failAction(c, page, "list_agents_failed", err, "Failed to fetch agents")
		return
	}
	page.SetAgents(agents)
	c.JSON(http.StatusOK, gin.H{"agents": page.Agents()})
}

// Delete removes an agent
// DELETE /console/agents/:id?confirm=true
func (h *AgentsHandler) Delete(c *gin.Context) {
	if !confirmed(c) {
		return
	}
	id := c.Param("id")
	page := pageFor(c, h.store)

	if err := h.client.DeleteAgent(c.Request.Context(), middleware.Credentials(c), id); err != nil {
		failAction(c, page, "delete_agent_failed", err, "Failed to delete the agent")
		return
	}

	page.RemoveAgent(id)
	page.Toasts.Success("Agent deleted")
	c.JSON(http.StatusOK, gin.H{"agents": page.Agents()})
}

// SaveAPIKey stores the API key the console uses to call an agent
// PATCH /console/agents/:id/apikey
func (h *AgentsHandler) SaveAPIKey(c *gin.Context) {
	var req models.PatchAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	page := pageFor(c, h.store)

	if err := h.client.PatchAgentAPIKey(c.Request.Context(), middleware.Credentials(c), id, req.APIKey); err != nil {
		failAction(c, page, "save_api_key_failed", err, "Failed to save the API key")
		return
	}

	page.SetAgentAPIKey(id, req.APIKey)
	page.Toasts.Success("API key saved")
	c.JSON(http.StatusOK, models.MessageResponse{Message: "API key saved"})
}

// Publish lists a registered agent on the marketplace
// POST /console/agents/:id/publish
func (h *AgentsHandler) Publish(c *gin.Context) {
	id := c.Param("id")
	page := pageFor(c, h.store)
	agent, ok := page.Agent(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "agent_not_found",
			Message: "Agent is not in the list; fetch the agents first",
		})
		return
	}

	if err := h.client.PublishAgent(c.Request.Context(), middleware.Credentials(c), agent.ToPublishRequest()); err != nil {
		failAction(c, page, "publish_agent_failed", err, "Failed to publish the agent")
		return
	}

	logger.WithFields(map[string]interface{}{
		"agent_id": id,
		"name":     agent.Name,
	}).Info("Agent published to the marketplace")
	page.Toasts.Success("Published " + agent.Name + " to the marketplace")
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Published"})
}

// RegisterByURL registers an agent from the URL of its agent card
// POST /console/agents/register-by-url
func (h *AgentsHandler) RegisterByURL(c *gin.Context) {
	var req models.RegisterAgentByURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	page := pageFor(c, h.store)

	agent, err := h.client.RegisterAgentByURL(c.Request.Context(), middleware.Credentials(c), req.URL)
	if err != nil {
		failAction(c, page, "register_agent_failed", err, "Failed to register the agent")
		return
	}

	if !page.AddAgent(agent) {
		page.Toasts.Success("Registered the agent at " + req.URL)
		c.JSON(http.StatusCreated, models.MessageResponse{Message: "Registered the agent at " + req.URL})
		return
	}
	page.Toasts.Success("Registered " + agent.Name)
	c.JSON(http.StatusCreated, models.RegisterAgentByURLResponse{Agent: agent})
}
