package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/a2a-routing/console/internal/models"
)

// Me resolves the identity behind creds
func (c *Client) Me(ctx context.Context, creds Credentials) (models.Identity, error) {
	var id models.Identity
	err := c.GetJSON(ctx, creds, "/auth/me", &id)
	return id, err
}

// Login authenticates against the backend and returns the session cookies it set
func (c *Client) Login(ctx context.Context, req models.LoginRequest) ([]*http.Cookie, error) {
	h, err := c.do(ctx, nil, call{method: http.MethodPost, route: "/auth/login", path: "/auth/login", in: req})
	if err != nil {
		return nil, err
	}
	return (&http.Response{Header: h}).Cookies(), nil
}

// Logout ends the backend session and returns any cookies the backend cleared
func (c *Client) Logout(ctx context.Context, creds Credentials) ([]*http.Cookie, error) {
	h, err := c.do(ctx, creds, call{method: http.MethodPost, route: "/auth/logout", path: "/auth/logout"})
	if err != nil {
		return nil, err
	}
	return (&http.Response{Header: h}).Cookies(), nil
}

// RegisterUser creates a backend account; the secret code gates sign-up
func (c *Client) RegisterUser(ctx context.Context, req models.RegisterUserRequest) (models.APIKeyResponse, error) {
	var out models.APIKeyResponse
	err := c.PostJSON(ctx, nil, "/auth/register", req, &out)
	return out, err
}

// GetAPIKey returns the operator's personal API key
func (c *Client) GetAPIKey(ctx context.Context, creds Credentials) (models.APIKeyResponse, error) {
	var out models.APIKeyResponse
	err := c.GetJSON(ctx, creds, "/auth/key", &out)
	return out, err
}

// RegenerateAPIKey rotates the operator's personal API key
func (c *Client) RegenerateAPIKey(ctx context.Context, creds Credentials) (models.APIKeyResponse, error) {
	var out models.APIKeyResponse
	err := c.PostJSON(ctx, creds, "/auth/regenerate-key", nil, &out)
	return out, err
}

// ListUsers returns every backend user
func (c *Client) ListUsers(ctx context.Context, creds Credentials) ([]models.User, error) {
	var out []models.User
	err := c.GetJSON(ctx, creds, "/users", &out)
	return out, err
}

// DeleteUser removes a backend user
func (c *Client) DeleteUser(ctx context.Context, creds Credentials, email string) error {
	_, err := c.do(ctx, creds, call{
		method: http.MethodDelete,
		route:  "/users/{email}",
		path:   "/users/" + url.PathEscape(email),
	})
	return err
}

// ChangeRole assigns a new role to a backend user
func (c *Client) ChangeRole(ctx context.Context, creds Credentials, req models.ChangeRoleRequest) error {
	return c.PostJSON(ctx, creds, "/users/role", req, nil)
}

// ListOwnLogs returns the conversation logs visible to the operator
func (c *Client) ListOwnLogs(ctx context.Context, creds Credentials) ([]models.ConversationLog, error) {
	var out []models.ConversationLog
	err := c.GetJSON(ctx, creds, "/logs", &out)
	return out, err
}

// ListAgents returns the operator's registered agents
func (c *Client) ListAgents(ctx context.Context, creds Credentials) ([]models.AgentCard, error) {
	var out []models.AgentCard
	err := c.GetJSON(ctx, creds, "/agents", &out)
	return out, err
}

// DeleteAgent removes a registered agent
func (c *Client) DeleteAgent(ctx context.Context, creds Credentials, id string) error {
	_, err := c.do(ctx, creds, call{
		method: http.MethodDelete,
		route:  "/agents/{id}",
		path:   "/agents/" + url.PathEscape(id),
	})
	return err
}

// PatchAgentAPIKey stores the key the backend uses when calling the agent
func (c *Client) PatchAgentAPIKey(ctx context.Context, creds Credentials, id, key string) error {
	_, err := c.do(ctx, creds, call{
		method: http.MethodPatch,
		route:  "/agents/{id}/apikey",
		path:   "/agents/" + url.PathEscape(id) + "/apikey",
		in:     models.PatchAPIKeyRequest{APIKey: key},
	})
	return err
}

// RegisterAgentByURL asks the backend to import an agent card from url
func (c *Client) RegisterAgentByURL(ctx context.Context, creds Credentials, agentURL string) (models.AgentCard, error) {
	var out models.RegisterAgentByURLResponse
	err := c.PostJSON(ctx, creds, "/register-agent-by-url", models.RegisterAgentByURLRequest{URL: agentURL}, &out)
	return out.Agent, err
}

// PublishAgent lists an agent on the marketplace
func (c *Client) PublishAgent(ctx context.Context, creds Credentials, req models.PublishAgentRequest) error {
	return c.PostJSON(ctx, creds, "/market/agents", req, nil)
}

// ListMarketAgents returns the published agents
func (c *Client) ListMarketAgents(ctx context.Context, creds Credentials) ([]models.MarketAgent, error) {
	var out []models.MarketAgent
	err := c.GetJSON(ctx, creds, "/market/agents", &out)
	return out, err
}

// ListMarketMcpServers returns the published MCP servers
func (c *Client) ListMarketMcpServers(ctx context.Context, creds Credentials) ([]models.MarketMcpServer, error) {
	var out []models.MarketMcpServer
	err := c.GetJSON(ctx, creds, "/market/mcp", &out)
	return out, err
}

// GetMarketAgent returns one published agent
func (c *Client) GetMarketAgent(ctx context.Context, creds Credentials, id string) (models.MarketAgent, error) {
	var out models.MarketAgent
	_, err := c.do(ctx, creds, call{
		method: http.MethodGet,
		route:  "/market/agents/{id}",
		path:   "/market/agents/" + url.PathEscape(id),
		out:    &out,
	})
	return out, err
}

// GetMarketMcpServer returns one published MCP server
func (c *Client) GetMarketMcpServer(ctx context.Context, creds Credentials, id string) (models.MarketMcpServer, error) {
	var out models.MarketMcpServer
	_, err := c.do(ctx, creds, call{
		method: http.MethodGet,
		route:  "/market/mcp/{id}",
		path:   "/market/mcp/" + url.PathEscape(id),
		out:    &out,
	})
	return out, err
}

// InstallMarketAgent copies a published agent into the operator's registry
func (c *Client) InstallMarketAgent(ctx context.Context, creds Credentials, id string) error {
	_, err := c.do(ctx, creds, call{
		method: http.MethodPost,
		route:  "/market/agents/install/{id}",
		path:   "/market/agents/install/" + url.PathEscape(id),
	})
	return err
}

// ListMcpServers returns the operator's registered MCP servers
func (c *Client) ListMcpServers(ctx context.Context, creds Credentials) ([]models.McpServer, error) {
	var out []models.McpServer
	err := c.GetJSON(ctx, creds, "/mcp/servers", &out)
	return out, err
}

// RegisterMcpServer registers a new MCP server; the answer may echo the stored server
func (c *Client) RegisterMcpServer(ctx context.Context, creds Credentials, req models.RegisterMcpServerRequest) (models.McpServer, error) {
	var out models.McpServer
	err := c.PostJSON(ctx, creds, "/mcp/servers/regist", req, &out)
	return out, err
}

// DeleteMcpServer removes a registered MCP server
func (c *Client) DeleteMcpServer(ctx context.Context, creds Credentials, id string) error {
	_, err := c.do(ctx, creds, call{
		method: http.MethodDelete,
		route:  "/mcp/servers/{id}",
		path:   "/mcp/servers/" + url.PathEscape(id),
	})
	return err
}

// GetMcpServerDetail returns a server together with its stored tool list
func (c *Client) GetMcpServerDetail(ctx context.Context, creds Credentials, id string) (models.McpServer, error) {
	var out models.McpServer
	_, err := c.do(ctx, creds, call{
		method: http.MethodGet,
		route:  "/mcp/servers/detail/{id}",
		path:   "/mcp/servers/detail/" + url.PathEscape(id),
		out:    &out,
	})
	return out, err
}
