package models

// AgentCapabilities are the optional A2A protocol features of an agent
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentSkill is one advertised skill of an agent
type AgentSkill struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// AgentCard is a registered agent descriptor
type AgentCard struct {
	Id                 string                 `json:"_id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	Version            string                 `json:"version,omitempty"`
	DocumentationURL   string                 `json:"documentationUrl,omitempty"`
	Endpoint           string                 `json:"endpoint"`
	Tags               []string               `json:"tags,omitempty"`
	Parameters         map[string]interface{} `json:"parameters,omitempty"`
	Capabilities       *AgentCapabilities     `json:"capabilities,omitempty"`
	DefaultInputModes  []string               `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string               `json:"defaultOutputModes,omitempty"`
	Skills             []AgentSkill           `json:"skills,omitempty"`
	APIKey             string                 `json:"api_key,omitempty"`
	IsActive           bool                   `json:"is_active"`
}

// PatchAPIKeyRequest is the body of PATCH /agents/{id}/apikey
type PatchAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// PublishAgentRequest is the body of POST /market/agents
type PublishAgentRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Endpoint    string   `json:"endpoint"`
}

// ToPublishRequest builds the marketplace listing for an agent
func (a *AgentCard) ToPublishRequest() PublishAgentRequest {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return PublishAgentRequest{
		Name:        a.Name,
		Description: a.Description,
		Tags:        tags,
		Endpoint:    a.Endpoint,
	}
}

// RegisterAgentByURLRequest is the body of POST /register-agent-by-url
type RegisterAgentByURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// RegisterAgentByURLResponse is the backend answer to a URL registration
type RegisterAgentByURLResponse struct {
	Agent AgentCard `json:"agent"`
}

// MarketAgent is a marketplace listing of an agent
type MarketAgent struct {
	Id          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Endpoint    string   `json:"endpoint,omitempty"`
}

// MarketMcpServer is a marketplace listing of an MCP server
type MarketMcpServer struct {
	Id          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Type        McpServerType `json:"type,omitempty"`
}

// ToRegisterRequest builds the registration used to install a listed server
func (m *MarketMcpServer) ToRegisterRequest() RegisterMcpServerRequest {
	return RegisterMcpServerRequest{
		Name:        m.Name,
		URL:         m.URL,
		Description: m.Description,
		Type:        m.Type,
	}
}

// MarketOverview is the marketplace landing view
type MarketOverview struct {
	Agents  []MarketAgent     `json:"agents"`
	Servers []MarketMcpServer `json:"servers"`
}
