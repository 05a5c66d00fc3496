package models

import "encoding/json"

// McpServerType is the transport of a registered MCP server
type McpServerType string

const (
	McpServerSSE   McpServerType = "sse"
	McpServerLocal McpServerType = "local"
)

// Valid reports whether t is a known transport
func (t McpServerType) Valid() bool {
	return t == McpServerSSE || t == McpServerLocal
}

// McpServer is a tool-provider endpoint registered with the backend
type McpServer struct {
	Id          string        `json:"id"`
	Name        string        `json:"name"`
	URL         string        `json:"url"`
	Description string        `json:"description,omitempty"`
	Type        McpServerType `json:"type"`
	IsActive    *bool         `json:"is_active,omitempty"`
	Doc         *McpToolDoc   `json:"doc,omitempty"`
}

// McpToolDoc is the stored list_tools result of an MCP server
type McpToolDoc struct {
	Tools      []McpTool       `json:"tools"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	NextCursor json.RawMessage `json:"nextCursor,omitempty"`
}

// McpTool describes one callable tool
type McpTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
	Annotations json.RawMessage `json:"annotations,omitempty"`
}

// RegisterMcpServerRequest is the body of POST /mcp/servers/regist
type RegisterMcpServerRequest struct {
	Name        string        `json:"name" binding:"required"`
	URL         string        `json:"url" binding:"required"`
	Description string        `json:"description"`
	Type        McpServerType `json:"type" binding:"required"`
}

// Tools returns the tool list, empty when the server has no stored doc
func (m *McpServer) Tools() []McpTool {
	if m.Doc == nil || m.Doc.Tools == nil {
		return []McpTool{}
	}
	return m.Doc.Tools
}
