package models

// ToolContent represents one content block of a tool call result.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// InitializeResponse is the JSON result of the "initialize" method.
type InitializeResponse struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// ServerInfo provides information about the server.
type ServerInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Capabilities advertises the server's capabilities.
type Capabilities struct {
	Tools ToolsCapabilities `json:"tools"`
}

// ToolsCapabilities is currently an empty object.
type ToolsCapabilities struct{}

// ToolsListResponse is the JSON result of the "tools/list" method.
type ToolsListResponse struct {
	Tools []ToolDefinition `json:"tools"`
}

// ToolDefinition describes a single tool available through the server.
type ToolDefinition struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ArgumentsSchema Schema          `json:"arguments_schema"`
	Annotations     ToolAnnotations `json:"annotations"`
}

// Schema represents a JSON schema, kept as a free-form map.
type Schema map[string]interface{}

// ToolAnnotations provides hints about a tool's behavior.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint"`
	DestructiveHint bool `json:"destructiveHint"`
}
