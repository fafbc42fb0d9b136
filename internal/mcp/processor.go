// Package mcp adapts the resource editor service to the tool protocol:
// initialize, tools/list and tools/call over JSON-RPC.
package mcp

import (
	"encoding/json"
	"fmt"

	"resource-editor-server/internal/edit"
	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/models"
	"resource-editor-server/internal/service"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "resource-editor-server"
	serverVersion   = "1.0.0"
)

// ToolCallParams represents the parameters for a tools/call request.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Processor dispatches protocol methods and tool calls to the service.
type Processor struct {
	service service.ResourceEditorService
}

// NewProcessor creates a Processor on top of the given service.
func NewProcessor(svc service.ResourceEditorService) *Processor {
	return &Processor{service: svc}
}

// ProcessRequest handles one JSON-RPC request. The result is the
// method-specific payload; service failures inside a tool call are reported
// as an IsError tool result, not as a JSON-RPC error.
func (p *Processor) ProcessRequest(req models.JSONRPCRequest) (interface{}, *models.JSONRPCError) {
	switch req.Method {
	case "initialize":
		return p.initialize(), nil
	case "tools/list":
		return p.listTools(), nil
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, errors.ToJSONRPCError(errors.NewInvalidInputError("invalid parameters for tools/call: " + err.Error()))
		}
		result, rpcErr := p.CallTool(params.Name, params.Arguments)
		if rpcErr != nil {
			return nil, rpcErr
		}
		return result, nil
	default:
		return nil, errors.ToJSONRPCError(errors.NewMethodNotFoundError(req.Method))
	}
}

func (p *Processor) initialize() *models.InitializeResponse {
	return &models.InitializeResponse{
		ProtocolVersion: protocolVersion,
		Capabilities:    models.Capabilities{Tools: models.ToolsCapabilities{}},
		ServerInfo: models.ServerInfo{
			Name:        serverName,
			Version:     serverVersion,
			Description: "Unified resource edit server for text and block-structured data sources.",
		},
	}
}

func (p *Processor) listTools() *models.ToolsListResponse {
	return &models.ToolsListResponse{Tools: []models.ToolDefinition{
		{
			Name: "edit_resource",
			Description: "Applies an ordered batch of edit operations (searchReplace, range, " +
				"blocks, structuredData) to one resource. Operations run sequentially; each " +
				"reports success, warning or failure individually.",
			ArgumentsSchema: models.Schema{
				"type": "object",
				"properties": models.Schema{
					"dataSourceId":    models.Schema{"type": "string", "description": "Data source ID; omit for the primary data source."},
					"resourcePath":    models.Schema{"type": "string", "description": "Path of the resource within the data source."},
					"createIfMissing": models.Schema{"type": "boolean", "description": "Create the resource when it does not exist."},
					"operations": models.Schema{
						"type":        "array",
						"description": "Ordered edit operations. Each carries an editType discriminator and the fields of exactly that family, prefixed with the family name (e.g. searchReplace_search, blocks_operationType, range_rangeType).",
						"items":       models.Schema{"type": "object"},
					},
				},
				"required": []string{"resourcePath", "operations"},
			},
			Annotations: models.ToolAnnotations{DestructiveHint: true},
		},
		{
			Name:        "load_resource",
			Description: "Reads one resource. Text resources return content; block documents return their block list.",
			ArgumentsSchema: models.Schema{
				"type": "object",
				"properties": models.Schema{
					"dataSourceId": models.Schema{"type": "string", "description": "Data source ID; omit for the primary data source."},
					"resourcePath": models.Schema{"type": "string", "description": "Path of the resource within the data source."},
				},
				"required": []string{"resourcePath"},
			},
			Annotations: models.ToolAnnotations{ReadOnlyHint: true},
		},
		{
			Name:        "write_resource",
			Description: "Replaces a resource's whole content, creating it when requested.",
			ArgumentsSchema: models.Schema{
				"type": "object",
				"properties": models.Schema{
					"dataSourceId":    models.Schema{"type": "string", "description": "Data source ID; omit for the primary data source."},
					"resourcePath":    models.Schema{"type": "string", "description": "Path of the resource within the data source."},
					"content":         models.Schema{"type": "string", "description": "Full new content of the resource."},
					"createIfMissing": models.Schema{"type": "boolean", "description": "Create missing parent directories."},
				},
				"required": []string{"resourcePath", "content"},
			},
			Annotations: models.ToolAnnotations{DestructiveHint: true},
		},
		{
			Name:        "list_resources",
			Description: "Lists the resources of one data source with name, size and modification time.",
			ArgumentsSchema: models.Schema{
				"type": "object",
				"properties": models.Schema{
					"dataSourceId": models.Schema{"type": "string", "description": "Data source ID; omit for the primary data source."},
				},
			},
			Annotations: models.ToolAnnotations{ReadOnlyHint: true},
		},
	}}
}

// CallTool dispatches one tool invocation by name.
func (p *Processor) CallTool(toolName string, toolArgs json.RawMessage) (*models.ToolResult, *models.JSONRPCError) {
	switch toolName {
	case "edit_resource":
		var params models.EditResourceRequest
		if err := json.Unmarshal(toolArgs, &params); err != nil {
			return nil, errors.ToJSONRPCError(errors.NewInvalidInputError("invalid parameters for edit_resource: " + err.Error()))
		}
		result, serviceErr := p.service.EditResource(&params)
		if serviceErr != nil {
			return errorToolResult(serviceErr), nil
		}
		return textToolResult(formatEditResult(result)), nil

	case "load_resource":
		var params models.LoadResourceRequest
		if err := json.Unmarshal(toolArgs, &params); err != nil {
			return nil, errors.ToJSONRPCError(errors.NewInvalidInputError("invalid parameters for load_resource: " + err.Error()))
		}
		resp, serviceErr := p.service.LoadResource(&params)
		if serviceErr != nil {
			return errorToolResult(serviceErr), nil
		}
		return textToolResult(formatLoadResult(resp)), nil

	case "write_resource":
		var params models.WriteResourceRequest
		if err := json.Unmarshal(toolArgs, &params); err != nil {
			return nil, errors.ToJSONRPCError(errors.NewInvalidInputError("invalid parameters for write_resource: " + err.Error()))
		}
		resp, serviceErr := p.service.WriteResource(&params)
		if serviceErr != nil {
			return errorToolResult(serviceErr), nil
		}
		return textToolResult(formatWriteResult(resp)), nil

	case "list_resources":
		var params models.ListResourcesRequest
		if len(toolArgs) > 0 {
			if err := json.Unmarshal(toolArgs, &params); err != nil {
				return nil, errors.ToJSONRPCError(errors.NewInvalidInputError("invalid parameters for list_resources: " + err.Error()))
			}
		}
		resp, serviceErr := p.service.ListResources(&params)
		if serviceErr != nil {
			return errorToolResult(serviceErr), nil
		}
		return textToolResult(formatListResult(resp)), nil

	default:
		return &models.ToolResult{
			Content: []models.ToolContent{{Type: "text", Text: "Error: Unknown tool '" + toolName + "'."}},
			IsError: true,
		}, nil
	}
}

func textToolResult(text string) *models.ToolResult {
	return &models.ToolResult{Content: []models.ToolContent{{Type: "text", Text: text}}}
}

func errorToolResult(serviceErr *models.ErrorDetail) *models.ToolResult {
	return &models.ToolResult{
		Content: []models.ToolContent{{Type: "text", Text: formatToolError(serviceErr)}},
		IsError: true,
	}
}

// formatEditResult renders the per-operation report followed by the
// persistence facts of the batch.
func formatEditResult(result *models.EditResourceResult) string {
	summary := edit.Summarize(result.OperationResults)
	out := edit.RenderReport(result.DataSource, result.ResourcePath, result.OperationResults, summary)
	out += fmt.Sprintf("Status: %s\n", result.OperationStatus)
	if result.IsNewResource {
		out += "Resource was created.\n"
	}
	if result.Revision != "" {
		out += fmt.Sprintf("Revision: %s\n", result.Revision)
	}
	if result.BytesWritten > 0 {
		out += fmt.Sprintf("Bytes written: %d\n", result.BytesWritten)
	}
	return out
}

func formatLoadResult(resp *models.LoadResourceResponse) string {
	out := fmt.Sprintf("Data source: %s (%s)\n", resp.DataSource.Name, resp.DataSource.ProviderType)
	out += fmt.Sprintf("Resource: %s (%d bytes)\n", resp.ResourcePath, resp.Size)
	if resp.Blocks != nil {
		raw, err := json.MarshalIndent(resp.Blocks, "", "  ")
		if err != nil {
			return out + fmt.Sprintf("Failed to render blocks: %v\n", err)
		}
		return out + fmt.Sprintf("\nBlocks:\n%s", raw)
	}
	return out + fmt.Sprintf("\nContent:\n%s", resp.Content)
}

func formatWriteResult(resp *models.WriteResourceResponse) string {
	status := "Resource written successfully."
	if resp.ResourceCreated {
		status = "Resource created successfully."
	}
	return fmt.Sprintf("Data source: %s (%s)\nResource: %s\nStatus: %s\nBytes written: %d\nRevision: %s\n",
		resp.DataSource.Name, resp.DataSource.ProviderType, resp.ResourcePath, status, resp.BytesWritten, resp.Revision)
}

func formatListResult(resp *models.ListResourcesResponse) string {
	out := fmt.Sprintf("Data source: %s (%s)\nTotal resources: %d\n", resp.DataSource.Name, resp.DataSource.ProviderType, resp.TotalCount)
	if resp.TotalCount == 0 {
		return out
	}
	out += "\nResources:\n"
	for _, r := range resp.Resources {
		out += fmt.Sprintf("- %s (%d bytes, modified %s)\n", r.Name, r.Size, r.Modified)
	}
	return out
}

// formatToolError formats a service error for the tool result text.
func formatToolError(serviceErr *models.ErrorDetail) string {
	if serviceErr == nil {
		return "Error: An unexpected error occurred, but no details were provided."
	}
	return fmt.Sprintf("Error: %s (Code: %d)", serviceErr.Message, serviceErr.Code)
}
