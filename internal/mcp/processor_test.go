package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/models"
)

// fakeService is a hand-rolled ResourceEditorService returning canned values.
type fakeService struct {
	editResult  *models.EditResourceResult
	editErr     *models.ErrorDetail
	loadResp    *models.LoadResourceResponse
	loadErr     *models.ErrorDetail
	writeResp   *models.WriteResourceResponse
	listResp    *models.ListResourcesResponse
	lastEditReq *models.EditResourceRequest
}

func (f *fakeService) EditResource(req *models.EditResourceRequest) (*models.EditResourceResult, *models.ErrorDetail) {
	f.lastEditReq = req
	return f.editResult, f.editErr
}

func (f *fakeService) LoadResource(req *models.LoadResourceRequest) (*models.LoadResourceResponse, *models.ErrorDetail) {
	return f.loadResp, f.loadErr
}

func (f *fakeService) WriteResource(req *models.WriteResourceRequest) (*models.WriteResourceResponse, *models.ErrorDetail) {
	return f.writeResp, nil
}

func (f *fakeService) ListResources(req *models.ListResourcesRequest) (*models.ListResourcesResponse, *models.ErrorDetail) {
	return f.listResp, nil
}

func sampleEditResult() *models.EditResourceResult {
	return &models.EditResourceResult{
		ResourcePath: "notes.txt",
		ResourceID:   "filesystem://local/notes.txt",
		OperationResults: []models.OperationResult{
			{OperationIndex: 0, EditType: "searchReplace", Status: models.StatusSuccess, Message: "replaced"},
		},
		OperationsApplied:    1,
		OperationsSuccessful: 1,
		OperationStatus:      "All operations succeeded",
		Revision:             "rev-1",
		BytesWritten:         8,
		DataSource:           models.DataSourceInfo{ID: "local", Name: "Local Files", ProviderType: "filesystem"},
	}
}

func TestProcessRequestInitialize(t *testing.T) {
	p := NewProcessor(&fakeService{})
	result, rpcErr := p.ProcessRequest(models.JSONRPCRequest{JSONRPC: "2.0", Method: "initialize"})
	if rpcErr != nil {
		t.Fatalf("initialize failed: %+v", rpcErr)
	}
	init, ok := result.(*models.InitializeResponse)
	if !ok {
		t.Fatalf("result type %T", result)
	}
	if init.ServerInfo.Name != "resource-editor-server" || init.ProtocolVersion == "" {
		t.Errorf("serverInfo = %+v", init)
	}
}

func TestProcessRequestToolsList(t *testing.T) {
	p := NewProcessor(&fakeService{})
	result, rpcErr := p.ProcessRequest(models.JSONRPCRequest{JSONRPC: "2.0", Method: "tools/list"})
	if rpcErr != nil {
		t.Fatalf("tools/list failed: %+v", rpcErr)
	}
	list, ok := result.(*models.ToolsListResponse)
	if !ok {
		t.Fatalf("result type %T", result)
	}
	want := map[string]bool{"edit_resource": true, "load_resource": true, "write_resource": true, "list_resources": true}
	if len(list.Tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(list.Tools))
	}
	for _, tool := range list.Tools {
		if !want[tool.Name] {
			t.Errorf("unexpected tool %q", tool.Name)
		}
		if tool.ArgumentsSchema == nil {
			t.Errorf("tool %q has no schema", tool.Name)
		}
	}
}

func TestProcessRequestMethodNotFound(t *testing.T) {
	p := NewProcessor(&fakeService{})
	_, rpcErr := p.ProcessRequest(models.JSONRPCRequest{JSONRPC: "2.0", Method: "resources/list"})
	if rpcErr == nil || rpcErr.Code != errors.CodeMethodNotFound {
		t.Errorf("expected method-not-found, got %+v", rpcErr)
	}
}

func TestToolsCallEditResource(t *testing.T) {
	svc := &fakeService{editResult: sampleEditResult()}
	p := NewProcessor(svc)

	params, _ := json.Marshal(ToolCallParams{
		Name:      "edit_resource",
		Arguments: json.RawMessage(`{"resourcePath":"notes.txt","operations":[{"editType":"searchReplace","searchReplace_search":"a","searchReplace_replace":"b"}]}`),
	})
	result, rpcErr := p.ProcessRequest(models.JSONRPCRequest{JSONRPC: "2.0", Method: "tools/call", Params: params})
	if rpcErr != nil {
		t.Fatalf("tools/call failed: %+v", rpcErr)
	}
	toolResult, ok := result.(*models.ToolResult)
	if !ok {
		t.Fatalf("result type %T", result)
	}
	if toolResult.IsError {
		t.Fatalf("unexpected error result: %+v", toolResult)
	}
	text := toolResult.Content[0].Text
	for _, want := range []string{
		"Data source: Local Files (filesystem)",
		"notes.txt: 1/1 operations succeeded.",
		"✅ Operation 1 (searchReplace): replaced",
		"Revision: rev-1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if svc.lastEditReq == nil || svc.lastEditReq.ResourcePath != "notes.txt" {
		t.Errorf("request not forwarded: %+v", svc.lastEditReq)
	}
}

func TestToolsCallServiceErrorBecomesToolError(t *testing.T) {
	svc := &fakeService{editErr: errors.NewNoChangesError("notes.txt")}
	p := NewProcessor(svc)

	result, rpcErr := p.CallTool("edit_resource", json.RawMessage(`{"resourcePath":"notes.txt","operations":[]}`))
	if rpcErr != nil {
		t.Fatalf("service errors must not become JSON-RPC errors: %+v", rpcErr)
	}
	if !result.IsError {
		t.Fatal("IsError not set")
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "Error:") || !strings.Contains(text, "(Code: -32013)") {
		t.Errorf("text = %q", text)
	}
}

func TestToolsCallUnknownTool(t *testing.T) {
	p := NewProcessor(&fakeService{})
	result, rpcErr := p.CallTool("delete_everything", nil)
	if rpcErr != nil {
		t.Fatalf("unexpected rpc error: %+v", rpcErr)
	}
	if !result.IsError || !strings.Contains(result.Content[0].Text, "Unknown tool") {
		t.Errorf("result = %+v", result)
	}
}

func TestToolsCallMalformedArguments(t *testing.T) {
	p := NewProcessor(&fakeService{})
	_, rpcErr := p.CallTool("edit_resource", json.RawMessage(`{"resourcePath":42}`))
	if rpcErr == nil || rpcErr.Code != errors.CodeInvalidParams {
		t.Errorf("expected invalid-params, got %+v", rpcErr)
	}
}

func TestToolsCallLoadResourceBlocks(t *testing.T) {
	svc := &fakeService{loadResp: &models.LoadResourceResponse{
		ResourcePath: "doc.json",
		Blocks:       []models.Block{{Type: "block", Key: "a"}},
		Size:         42,
		DataSource:   models.DataSourceInfo{ID: "docs", Name: "Block Documents", ProviderType: "blockstore"},
	}}
	p := NewProcessor(svc)

	result, rpcErr := p.CallTool("load_resource", json.RawMessage(`{"dataSourceId":"docs","resourcePath":"doc.json"}`))
	if rpcErr != nil {
		t.Fatalf("load failed: %+v", rpcErr)
	}
	text := result.Content[0].Text
	if !strings.Contains(text, "Blocks:") || !strings.Contains(text, `"_key": "a"`) {
		t.Errorf("text = %q", text)
	}
}

func TestToolsCallListResources(t *testing.T) {
	svc := &fakeService{listResp: &models.ListResourcesResponse{
		Resources:  []models.ResourceInfo{{Name: "a.txt", Size: 3, Modified: "2026-01-01T00:00:00Z"}},
		TotalCount: 1,
		DataSource: models.DataSourceInfo{ID: "local", Name: "Local Files", ProviderType: "filesystem"},
	}}
	p := NewProcessor(svc)

	result, rpcErr := p.CallTool("list_resources", nil)
	if rpcErr != nil {
		t.Fatalf("list failed: %+v", rpcErr)
	}
	if !strings.Contains(result.Content[0].Text, "a.txt (3 bytes") {
		t.Errorf("text = %q", result.Content[0].Text)
	}
}
