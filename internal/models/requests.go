package models

import "encoding/json"

// DataSourceInfo identifies the data source a result came from.
type DataSourceInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProviderType string `json:"providerType"`
}

// EditResourceRequest represents a request to apply a batch of edit
// operations to one resource. Operations are kept raw here; decoding and
// validation into typed operations happens before any backend call.
type EditResourceRequest struct {
	// DataSourceID selects the data source. Empty means the primary one.
	DataSourceID string `json:"dataSourceId,omitempty"`
	// ResourcePath is the path of the resource within the data source.
	ResourcePath string `json:"resourcePath"`
	// CreateIfMissing creates the resource when it does not exist yet.
	CreateIfMissing bool `json:"createIfMissing,omitempty"`
	// Operations is the ordered list of edit operations in wire form.
	Operations json.RawMessage `json:"operations"`
}

// EditResourceResult is the aggregate outcome of one edit_resource call.
// Invariants: OperationsApplied equals the number of input operations, and
// OperationsSuccessful + OperationsFailed == OperationsApplied.
type EditResourceResult struct {
	ResourcePath           string            `json:"resourcePath"`
	ResourceID             string            `json:"resourceId"`
	OperationResults       []OperationResult `json:"operationResults"`
	OperationsApplied      int               `json:"operationsApplied"`
	OperationsSuccessful   int               `json:"operationsSuccessful"`
	OperationsFailed       int               `json:"operationsFailed"`
	OperationsWithWarnings int               `json:"operationsWithWarnings"`
	// OperationStatus is the overall batch status line, one of
	// "All operations succeeded", "All operations failed" or
	// "Partial operations succeeded".
	OperationStatus string         `json:"operationStatus"`
	LastModified    string         `json:"lastModified,omitempty"`
	Revision        string         `json:"revision,omitempty"`
	BytesWritten    int64          `json:"bytesWritten"`
	IsNewResource   bool           `json:"isNewResource"`
	DataSource      DataSourceInfo `json:"dataSource"`
}

// LoadResourceRequest represents a request to read a resource.
type LoadResourceRequest struct {
	DataSourceID string `json:"dataSourceId,omitempty"`
	ResourcePath string `json:"resourcePath"`
}

// LoadResourceResponse carries a loaded resource. Content is set for text
// resources; Blocks is set for Portable-Text resources.
type LoadResourceResponse struct {
	ResourcePath string         `json:"resourcePath"`
	Content      string         `json:"content,omitempty"`
	Blocks       []Block        `json:"blocks,omitempty"`
	Size         int64          `json:"size"`
	LastModified string         `json:"lastModified,omitempty"`
	DataSource   DataSourceInfo `json:"dataSource"`
}

// WriteResourceRequest represents a whole-content write.
type WriteResourceRequest struct {
	DataSourceID    string `json:"dataSourceId,omitempty"`
	ResourcePath    string `json:"resourcePath"`
	Content         string `json:"content"`
	CreateIfMissing bool   `json:"createIfMissing,omitempty"`
}

// WriteResourceResponse reports a completed write.
type WriteResourceResponse struct {
	Success         bool           `json:"success"`
	ResourcePath    string         `json:"resourcePath"`
	BytesWritten    int64          `json:"bytesWritten"`
	Revision        string         `json:"revision,omitempty"`
	ResourceCreated bool           `json:"resourceCreated"`
	DataSource      DataSourceInfo `json:"dataSource"`
}

// ListResourcesRequest selects the data source to enumerate.
type ListResourcesRequest struct {
	DataSourceID string `json:"dataSourceId,omitempty"`
}

// ResourceInfo describes one listed resource.
type ResourceInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

// ListResourcesResponse carries a data source listing.
type ListResourcesResponse struct {
	Resources  []ResourceInfo `json:"resources"`
	TotalCount int            `json:"totalCount"`
	DataSource DataSourceInfo `json:"dataSource"`
}
