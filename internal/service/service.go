// Package service implements the tool-facing operations. The service owns
// request validation, data source resolution and the path-traversal guard;
// backend mechanics live in the accessors.
package service

import (
	"fmt"
	"log"
	"time"

	"resource-editor-server/internal/accessor"
	"resource-editor-server/internal/changelog"
	"resource-editor-server/internal/datasource"
	"resource-editor-server/internal/edit"
	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/models"
)

// ResourceEditorService defines the operations exposed as tools.
type ResourceEditorService interface {
	EditResource(req *models.EditResourceRequest) (*models.EditResourceResult, *models.ErrorDetail)
	LoadResource(req *models.LoadResourceRequest) (*models.LoadResourceResponse, *models.ErrorDetail)
	WriteResource(req *models.WriteResourceRequest) (*models.WriteResourceResponse, *models.ErrorDetail)
	ListResources(req *models.ListResourcesRequest) (*models.ListResourcesResponse, *models.ErrorDetail)
}

// DefaultResourceEditorService is the standard implementation backed by the
// connection registry and one accessor per data source.
type DefaultResourceEditorService struct {
	registry      *datasource.Registry
	accessors     map[string]accessor.ResourceAccessor
	changeLog     *changelog.Logger
	logger        *log.Logger
	maxOperations int
}

// NewDefaultResourceEditorService initializes the service. The accessors map
// is keyed by data source ID and must cover every registered connection.
func NewDefaultResourceEditorService(registry *datasource.Registry, accessors map[string]accessor.ResourceAccessor, changeLog *changelog.Logger, logger *log.Logger, maxOperations int) *DefaultResourceEditorService {
	return &DefaultResourceEditorService{
		registry:      registry,
		accessors:     accessors,
		changeLog:     changeLog,
		logger:        logger,
		maxOperations: maxOperations,
	}
}

// resolve validates the data source and resource path of a request and
// returns the connection plus its accessor.
func (s *DefaultResourceEditorService) resolve(dataSourceID, resourcePath string) (*datasource.Connection, accessor.ResourceAccessor, *models.ErrorDetail) {
	conn, ok := s.registry.Resolve(dataSourceID)
	if !ok {
		return nil, nil, errors.NewDataSourceNotFoundError(dataSourceID)
	}
	if resourcePath != "" && !conn.IsResourceWithin(resourcePath) {
		return nil, nil, errors.NewAccessDeniedError(resourcePath, conn.ID)
	}
	acc, ok := s.accessors[conn.ID]
	if !ok {
		return nil, nil, errors.NewInternalError(fmt.Sprintf("no accessor registered for data source '%s'", conn.ID))
	}
	return conn, acc, nil
}

func dataSourceInfo(conn *datasource.Connection) models.DataSourceInfo {
	return models.DataSourceInfo{ID: conn.ID, Name: conn.Name, ProviderType: conn.ProviderType}
}

// EditResource decodes and validates the operation batch, dispatches it to
// the resolved backend and aggregates the per-operation results. The change
// log is written once per batch that persisted at least one change; a change
// log failure is logged but never fails the edit that already committed.
func (s *DefaultResourceEditorService) EditResource(req *models.EditResourceRequest) (*models.EditResourceResult, *models.ErrorDetail) {
	if req.ResourcePath == "" {
		return nil, errors.NewInvalidInputError("resourcePath is required")
	}

	ops, errDetail := edit.DecodeOperations(req.Operations)
	if errDetail != nil {
		return nil, errDetail
	}
	if s.maxOperations > 0 && len(ops) > s.maxOperations {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("operation count %d exceeds the maximum of %d", len(ops), s.maxOperations))
	}

	conn, acc, errDetail := s.resolve(req.DataSourceID, req.ResourcePath)
	if errDetail != nil {
		return nil, errDetail
	}

	editor, ok := acc.(accessor.ResourceEditor)
	if !ok {
		return nil, errors.NewCapabilityUnsupportedError(conn.ProviderType, "edit")
	}

	outcome, errDetail := editor.EditResource(req.ResourcePath, ops, accessor.EditOptions{CreateIfMissing: req.CreateIfMissing})
	if errDetail != nil {
		return nil, errDetail
	}

	summary := edit.Summarize(outcome.OperationResults)

	if len(outcome.SuccessfulOperations) > 0 {
		if err := s.changeLog.LogChangeAndCommit(conn, req.ResourcePath, outcome.SuccessfulOperations, outcome.BeforeContent, outcome.AfterContent); err != nil {
			s.logger.Printf("WARN: change log write failed for %s: %v", req.ResourcePath, err)
		}
	}

	result := &models.EditResourceResult{
		ResourcePath:           req.ResourcePath,
		ResourceID:             conn.URIFor(req.ResourcePath),
		OperationResults:       outcome.OperationResults,
		OperationsApplied:      summary.Applied,
		OperationsSuccessful:   summary.Successful,
		OperationsFailed:       summary.Failed,
		OperationsWithWarnings: summary.Warnings,
		OperationStatus:        summary.Status,
		Revision:               outcome.Revision,
		BytesWritten:           outcome.BytesWritten,
		IsNewResource:          outcome.IsNewResource,
		DataSource:             dataSourceInfo(conn),
	}
	if !outcome.LastModified.IsZero() {
		result.LastModified = outcome.LastModified.UTC().Format(time.RFC3339)
	}
	return result, nil
}

// LoadResource reads one resource from the resolved data source.
func (s *DefaultResourceEditorService) LoadResource(req *models.LoadResourceRequest) (*models.LoadResourceResponse, *models.ErrorDetail) {
	if req.ResourcePath == "" {
		return nil, errors.NewInvalidInputError("resourcePath is required")
	}
	conn, acc, errDetail := s.resolve(req.DataSourceID, req.ResourcePath)
	if errDetail != nil {
		return nil, errDetail
	}

	loaded, errDetail := acc.LoadResource(req.ResourcePath)
	if errDetail != nil {
		return nil, errDetail
	}

	resp := &models.LoadResourceResponse{
		ResourcePath: req.ResourcePath,
		Size:         loaded.Size,
		DataSource:   dataSourceInfo(conn),
	}
	if loaded.Blocks != nil {
		resp.Blocks = loaded.Blocks
	} else if loaded.IsText {
		resp.Content = string(loaded.Content)
	} else {
		return nil, errors.NewUnsupportedContentError(req.ResourcePath, "content is not valid UTF-8 text")
	}
	if !loaded.LastModified.IsZero() {
		resp.LastModified = loaded.LastModified.UTC().Format(time.RFC3339)
	}
	return resp, nil
}

// WriteResource replaces or creates a resource's whole content.
func (s *DefaultResourceEditorService) WriteResource(req *models.WriteResourceRequest) (*models.WriteResourceResponse, *models.ErrorDetail) {
	if req.ResourcePath == "" {
		return nil, errors.NewInvalidInputError("resourcePath is required")
	}
	conn, acc, errDetail := s.resolve(req.DataSourceID, req.ResourcePath)
	if errDetail != nil {
		return nil, errDetail
	}
	if !acc.HasCapability(accessor.CapabilityWrite) {
		return nil, errors.NewCapabilityUnsupportedError(conn.ProviderType, "write")
	}

	res, errDetail := acc.WriteResource(req.ResourcePath, []byte(req.Content), accessor.WriteOptions{
		Overwrite:                true,
		CreateMissingDirectories: req.CreateIfMissing,
	})
	if errDetail != nil {
		return nil, errDetail
	}

	return &models.WriteResourceResponse{
		Success:         res.Success,
		ResourcePath:    req.ResourcePath,
		BytesWritten:    res.BytesWritten,
		Revision:        res.Revision,
		ResourceCreated: res.Created,
		DataSource:      dataSourceInfo(conn),
	}, nil
}

// ListResources enumerates the resources of one data source.
func (s *DefaultResourceEditorService) ListResources(req *models.ListResourcesRequest) (*models.ListResourcesResponse, *models.ErrorDetail) {
	conn, acc, errDetail := s.resolve(req.DataSourceID, "")
	if errDetail != nil {
		return nil, errDetail
	}

	resources, errDetail := acc.ListResources()
	if errDetail != nil {
		return nil, errDetail
	}
	if resources == nil {
		resources = []models.ResourceInfo{}
	}
	return &models.ListResourcesResponse{
		Resources:  resources,
		TotalCount: len(resources),
		DataSource: dataSourceInfo(conn),
	}, nil
}
