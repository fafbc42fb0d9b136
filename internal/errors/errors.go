package errors

import (
	"fmt"
	"net/http"
	"time"

	"resource-editor-server/internal/models"
)

// JSON-RPC Error Codes (as per JSON-RPC 2.0 Specification)
const (
	CodeParseError     = -32700 // Invalid JSON was received by the server.
	CodeInvalidRequest = -32600 // The JSON sent is not a valid Request object.
	CodeMethodNotFound = -32601 // The method does not exist / is not available.
	CodeInvalidParams  = -32602 // Invalid method parameter(s), including malformed edit operations.
	CodeInternalError  = -32603 // Internal JSON-RPC error.
)

// Application Specific Error Codes
const (
	// CodeResourceError is a generic code for backend resource issues.
	// Specific issues like resource not found or permission denied use this
	// code with a "type" discriminator in the error data.
	CodeResourceError = -32001

	// CodeOperationLockFailed indicates that a lock on the resource could
	// not be acquired in time.
	CodeOperationLockFailed = -32002

	// CodeResourceTooLarge indicates the resource exceeds the configured size limit.
	CodeResourceTooLarge = -32003

	// CodeDataSourceNotFound indicates the requested data source ID does not
	// resolve to a registered connection.
	CodeDataSourceNotFound = -32010

	// CodeAccessDenied indicates the resource path resolves outside the
	// data source root.
	CodeAccessDenied = -32011

	// CodeCapabilityUnsupported indicates the backend cannot perform the
	// requested edit family at all.
	CodeCapabilityUnsupported = -32012

	// CodeNoChanges indicates a search-replace batch produced zero effective
	// changes against an existing resource.
	CodeNoChanges = -32013

	// CodeUnsupportedContent indicates the loaded resource content cannot be
	// edited as text (e.g. binary data).
	CodeUnsupportedContent = -32014
)

// NewErrorDetail creates a new ErrorDetail.
func NewErrorDetail(code int, message string, data interface{}) *models.ErrorDetail {
	return &models.ErrorDetail{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewParseError creates an ErrorDetail for JSON parsing errors.
func NewParseError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeParseError, "Parse error", map[string]interface{}{"details": details})
}

// NewInvalidRequestError creates an ErrorDetail for invalid JSON-RPC Request objects.
func NewInvalidRequestError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidRequest, "Invalid Request", map[string]interface{}{"details": details})
}

// NewMethodNotFoundError creates an ErrorDetail when a JSON-RPC method is not found.
func NewMethodNotFoundError(methodName string) *models.ErrorDetail {
	return NewErrorDetail(CodeMethodNotFound, "Method not found", map[string]interface{}{"method": methodName})
}

// NewInvalidInputError creates an ErrorDetail for malformed requests or edit
// operations. Always raised before any backend call is made.
func NewInvalidInputError(message string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidParams, message, map[string]interface{}{"type": "invalid_input"})
}

// NewInternalError creates an ErrorDetail for unexpected server errors.
func NewInternalError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInternalError, "Internal error", map[string]interface{}{"details": details})
}

// NewDataSourceNotFoundError signals that no connection resolves for the
// given data source ID (or that no primary connection is configured).
func NewDataSourceNotFoundError(dataSourceID string) *models.ErrorDetail {
	msg := "No primary data source is configured"
	if dataSourceID != "" {
		msg = fmt.Sprintf("Data source '%s' not found", dataSourceID)
	}
	return NewErrorDetail(CodeDataSourceNotFound, msg, map[string]interface{}{
		"dataSourceId": dataSourceID,
		"type":         "data_source_not_found",
	})
}

// NewAccessDeniedError signals that a resource path escapes its data source root.
func NewAccessDeniedError(resourcePath, dataSourceID string) *models.ErrorDetail {
	return NewErrorDetail(CodeAccessDenied,
		fmt.Sprintf("Resource '%s' is outside data source '%s'", resourcePath, dataSourceID),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"dataSourceId": dataSourceID,
			"type":         "access_denied",
		})
}

// NewCapabilityUnsupportedError signals that a backend does not expose the
// requested capability at all.
func NewCapabilityUnsupportedError(providerType, capability string) *models.ErrorDetail {
	return NewErrorDetail(CodeCapabilityUnsupported,
		fmt.Sprintf("Data source provider '%s' does not support %s", providerType, capability),
		map[string]interface{}{
			"providerType": providerType,
			"capability":   capability,
			"type":         "capability_unsupported",
		})
}

// NewNoChangesError signals that a search-replace batch changed nothing on an
// existing resource. This is a hard failure, not a partial-success report.
func NewNoChangesError(resourcePath string) *models.ErrorDetail {
	return NewErrorDetail(CodeNoChanges,
		fmt.Sprintf("No changes were made to resource '%s'", resourcePath),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"type":         "no_changes",
		})
}

// NewUnsupportedContentError signals that the loaded content is not editable text.
func NewUnsupportedContentError(resourcePath, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeUnsupportedContent,
		fmt.Sprintf("Resource '%s' does not contain editable text", resourcePath),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"details":      details,
			"type":         "unsupported_content",
		})
}

// NewResourceNotFoundError creates an ErrorDetail for missing resources.
func NewResourceNotFoundError(resourcePath, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeResourceError,
		fmt.Sprintf("Resource '%s' not found", resourcePath),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"operation":    operation,
			"type":         "resource_not_found",
		})
}

// NewPermissionDeniedError creates an ErrorDetail for permission errors.
func NewPermissionDeniedError(resourcePath, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeResourceError,
		fmt.Sprintf("Permission denied for resource '%s'", resourcePath),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"operation":    operation,
			"type":         "permission_denied",
		})
}

// NewResourceError creates a generic backend resource ErrorDetail.
func NewResourceError(resourcePath, operation, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeResourceError, "Resource error", map[string]interface{}{
		"resourcePath": resourcePath,
		"operation":    operation,
		"details":      details,
	})
}

// NewResourceTooLargeError creates an ErrorDetail for resources exceeding size limits.
func NewResourceTooLargeError(resourcePath string, maxSizeMB int) *models.ErrorDetail {
	return NewErrorDetail(CodeResourceTooLarge,
		fmt.Sprintf("Resource '%s' exceeds maximum allowed size of %d MB", resourcePath, maxSizeMB),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"max_size_mb":  maxSizeMB,
			"type":         "resource_too_large",
		})
}

// NewOperationLockFailedError creates an ErrorDetail for failures to acquire a lock.
func NewOperationLockFailedError(resourcePath, operation, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeOperationLockFailed,
		fmt.Sprintf("Could not acquire lock for operation '%s' on resource '%s'", operation, resourcePath),
		map[string]interface{}{
			"resourcePath": resourcePath,
			"operation":    operation,
			"details":      details,
		})
}

// ToErrorResponse converts an ErrorDetail to an HTTP models.ErrorResponse.
func ToErrorResponse(errDetail *models.ErrorDetail) *models.ErrorResponse {
	if errDetail == nil {
		return nil
	}
	return &models.ErrorResponse{Error: *errDetail}
}

// ToJSONRPCError converts an ErrorDetail to a models.JSONRPCError, lifting
// the known fields of the detail data into the structured error data.
func ToJSONRPCError(errDetail *models.ErrorDetail) *models.JSONRPCError {
	if errDetail == nil {
		return nil
	}
	rpcErr := &models.JSONRPCError{
		Code:    errDetail.Code,
		Message: errDetail.Message,
	}
	if errDetail.Data == nil {
		return rpcErr
	}

	data := &models.JSONRPCErrorData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if dataMap, ok := errDetail.Data.(map[string]interface{}); ok {
		if v, ok := dataMap["resourcePath"].(string); ok {
			data.ResourcePath = v
		}
		if v, ok := dataMap["dataSourceId"].(string); ok {
			data.DataSource = v
		}
		if v, ok := dataMap["operation"].(string); ok {
			data.Operation = v
		}
		if v, ok := dataMap["details"].(string); ok {
			data.Details = v
		}
	} else {
		data.Details = fmt.Sprintf("%v", errDetail.Data)
	}
	rpcErr.Data = data
	return rpcErr
}

// MapErrorToHTTPStatus maps an internal error code to an HTTP status code.
func MapErrorToHTTPStatus(errorCode int, errDetail *models.ErrorDetail) int {
	switch errorCode {
	case CodeParseError, CodeInvalidRequest, CodeInvalidParams:
		return http.StatusBadRequest
	case CodeMethodNotFound:
		return http.StatusNotFound
	case CodeInternalError:
		return http.StatusInternalServerError
	case CodeResourceError:
		if errDetail != nil {
			if dataMap, ok := errDetail.Data.(map[string]interface{}); ok {
				switch dataMap["type"] {
				case "resource_not_found":
					return http.StatusNotFound
				case "permission_denied":
					return http.StatusForbidden
				}
			}
		}
		return http.StatusInternalServerError
	case CodeResourceTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeOperationLockFailed:
		return http.StatusConflict
	case CodeDataSourceNotFound:
		return http.StatusNotFound
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeCapabilityUnsupported:
		return http.StatusUnprocessableEntity
	case CodeNoChanges:
		return http.StatusConflict
	case CodeUnsupportedContent:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
