package accessor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resource-editor-server/internal/datasource"
	"resource-editor-server/internal/edit"
	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/lock"
	"resource-editor-server/internal/models"
)

// FilesystemAccessor serves text resources from a local directory. It
// supports the searchReplace family and the text kinds of the range family;
// every blocks or structuredData operation is an individual per-operation
// failure rather than a rejection of the whole call.
type FilesystemAccessor struct {
	conn        *datasource.Connection
	lockManager *lock.Manager
	maxSize     int64
	lockTimeout time.Duration
}

// NewFilesystemAccessor creates a FilesystemAccessor for one connection.
func NewFilesystemAccessor(conn *datasource.Connection, lm *lock.Manager, maxSizeBytes int64, lockTimeout time.Duration) *FilesystemAccessor {
	return &FilesystemAccessor{
		conn:        conn,
		lockManager: lm,
		maxSize:     maxSizeBytes,
		lockTimeout: lockTimeout,
	}
}

var _ ResourceAccessor = (*FilesystemAccessor)(nil)
var _ ResourceEditor = (*FilesystemAccessor)(nil)

// HasCapability reports the edit families this backend supports.
func (a *FilesystemAccessor) HasCapability(c Capability) bool {
	switch c {
	case CapabilityEdit, CapabilityTextEdit, CapabilityRangeEdit, CapabilityWrite:
		return true
	default:
		return false
	}
}

// LoadResource reads a resource's content.
func (a *FilesystemAccessor) LoadResource(resourcePath string) (*LoadResult, *models.ErrorDetail) {
	absPath := a.conn.AbsolutePath(resourcePath)

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewResourceNotFoundError(resourcePath, "load")
		}
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(resourcePath, "load")
		}
		return nil, errors.NewResourceError(resourcePath, "load", err.Error())
	}
	if info.IsDir() {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("'%s' is a directory, not a resource", resourcePath))
	}
	if info.Size() > a.maxSize {
		return nil, errors.NewResourceTooLargeError(resourcePath, int(a.maxSize/(1024*1024)))
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(resourcePath, "load")
		}
		return nil, errors.NewResourceError(resourcePath, "load", err.Error())
	}

	return &LoadResult{
		Content:      content,
		IsText:       utf8.Valid(content),
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// WriteResource writes whole content atomically.
func (a *FilesystemAccessor) WriteResource(resourcePath string, content []byte, opts WriteOptions) (*WriteResult, *models.ErrorDetail) {
	absPath := a.conn.AbsolutePath(resourcePath)

	if opts.CreateMissingDirectories {
		if errDetail := a.EnsureResourcePathExists(resourcePath); errDetail != nil {
			return nil, errDetail
		}
	}

	held, err := a.lockManager.Acquire(absPath, a.lockTimeout)
	if err != nil {
		return nil, errors.NewOperationLockFailedError(resourcePath, "write", err.Error())
	}
	defer a.lockManager.Release(held)

	_, statErr := os.Stat(absPath)
	exists := statErr == nil
	if exists && !opts.Overwrite {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("resource '%s' already exists", resourcePath))
	}
	if int64(len(content)) > a.maxSize {
		return nil, errors.NewResourceTooLargeError(resourcePath, int(a.maxSize/(1024*1024)))
	}

	if err := writeFileAtomic(absPath, content, 0644); err != nil {
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(resourcePath, "write")
		}
		return nil, errors.NewResourceError(resourcePath, "write", err.Error())
	}

	info, _ := os.Stat(absPath)
	res := &WriteResult{
		Success:      true,
		URI:          a.conn.URIFor(resourcePath),
		BytesWritten: int64(len(content)),
		Revision:     uuid.NewString(),
		Created:      !exists,
	}
	if info != nil {
		res.LastModified = info.ModTime()
	}
	return res, nil
}

// EditResource applies a validated operation batch sequentially against the
// loaded text, threading mutated content forward, and persists the final
// content once when at least one operation succeeded (or the resource is new).
func (a *FilesystemAccessor) EditResource(resourcePath string, ops []edit.Operation, opts EditOptions) (*EditOutcome, *models.ErrorDetail) {
	absPath := a.conn.AbsolutePath(resourcePath)

	// The lock file lives next to the resource, so the parent directories
	// must exist before the lock can be taken.
	if opts.CreateIfMissing {
		if errDetail := a.EnsureResourcePathExists(resourcePath); errDetail != nil {
			return nil, errDetail
		}
	} else if _, statErr := os.Stat(absPath); os.IsNotExist(statErr) {
		// Resolved before locking: the lock file cannot be created inside a
		// missing directory, which would mask not-found as a lock failure.
		return nil, errors.NewResourceNotFoundError(resourcePath, "edit")
	}

	held, err := a.lockManager.Acquire(absPath, a.lockTimeout)
	if err != nil {
		return nil, errors.NewOperationLockFailedError(resourcePath, "edit", err.Error())
	}
	defer a.lockManager.Release(held)

	var content string
	isNew := false

	info, statErr := os.Stat(absPath)
	switch {
	case statErr == nil:
		if info.IsDir() {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("'%s' is a directory, not a resource", resourcePath))
		}
		if info.Size() > a.maxSize {
			return nil, errors.NewResourceTooLargeError(resourcePath, int(a.maxSize/(1024*1024)))
		}
		raw, readErr := os.ReadFile(absPath)
		if readErr != nil {
			if os.IsPermission(readErr) {
				return nil, errors.NewPermissionDeniedError(resourcePath, "edit")
			}
			return nil, errors.NewResourceError(resourcePath, "edit", readErr.Error())
		}
		if !utf8.Valid(raw) {
			return nil, errors.NewUnsupportedContentError(resourcePath, "content is not valid UTF-8 text")
		}
		content = string(raw)
	case os.IsNotExist(statErr):
		if !opts.CreateIfMissing {
			return nil, errors.NewResourceNotFoundError(resourcePath, "edit")
		}
		isNew = true
	default:
		return nil, errors.NewResourceError(resourcePath, "edit", statErr.Error())
	}

	outcome := &EditOutcome{IsNewResource: isNew, BeforeContent: content}
	notFound := 0

	for i, op := range ops {
		result := models.OperationResult{OperationIndex: i, EditType: op.EditType}

		switch op.EditType {
		case edit.TypeSearchReplace:
			sr := edit.ApplySearchReplace(content, op.SearchReplace, isNew)
			content = sr.Content
			result.Status = sr.Status
			result.Message = sr.Message
			if sr.NotFound {
				notFound++
			}

		case edit.TypeRange:
			switch op.Range.RangeType {
			case edit.RangeUpdateTextStyle, edit.RangeUpdateParagraphStyle:
				result.Status = models.StatusFailed
				result.Message = "style operations are not supported by the filesystem data source"
			default:
				ro := edit.ApplyTextRangeOperation(content, op.Range)
				content = ro.Content
				result.Status = ro.Status
				result.Message = ro.Message
			}

		case edit.TypeBlocks:
			result.Status = models.StatusFailed
			result.Message = "block operations are not supported by the filesystem data source"

		default:
			result.Status = models.StatusFailed
			result.Message = "structured data operations are not supported"
		}

		if result.Status == models.StatusSuccess {
			outcome.SuccessfulOperations = append(outcome.SuccessfulOperations, op)
		}
		outcome.OperationResults = append(outcome.OperationResults, result)
	}

	successful := len(outcome.SuccessfulOperations)

	// A search-replace batch that found nothing on an existing resource is a
	// hard failure, not a partial result. Pure no-op warnings and all-failed
	// batches of other families still report structurally.
	if !isNew && successful == 0 && notFound > 0 {
		return nil, errors.NewNoChangesError(resourcePath)
	}

	if successful > 0 || isNew {
		if err := writeFileAtomic(absPath, []byte(content), 0644); err != nil {
			if os.IsPermission(err) {
				return nil, errors.NewPermissionDeniedError(resourcePath, "edit")
			}
			return nil, errors.NewResourceError(resourcePath, "edit", err.Error())
		}
		outcome.BytesWritten = int64(len(content))
		outcome.Revision = uuid.NewString()
		if info, err := os.Stat(absPath); err == nil {
			outcome.LastModified = info.ModTime()
		}
	}

	outcome.AfterContent = content
	return outcome, nil
}

// ListResources enumerates the files directly under the connection root.
func (a *FilesystemAccessor) ListResources() ([]models.ResourceInfo, *models.ErrorDetail) {
	resources, err := listDirResources(a.conn.Root)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(a.conn.Root, "list")
		}
		return nil, errors.NewResourceError(a.conn.Root, "list", err.Error())
	}
	return resources, nil
}

// EnsureResourcePathExists creates the parent directories of a resource.
func (a *FilesystemAccessor) EnsureResourcePathExists(resourcePath string) *models.ErrorDetail {
	absPath := a.conn.AbsolutePath(resourcePath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.NewResourceError(resourcePath, "ensure_path", err.Error())
	}
	return nil
}
