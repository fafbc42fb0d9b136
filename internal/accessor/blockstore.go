package accessor

import (
	"encoding/json"
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

// BlockstoreAccessor serves Portable-Text documents persisted as JSON files
// under a local directory, the stand-in for block-structured backends. It
// supports the blocks family and searchReplace across span text; range and
// structuredData operations fail per-operation.
type BlockstoreAccessor struct {
	conn        *datasource.Connection
	lockManager *lock.Manager
	maxSize     int64
	lockTimeout time.Duration
}

// NewBlockstoreAccessor creates a BlockstoreAccessor for one connection.
func NewBlockstoreAccessor(conn *datasource.Connection, lm *lock.Manager, maxSizeBytes int64, lockTimeout time.Duration) *BlockstoreAccessor {
	return &BlockstoreAccessor{
		conn:        conn,
		lockManager: lm,
		maxSize:     maxSizeBytes,
		lockTimeout: lockTimeout,
	}
}

var _ ResourceAccessor = (*BlockstoreAccessor)(nil)
var _ ResourceEditor = (*BlockstoreAccessor)(nil)
var _ BlockEditable = (*BlockstoreAccessor)(nil)

// HasCapability reports the edit families this backend supports.
func (a *BlockstoreAccessor) HasCapability(c Capability) bool {
	switch c {
	case CapabilityEdit, CapabilityBlockEdit, CapabilityTextEdit, CapabilityWrite:
		return true
	default:
		return false
	}
}

func (a *BlockstoreAccessor) loadBlocks(resourcePath string) ([]models.Block, os.FileInfo, *models.ErrorDetail) {
	absPath := a.conn.AbsolutePath(resourcePath)

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewResourceNotFoundError(resourcePath, "load")
		}
		if os.IsPermission(err) {
			return nil, nil, errors.NewPermissionDeniedError(resourcePath, "load")
		}
		return nil, nil, errors.NewResourceError(resourcePath, "load", err.Error())
	}
	if info.Size() > a.maxSize {
		return nil, nil, errors.NewResourceTooLargeError(resourcePath, int(a.maxSize/(1024*1024)))
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil, errors.NewResourceError(resourcePath, "load", err.Error())
	}
	var blocks []models.Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, nil, errors.NewUnsupportedContentError(resourcePath, fmt.Sprintf("not a block document: %v", err))
	}
	return blocks, info, nil
}

func (a *BlockstoreAccessor) persistBlocks(resourcePath string, blocks []models.Block) ([]byte, *models.ErrorDetail) {
	absPath := a.conn.AbsolutePath(resourcePath)
	if blocks == nil {
		blocks = []models.Block{}
	}
	raw, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to serialize block document: %v", err))
	}
	if err := writeFileAtomic(absPath, raw, 0644); err != nil {
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(resourcePath, "write")
		}
		return nil, errors.NewResourceError(resourcePath, "write", err.Error())
	}
	return raw, nil
}

// LoadResource reads a block document.
func (a *BlockstoreAccessor) LoadResource(resourcePath string) (*LoadResult, *models.ErrorDetail) {
	blocks, info, errDetail := a.loadBlocks(resourcePath)
	if errDetail != nil {
		return nil, errDetail
	}
	raw, err := os.ReadFile(a.conn.AbsolutePath(resourcePath))
	if err != nil {
		return nil, errors.NewResourceError(resourcePath, "load", err.Error())
	}
	return &LoadResult{
		Content:      raw,
		IsText:       utf8.Valid(raw),
		Blocks:       blocks,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// WriteResource writes a whole block document. Content must be a JSON block array.
func (a *BlockstoreAccessor) WriteResource(resourcePath string, content []byte, opts WriteOptions) (*WriteResult, *models.ErrorDetail) {
	var blocks []models.Block
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil, errors.NewUnsupportedContentError(resourcePath, fmt.Sprintf("content is not a block array: %v", err))
	}

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

	raw, errDetail := a.persistBlocks(resourcePath, blocks)
	if errDetail != nil {
		return nil, errDetail
	}

	res := &WriteResult{
		Success:      true,
		URI:          a.conn.URIFor(resourcePath),
		BytesWritten: int64(len(raw)),
		Revision:     uuid.NewString(),
		Created:      !exists,
	}
	if info, err := os.Stat(absPath); err == nil {
		res.LastModified = info.ModTime()
	}
	return res, nil
}

// EditResource applies a validated operation batch to the block document.
// Later operations see the block list as mutated by earlier ones; the
// surviving document is persisted once at batch end.
func (a *BlockstoreAccessor) EditResource(resourcePath string, ops []edit.Operation, opts EditOptions) (*EditOutcome, *models.ErrorDetail) {
	absPath := a.conn.AbsolutePath(resourcePath)

	// The lock file lives next to the document, so the parent directories
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

	var blocks []models.Block
	isNew := false

	if _, statErr := os.Stat(absPath); statErr == nil {
		loaded, _, errDetail := a.loadBlocks(resourcePath)
		if errDetail != nil {
			return nil, errDetail
		}
		blocks = loaded
	} else if os.IsNotExist(statErr) {
		if !opts.CreateIfMissing {
			return nil, errors.NewResourceNotFoundError(resourcePath, "edit")
		}
		isNew = true
	} else {
		return nil, errors.NewResourceError(resourcePath, "edit", statErr.Error())
	}

	before, _ := json.Marshal(blocks)
	outcome := &EditOutcome{IsNewResource: isNew, BeforeContent: string(before)}
	notFound := 0

	for i, op := range ops {
		result := models.OperationResult{OperationIndex: i, EditType: op.EditType}

		switch op.EditType {
		case edit.TypeBlocks:
			bo := edit.ApplyBlockOperation(blocks, op.Blocks)
			blocks = bo.Blocks
			result.Status = bo.Status
			result.Message = bo.Message
			result.OriginalIndex = bo.OriginalIndex
			result.NewIndex = bo.NewIndex
			result.AffectedKey = bo.AffectedKey

		case edit.TypeSearchReplace:
			changed, status, message, wasNotFound := applySearchReplaceToBlocks(blocks, op.SearchReplace, isNew)
			blocks = changed
			result.Status = status
			result.Message = message
			if wasNotFound {
				notFound++
			}

		case edit.TypeRange:
			result.Status = models.StatusFailed
			result.Message = "range operations are not supported by the blockstore data source"

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

	if !isNew && successful == 0 && notFound > 0 {
		return nil, errors.NewNoChangesError(resourcePath)
	}

	if successful > 0 || isNew {
		raw, errDetail := a.persistBlocks(resourcePath, blocks)
		if errDetail != nil {
			return nil, errDetail
		}
		outcome.BytesWritten = int64(len(raw))
		outcome.Revision = uuid.NewString()
		if info, err := os.Stat(absPath); err == nil {
			outcome.LastModified = info.ModTime()
		}
	}

	after, _ := json.Marshal(blocks)
	outcome.AfterContent = string(after)
	return outcome, nil
}

// applySearchReplaceToBlocks runs one substitution across the spans of the
// document, block by block. Changed spans keep their keys and marks. Without
// replaceAll the scope is the whole document: the first span with a match is
// replaced once and the remaining spans are left untouched.
func applySearchReplaceToBlocks(blocks []models.Block, op *edit.SearchReplaceOp, isNew bool) ([]models.Block, string, string, bool) {
	changedSpans := 0
	next := make([]models.Block, len(blocks))
	copy(next, blocks)

	for bi := range next {
		if len(next[bi].Children) == 0 {
			continue
		}
		children := make([]models.Span, len(next[bi].Children))
		copy(children, next[bi].Children)
		for si := range children {
			out := edit.ApplySearchReplace(children[si].Text, op, isNew)
			if out.Status == models.StatusFailed {
				return blocks, models.StatusFailed, out.Message, false
			}
			if out.Status == models.StatusWarning && !out.NotFound {
				// Degenerate operation (e.g. search equals replace): the
				// verdict is the same for every span, stop early.
				return blocks, models.StatusWarning, out.Message, false
			}
			if out.Status == models.StatusSuccess {
				children[si].Text = out.Content
				changedSpans++
				if !op.ReplaceAll {
					next[bi].Children = children
					return next, models.StatusSuccess, fmt.Sprintf("replaced text in %d span(s)", changedSpans), false
				}
			}
		}
		next[bi].Children = children
	}

	if changedSpans == 0 {
		return blocks, models.StatusWarning, fmt.Sprintf("search string not found: %q", op.Search), true
	}
	return next, models.StatusSuccess, fmt.Sprintf("replaced text in %d span(s)", changedSpans), false
}

// ListResources enumerates the block documents under the connection root.
func (a *BlockstoreAccessor) ListResources() ([]models.ResourceInfo, *models.ErrorDetail) {
	resources, err := listDirResources(a.conn.Root)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errors.NewPermissionDeniedError(a.conn.Root, "list")
		}
		return nil, errors.NewResourceError(a.conn.Root, "list", err.Error())
	}
	return resources, nil
}

// EnsureResourcePathExists creates the parent directories of a document.
func (a *BlockstoreAccessor) EnsureResourcePathExists(resourcePath string) *models.ErrorDetail {
	absPath := a.conn.AbsolutePath(resourcePath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.NewResourceError(resourcePath, "ensure_path", err.Error())
	}
	return nil
}

// GetDocumentAsPortableText returns the document's block list.
func (a *BlockstoreAccessor) GetDocumentAsPortableText(resourcePath string) ([]models.Block, *models.ErrorDetail) {
	blocks, _, errDetail := a.loadBlocks(resourcePath)
	return blocks, errDetail
}

// ApplyPortableTextOperations is the standalone block-edit entrypoint: it
// applies only blocks-family operations and persists the surviving document
// as one write, relaying the per-operation result list unchanged in shape.
func (a *BlockstoreAccessor) ApplyPortableTextOperations(resourcePath string, ops []edit.Operation) ([]models.OperationResult, *models.ErrorDetail) {
	blockOps := make([]edit.Operation, 0, len(ops))
	for _, op := range ops {
		if op.EditType != edit.TypeBlocks {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("operation family '%s' is not a block operation", op.EditType))
		}
		blockOps = append(blockOps, op)
	}
	outcome, errDetail := a.EditResource(resourcePath, blockOps, EditOptions{})
	if errDetail != nil {
		return nil, errDetail
	}
	return outcome.OperationResults, nil
}
