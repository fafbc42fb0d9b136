// Package accessor implements the per-backend resource accessors. Each
// accessor owns the fan-out of edit operations to whichever apply strategies
// its backend supports: unsupported families fail per-operation, never the
// whole call. The dispatcher stays backend-agnostic by pattern-matching on
// the capability interfaces below instead of probing methods at runtime.
package accessor

import (
	"time"

	"resource-editor-server/internal/edit"
	"resource-editor-server/internal/models"
)

// Capability names a backend feature that gates an edit family.
type Capability string

const (
	CapabilityEdit      Capability = "edit"
	CapabilityTextEdit  Capability = "textEdit"
	CapabilityBlockEdit Capability = "blockEdit"
	CapabilityRangeEdit Capability = "rangeEdit"
	CapabilityWrite     Capability = "write"
)

// WriteOptions controls WriteResource behavior.
type WriteOptions struct {
	Overwrite                bool
	CreateMissingDirectories bool
}

// WriteResult reports a completed write.
type WriteResult struct {
	Success      bool
	URI          string
	BytesWritten int64
	Revision     string
	Created      bool
	LastModified time.Time
}

// LoadResult carries a loaded resource.
type LoadResult struct {
	// Content is the raw resource content.
	Content []byte
	// IsText is true when Content is valid UTF-8 text.
	IsText bool
	// Blocks is set for Portable-Text resources.
	Blocks       []models.Block
	Size         int64
	LastModified time.Time
}

// EditOptions controls EditResource behavior.
type EditOptions struct {
	CreateIfMissing bool
}

// EditOutcome is the unified edit entrypoint's result. The accessor applies
// the whole batch sequentially against a working copy and persists at most
// once, so the outcome carries both the per-operation results and the
// before/after content needed for the change log.
type EditOutcome struct {
	OperationResults     []models.OperationResult
	SuccessfulOperations []edit.Operation
	IsNewResource        bool
	BytesWritten         int64
	Revision             string
	LastModified         time.Time
	BeforeContent        string
	AfterContent         string
}

// ResourceAccessor is the backend-specific contract for one data source:
// load/write/list plus capability advertisement.
type ResourceAccessor interface {
	HasCapability(c Capability) bool
	LoadResource(resourcePath string) (*LoadResult, *models.ErrorDetail)
	WriteResource(resourcePath string, content []byte, opts WriteOptions) (*WriteResult, *models.ErrorDetail)
	ListResources() ([]models.ResourceInfo, *models.ErrorDetail)
	EnsureResourcePathExists(resourcePath string) *models.ErrorDetail
}

// ResourceEditor is the unified edit entrypoint. A backend implements it
// only if it can apply edit-operation batches; the dispatcher asserts this
// interface instead of probing.
type ResourceEditor interface {
	EditResource(resourcePath string, ops []edit.Operation, opts EditOptions) (*EditOutcome, *models.ErrorDetail)
}

// BlockEditable is the block-family-specific entrypoint used by the
// standalone block-edit path.
type BlockEditable interface {
	GetDocumentAsPortableText(resourcePath string) ([]models.Block, *models.ErrorDetail)
	ApplyPortableTextOperations(resourcePath string, ops []edit.Operation) ([]models.OperationResult, *models.ErrorDetail)
}
