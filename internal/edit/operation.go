// Package edit implements the unified resource-edit operation engine: the
// operation sum type and wire decoding, pure pre-flight validation, the three
// apply-strategy families (search-replace, block, range) and the result
// aggregation used to build partially-successful edit reports.
package edit

import (
	"encoding/json"
	"strings"

	"resource-editor-server/internal/models"
)

// Operation statuses, re-exported from the wire vocabulary for the apply
// strategies.
const (
	StatusSuccess = models.StatusSuccess
	StatusWarning = models.StatusWarning
	StatusSkipped = models.StatusSkipped
	StatusFailed  = models.StatusFailed
)

// Edit operation families.
const (
	TypeSearchReplace  = "searchReplace"
	TypeRange          = "range"
	TypeBlocks         = "blocks"
	TypeStructuredData = "structuredData"
)

// Range operation kinds.
const (
	RangeInsertText           = "insertText"
	RangeDeleteRange          = "deleteRange"
	RangeReplaceRange         = "replaceRange"
	RangeUpdateTextStyle      = "updateTextStyle"
	RangeUpdateParagraphStyle = "updateParagraphStyle"
)

// Block operation kinds.
const (
	BlockUpdate = "update"
	BlockInsert = "insert"
	BlockDelete = "delete"
	BlockMove   = "move"
)

// SearchReplaceOp is a literal or regex text substitution.
type SearchReplaceOp struct {
	Search        string `json:"search"`
	Replace       string `json:"replace"`
	RegexPattern  bool   `json:"regexPattern,omitempty"`
	ReplaceAll    bool   `json:"replaceAll,omitempty"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// RangeLocation addresses an insertion point in a flowed document.
type RangeLocation struct {
	Index int    `json:"index"`
	TabID string `json:"tabId,omitempty"`
}

// TextRange addresses a character span in a flowed document.
type TextRange struct {
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	TabID      string `json:"tabId,omitempty"`
}

// RangeOp is a character-offset-based edit for flowed-document backends.
type RangeOp struct {
	RangeType      string                 `json:"rangeType"`
	Location       *RangeLocation         `json:"location,omitempty"`
	Range          *TextRange             `json:"range,omitempty"`
	Text           string                 `json:"text,omitempty"`
	TextStyle      map[string]interface{} `json:"textStyle,omitempty"`
	ParagraphStyle map[string]interface{} `json:"paragraphStyle,omitempty"`
	// Fields is a comma-separated field mask naming the style properties to
	// apply. Empty means "all provided fields".
	Fields string `json:"fields,omitempty"`
}

// BlocksOp is a structural edit over an ordered Portable-Text block list.
// Index takes precedence over Key when both are given; the same applies to
// From over FromKey and To over ToPosition.
type BlocksOp struct {
	OperationType string        `json:"operationType"`
	Index         *int          `json:"index,omitempty"`
	Key           string        `json:"key,omitempty"`
	Content       *models.Block `json:"content,omitempty"`
	Block         *models.Block `json:"block,omitempty"`
	Position      *int          `json:"position,omitempty"`
	From          *int          `json:"from,omitempty"`
	To            *int          `json:"to,omitempty"`
	FromKey       string        `json:"fromKey,omitempty"`
	ToPosition    *int          `json:"toPosition,omitempty"`
}

// StructuredDataOp is reserved for tabular data edits. No backend implements
// it; it always produces a fixed per-operation failure. The variant is kept
// so the union stays exhaustive on the wire.
type StructuredDataOp struct {
	Operation json.RawMessage `json:"operation,omitempty"`
}

// Operation is the typed form of one edit operation. Exactly one variant
// pointer is non-nil, matching EditType.
type Operation struct {
	EditType       string            `json:"editType"`
	SearchReplace  *SearchReplaceOp  `json:"searchReplace,omitempty"`
	Range          *RangeOp          `json:"range,omitempty"`
	Blocks         *BlocksOp         `json:"blocks,omitempty"`
	StructuredData *StructuredDataOp `json:"structuredData,omitempty"`
}

// FieldMask splits a comma-separated field mask into its parts. An empty
// mask yields nil, meaning "apply all provided fields".
func (op *RangeOp) FieldMask() []string {
	if op.Fields == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(op.Fields, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
