package models

// Span is a leaf text run inside a Block.
type Span struct {
	// Type is the span type, normally "span".
	Type string `json:"_type"`
	// Key is the stable identifier of the span within its block.
	Key string `json:"_key"`
	// Text is the plain text content of the span.
	Text string `json:"text"`
	// Marks lists the decorators (e.g. "strong", "em") applied to the span.
	Marks []string `json:"marks,omitempty"`
}

// Block is one element of a Portable-Text document. Blocks are kept in
// rendering order and keyed by a _key that is unique within the document.
type Block struct {
	// Type is the block type, e.g. "block" or "image".
	Type string `json:"_type"`
	// Key is the stable identifier of the block within the document.
	Key string `json:"_key"`
	// Style is the block style, e.g. "normal", "h1", "blockquote".
	Style string `json:"style,omitempty"`
	// Children holds the text spans of the block.
	Children []Span `json:"children,omitempty"`
}

// PlainText returns the concatenated text of all spans in the block.
func (b *Block) PlainText() string {
	var out string
	for _, c := range b.Children {
		out += c.Text
	}
	return out
}

// Operation result statuses.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// OperationResult records the outcome of a single edit operation. Exactly one
// OperationResult is produced per input operation, in input order.
type OperationResult struct {
	// OperationIndex is the 0-based position of the operation in the batch.
	OperationIndex int `json:"operationIndex"`
	// EditType is the operation family: searchReplace, range, blocks or structuredData.
	EditType string `json:"editType"`
	// Status is one of "success", "warning", "skipped" or "failed".
	Status string `json:"status"`
	// Message describes the outcome in human-readable form.
	Message string `json:"message"`
	// OriginalIndex is the source block index for block operations, when applicable.
	OriginalIndex *int `json:"originalIndex,omitempty"`
	// NewIndex is the resulting block index for block operations, when applicable.
	NewIndex *int `json:"newIndex,omitempty"`
	// AffectedKey is the _key of the block touched by a block operation.
	AffectedKey string `json:"affectedKey,omitempty"`
}
