package edit

import (
	"encoding/json"
	"fmt"
	"strings"

	"resource-editor-server/internal/errors"
	"resource-editor-server/internal/models"
)

// The wire format flattens the operation union into one object with
// prefixed keys (searchReplace_search, blocks_index, range_text, ...) to
// satisfy flat tool-calling schemas. DecodeOperations is the translation
// layer: it converts the flat shape into the Operation sum type and performs
// all shape validation, so every later stage consumes well-typed operations
// without further checks.

var knownFields = map[string]map[string]bool{
	TypeSearchReplace: {
		"search": true, "replace": true, "regexPattern": true,
		"replaceAll": true, "caseSensitive": true,
	},
	TypeRange: {
		"rangeType": true, "location": true, "range": true, "text": true,
		"textStyle": true, "paragraphStyle": true, "fields": true,
	},
	TypeBlocks: {
		"operationType": true, "index": true, "key": true, "content": true,
		"block": true, "position": true, "from": true, "to": true,
		"fromKey": true, "toPosition": true,
	},
	TypeStructuredData: {
		"operation": true,
	},
}

var validRangeTypes = map[string]bool{
	RangeInsertText:           true,
	RangeDeleteRange:          true,
	RangeReplaceRange:         true,
	RangeUpdateTextStyle:      true,
	RangeUpdateParagraphStyle: true,
}

var validBlockOps = map[string]bool{
	BlockUpdate: true,
	BlockInsert: true,
	BlockDelete: true,
	BlockMove:   true,
}

// DecodeOperations decodes and validates a raw operations array. It is pure:
// no backend is touched. Errors carry 1-based operation numbers.
func DecodeOperations(raw json.RawMessage) ([]Operation, *models.ErrorDetail) {
	if len(raw) == 0 {
		return nil, errors.NewInvalidInputError("operations array cannot be empty")
	}

	var elements []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("operations must be an array of objects: %v", err))
	}
	if len(elements) == 0 {
		return nil, errors.NewInvalidInputError("operations array cannot be empty")
	}

	ops := make([]Operation, 0, len(elements))
	for i, element := range elements {
		op, errDetail := decodeOperation(i, element)
		if errDetail != nil {
			return nil, errDetail
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func decodeOperation(index int, element map[string]json.RawMessage) (Operation, *models.ErrorDetail) {
	var op Operation

	rawType, ok := element["editType"]
	if !ok {
		return op, opError(index, "missing required field 'editType'")
	}
	if err := json.Unmarshal(rawType, &op.EditType); err != nil {
		return op, opError(index, "'editType' must be a string")
	}
	fields, ok := knownFields[op.EditType]
	if !ok {
		return op, opError(index, fmt.Sprintf("invalid editType '%s'; must be one of searchReplace, range, blocks, structuredData", op.EditType))
	}

	// Cross-variant contamination check: every prefixed key must belong to
	// this element's own editType, and its suffix must be a known field.
	for key := range element {
		if key == "editType" {
			continue
		}
		prefix, suffix, found := strings.Cut(key, "_")
		if !found {
			return op, opError(index, fmt.Sprintf("unexpected field '%s'", key))
		}
		if prefix != op.EditType {
			return op, opError(index, fmt.Sprintf("field '%s' does not belong to editType '%s'", key, op.EditType))
		}
		if !fields[suffix] {
			return op, opError(index, fmt.Sprintf("unknown field '%s' for editType '%s'", key, op.EditType))
		}
	}

	switch op.EditType {
	case TypeSearchReplace:
		return decodeSearchReplace(index, element, op)
	case TypeRange:
		return decodeRange(index, element, op)
	case TypeBlocks:
		return decodeBlocks(index, element, op)
	default:
		sd := &StructuredDataOp{}
		if raw, ok := element["structuredData_operation"]; ok {
			sd.Operation = raw
		}
		op.StructuredData = sd
		return op, nil
	}
}

func decodeSearchReplace(index int, element map[string]json.RawMessage, op Operation) (Operation, *models.ErrorDetail) {
	sr := &SearchReplaceOp{CaseSensitive: true}

	if errDetail := requireString(index, element, "searchReplace_search", &sr.Search); errDetail != nil {
		return op, errDetail
	}
	if errDetail := requireString(index, element, "searchReplace_replace", &sr.Replace); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalBool(index, element, "searchReplace_regexPattern", &sr.RegexPattern); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalBool(index, element, "searchReplace_replaceAll", &sr.ReplaceAll); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalBool(index, element, "searchReplace_caseSensitive", &sr.CaseSensitive); errDetail != nil {
		return op, errDetail
	}

	op.SearchReplace = sr
	return op, nil
}

func decodeRange(index int, element map[string]json.RawMessage, op Operation) (Operation, *models.ErrorDetail) {
	r := &RangeOp{}

	if errDetail := requireString(index, element, "range_rangeType", &r.RangeType); errDetail != nil {
		return op, errDetail
	}
	if !validRangeTypes[r.RangeType] {
		return op, opError(index, fmt.Sprintf("invalid rangeType '%s'", r.RangeType))
	}
	if raw, ok := element["range_location"]; ok {
		var loc struct {
			Index *int   `json:"index"`
			TabID string `json:"tabId"`
		}
		if err := json.Unmarshal(raw, &loc); err != nil {
			return op, opError(index, fmt.Sprintf("'range_location' is malformed: %v", err))
		}
		if loc.Index == nil {
			return op, opError(index, "'range_location' requires a numeric 'index'")
		}
		r.Location = &RangeLocation{Index: *loc.Index, TabID: loc.TabID}
	}
	if raw, ok := element["range_range"]; ok {
		var tr struct {
			StartIndex *int   `json:"startIndex"`
			EndIndex   *int   `json:"endIndex"`
			TabID      string `json:"tabId"`
		}
		if err := json.Unmarshal(raw, &tr); err != nil {
			return op, opError(index, fmt.Sprintf("'range_range' is malformed: %v", err))
		}
		if tr.StartIndex == nil || tr.EndIndex == nil {
			return op, opError(index, "'range_range' requires numeric 'startIndex' and 'endIndex'")
		}
		r.Range = &TextRange{StartIndex: *tr.StartIndex, EndIndex: *tr.EndIndex, TabID: tr.TabID}
	}
	if raw, ok := element["range_text"]; ok {
		if err := json.Unmarshal(raw, &r.Text); err != nil {
			return op, opError(index, "'range_text' must be a string")
		}
	}
	if raw, ok := element["range_textStyle"]; ok {
		if err := json.Unmarshal(raw, &r.TextStyle); err != nil {
			return op, opError(index, "'range_textStyle' must be an object")
		}
	}
	if raw, ok := element["range_paragraphStyle"]; ok {
		if err := json.Unmarshal(raw, &r.ParagraphStyle); err != nil {
			return op, opError(index, "'range_paragraphStyle' must be an object")
		}
	}
	if raw, ok := element["range_fields"]; ok {
		if err := json.Unmarshal(raw, &r.Fields); err != nil {
			return op, opError(index, "'range_fields' must be a string")
		}
	}

	// Per-kind required fields.
	switch r.RangeType {
	case RangeInsertText:
		if r.Location == nil {
			return op, opError(index, "insertText requires 'range_location' with an index")
		}
		if _, ok := element["range_text"]; !ok {
			return op, opError(index, "insertText requires 'range_text'")
		}
	case RangeReplaceRange:
		if _, ok := element["range_text"]; !ok {
			return op, opError(index, "replaceRange requires 'range_text'")
		}
		fallthrough
	case RangeDeleteRange, RangeUpdateTextStyle, RangeUpdateParagraphStyle:
		if r.Range == nil {
			return op, opError(index, fmt.Sprintf("%s requires 'range_range' with startIndex and endIndex", r.RangeType))
		}
	}

	op.Range = r
	return op, nil
}

func decodeBlocks(index int, element map[string]json.RawMessage, op Operation) (Operation, *models.ErrorDetail) {
	b := &BlocksOp{}

	if errDetail := requireString(index, element, "blocks_operationType", &b.OperationType); errDetail != nil {
		return op, errDetail
	}
	if !validBlockOps[b.OperationType] {
		return op, opError(index, fmt.Sprintf("invalid blocks operationType '%s'", b.OperationType))
	}
	if errDetail := optionalInt(index, element, "blocks_index", &b.Index); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalInt(index, element, "blocks_position", &b.Position); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalInt(index, element, "blocks_from", &b.From); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalInt(index, element, "blocks_to", &b.To); errDetail != nil {
		return op, errDetail
	}
	if errDetail := optionalInt(index, element, "blocks_toPosition", &b.ToPosition); errDetail != nil {
		return op, errDetail
	}
	if raw, ok := element["blocks_key"]; ok {
		if err := json.Unmarshal(raw, &b.Key); err != nil {
			return op, opError(index, "'blocks_key' must be a string")
		}
	}
	if raw, ok := element["blocks_fromKey"]; ok {
		if err := json.Unmarshal(raw, &b.FromKey); err != nil {
			return op, opError(index, "'blocks_fromKey' must be a string")
		}
	}
	if raw, ok := element["blocks_content"]; ok {
		b.Content = &models.Block{}
		if err := json.Unmarshal(raw, b.Content); err != nil {
			return op, opError(index, fmt.Sprintf("'blocks_content' is not a valid block: %v", err))
		}
	}
	if raw, ok := element["blocks_block"]; ok {
		b.Block = &models.Block{}
		if err := json.Unmarshal(raw, b.Block); err != nil {
			return op, opError(index, fmt.Sprintf("'blocks_block' is not a valid block: %v", err))
		}
	}

	switch b.OperationType {
	case BlockUpdate:
		if b.Content == nil {
			return op, opError(index, "update requires 'blocks_content'")
		}
		if b.Index == nil && b.Key == "" {
			return op, opError(index, "update requires 'blocks_index' or 'blocks_key'")
		}
	case BlockInsert:
		if b.Block == nil {
			return op, opError(index, "insert requires 'blocks_block'")
		}
	case BlockDelete:
		if b.Index == nil && b.Key == "" {
			return op, opError(index, "delete requires 'blocks_index' or 'blocks_key'")
		}
	case BlockMove:
		if b.From == nil && b.FromKey == "" {
			return op, opError(index, "move requires 'blocks_from' or 'blocks_fromKey'")
		}
		if b.To == nil && b.ToPosition == nil {
			return op, opError(index, "move requires 'blocks_to' or 'blocks_toPosition'")
		}
	}

	op.Blocks = b
	return op, nil
}

func requireString(index int, element map[string]json.RawMessage, key string, dst *string) *models.ErrorDetail {
	raw, ok := element[key]
	if !ok {
		return opError(index, fmt.Sprintf("missing required field '%s'", key))
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return opError(index, fmt.Sprintf("'%s' must be a string", key))
	}
	return nil
}

func optionalBool(index int, element map[string]json.RawMessage, key string, dst *bool) *models.ErrorDetail {
	raw, ok := element[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return opError(index, fmt.Sprintf("'%s' must be a boolean", key))
	}
	return nil
}

func optionalInt(index int, element map[string]json.RawMessage, key string, dst **int) *models.ErrorDetail {
	raw, ok := element[key]
	if !ok {
		return nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return opError(index, fmt.Sprintf("'%s' must be an integer", key))
	}
	*dst = &v
	return nil
}

func opError(index int, message string) *models.ErrorDetail {
	return errors.NewInvalidInputError(fmt.Sprintf("Operation %d: %s", index+1, message))
}
