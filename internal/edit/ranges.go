package edit

import "fmt"

// RangeOutcome is the result of applying one range operation to in-memory
// text. Offsets are rune offsets; operations in a batch are applied
// sequentially against the mutated text, so later offsets see earlier edits.
type RangeOutcome struct {
	Content string
	Status  string
	Message string
}

// ApplyTextRangeOperation applies the text kinds of the range family
// (insertText, deleteRange, replaceRange) to plain text. Style kinds are the
// backend's concern: flat text has no style runs, so callers route
// updateTextStyle and updateParagraphStyle to a styled-document backend or
// fail them per-operation.
func ApplyTextRangeOperation(content string, op *RangeOp) RangeOutcome {
	runes := []rune(content)

	switch op.RangeType {
	case RangeInsertText:
		idx := op.Location.Index
		if idx < 0 || idx > len(runes) {
			return rangeFailed(content, fmt.Sprintf("insert index %d is out of range [0, %d]", idx, len(runes)))
		}
		out := make([]rune, 0, len(runes)+len(op.Text))
		out = append(out, runes[:idx]...)
		out = append(out, []rune(op.Text)...)
		out = append(out, runes[idx:]...)
		return RangeOutcome{
			Content: string(out),
			Status:  StatusSuccess,
			Message: fmt.Sprintf("inserted %d characters at index %d", len([]rune(op.Text)), idx),
		}

	case RangeDeleteRange, RangeReplaceRange:
		start, end := op.Range.StartIndex, op.Range.EndIndex
		if start < 0 || end < start || end > len(runes) {
			return rangeFailed(content, fmt.Sprintf("range [%d, %d) is invalid for content of length %d", start, end, len(runes)))
		}
		out := make([]rune, 0, len(runes))
		out = append(out, runes[:start]...)
		if op.RangeType == RangeReplaceRange {
			out = append(out, []rune(op.Text)...)
		}
		out = append(out, runes[end:]...)
		verb := "deleted"
		if op.RangeType == RangeReplaceRange {
			verb = "replaced"
		}
		return RangeOutcome{
			Content: string(out),
			Status:  StatusSuccess,
			Message: fmt.Sprintf("%s range [%d, %d)", verb, start, end),
		}

	default:
		return rangeFailed(content, fmt.Sprintf("range type '%s' is not a text operation", op.RangeType))
	}
}

func rangeFailed(content, message string) RangeOutcome {
	return RangeOutcome{Content: content, Status: StatusFailed, Message: message}
}
