package edit

import (
	"strings"
	"testing"
)

func TestApplyTextRangeInsertText(t *testing.T) {
	op := &RangeOp{RangeType: RangeInsertText, Location: &RangeLocation{Index: 5}, Text: " there"}
	out := ApplyTextRangeOperation("hello world", op)
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", out.Status, out.Message)
	}
	if out.Content != "hello there world" {
		t.Errorf("content = %q", out.Content)
	}
}

func TestApplyTextRangeInsertAtStartAndEnd(t *testing.T) {
	op := &RangeOp{RangeType: RangeInsertText, Location: &RangeLocation{Index: 0}, Text: ">"}
	if out := ApplyTextRangeOperation("ab", op); out.Content != ">ab" {
		t.Errorf("insert at 0: %q", out.Content)
	}
	op.Location.Index = 2
	if out := ApplyTextRangeOperation("ab", op); out.Content != "ab>" {
		t.Errorf("insert at end: %q", out.Content)
	}
}

func TestApplyTextRangeInsertOutOfRange(t *testing.T) {
	op := &RangeOp{RangeType: RangeInsertText, Location: &RangeLocation{Index: 3}, Text: "x"}
	out := ApplyTextRangeOperation("ab", op)
	if out.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", out.Status)
	}
	if out.Content != "ab" {
		t.Errorf("content changed on failure: %q", out.Content)
	}
}

func TestApplyTextRangeDelete(t *testing.T) {
	op := &RangeOp{RangeType: RangeDeleteRange, Range: &TextRange{StartIndex: 5, EndIndex: 11}}
	out := ApplyTextRangeOperation("hello world", op)
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", out.Status, out.Message)
	}
	if out.Content != "hello" {
		t.Errorf("content = %q", out.Content)
	}
}

func TestApplyTextRangeReplace(t *testing.T) {
	op := &RangeOp{RangeType: RangeReplaceRange, Range: &TextRange{StartIndex: 6, EndIndex: 11}, Text: "go"}
	out := ApplyTextRangeOperation("hello world", op)
	if out.Content != "hello go" {
		t.Errorf("content = %q", out.Content)
	}
}

func TestApplyTextRangeOffsetsAreRunes(t *testing.T) {
	// Offsets count runes, not bytes: each of these is multi-byte.
	op := &RangeOp{RangeType: RangeReplaceRange, Range: &TextRange{StartIndex: 1, EndIndex: 2}, Text: "B"}
	out := ApplyTextRangeOperation("äöü", op)
	if out.Status != StatusSuccess {
		t.Fatalf("status = %s (%s)", out.Status, out.Message)
	}
	if out.Content != "äBü" {
		t.Errorf("content = %q", out.Content)
	}
}

func TestApplyTextRangeInvalidRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 2},
		{"end before start", 3, 1},
		{"end past content", 0, 99},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := &RangeOp{RangeType: RangeDeleteRange, Range: &TextRange{StartIndex: tc.start, EndIndex: tc.end}}
			out := ApplyTextRangeOperation("hello", op)
			if out.Status != StatusFailed {
				t.Errorf("status = %s, want failed", out.Status)
			}
		})
	}
}

func TestApplyTextRangeStyleKindsFail(t *testing.T) {
	for _, kind := range []string{RangeUpdateTextStyle, RangeUpdateParagraphStyle} {
		op := &RangeOp{RangeType: kind, Range: &TextRange{StartIndex: 0, EndIndex: 2}}
		out := ApplyTextRangeOperation("hello", op)
		if out.Status != StatusFailed {
			t.Errorf("%s: status = %s, want failed", kind, out.Status)
		}
		if !strings.Contains(out.Message, "not a text operation") {
			t.Errorf("%s: message = %q", kind, out.Message)
		}
	}
}

func TestRangeOpFieldMask(t *testing.T) {
	op := &RangeOp{Fields: "bold, italic ,underline"}
	mask := op.FieldMask()
	if len(mask) != 3 || mask[0] != "bold" || mask[1] != "italic" || mask[2] != "underline" {
		t.Errorf("mask = %v", mask)
	}
	if (&RangeOp{}).FieldMask() != nil {
		t.Error("empty mask must yield nil")
	}
}
