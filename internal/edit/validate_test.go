package edit

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeOne(t *testing.T, raw string) []Operation {
	t.Helper()
	ops, errDetail := DecodeOperations(json.RawMessage(raw))
	if errDetail != nil {
		t.Fatalf("DecodeOperations failed: %v", errDetail.Message)
	}
	return ops
}

func decodeError(t *testing.T, raw string) string {
	t.Helper()
	_, errDetail := DecodeOperations(json.RawMessage(raw))
	if errDetail == nil {
		t.Fatalf("DecodeOperations succeeded, expected an error")
	}
	return errDetail.Message
}

func TestDecodeOperationsEmpty(t *testing.T) {
	for _, raw := range []string{"", "[]"} {
		_, errDetail := DecodeOperations(json.RawMessage(raw))
		if errDetail == nil {
			t.Fatalf("expected error for %q", raw)
		}
		if errDetail.Message != "operations array cannot be empty" {
			t.Errorf("unexpected message: %s", errDetail.Message)
		}
	}
}

func TestDecodeSearchReplace(t *testing.T) {
	ops := decodeOne(t, `[{"editType":"searchReplace","searchReplace_search":"a","searchReplace_replace":"b","searchReplace_replaceAll":true}]`)
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	op := ops[0]
	if op.EditType != TypeSearchReplace || op.SearchReplace == nil {
		t.Fatalf("wrong variant decoded: %+v", op)
	}
	if op.SearchReplace.Search != "a" || op.SearchReplace.Replace != "b" {
		t.Errorf("fields not decoded: %+v", op.SearchReplace)
	}
	if !op.SearchReplace.ReplaceAll {
		t.Error("replaceAll not decoded")
	}
	if !op.SearchReplace.CaseSensitive {
		t.Error("caseSensitive should default to true")
	}
}

func TestDecodeSearchReplaceCaseSensitiveOverride(t *testing.T) {
	ops := decodeOne(t, `[{"editType":"searchReplace","searchReplace_search":"a","searchReplace_replace":"b","searchReplace_caseSensitive":false}]`)
	if ops[0].SearchReplace.CaseSensitive {
		t.Error("explicit caseSensitive false was ignored")
	}
}

func TestDecodeRejectsCrossVariantFields(t *testing.T) {
	msg := decodeError(t, `[{"editType":"blocks","blocks_operationType":"delete","blocks_index":0,"searchReplace_search":"x"}]`)
	if !strings.Contains(msg, "does not belong to editType 'blocks'") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	msg := decodeError(t, `[{"editType":"searchReplace","searchReplace_search":"a","searchReplace_replace":"b","searchReplace_bogus":true}]`)
	if !strings.Contains(msg, "unknown field 'searchReplace_bogus'") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestDecodeRejectsInvalidEditType(t *testing.T) {
	msg := decodeError(t, `[{"editType":"lineEdit"}]`)
	if !strings.Contains(msg, "invalid editType 'lineEdit'") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestDecodeErrorsAreOneBased(t *testing.T) {
	msg := decodeError(t, `[
		{"editType":"searchReplace","searchReplace_search":"a","searchReplace_replace":"b"},
		{"editType":"searchReplace","searchReplace_replace":"b"}
	]`)
	if !strings.HasPrefix(msg, "Operation 2:") {
		t.Errorf("expected 1-based operation number, got: %s", msg)
	}
}

func TestDecodeRangeRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"insertText without location",
			`[{"editType":"range","range_rangeType":"insertText","range_text":"hi"}]`,
			"insertText requires 'range_location'",
		},
		{
			"insertText without text",
			`[{"editType":"range","range_rangeType":"insertText","range_location":{"index":0}}]`,
			"insertText requires 'range_text'",
		},
		{
			"deleteRange without range",
			`[{"editType":"range","range_rangeType":"deleteRange"}]`,
			"deleteRange requires 'range_range'",
		},
		{
			"replaceRange without text",
			`[{"editType":"range","range_rangeType":"replaceRange","range_range":{"startIndex":0,"endIndex":1}}]`,
			"replaceRange requires 'range_text'",
		},
		{
			"replaceRange without range",
			`[{"editType":"range","range_rangeType":"replaceRange","range_text":"x"}]`,
			"replaceRange requires 'range_range'",
		},
		{
			"location without index",
			`[{"editType":"range","range_rangeType":"insertText","range_text":"x","range_location":{"tabId":"t"}}]`,
			"'range_location' requires a numeric 'index'",
		},
		{
			"range missing endIndex",
			`[{"editType":"range","range_rangeType":"deleteRange","range_range":{"startIndex":0}}]`,
			"'range_range' requires numeric 'startIndex' and 'endIndex'",
		},
		{
			"invalid rangeType",
			`[{"editType":"range","range_rangeType":"scroll"}]`,
			"invalid rangeType 'scroll'",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := decodeError(t, tc.raw)
			if !strings.Contains(msg, tc.want) {
				t.Errorf("got %q, want substring %q", msg, tc.want)
			}
		})
	}
}

func TestDecodeRangeValid(t *testing.T) {
	ops := decodeOne(t, `[{"editType":"range","range_rangeType":"replaceRange","range_range":{"startIndex":2,"endIndex":5},"range_text":"new"}]`)
	r := ops[0].Range
	if r == nil || r.RangeType != RangeReplaceRange {
		t.Fatalf("wrong variant decoded: %+v", ops[0])
	}
	if r.Range.StartIndex != 2 || r.Range.EndIndex != 5 || r.Text != "new" {
		t.Errorf("fields not decoded: %+v", r)
	}
}

func TestDecodeRangeZeroIndexIsPresent(t *testing.T) {
	ops := decodeOne(t, `[{"editType":"range","range_rangeType":"insertText","range_location":{"index":0},"range_text":"x"}]`)
	if ops[0].Range.Location == nil || ops[0].Range.Location.Index != 0 {
		t.Errorf("index 0 must decode as present: %+v", ops[0].Range.Location)
	}
}

func TestDecodeBlocksRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"update without content",
			`[{"editType":"blocks","blocks_operationType":"update","blocks_index":0}]`,
			"update requires 'blocks_content'",
		},
		{
			"update without selector",
			`[{"editType":"blocks","blocks_operationType":"update","blocks_content":{"_type":"block"}}]`,
			"update requires 'blocks_index' or 'blocks_key'",
		},
		{
			"insert without block",
			`[{"editType":"blocks","blocks_operationType":"insert"}]`,
			"insert requires 'blocks_block'",
		},
		{
			"delete without selector",
			`[{"editType":"blocks","blocks_operationType":"delete"}]`,
			"delete requires 'blocks_index' or 'blocks_key'",
		},
		{
			"move without source",
			`[{"editType":"blocks","blocks_operationType":"move","blocks_to":1}]`,
			"move requires 'blocks_from' or 'blocks_fromKey'",
		},
		{
			"move without target",
			`[{"editType":"blocks","blocks_operationType":"move","blocks_from":0}]`,
			"move requires 'blocks_to' or 'blocks_toPosition'",
		},
		{
			"invalid operationType",
			`[{"editType":"blocks","blocks_operationType":"swap"}]`,
			"invalid blocks operationType 'swap'",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := decodeError(t, tc.raw)
			if !strings.Contains(msg, tc.want) {
				t.Errorf("got %q, want substring %q", msg, tc.want)
			}
		})
	}
}

func TestDecodeBlocksMove(t *testing.T) {
	ops := decodeOne(t, `[{"editType":"blocks","blocks_operationType":"move","blocks_from":0,"blocks_to":2}]`)
	b := ops[0].Blocks
	if b == nil || b.From == nil || *b.From != 0 || b.To == nil || *b.To != 2 {
		t.Fatalf("move selectors not decoded: %+v", b)
	}
}

func TestDecodeStructuredData(t *testing.T) {
	ops := decodeOne(t, `[{"editType":"structuredData","structuredData_operation":{"kind":"updateCells"}}]`)
	if ops[0].StructuredData == nil {
		t.Fatalf("structuredData variant not decoded: %+v", ops[0])
	}
	if len(ops[0].StructuredData.Operation) == 0 {
		t.Error("raw operation payload not retained")
	}
}

func TestDecodeMissingEditType(t *testing.T) {
	msg := decodeError(t, `[{"searchReplace_search":"a"}]`)
	if !strings.Contains(msg, "missing required field 'editType'") {
		t.Errorf("unexpected message: %s", msg)
	}
}
