package edit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// SearchReplaceOutcome is the result of applying one search-replace
// operation to in-memory content. Content carries the (possibly unchanged)
// text forward to the next operation in the batch.
type SearchReplaceOutcome struct {
	Content string
	Status  string
	Message string
	// NotFound marks a well-formed substitution that matched nothing. The
	// filesystem backend escalates batches consisting only of these against
	// an existing resource into a no-changes failure.
	NotFound bool
}

// ApplySearchReplace applies a single substitution. Degenerate operations
// (empty search on an existing resource, search equal to replace) and
// zero-match substitutions are recorded as warnings, not failures; only an
// invalid regex pattern fails the operation. Content equality is the sole
// success signal: a replacement that produces text identical to the original
// is indistinguishable from "not found".
func ApplySearchReplace(content string, op *SearchReplaceOp, isNewResource bool) SearchReplaceOutcome {
	if op.Search == op.Replace {
		return SearchReplaceOutcome{
			Content: content,
			Status:  StatusWarning,
			Message: "search and replace values are identical; operation skipped",
		}
	}
	if op.Search == "" && !isNewResource {
		return SearchReplaceOutcome{
			Content: content,
			Status:  StatusWarning,
			Message: "search string is empty",
		}
	}

	var replaced string
	switch {
	case op.RegexPattern:
		re, err := compilePattern(op.Search, op.CaseSensitive)
		if err != nil {
			return SearchReplaceOutcome{
				Content: content,
				Status:  StatusFailed,
				Message: fmt.Sprintf("invalid regex pattern: %v", err),
			}
		}
		out, err := re.Replace(content, op.Replace, -1, replaceCount(op.ReplaceAll))
		if err != nil {
			return SearchReplaceOutcome{
				Content: content,
				Status:  StatusFailed,
				Message: fmt.Sprintf("regex replacement failed: %v", err),
			}
		}
		replaced = out

	case op.CaseSensitive:
		replaced = strings.Replace(content, op.Search, op.Replace, replaceCount(op.ReplaceAll))

	default:
		// Case-insensitive literal matching has no string-only equivalent,
		// so the search term is escaped and compiled as an ignore-case
		// pattern. The replacement is emitted verbatim, never expanded.
		re, err := compilePattern(regexp.QuoteMeta(op.Search), false)
		if err != nil {
			return SearchReplaceOutcome{
				Content: content,
				Status:  StatusFailed,
				Message: fmt.Sprintf("invalid search text: %v", err),
			}
		}
		out, err := re.ReplaceFunc(content, func(regexp2.Match) string {
			return op.Replace
		}, -1, replaceCount(op.ReplaceAll))
		if err != nil {
			return SearchReplaceOutcome{
				Content: content,
				Status:  StatusFailed,
				Message: fmt.Sprintf("replacement failed: %v", err),
			}
		}
		replaced = out
	}

	if replaced == content {
		return SearchReplaceOutcome{
			Content:  content,
			Status:   StatusWarning,
			Message:  fmt.Sprintf("search string not found: %q", op.Search),
			NotFound: true,
		}
	}
	return SearchReplaceOutcome{
		Content: replaced,
		Status:  StatusSuccess,
		Message: searchReplaceMessage(op),
	}
}

func compilePattern(pattern string, caseSensitive bool) (*regexp2.Regexp, error) {
	opts := regexp2.None
	if !caseSensitive {
		opts |= regexp2.IgnoreCase
	}
	return regexp2.Compile(pattern, opts)
}

func replaceCount(replaceAll bool) int {
	if replaceAll {
		return -1
	}
	return 1
}

func searchReplaceMessage(op *SearchReplaceOp) string {
	scope := "first occurrence"
	if op.ReplaceAll {
		scope = "all occurrences"
	}
	if op.RegexPattern {
		return fmt.Sprintf("replaced %s of pattern %q", scope, op.Search)
	}
	return fmt.Sprintf("replaced %s of %q", scope, op.Search)
}
