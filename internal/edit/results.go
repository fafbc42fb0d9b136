package edit

import (
	"fmt"

	"resource-editor-server/internal/models"
)

// Overall batch statuses.
const (
	BatchAllSucceeded = "All operations succeeded"
	BatchAllFailed    = "All operations failed"
	BatchPartial      = "Partial operations succeeded"
)

// Summary holds the aggregate counts for one operation batch. Warnings are
// excluded from Successful and folded into Failed so that
// Successful + Failed == Applied always holds.
type Summary struct {
	Applied      int
	Successful   int
	Failed       int
	Warnings     int
	AllSucceeded bool
	AllFailed    bool
	Status       string
}

// Summarize computes the batch summary from a per-operation result list.
// A batch of nothing but warnings is partial, not all-failed.
func Summarize(results []models.OperationResult) Summary {
	s := Summary{Applied: len(results)}
	hardFailures := 0
	for _, r := range results {
		switch r.Status {
		case models.StatusSuccess:
			s.Successful++
		case models.StatusWarning:
			s.Warnings++
			s.Failed++
		default:
			s.Failed++
			hardFailures++
		}
	}
	s.AllSucceeded = s.Successful == s.Applied && s.Applied > 0
	s.AllFailed = hardFailures == s.Applied && s.Applied > 0
	switch {
	case s.AllSucceeded:
		s.Status = BatchAllSucceeded
	case s.AllFailed:
		s.Status = BatchAllFailed
	default:
		s.Status = BatchPartial
	}
	return s
}

// RenderReport builds the human-readable result text: a data-source
// identification line, a batch summary line, then one glyph-prefixed line
// per operation with its 1-based number, edit type and outcome message.
func RenderReport(ds models.DataSourceInfo, resourcePath string, results []models.OperationResult, summary Summary) string {
	out := fmt.Sprintf("Data source: %s (%s)\n", ds.Name, ds.ProviderType)
	out += fmt.Sprintf("Resource: %s: %d/%d operations succeeded.\n", resourcePath, summary.Successful, summary.Applied)
	for _, r := range results {
		out += fmt.Sprintf("%s Operation %d (%s): %s\n", statusGlyph(r.Status), r.OperationIndex+1, r.EditType, r.Message)
	}
	return out
}

func statusGlyph(status string) string {
	switch status {
	case models.StatusSuccess:
		return "✅"
	case models.StatusWarning:
		return "⚠️"
	default:
		return "❌"
	}
}
