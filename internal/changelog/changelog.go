// Package changelog appends an audit record for every persisted edit batch.
// Records are JSON lines in a hidden file under the data source root, one
// record per batch that changed the resource.
package changelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"resource-editor-server/internal/datasource"
	"resource-editor-server/internal/edit"
)

// FileName is the change log file kept in each data source root. The leading
// dot keeps it out of resource listings.
const FileName = ".changelog.jsonl"

// Entry is one persisted change record.
type Entry struct {
	Revision     string          `json:"revision"`
	Timestamp    string          `json:"timestamp"`
	DataSourceID string          `json:"dataSourceId"`
	ResourcePath string          `json:"resourcePath"`
	Operations   json.RawMessage `json:"operations"`
	Diff         string          `json:"diff,omitempty"`
}

// Logger records committed edit batches.
type Logger struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewLogger creates a change log writer.
func NewLogger() *Logger {
	return &Logger{dmp: diffmatchpatch.New()}
}

// LogChangeAndCommit appends one entry for a batch whose changes have been
// persisted. Only the operations that succeeded are recorded; the diff is the
// unidiff-style patch text from before-content to after-content.
func (l *Logger) LogChangeAndCommit(conn *datasource.Connection, resourcePath string, ops []edit.Operation, before, after string) error {
	rawOps, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("failed to serialize operations for change log: %w", err)
	}

	entry := Entry{
		Revision:     uuid.NewString(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		DataSourceID: conn.ID,
		ResourcePath: resourcePath,
		Operations:   rawOps,
		Diff:         l.dmp.PatchToText(l.dmp.PatchMake(before, after)),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize change log entry: %w", err)
	}

	logPath := filepath.Join(conn.Root, FileName)
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open change log %s: %w", logPath, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append change log entry: %w", err)
	}
	return nil
}
