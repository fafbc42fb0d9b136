package accessor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resource-editor-server/internal/models"
)

// writeFileAtomic writes content to a file atomically: a temp file in the
// same directory is written first, then renamed over the target, then the
// final permissions are applied.
func writeFileAtomic(filePath string, content []byte, finalPerm os.FileMode) error {
	dir := filepath.Dir(filePath)

	tempFile, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	// Harmless after a successful rename.
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file %s: %w", tempFile.Name(), err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %s: %w", tempFile.Name(), err)
	}
	if err := os.Rename(tempFile.Name(), filePath); err != nil {
		return fmt.Errorf("failed to rename temporary file %s to %s: %w", tempFile.Name(), filePath, err)
	}
	if err := os.Chmod(filePath, finalPerm); err != nil {
		return fmt.Errorf("file written to %s, but failed to set permissions to %o: %w", filePath, finalPerm, err)
	}
	return nil
}

// listDirResources enumerates the non-hidden regular files of a directory as
// ResourceInfo entries, sorted by name. Lock files are skipped.
func listDirResources(root string) ([]models.ResourceInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var resources []models.ResourceInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".lock") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to get info for entry %s: %w", name, err)
		}
		resources = append(resources, models.ResourceInfo{
			Name:     name,
			Size:     info.Size(),
			Modified: info.ModTime().UTC().Format(time.RFC3339),
		})
	}
	sort.Slice(resources, func(i, j int) bool {
		return resources[i].Name < resources[j].Name
	})
	return resources, nil
}
