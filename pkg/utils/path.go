package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CreateFolder makes sure every given directory exists.
func CreateFolder(folderPath ...string) error {
	for _, folder := range folderPath {
		if strings.TrimSpace(folder) == "" {
			continue
		}
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", folder, err)
		}
	}
	return nil
}

// TempPath returns a unique file path inside dir with the given prefix and extension.
func TempPath(dir, prefix, ext string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	ext = strings.TrimPrefix(ext, ".")
	name := prefix + "-" + uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(dir, name)
}

// RemoveFiles deletes the given paths, ignoring missing files.
func RemoveFiles(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
