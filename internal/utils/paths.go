package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CleanOutputPath validates a generated file path. Paths must be relative
// and stay inside the output directory. Returned paths use forward slashes.
func CleanOutputPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("output path cannot be empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("output path must be relative: %s", path)
	}

	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path traversal not allowed in output path: %s", path)
	}
	return clean, nil
}
