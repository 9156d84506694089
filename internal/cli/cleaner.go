package cli

import (
	"os"
	"path/filepath"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/output"
)

// Cleaner removes the files the last generation recorded in its manifest
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean deletes every file listed in the manifest under root, then the
// manifest itself, pruning directories left empty. Files already gone are
// skipped. It returns the removed paths, slash separated and relative to
// root.
func (c *Cleaner) Clean(root string) ([]string, error) {
	manifest, err := output.LoadManifest(root)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, path := range append(manifest.Paths(), output.ManifestPath) {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.Remove(full); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errors.WrapFileSystemError("remove", full, err)
		}
		if path != output.ManifestPath {
			removed = append(removed, path)
		}
		c.prune(root, filepath.Dir(full))
	}
	return removed, nil
}

// prune removes dir and its parents up to root while they are empty
func (c *Cleaner) prune(root, dir string) {
	root = filepath.Clean(root)
	for dir != root && len(dir) > len(root) {
		if err := os.Remove(dir); err != nil {
			// not empty, or already gone
			return
		}
		dir = filepath.Dir(dir)
	}
}
