package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/scaffold/internal/errors"
)

// DirectoryScanner lists the directories a watcher has to subscribe to.
// fsnotify watches are not recursive.
type DirectoryScanner struct{}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{}
}

// ScanDirectories returns every directory under the roots, roots included,
// sorted and absolute. Hidden directories are skipped and missing roots are
// ignored.
func (s *DirectoryScanner) ScanDirectories(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.WrapWithOperation("resolve", root, err)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			seen[path] = true
			return nil
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", abs, err)
		}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}
