package utils

import (
	"fmt"
	"path/filepath"

	"golang.org/x/tools/imports"
)

var formatOptions = &imports.Options{
	Comments:   true,
	TabIndent:  true,
	TabWidth:   8,
	FormatOnly: true,
}

// FormatGoSource formats generated Go source like gofmt. Imports are never
// added or removed, so output only depends on the input bytes.
func FormatGoSource(filename string, source []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, source, formatOptions)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", filepath.Base(filename), err)
	}
	return formatted, nil
}

// IsGoFile reports whether path names a Go source file
func IsGoFile(path string) bool {
	return filepath.Ext(path) == ".go"
}
