package utils

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TemplateReader reads static templates from a file system with an LRU cache
// so repeated generations (watch mode) do not hit the disk for every copy.
type TemplateReader struct {
	fsys  fs.FS
	cache *lru.Cache[string, string]
}

// NewTemplateReader creates a reader over fsys caching up to size templates
func NewTemplateReader(fsys fs.FS, size int) (*TemplateReader, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create template cache: %w", err)
	}
	return &TemplateReader{fsys: fsys, cache: cache}, nil
}

// Read returns the content of the template at name
func (r *TemplateReader) Read(name string) (string, error) {
	clean, err := cleanTemplateName(name)
	if err != nil {
		return "", err
	}
	if content, ok := r.cache.Get(clean); ok {
		return content, nil
	}

	data, err := fs.ReadFile(r.fsys, clean)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", clean, err)
	}
	content := string(data)
	r.cache.Add(clean, content)
	return content, nil
}

// Invalidate drops one template from the cache
func (r *TemplateReader) Invalidate(name string) {
	if clean, err := cleanTemplateName(name); err == nil {
		r.cache.Remove(clean)
	}
}

// Purge drops every cached template
func (r *TemplateReader) Purge() {
	r.cache.Purge()
}

// Cached returns how many templates are cached
func (r *TemplateReader) Cached() int {
	return r.cache.Len()
}

func cleanTemplateName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("template name cannot be empty")
	}
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("invalid template path: %s", name)
	}
	return clean, nil
}
