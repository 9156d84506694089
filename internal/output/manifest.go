package output

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/toyz/scaffold/internal/errors"
)

// ManifestPath is where the manifest lives, relative to the output root
const ManifestPath = ".scaffold/manifest.msgpack"

const manifestVersion = 1

// ManifestEntry records one generated file
type ManifestEntry struct {
	Path string `msgpack:"path"`
	Hash string `msgpack:"hash"`
}

// Manifest lists every file the last generation produced
type Manifest struct {
	Version int             `msgpack:"version"`
	Files   []ManifestEntry `msgpack:"files"`
}

// HashContent returns the hex sha256 of content
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NewManifest builds a manifest from materialized files, sorted by path
func NewManifest(files []FileResult) *Manifest {
	m := &Manifest{Version: manifestVersion, Files: make([]ManifestEntry, 0, len(files))}
	for _, f := range files {
		m.Files = append(m.Files, ManifestEntry{Path: f.Path, Hash: HashContent(f.Content)})
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	return m
}

// LoadManifest reads the manifest under root. A missing manifest is empty.
func LoadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{Version: manifestVersion}, nil
	}
	if err != nil {
		return nil, errors.WrapFileSystemError("read", path, err)
	}

	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapFileSystemError("decode", path, err)
	}
	return &m, nil
}

// Save writes the manifest under root unless the stored bytes are identical.
// It reports whether a write happened.
func (m *Manifest) Save(root string) (bool, error) {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return false, errors.Wrap(errors.FileSystemErrorCode, "failed to encode manifest", err)
	}

	path := filepath.Join(root, ManifestPath)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.WrapFileSystemError("create directory for", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, errors.WrapFileSystemError("write", path, err)
	}
	return true, nil
}

// Paths returns the recorded paths in order
func (m *Manifest) Paths() []string {
	paths := make([]string, len(m.Files))
	for i, f := range m.Files {
		paths[i] = f.Path
	}
	return paths
}

// Lookup returns the entry recorded for path
func (m *Manifest) Lookup(path string) (ManifestEntry, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f, true
		}
	}
	return ManifestEntry{}, false
}

// Stale returns paths recorded in m that current no longer lists
func (m *Manifest) Stale(current *Manifest) []string {
	keep := make(map[string]bool, len(current.Files))
	for _, f := range current.Files {
		keep[f.Path] = true
	}
	var stale []string
	for _, f := range m.Files {
		if !keep[f.Path] {
			stale = append(stale, f.Path)
		}
	}
	return stale
}
