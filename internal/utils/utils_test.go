package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanOutputPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"internal/models/user.go", "internal/models/user.go", false},
		{"./go.mod", "go.mod", false},
		{"a/../b.go", "b.go", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"../outside.go", "", true},
		{"a/../../b", "", true},
		{".", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanOutputPath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatGoSource(t *testing.T) {
	src := []byte("package x\nimport \"fmt\"\nfunc A( ) { fmt.Println( 1 ) }\n")

	out, err := FormatGoSource("x.go", src)
	require.NoError(t, err)
	assert.Equal(t, "package x\n\nimport \"fmt\"\n\nfunc A() { fmt.Println(1) }\n", string(out))

	_, err = FormatGoSource("bad.go", []byte("package x\nfunc {"))
	assert.Error(t, err)

	assert.True(t, IsGoFile("a/b.go"))
	assert.False(t, IsGoFile("go.mod"))
}

func TestTemplateReader(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/go.mod.tmpl": {Data: []byte("module TPL_MODULE\n")},
	}
	reader, err := NewTemplateReader(fsys, 2)
	require.NoError(t, err)

	content, err := reader.Read("/templates/go.mod.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "module TPL_MODULE\n", content)
	assert.Equal(t, 1, reader.Cached())

	fsys["templates/go.mod.tmpl"] = &fstest.MapFile{Data: []byte("changed")}
	content, err = reader.Read("templates/go.mod.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "module TPL_MODULE\n", content, "served from cache")

	reader.Invalidate("templates/go.mod.tmpl")
	content, err = reader.Read("templates/go.mod.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "changed", content)

	_, err = reader.Read("templates/missing")
	assert.Error(t, err)
	_, err = reader.Read("../escape")
	assert.Error(t, err)

	reader.Purge()
	assert.Equal(t, 0, reader.Cached())
}

func TestGoMod(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n\ngo 1.25\n"), 0o644))

	found, err := FindGoMod(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "go.mod"), found)

	info, err := ParseGoMod(found)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", info.Module)
	assert.Equal(t, "1.25", info.GoVersion)

	_, err = ParseGoMod(filepath.Join(dir, "other.mod"))
	assert.Error(t, err)

	assert.NoError(t, ValidateModulePath("github.com/acme/shop"))
	assert.Error(t, ValidateModulePath("not a path"))
}

func TestBaseRegistry(t *testing.T) {
	r := NewBaseRegistry[string, int]("test", "item name")
	r.SetValidator(ChainValidators(
		NotEmptyKeyValidator[int]("item name"),
		NoDuplicateValidator[string, int]("item name"),
	))

	require.NoError(t, r.Register("b", 2))
	require.NoError(t, r.Register("a", 1))
	assert.Error(t, r.Register("a", 3))
	assert.Error(t, r.Register("", 0))

	assert.Equal(t, []string{"a", "b"}, r.List())
	assert.Equal(t, 2, r.Size())
	assert.True(t, r.Has("a"))

	v, err := r.GetOrError("b")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	_, err = r.GetOrError("z")
	assert.Error(t, err)
}

func TestDiagnosticSystem(t *testing.T) {
	var buf bytes.Buffer
	d := NewBufferedDiagnostics(DiagnosticInfo, &buf)

	d.Info("hello %s", "world")
	d.Verbose("hidden")
	d.StartProgress("Wiring")
	d.EndProgress("Wiring", true)
	d.Summary("Done", map[string]interface{}{"b": 2, "a": 1})

	out := buf.String()
	assert.Contains(t, out, "[INFO] hello world")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "✓ Wiring")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("a: 1")), bytes.Index(buf.Bytes(), []byte("b: 2")))

	buf.Reset()
	quiet := NewBufferedDiagnostics(DiagnosticSilent, &buf)
	quiet.Error("nope")
	assert.Empty(t, buf.String())
}
