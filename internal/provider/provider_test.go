package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/scaffold/internal/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		input    string
		absolute bool
		segments int
		export   string
		canon    string
	}{
		{"user", false, 1, "", "user"},
		{"/app/models.user#model", true, 2, "model", "/app/models.user#model"},
		{"../auth", false, 2, "", "../auth"},
		{"./crud-service", false, 2, "", "./crud-service"},
		{" ../../x#y ", false, 3, "y", "../../x#y"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.absolute, ref.Absolute)
			assert.Len(t, ref.Segments, tt.segments)
			assert.Equal(t, tt.export, ref.Export)
			assert.Equal(t, tt.canon, ref.String())
		})
	}
}

func TestParseReference_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "#model", "a//b", "a#", "1abc"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseReference(input)
			assert.Error(t, err)
		})
	}
}

func TestReference_Resolve(t *testing.T) {
	tests := []struct {
		ref     string
		from    string
		want    string
		wantErr bool
	}{
		{"user", "/app/services.users", "/app/user", false},
		{"models.user", "/app/services.users", "/app/models.user", false},
		{"../shared", "/app/services.users/handler", "/app/shared", false},
		{"./peer", "/app/a", "/app/peer", false},
		{"/app/models.user", "/other/deep/node", "/app/models.user", false},
		{"../../x", "/app/a", "", true},
		{"..", "/app/a", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.ref+"@"+tt.from, func(t *testing.T) {
			ref, err := ParseReference(tt.ref)
			require.NoError(t, err)

			got, err := ref.Resolve(tt.from)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue(t *testing.T) {
	deps := Dependencies{"name": "shop", "missing": nil}

	s, err := Value[string](deps, "name")
	require.NoError(t, err)
	assert.Equal(t, "shop", s)

	_, err = Value[int](deps, "name")
	assert.Error(t, err)

	_, err = Value[string](deps, "undeclared")
	assert.Equal(t, errors.UnresolvedDependencyErrorCode, errors.CodeOf(err))

	_, ok := Optional[string](deps, "missing")
	assert.False(t, ok)

	assert.Equal(t, "shop", MustValue[string](deps, "name"))
	assert.Panics(t, func() { MustValue[int](deps, "name") })
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Bind("/app/svc", "model", &Binding{Producer: "/app/user", Export: "model", Type: ReadOnly("model")})
	r.Bind("/app/svc", "auth", nil)

	_, err := r.ResolveDependency("/app/svc", "model")
	assert.Equal(t, errors.UnresolvedDependencyErrorCode, errors.CodeOf(err), "producer not wired yet")

	require.NoError(t, r.DeclareExport("/app/user", "model", "User"))
	assert.Error(t, r.DeclareExport("/app/user", "model", "Again"))

	deps, err := r.Dependencies("/app/svc")
	require.NoError(t, err)
	assert.Equal(t, Dependencies{"model": "User", "auth": nil}, deps)

	_, err = r.ResolveDependency("/app/svc", "unknown")
	assert.Equal(t, errors.UnresolvedDependencyErrorCode, errors.CodeOf(err))

	assert.Equal(t, Exports{"model": "User"}, r.Exports("/app/user"))
	b, ok := r.Binding("/app/svc", "model")
	require.True(t, ok)
	assert.Equal(t, "/app/user", b.Producer)
}
