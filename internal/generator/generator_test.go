package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/output"
	"github.com/toyz/scaffold/internal/provider"
)

func noopWire(context.Context, *WireContext) (provider.Exports, error) {
	return provider.Exports{}, nil
}

func TestDescriptor_Validate(t *testing.T) {
	tests := []struct {
		name    string
		desc    *Descriptor
		wantErr string
	}{
		{
			name: "valid",
			desc: &Descriptor{
				Name:         "model",
				Dependencies: map[string]provider.Dependency{"registry": {Type: provider.Mutable("registry")}},
				Exports:      map[string]provider.Export{"model": {Type: provider.ReadOnly("model")}},
				Children:     map[string]ChildSlot{"mutations": {Generator: "mutation", Multiple: true}},
				Wire:         noopWire,
			},
		},
		{name: "nil", desc: nil, wantErr: "descriptor is nil"},
		{name: "bad name", desc: &Descriptor{Name: "my model"}, wantErr: "invalid generator name"},
		{
			name:    "untyped dependency",
			desc:    &Descriptor{Name: "x", Dependencies: map[string]provider.Dependency{"a": {}}},
			wantErr: "has no provider type",
		},
		{
			name:    "bad export slot",
			desc:    &Descriptor{Name: "x", Exports: map[string]provider.Export{"a/b": {Type: provider.Mutable("a")}}, Wire: noopWire},
			wantErr: "invalid export slot name",
		},
		{
			name:    "exports without wire",
			desc:    &Descriptor{Name: "x", Exports: map[string]provider.Export{"a": {Type: provider.Mutable("a")}}},
			wantErr: "has no wire hook",
		},
		{
			name:    "bad child slot",
			desc:    &Descriptor{Name: "x", Children: map[string]ChildSlot{"a.b": {}}},
			wantErr: "invalid child slot name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDescriptor_Exports(t *testing.T) {
	d := &Descriptor{
		Name: "project",
		Exports: map[string]provider.Export{
			"registry": {Type: provider.Mutable("registry")},
			"audit":    {Type: provider.Mutable("registry")},
			"info":     {Type: provider.ReadOnly("project")},
		},
		Wire: noopWire,
	}

	assert.Equal(t, []string{"audit", "registry"}, d.ExportsOf("registry"))
	assert.Empty(t, d.ExportsOf("model"))

	assert.NoError(t, d.CheckExports(provider.Exports{"registry": 1, "audit": 2, "info": 3}))
	assert.EqualError(t, d.CheckExports(provider.Exports{"registry": 1, "info": 3}), "declared export 'audit' was not returned")
	assert.EqualError(t, d.CheckExports(provider.Exports{"registry": 1, "audit": 2, "info": 3, "x": 4}), "returned export 'x' is not declared")
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(&Descriptor{Name: "enum"}, &Descriptor{Name: "model"}))

	err := c.Add(&Descriptor{Name: "enum"})
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "already registered")

	d, err := c.Lookup("model")
	require.NoError(t, err)
	assert.Equal(t, "model", d.Name)

	_, err = c.Lookup("service")
	require.Error(t, err)
	var base *errors.BaseError
	require.ErrorAs(t, err, &base)
	assert.Equal(t, []string{"Available generators: enum, model"}, base.Suggestions())

	assert.Panics(t, func() { c.MustAdd(&Descriptor{Name: ""}) })
}

func TestSingleDefaults(t *testing.T) {
	specs, err := Single("mutation", map[string]interface{}{"op": "create"})(nil)
	require.NoError(t, err)
	assert.Equal(t, []NodeSpec{{Generator: "mutation", Config: map[string]interface{}{"op": "create"}}}, specs)
}

func TestNodeSpec_ChildrenOf(t *testing.T) {
	spec := NodeSpec{Children: map[string][]NodeSpec{"enums": {}}}

	children, ok := spec.ChildrenOf("enums")
	assert.True(t, ok)
	assert.Empty(t, children)

	_, ok = spec.ChildrenOf("models")
	assert.False(t, ok)
}

func TestBuildContext_QueuesActions(t *testing.T) {
	env := NewEnv("example.com/app", nil)
	bc := &BuildContext{Node: Node{Path: "/app", Name: "app", Generator: "project"}, Env: env}

	bc.CopyTemplate("go.mod", "go.mod.tmpl", map[string]string{"MODULE": env.Module})
	bc.WriteFile("README.md", "# app\n")
	bc.RunCommand("go mod tidy", "", "go.mod")
	bc.RunCommandAlways("echo done", "")
	bc.ConfigureFile("internal/models/enums.go", "package models\n")
	bc.Contribute("internal/models/enums.go", fragment.NewBlock("type Role string"), "types")

	actions := env.Queue.Actions()
	require.Len(t, actions, 4)
	assert.Equal(t, output.CopyTemplate{
		Path:    "go.mod",
		Source:  "go.mod.tmpl",
		Values:  map[string]string{"MODULE": "example.com/app"},
		Mappers: []fragment.ImportMapper{{Prefix: ModulePrefix, Target: "example.com/app"}},
		By:      "/app",
	}, actions[0])
	assert.Equal(t, output.RunCommand{Command: "go mod tidy", WatchPaths: []string{"go.mod"}, By: "/app"}, actions[2])
	assert.Equal(t, output.RunCommand{Command: "echo done", Always: true, By: "/app"}, actions[3])
	assert.Equal(t, []string{"internal/models/enums.go"}, env.Assembler.Targets())

	assert.False(t, bc.TryRegister("internal/models/enums.go", "Role").AlreadyRegistered)
	wc := &WireContext{Node: Node{Path: "/app/models.user"}, Env: env}
	reg := wc.TryRegister("internal/models/enums.go", "Role")
	assert.True(t, reg.AlreadyRegistered)
	assert.Equal(t, "/app", reg.Owner)
}

func TestEnv_Mappers(t *testing.T) {
	assert.Nil(t, NewEnv("", nil).Mappers())
	assert.Len(t, NewEnv("example.com/app", nil).Mappers(), 1)
}
