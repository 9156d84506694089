package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/scaffold/internal/accumulator"
	"github.com/toyz/scaffold/internal/errors"
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/graph"
	"github.com/toyz/scaffold/internal/output"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
	"github.com/toyz/scaffold/internal/utils"
)

var accType = provider.Mutable("acc")

// recorder collects hook calls and the root's final snapshot
type recorder struct {
	calls    []string
	snapshot *accumulator.Snapshot
}

func (r *recorder) catalog(item func(wc *generator.WireContext) error) *generator.Catalog {
	return generator.NewCatalog().MustAdd(
		&generator.Descriptor{
			Name:     "root",
			Exports:  map[string]provider.Export{"m": {Type: accType}},
			Children: map[string]generator.ChildSlot{"items": {Generator: "item", Multiple: true}},
			Wire: func(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
				r.calls = append(r.calls, "wire "+wc.Path)
				m := accumulator.New(wc.Path,
					accumulator.WithEntry("items", accumulator.AppendUnique),
					accumulator.WithIdentity("items", accumulator.ByField("id")),
					accumulator.WithEntry("title", accumulator.Scalar),
				)
				return provider.Exports{"m": m}, nil
			},
			Build: func(_ context.Context, bc *generator.BuildContext) error {
				r.calls = append(r.calls, "build "+bc.Path)
				m := bc.Exports["m"].(*accumulator.Accumulator)
				r.snapshot = m.Snapshot()
				bc.WriteFile("items.txt", fmt.Sprintf("%d\n", len(r.snapshot.Items("items"))))
				return nil
			},
		},
		&generator.Descriptor{
			Name:         "item",
			Schema:       &schema.Schema{Fields: map[string]schema.Field{"id": {Type: schema.StringType, Default: "x"}}},
			Dependencies: map[string]provider.Dependency{"m": {Type: accType}},
			Wire: func(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
				r.calls = append(r.calls, "wire "+wc.Path)
				m, err := provider.Value[*accumulator.Accumulator](wc.Deps, "m")
				if err != nil {
					return nil, err
				}
				if _, err := m.AppendUnique(wc.Path, "items", []interface{}{
					map[string]interface{}{"id": wc.Config.GetString("id")},
				}, nil); err != nil {
					return nil, err
				}
				if item != nil {
					return nil, item(wc)
				}
				return nil, nil
			},
			Build: func(_ context.Context, bc *generator.BuildContext) error {
				r.calls = append(r.calls, "build "+bc.Path)
				return nil
			},
		},
	)
}

func twoItems() generator.NodeSpec {
	return generator.NodeSpec{
		Generator: "root",
		Name:      "app",
		Children:  map[string][]generator.NodeSpec{"items": {{Name: "one"}, {Name: "two"}}},
	}
}

func newEngine(t *testing.T, catalog *generator.Catalog, spec generator.NodeSpec) (*Engine, *graph.Graph) {
	t.Helper()
	g, err := graph.New(catalog, spec)
	require.NoError(t, err)
	return New(g, Options{}), g
}

func TestRun_SharedAccumulator(t *testing.T) {
	r := &recorder{}
	e, g := newEngine(t, r.catalog(nil), twoItems())

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, r.snapshot)
	assert.Len(t, r.snapshot.Items("items"), 1)
	assert.Equal(t, []string{
		"wire /app",
		"wire /app/items.one",
		"wire /app/items.two",
		"build /app/items.one",
		"build /app/items.two",
		"build /app",
	}, r.calls)

	for _, n := range g.Nodes() {
		assert.Equal(t, graph.Built, n.State, n.Path)
	}
	require.Len(t, result.Actions, 1)
	assert.Equal(t, output.WriteFile{Path: "items.txt", Content: "1\n", By: "/app"}, result.Actions[0])

	_, err = e.Run(context.Background())
	assert.Error(t, err, "an engine runs once")
}

func TestRun_ScalarConflict(t *testing.T) {
	r := &recorder{}
	catalog := r.catalog(func(wc *generator.WireContext) error {
		m := provider.MustValue[*accumulator.Accumulator](wc.Deps, "m")
		return m.SetScalar(wc.Path, "title", wc.Name)
	})
	e, g := newEngine(t, catalog, twoItems())

	result, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	var hook *errors.HookExecutionError
	require.ErrorAs(t, err, &hook)
	assert.Equal(t, "/app/items.two", hook.NodePath())
	assert.Equal(t, PhaseWire, hook.Phase)

	var conflict *errors.ScalarConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "/app/items.one", conflict.OriginalSetter)
	assert.Equal(t, "/app/items.two", conflict.IncomingSetter)

	two, _ := g.Lookup("/app/items.two")
	assert.Equal(t, graph.Failed, two.State)
	root, _ := g.Lookup("/app")
	assert.Equal(t, graph.Wired, root.State)
	assert.NotContains(t, r.calls, "build /app")
}

func TestRun_ExportValidation(t *testing.T) {
	catalog := generator.NewCatalog().MustAdd(&generator.Descriptor{
		Name:    "root",
		Exports: map[string]provider.Export{"m": {Type: accType}},
		Wire: func(context.Context, *generator.WireContext) (provider.Exports, error) {
			return provider.Exports{"other": 1}, nil
		},
	})
	e, _ := newEngine(t, catalog, generator.NodeSpec{Generator: "root"})

	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.HookExecutionErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "declared export 'm' was not returned")
}

func TestRun_FreezeOnOwnerBuild(t *testing.T) {
	infoType := provider.ReadOnly("info")
	var lateErr error
	catalog := generator.NewCatalog().MustAdd(
		&generator.Descriptor{
			Name:     "root",
			Exports:  map[string]provider.Export{"info": {Type: infoType}},
			Children: map[string]generator.ChildSlot{"reader": {Generator: "reader", Defaults: generator.Single("", nil)}},
			Wire: func(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
				return provider.Exports{"info": accumulator.New(wc.Path, accumulator.WithEntry("name", accumulator.Scalar))}, nil
			},
		},
		&generator.Descriptor{
			Name:         "reader",
			Dependencies: map[string]provider.Dependency{"info": {Type: infoType}},
			Build: func(_ context.Context, bc *generator.BuildContext) error {
				info := provider.MustValue[*accumulator.Accumulator](bc.Deps, "info")
				lateErr = info.SetScalar(bc.Path, "name", "late")
				return nil
			},
		},
	)
	e, g := newEngine(t, catalog, generator.NodeSpec{Generator: "root"})
	assert.Equal(t, []string{"/root", "/root/reader"}, graph.Paths(g.BuildOrder()))

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Error(t, lateErr)
	assert.Equal(t, errors.FrozenStateErrorCode, errors.CodeOf(lateErr))
}

func TestRun_BuildFailure(t *testing.T) {
	catalog := generator.NewCatalog().MustAdd(&generator.Descriptor{
		Name: "root",
		Build: func(_ context.Context, bc *generator.BuildContext) error {
			bc.WriteFile("a.txt", "a")
			return fmt.Errorf("disk full")
		},
	})
	e, g := newEngine(t, catalog, generator.NodeSpec{Generator: "root"})

	result, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result, "no actions escape a failed run")

	var hook *errors.HookExecutionError
	require.ErrorAs(t, err, &hook)
	assert.Equal(t, PhaseBuild, hook.Phase)
	assert.Equal(t, "root", hook.Generator)
	assert.Equal(t, graph.Failed, g.Root().State)
}

func TestRun_Cancelled(t *testing.T) {
	r := &recorder{}
	e, g := newEngine(t, r.catalog(nil), twoItems())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errors.HookExecutionErrorCode, errors.CodeOf(err))
	assert.Empty(t, r.calls)

	var hook *errors.HookExecutionError
	require.ErrorAs(t, err, &hook)
	assert.Equal(t, PhaseWire, hook.Phase)
	n, ok := g.Lookup(hook.NodePath())
	require.True(t, ok)
	assert.Equal(t, graph.Failed, n.State)
}

func TestRun_LedgerAndAssembler(t *testing.T) {
	const target = "internal/models/enums.go"
	catalog := generator.NewCatalog().MustAdd(
		&generator.Descriptor{
			Name:     "root",
			Children: map[string]generator.ChildSlot{"users": {Generator: "user", Multiple: true}},
			Build: func(_ context.Context, bc *generator.BuildContext) error {
				bc.ConfigureFile(target, "package models\n")
				return nil
			},
		},
		&generator.Descriptor{
			Name:   "user",
			Schema: &schema.Schema{Fields: map[string]schema.Field{"kind": {Type: schema.StringType}}},
			Build: func(_ context.Context, bc *generator.BuildContext) error {
				bc.Contribute(target, fragment.NewBlock("var _ = "+bc.Name+"Kind"), "vars")
				if bc.TryRegister(target, "Kind").AlreadyRegistered {
					return nil
				}
				bc.Contribute(target, fragment.NewBlock("type Kind string", fragment.Import("@module/internal/base")), "types")
				return nil
			},
		},
	)
	spec := generator.NodeSpec{Generator: "root", Children: map[string][]generator.NodeSpec{
		"users": {{Name: "a"}, {Name: "b"}},
	}}
	g, err := graph.New(catalog, spec)
	require.NoError(t, err)

	var logs bytes.Buffer
	e := New(g, Options{
		Module:      "example.com/app",
		Categories:  []string{"types", "vars"},
		Diagnostics: utils.NewBufferedDiagnostics(utils.DiagnosticDebug, &logs),
	})
	result, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Actions, 1)
	file := result.Actions[0].(output.WriteFile)
	assert.Equal(t, target, file.Path)
	assert.Equal(t, 1, strings.Count(file.Content, "type Kind string"))
	assert.Equal(t, "package models\n\nimport \"example.com/app/internal/base\"\n\n"+
		"type Kind string\n\nvar _ = users.aKind\n\nvar _ = users.bKind\n", file.Content)
	assert.Equal(t, []string{"Kind"}, result.Env.Ledger.Registered(target))

	assert.Contains(t, logs.String(), "build /root/users.a (user)")
}
