package accumulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/scaffold/internal/errors"
)

func TestAccumulator_SetScalar(t *testing.T) {
	acc := New("/app")

	require.NoError(t, acc.SetScalar("/app/a", "title", "Shop"))

	err := acc.SetScalar("/app/b", "title", "Store")
	require.Error(t, err)

	var conflict *errors.ScalarConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "/app/a", conflict.OriginalSetter)
	assert.Equal(t, "/app/b", conflict.IncomingSetter)
	assert.Equal(t, "Shop", conflict.OriginalValue)
	assert.Equal(t, "/app", conflict.NodePath())
	assert.Contains(t, err.Error(), "/app/a")
	assert.Contains(t, err.Error(), "/app/b")

	assert.Equal(t, "Shop", acc.Snapshot().GetString("title"))
}

func TestAccumulator_OverwriteableDefaults(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantError bool
	}{
		{
			name: "default blocks scalar set",
			opts: []Option{
				WithEntry("port", Scalar),
				WithDefaults(map[string]interface{}{"port": 8080}),
			},
			wantError: true,
		},
		{
			name: "overwriteable default replaced once",
			opts: []Option{
				WithOverwriteableDefaults(),
				WithEntry("port", Scalar),
				WithDefaults(map[string]interface{}{"port": 8080}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := New("/app", tt.opts...)
			err := acc.SetScalar("/app/svc", "port", 9090)
			if tt.wantError {
				assert.Equal(t, errors.ScalarConflictErrorCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			v, ok := Get[int](acc.Snapshot(), "port")
			require.True(t, ok)
			assert.Equal(t, 9090, v)

			err = acc.SetScalar("/app/other", "port", 1)
			assert.Equal(t, errors.ScalarConflictErrorCode, errors.CodeOf(err))
		})
	}
}

func TestAccumulator_Overwrite(t *testing.T) {
	acc := New("/app", WithDefaults(map[string]interface{}{"version": "0.1.0"}))

	assert.Equal(t, "0.1.0", acc.Snapshot().GetString("version"))
	assert.Equal(t, DefaultsSetter, acc.Snapshot().Setter("version"))

	require.NoError(t, acc.Set("/app/a", "version", "1.0.0"))
	require.NoError(t, acc.Set("/app/b", "version", "2.0.0"))

	snap := acc.Snapshot()
	assert.Equal(t, "2.0.0", snap.GetString("version"))
	assert.Equal(t, "/app/b", snap.Setter("version"))
}

func TestAccumulator_AppendUnique(t *testing.T) {
	acc := New("/m", WithIdentity("items", ByField("id")))

	n, err := acc.AppendUnique("/m/c1", "items", []interface{}{map[string]interface{}{"id": "x", "from": 1}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = acc.AppendUnique("/m/c2", "items", []interface{}{
		map[string]interface{}{"id": "x", "from": 2},
		map[string]interface{}{"id": "y"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items := acc.Snapshot().Items("items")
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].(map[string]interface{})["from"])
	assert.Equal(t, "y", items[1].(map[string]interface{})["id"])
}

func TestAccumulator_AppendUniqueByValue(t *testing.T) {
	acc := New("/m")

	_, err := acc.AppendUnique("/m", "tags", []interface{}{"a", "b", "a"}, nil)
	require.NoError(t, err)
	_, err = acc.AppendUnique("/m", "tags", []interface{}{"b", "c"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ItemsAs[string](acc.Snapshot(), "tags"))
}

func TestAccumulator_PolicyMismatch(t *testing.T) {
	acc := New("/m", WithEntry("tags", AppendUnique))

	err := acc.SetScalar("/m/x", "tags", "a")
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))

	assert.NoError(t, acc.Declare("/m", "tags", AppendUnique))
	assert.Error(t, acc.Declare("/m", "tags", Overwrite))
}

func TestAccumulator_Freeze(t *testing.T) {
	acc := New("/m")
	require.NoError(t, acc.SetScalar("/m", "a", 1))
	before := acc.Snapshot()

	acc.Freeze()
	assert.True(t, acc.Frozen())

	tests := []struct {
		name string
		fn   func() error
	}{
		{"set scalar", func() error { return acc.SetScalar("/m/x", "b", 2) }},
		{"overwrite", func() error { return acc.Set("/m/x", "c", 3) }},
		{"append", func() error {
			_, err := acc.AppendUnique("/m/x", "d", []interface{}{1}, nil)
			return err
		}},
		{"declare", func() error { return acc.Declare("/m/x", "e", Scalar) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			var frozen *errors.FrozenStateError
			require.ErrorAs(t, err, &frozen)
			assert.Equal(t, "/m", frozen.Owner)
			assert.Equal(t, "/m/x", frozen.NodePath())
		})
	}

	assert.Equal(t, before.Keys(), acc.Snapshot().Keys())
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	acc := New("/m")
	_, err := acc.AppendUnique("/m", "xs", []interface{}{1}, nil)
	require.NoError(t, err)

	snap := acc.Snapshot()
	_, err = acc.AppendUnique("/m", "xs", []interface{}{2}, nil)
	require.NoError(t, err)

	assert.Len(t, snap.Items("xs"), 1)
	assert.Len(t, acc.Snapshot().Items("xs"), 2)
	assert.Equal(t, []string{"xs"}, snap.Keys())
}

func TestSnapshot_DeepCopiesContainers(t *testing.T) {
	acc := New("/m")
	item := map[string]interface{}{"id": "x", "tags": []interface{}{"a"}}
	_, err := acc.AppendUnique("/m", "xs", []interface{}{item}, ByField("id"))
	require.NoError(t, err)
	settings := map[string]interface{}{"level": "info"}
	require.NoError(t, acc.Set("/m", "settings", settings))

	snap := acc.Snapshot()
	item["id"] = "changed"
	item["tags"].([]interface{})[0] = "changed"
	settings["level"] = "debug"

	got := snap.Items("xs")[0].(map[string]interface{})
	assert.Equal(t, "x", got["id"])
	assert.Equal(t, []interface{}{"a"}, got["tags"])
	value, ok := snap.Value("settings")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"level": "info"}, value)

	got["id"] = "reader"
	assert.Equal(t, "x", ItemsAs[map[string]interface{}](snap, "xs")[0]["id"], "readers get their own copy")
}
