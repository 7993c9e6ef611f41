/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package paramtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

func mustParse(t *testing.T, doc string) *Value {
	t.Helper()
	v, err := FromYAML([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := mustParse(t, "replicas: 1\nname: app")
	overlay := mustParse(t, "replicas: 3")

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	replicas, ok := merged.Lookup("replicas")
	require.True(t, ok)
	assert.Equal(t, int64(3), replicas.ScalarValue())

	name, ok := merged.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "app", name.ScalarValue())
}

func TestMerge_DeepMapping(t *testing.T) {
	base := mustParse(t, `
app:
  image: nginx
  resources:
    cpu: 100m
    memory: 128Mi
`)
	overlay := mustParse(t, `
app:
  resources:
    memory: 256Mi
`)

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	mem, ok := merged.Lookup("app.resources.memory")
	require.True(t, ok)
	assert.Equal(t, "256Mi", mem.ScalarValue())

	cpu, ok := merged.Lookup("app.resources.cpu")
	require.True(t, ok)
	assert.Equal(t, "100m", cpu.ScalarValue())

	image, ok := merged.Lookup("app.image")
	require.True(t, ok)
	assert.Equal(t, "nginx", image.ScalarValue())
}

func TestMerge_SequenceReplacedWholesale(t *testing.T) {
	base := mustParse(t, "zones: [a, b, c]")
	overlay := mustParse(t, "zones: [d]")

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	zones, ok := merged.Lookup("zones")
	require.True(t, ok)
	require.Len(t, zones.Items(), 1)
	assert.Equal(t, "d", zones.Items()[0].ScalarValue())
}

func TestMerge_SequenceAppend(t *testing.T) {
	base := mustParse(t, "zones: [a, b]")
	overlay := mustParse(t, "zones~append: [c]")

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	zones, ok := merged.Lookup("zones")
	require.True(t, ok)
	require.Len(t, zones.Items(), 3)
	assert.Equal(t, "c", zones.Items()[2].ScalarValue())

	// The marker key must not survive the merge.
	_, ok = merged.Lookup("zones~append")
	assert.False(t, ok)
}

func TestMerge_AppendWithoutBase(t *testing.T) {
	base := mustParse(t, "name: app")
	overlay := mustParse(t, "zones~append: [c]")

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	zones, ok := merged.Lookup("zones")
	require.True(t, ok)
	require.Len(t, zones.Items(), 1)
}

func TestMerge_AppendConflictsWithPlainKey(t *testing.T) {
	base := mustParse(t, "zones: [a]")
	overlay := mustParse(t, "zones: [b]\nzones~append: [c]")

	_, err := Merge(base, overlay)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))
}

func TestMerge_KindMismatchIsConfigError(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		overlay string
	}{
		{"mapping into scalar", "app: name", "app:\n  image: nginx"},
		{"scalar into mapping", "app:\n  image: nginx", "app: name"},
		{"sequence into mapping", "app:\n  image: nginx", "app: [a]"},
		{"scalar into sequence", "app: [a]", "app: name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Merge(mustParse(t, tc.base), mustParse(t, tc.overlay))
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfig))

			var se *apperrors.StructuredError
			require.True(t, apperrors.As(err, &se))
			assert.Equal(t, "app", se.Context["path"])
		})
	}
}

func TestMerge_NullOverride(t *testing.T) {
	base := mustParse(t, "app:\n  image: nginx")
	overlay := mustParse(t, "app: null")

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	app, ok := merged.Lookup("app")
	require.True(t, ok)
	assert.True(t, app.IsNull())

	// And back: anything may override an explicit null.
	merged, err = Merge(merged, mustParse(t, "app:\n  image: caddy"))
	require.NoError(t, err)
	image, ok := merged.Lookup("app.image")
	require.True(t, ok)
	assert.Equal(t, "caddy", image.ScalarValue())
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := mustParse(t, "app:\n  image: nginx")
	overlay := mustParse(t, "app:\n  image: caddy")

	baseCopy := base.Clone()
	overlayCopy := overlay.Clone()

	_, err := Merge(base, overlay)
	require.NoError(t, err)

	assert.True(t, base.Equal(baseCopy), "base mutated by merge")
	assert.True(t, overlay.Equal(overlayCopy), "overlay mutated by merge")
}

func TestMerge_Deterministic(t *testing.T) {
	base := mustParse(t, "b: 1\na: 2\nc:\n  y: 1\n  x: 2")
	overlay := mustParse(t, "c:\n  x: 3\nd: 4")

	first, err := Merge(base, overlay)
	require.NoError(t, err)
	firstYAML, err := first.ToYAML()
	require.NoError(t, err)

	for range 5 {
		again, err := Merge(base, overlay)
		require.NoError(t, err)
		againYAML, err := again.ToYAML()
		require.NoError(t, err)
		assert.Equal(t, string(firstYAML), string(againYAML))
	}
}
