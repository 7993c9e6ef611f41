/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package renderer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/fetcher"
	"github.com/mweibel/commodore/pkg/inventory"
	"github.com/mweibel/commodore/pkg/paramtree"
)

// fakeEngine records its input and writes one manifest.
type fakeEngine struct {
	input Input
	fail  error
}

func (e *fakeEngine) Render(_ context.Context, in Input) error {
	e.input = in
	if e.fail != nil {
		return e.fail
	}
	return os.WriteFile(filepath.Join(in.OutputDir, "deployment.yaml"),
		[]byte("kind: Deployment\n"), 0o644)
}

func testInventory(t *testing.T) (*inventory.ResolvedInventory, inventory.ComponentSpec) {
	t.Helper()
	params, err := paramtree.FromYAML([]byte("namespace: syn\nreplicas: 3\n"))
	require.NoError(t, err)
	spec := inventory.ComponentSpec{
		Name:    "argocd",
		URL:     "file:///components/argocd.git",
		Version: "v1.2.3",
		Params:  params,
	}
	inv := &inventory.ResolvedInventory{
		Cluster:      "c-test",
		Tenant:       "t-foo",
		Applications: []string{"argocd"},
		Components:   []inventory.ComponentSpec{spec},
	}
	return inv, spec
}

func testCheckout(t *testing.T) *fetcher.Checkout {
	t.Helper()
	return &fetcher.Checkout{
		Name:     "argocd",
		Revision: "v1.2.3",
		Dir:      t.TempDir(),
		Commit:   plumbing.NewHash("0123456789012345678901234567890123456789"),
	}
}

func TestRender(t *testing.T) {
	inv, spec := testInventory(t)
	engine := &fakeEngine{}
	r := New(engine)

	workDir := t.TempDir()
	result, err := r.Render(t.Context(), inv, spec, testCheckout(t), workDir)
	require.NoError(t, err)

	assert.Equal(t, "argocd", result.Component)
	assert.Equal(t, filepath.Join(workDir, "argocd", "output"), result.OutputDir)
	assert.FileExists(t, filepath.Join(result.OutputDir, "deployment.yaml"))

	// The engine saw the layout the contract promises.
	assert.Equal(t, "argocd", engine.input.Component)
	assert.Equal(t, filepath.Join(workDir, "argocd", "params.yaml"), engine.input.ParamsFile)

	data, err := os.ReadFile(engine.input.ParamsFile)
	require.NoError(t, err)
	var doc struct {
		Component string `yaml:"component"`
		Cluster   struct {
			ID     string `yaml:"id"`
			Tenant string `yaml:"tenant"`
		} `yaml:"cluster"`
		Parameters map[string]any `yaml:"parameters"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "argocd", doc.Component)
	assert.Equal(t, "c-test", doc.Cluster.ID)
	assert.Equal(t, "t-foo", doc.Cluster.Tenant)
	assert.Equal(t, "syn", doc.Parameters["namespace"])
}

func TestRender_ClearsStaleOutput(t *testing.T) {
	inv, spec := testInventory(t)
	r := New(&fakeEngine{})

	workDir := t.TempDir()
	staleDir := filepath.Join(workDir, "argocd", "output")
	require.NoError(t, os.MkdirAll(staleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staleDir, "stale.yaml"), []byte("old"), 0o644))

	result, err := r.Render(t.Context(), inv, spec, testCheckout(t), workDir)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(result.OutputDir, "stale.yaml"))
	assert.FileExists(t, filepath.Join(result.OutputDir, "deployment.yaml"))
}

func TestRender_EngineError(t *testing.T) {
	inv, spec := testInventory(t)
	engine := &fakeEngine{
		fail: apperrors.New(apperrors.ErrCodeRender, "jsonnet evaluation failed"),
	}
	r := New(engine)

	_, err := r.Render(t.Context(), inv, spec, testCheckout(t), t.TempDir())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRender))
}

func TestExecEngine(t *testing.T) {
	workDir := t.TempDir()
	in := Input{
		Component:  "argocd",
		SourceDir:  t.TempDir(),
		ParamsFile: filepath.Join(workDir, "params.yaml"),
		OutputDir:  workDir,
	}
	require.NoError(t, os.WriteFile(in.ParamsFile, []byte("component: argocd\n"), 0o644))

	t.Run("placeholders and env are wired", func(t *testing.T) {
		engine := NewExecEngine("sh", "-c",
			`printf '%s' "$COMMODORE_COMPONENT" > "{output}/component.txt"`)
		require.NoError(t, engine.Render(t.Context(), in))

		data, err := os.ReadFile(filepath.Join(in.OutputDir, "component.txt"))
		require.NoError(t, err)
		assert.Equal(t, "argocd", string(data))
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		engine := NewExecEngine("sh", "-c", `echo "unknown field: foo" >&2; exit 3`)
		err := engine.Render(t.Context(), in)
		require.Error(t, err)
		assert.True(t, EngineFailed(err))
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRender))

		var se *apperrors.StructuredError
		require.True(t, apperrors.As(err, &se))
		assert.Equal(t, 3, se.Context["exitCode"])
		assert.Contains(t, se.Context["stderr"], "unknown field: foo")
	})

	t.Run("missing binary is an orchestration failure", func(t *testing.T) {
		engine := NewExecEngine("/does/not/exist")
		err := engine.Render(t.Context(), in)
		require.Error(t, err)
		assert.False(t, EngineFailed(err))
	})
}
