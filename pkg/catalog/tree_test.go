/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/renderer"
)

// renderResult writes the given files into a fresh output directory and
// returns the matching render result.
func renderResult(t *testing.T, component string, files map[string]string) *renderer.Result {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return &renderer.Result{Component: component, OutputDir: dir}
}

const validDeployment = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: argocd-server
`

func TestAssemble(t *testing.T) {
	catalogDir := t.TempDir()

	results := []*renderer.Result{
		renderResult(t, "prometheus", map[string]string{
			"service.yaml": "apiVersion: v1\nkind: Service\nmetadata:\n  name: prom\n",
		}),
		renderResult(t, "argocd", map[string]string{
			"deployment.yaml":     validDeployment,
			"crds/appproject.yml": "apiVersion: apiextensions.k8s.io/v1\nkind: CustomResourceDefinition\nmetadata:\n  name: appprojects.argoproj.io\n",
		}),
	}

	require.NoError(t, Assemble(catalogDir, results))

	assert.FileExists(t, filepath.Join(catalogDir, "manifests", "argocd", "deployment.yaml"))
	assert.FileExists(t, filepath.Join(catalogDir, "manifests", "argocd", "crds", "appproject.yml"))
	assert.FileExists(t, filepath.Join(catalogDir, "manifests", "prometheus", "service.yaml"))
}

func TestAssemble_PrunesRemovedComponents(t *testing.T) {
	catalogDir := t.TempDir()

	first := []*renderer.Result{
		renderResult(t, "argocd", map[string]string{"deployment.yaml": validDeployment}),
		renderResult(t, "legacy", map[string]string{
			"cm.yaml": "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: legacy\n",
		}),
	}
	require.NoError(t, Assemble(catalogDir, first))

	second := []*renderer.Result{
		renderResult(t, "argocd", map[string]string{"deployment.yaml": validDeployment}),
	}
	require.NoError(t, Assemble(catalogDir, second))

	assert.FileExists(t, filepath.Join(catalogDir, "manifests", "argocd", "deployment.yaml"))
	assert.NoDirExists(t, filepath.Join(catalogDir, "manifests", "legacy"))
}

func TestAssemble_RejectsInvalidManifests(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing kind", "apiVersion: v1\nmetadata:\n  name: x\n"},
		{"missing apiVersion", "kind: Service\nmetadata:\n  name: x\n"},
		{"missing name", "apiVersion: v1\nkind: Service\nmetadata: {}\n"},
		{"broken yaml", "kind: [unclosed\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Assemble(t.TempDir(), []*renderer.Result{
				renderResult(t, "bad", map[string]string{"bad.yaml": tc.manifest}),
			})
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCatalog))
		})
	}
}

func TestAssemble_MultiDocumentManifest(t *testing.T) {
	catalogDir := t.TempDir()
	manifest := validDeployment + "---\napiVersion: v1\nkind: Service\nmetadata:\n  name: argocd-server\n---\n"

	err := Assemble(catalogDir, []*renderer.Result{
		renderResult(t, "argocd", map[string]string{"all.yaml": manifest}),
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(catalogDir, "manifests", "argocd", "all.yaml"))
}

func TestAssemble_NonManifestFilesAreCopiedVerbatim(t *testing.T) {
	catalogDir := t.TempDir()

	err := Assemble(catalogDir, []*renderer.Result{
		renderResult(t, "argocd", map[string]string{
			"deployment.yaml": validDeployment,
			"README.md":       "not yaml at all",
		}),
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(catalogDir, "manifests", "argocd", "README.md"))
}
