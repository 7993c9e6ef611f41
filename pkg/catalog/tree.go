/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package catalog

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/renderer"
)

// manifestsDir is the catalog subdirectory holding rendered manifests.
const manifestsDir = "manifests"

// Assemble rebuilds the manifests tree of the catalog working directory
// from the render results. Every manifest is validated before it is copied.
// The previous tree is discarded first, so manifests of components that are
// no longer rendered disappear; git staging later turns that into
// deletions.
func Assemble(catalogDir string, results []*renderer.Result) error {
	root := filepath.Join(catalogDir, manifestsDir)
	if err := os.RemoveAll(root); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "clearing manifests tree", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "creating manifests tree", err)
	}

	ordered := make([]*renderer.Result, len(results))
	copy(ordered, results)
	slices.SortFunc(ordered, func(a, b *renderer.Result) int {
		return strings.Compare(a.Component, b.Component)
	})

	for _, result := range ordered {
		dst := filepath.Join(root, result.Component)
		if err := copyManifests(result, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyManifests(result *renderer.Result, dst string) error {
	return filepath.WalkDir(result.OutputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return apperrors.WrapWithContext(apperrors.ErrCodeCatalog,
				"walking render output", err, map[string]any{"component": result.Component})
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(result.OutputDir, path)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeCatalog, "resolving manifest path", err)
		}

		if isManifest(path) {
			if err := validateManifestFile(path, result.Component); err != nil {
				return err
			}
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "creating manifest directory", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "reading rendered manifest", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "writing catalog manifest", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "copying catalog manifest", err)
	}
	return out.Close()
}

func isManifest(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
