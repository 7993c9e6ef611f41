/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package catalog

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

// validateManifestFile checks that every document in the file is a
// well-formed Kubernetes object: valid YAML with apiVersion, kind and a
// metadata name. Broken render output is rejected before it can reach the
// catalog repository.
func validateManifestFile(path, component string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeCatalog,
			"opening rendered manifest", err, manifestContext(path, component))
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				return nil
			}
			return apperrors.WrapWithContext(apperrors.ErrCodeCatalog,
				"parsing rendered manifest", err, manifestContext(path, component))
		}
		if doc == nil {
			// Empty documents are tolerated.
			continue
		}
		if err := validateObject(&unstructured.Unstructured{Object: doc}, path, component); err != nil {
			return err
		}
	}
}

func validateObject(obj *unstructured.Unstructured, path, component string) error {
	if obj.GetAPIVersion() == "" {
		return apperrors.NewWithContext(apperrors.ErrCodeCatalog,
			"rendered manifest has no apiVersion", manifestContext(path, component))
	}
	if obj.GetKind() == "" {
		return apperrors.NewWithContext(apperrors.ErrCodeCatalog,
			"rendered manifest has no kind", manifestContext(path, component))
	}
	if obj.GetName() == "" && obj.GetGenerateName() == "" {
		return apperrors.NewWithContext(apperrors.ErrCodeCatalog,
			"rendered manifest has no metadata name", manifestContext(path, component))
	}
	return nil
}

func manifestContext(path, component string) map[string]any {
	return map[string]any{
		"component": component,
		"manifest":  path,
	}
}
