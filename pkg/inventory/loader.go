/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package inventory

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/paramtree"
)

// validate is shared: validator instances cache struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// classDocument is the on-disk YAML shape of one inventory class.
type classDocument struct {
	Includes     []string       `yaml:"includes,omitempty"`
	Applications []string       `yaml:"applications,omitempty"`
	Components   map[string]Pin `yaml:"components,omitempty"`
	Parameters   yaml.Node      `yaml:"parameters,omitempty"`
}

// LoadClassSet walks a classes directory and loads every class document.
// The expected layout is one subdirectory per hierarchy level:
//
//	classes/
//	  global/defaults.yml
//	  cloud/cloudX.yml
//	  region/cloudX/r1.yml
//	  cluster/c-test.yml
//	  tenant/t-foo.yml
//
// The class name is the file path relative to its level directory, without
// the extension.
func LoadClassSet(dir string) (*ClassSet, error) {
	set := NewClassSet()

	for _, level := range Levels {
		levelDir := filepath.Join(dir, string(level))
		if _, err := os.Stat(levelDir); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(levelDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isYAMLFile(path) {
				return nil
			}

			rel, err := filepath.Rel(levelDir, path)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

			c, err := LoadClass(level, name, path)
			if err != nil {
				return err
			}
			return set.Add(c)
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeConfig, "loading inventory classes", err)
		}
	}

	return set, nil
}

// LoadClass parses a single class document.
func LoadClass(level Level, name, path string) (*Class, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfig,
			"reading class file", err, map[string]any{"path": path})
	}

	var doc classDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfig,
			"parsing class file", err, map[string]any{"path": path})
	}

	params := paramtree.Mapping()
	if doc.Parameters.Kind != 0 {
		params, err = paramtree.FromYAMLNode(&doc.Parameters)
		if err != nil {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfig,
				"parsing class parameters", err, map[string]any{"path": path})
		}
		if params.Kind() != paramtree.KindMapping {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeConfig,
				"class parameters must be a mapping", map[string]any{"path": path})
		}
	}

	return &Class{
		Level:        level,
		Name:         name,
		Includes:     doc.Includes,
		Applications: doc.Applications,
		Components:   doc.Components,
		Parameters:   params,
	}, nil
}

// LoadCluster reads and validates a cluster definition file.
func LoadCluster(path string) (*Cluster, error) {
	var cluster Cluster
	if err := loadYAMLFile(path, &cluster); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cluster); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfig,
			"invalid cluster definition", err, map[string]any{"path": path})
	}
	return &cluster, nil
}

// LoadTenant reads and validates a tenant definition file.
func LoadTenant(path string) (*Tenant, error) {
	var tenant Tenant
	if err := loadYAMLFile(path, &tenant); err != nil {
		return nil, err
	}
	if err := validate.Struct(&tenant); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeConfig,
			"invalid tenant definition", err, map[string]any{"path": path})
	}
	return &tenant, nil
}

func loadYAMLFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeConfig,
			"reading definition file", err, map[string]any{"path": path})
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeConfig,
			"parsing definition file", err, map[string]any{"path": path})
	}
	return nil
}

func isYAMLFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yml" || ext == ".yaml"
}
