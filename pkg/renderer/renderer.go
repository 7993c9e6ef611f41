/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package renderer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mweibel/commodore/pkg/defaults"
	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/fetcher"
	"github.com/mweibel/commodore/pkg/inventory"
	"github.com/mweibel/commodore/pkg/paramtree"
)

// Result is the outcome of rendering one component.
type Result struct {
	Component string
	Commit    string
	OutputDir string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for render events.
func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		r.log = log
	}
}

// WithTimeout bounds a single component render.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// Renderer orchestrates render engine invocations.
type Renderer struct {
	engine  Engine
	log     *slog.Logger
	timeout time.Duration
}

// New creates a Renderer delegating to the given engine.
func New(engine Engine, opts ...Option) *Renderer {
	r := &Renderer{
		engine:  engine,
		log:     slog.Default(),
		timeout: defaults.RenderTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// params.yaml document handed to the engine.
type renderParams struct {
	Component  string           `yaml:"component"`
	Cluster    renderCluster    `yaml:"cluster"`
	Parameters *paramtree.Value `yaml:"parameters"`
}

type renderCluster struct {
	ID     string `yaml:"id"`
	Tenant string `yaml:"tenant"`
}

// Render renders one component checkout under workDir. The work directory
// layout is workDir/<component>/{params.yaml,output/}; a pre-existing
// output directory from an earlier run is discarded first.
func (r *Renderer) Render(ctx context.Context, inv *inventory.ResolvedInventory, spec inventory.ComponentSpec, checkout *fetcher.Checkout, workDir string) (*Result, error) {
	componentDir := filepath.Join(workDir, spec.Name)
	outputDir := filepath.Join(componentDir, "output")
	paramsFile := filepath.Join(componentDir, "params.yaml")

	if err := os.RemoveAll(outputDir); err != nil {
		return nil, orchestrationError("clearing output directory", err, spec.Name)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, orchestrationError("creating output directory", err, spec.Name)
	}

	params := spec.Params
	if params == nil {
		params = paramtree.Mapping()
	}
	doc, err := yaml.Marshal(renderParams{
		Component: spec.Name,
		Cluster: renderCluster{
			ID:     inv.Cluster,
			Tenant: inv.Tenant,
		},
		Parameters: params,
	})
	if err != nil {
		return nil, orchestrationError("encoding render parameters", err, spec.Name)
	}
	if err := os.WriteFile(paramsFile, doc, 0o644); err != nil {
		return nil, orchestrationError("writing render parameters", err, spec.Name)
	}

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.engine.Render(renderCtx, Input{
		Component:  spec.Name,
		SourceDir:  checkout.Dir,
		ParamsFile: paramsFile,
		OutputDir:  outputDir,
	}); err != nil {
		return nil, err
	}

	r.log.Info("component rendered",
		"component", spec.Name,
		"revision", spec.Version,
		"duration", time.Since(start))

	return &Result{
		Component: spec.Name,
		Commit:    checkout.Commit.String(),
		OutputDir: outputDir,
	}, nil
}

func orchestrationError(msg string, err error, component string) error {
	return apperrors.WrapWithContext(apperrors.ErrCodeRender, msg, err,
		map[string]any{"component": component})
}
