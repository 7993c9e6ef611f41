/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package compile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mweibel/commodore/pkg/catalog"
	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/fetcher"
	"github.com/mweibel/commodore/pkg/inventory"
	"github.com/mweibel/commodore/pkg/renderer"
)

// ComponentFetcher materializes component checkouts.
type ComponentFetcher interface {
	Fetch(ctx context.Context, spec inventory.ComponentSpec) (*fetcher.Checkout, error)
}

// ComponentRenderer renders one component checkout.
type ComponentRenderer interface {
	Render(ctx context.Context, inv *inventory.ResolvedInventory, spec inventory.ComponentSpec, checkout *fetcher.Checkout, workDir string) (*renderer.Result, error)
}

// CatalogUpdater publishes assembled catalogs.
type CatalogUpdater interface {
	Update(ctx context.Context, repoURL, dir string, results []*renderer.Result, meta catalog.CommitMeta) (*catalog.UpdateReport, error)
}

// ComponentReport records the pin one component was compiled from.
type ComponentReport struct {
	Name     string `json:"name" yaml:"name"`
	Revision string `json:"revision" yaml:"revision"`
	Commit   string `json:"commit" yaml:"commit"`
}

// Report is the outcome of compiling one cluster.
type Report struct {
	// ID uniquely identifies this compile run in logs and reports.
	ID         string                `json:"id" yaml:"id"`
	Cluster    string                `json:"cluster" yaml:"cluster"`
	Tenant     string                `json:"tenant" yaml:"tenant"`
	Components []ComponentReport     `json:"components" yaml:"components"`
	Catalog    *catalog.UpdateReport `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	CatalogDir string                `json:"catalogDir,omitempty" yaml:"catalogDir,omitempty"`
	Duration   time.Duration         `json:"duration" yaml:"duration"`
}

// Runner executes catalog compilations.
type Runner struct {
	cfg     *Config
	log     *slog.Logger
	fetch   ComponentFetcher
	render  ComponentRenderer
	catalog CatalogUpdater
}

// NewRunner creates a Runner wired with the real pipeline stages.
func NewRunner(opts ...Option) (*Runner, error) {
	cfg := newConfig(opts...)
	if cfg.WorkDir == "" {
		return nil, apperrors.New(apperrors.ErrCodeConfig, "work directory is required")
	}
	if cfg.Engine == "" {
		return nil, apperrors.New(apperrors.ErrCodeConfig, "render engine command is required")
	}

	f := fetcher.New(cfg.CacheDir, fetcher.WithLogger(cfg.Logger))
	r := renderer.New(renderer.NewExecEngine(cfg.Engine, cfg.EngineArgs...),
		renderer.WithLogger(cfg.Logger))
	c := catalog.NewManager(
		catalog.WithLogger(cfg.Logger),
		catalog.WithAuthor(cfg.AuthorName, cfg.AuthorEmail))

	return newRunner(cfg, f, r, c), nil
}

func newRunner(cfg *Config, f ComponentFetcher, r ComponentRenderer, c CatalogUpdater) *Runner {
	return &Runner{
		cfg:     cfg,
		log:     cfg.Logger,
		fetch:   f,
		render:  r,
		catalog: c,
	}
}

// CompileID loads the cluster definition from the inventory and compiles it.
func (r *Runner) CompileID(ctx context.Context, clusterID string) (*Report, error) {
	cluster, err := r.loadCluster(clusterID)
	if err != nil {
		return nil, err
	}
	return r.Compile(ctx, cluster)
}

// Compile runs the full pipeline for one cluster.
func (r *Runner) Compile(ctx context.Context, cluster *inventory.Cluster) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	report, err := r.compile(ctx, runID, cluster)
	if err != nil {
		compileErrors.Inc()
		return nil, err
	}
	report.Duration = time.Since(start)
	compileDuration.Observe(report.Duration.Seconds())
	return report, nil
}

// BatchResult is the outcome of one cluster in a batch compile.
type BatchResult struct {
	Cluster string  `json:"cluster" yaml:"cluster"`
	Report  *Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the cluster's compilation failed.
func (b *BatchResult) Failed() bool {
	return b.Error != ""
}

// CompileBatch compiles several clusters concurrently. Failures are
// isolated: one cluster's error is recorded in its BatchResult and does not
// abort the other clusters. Clusters in a batch share the component cache,
// so a component pinned to the same revision by several clusters is fetched
// once.
func (r *Runner) CompileBatch(ctx context.Context, clusterIDs []string) []BatchResult {
	results := make([]BatchResult, len(clusterIDs))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for i, id := range clusterIDs {
		g.Go(func() error {
			results[i].Cluster = id
			report, err := r.CompileID(ctx, id)
			if err != nil {
				r.log.Error("cluster compilation failed", "cluster", id, "error", err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = report
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) compile(ctx context.Context, runID string, cluster *inventory.Cluster) (*Report, error) {
	r.log.Info("compiling catalog", "run", runID, "cluster", cluster.ID, "tenant", cluster.Tenant)

	set, err := inventory.LoadClassSet(filepath.Join(r.cfg.InventoryDir, "classes"))
	if err != nil {
		return nil, err
	}
	resolved, err := inventory.Resolve(cluster, set)
	if err != nil {
		return nil, err
	}

	results, components, err := r.renderComponents(ctx, resolved)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:         runID,
		Cluster:    cluster.ID,
		Tenant:     cluster.Tenant,
		Components: components,
	}

	catalogURL := r.cfg.CatalogURL
	if catalogURL == "" {
		catalogURL = cluster.CatalogRepo
	}

	if r.cfg.Push && catalogURL != "" {
		meta := catalog.CommitMeta{Cluster: cluster.ID, Pins: pins(components)}
		update, err := r.catalog.Update(ctx, catalogURL, r.catalogDir(cluster.ID), results, meta)
		if err != nil {
			return nil, err
		}
		report.Catalog = update
		if update.Pushed {
			catalogPushes.Inc()
		} else {
			catalogNoops.Inc()
		}
		return report, nil
	}

	// Local mode: assemble without touching any remote.
	dir := r.catalogDir(cluster.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeCatalog, "creating catalog directory", err)
	}
	if err := catalog.Assemble(dir, results); err != nil {
		return nil, err
	}
	report.CatalogDir = dir
	r.log.Info("catalog assembled locally", "cluster", cluster.ID, "dir", dir)
	return report, nil
}

// renderComponents fetches and renders every activated component with
// bounded concurrency. Results keep the activation order of the inventory.
func (r *Runner) renderComponents(ctx context.Context, resolved *inventory.ResolvedInventory) ([]*renderer.Result, []ComponentReport, error) {
	results := make([]*renderer.Result, len(resolved.Components))
	reports := make([]ComponentReport, len(resolved.Components))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for i, spec := range resolved.Components {
		g.Go(func() error {
			checkout, err := r.fetch.Fetch(gctx, spec)
			if err != nil {
				return err
			}

			renderStart := time.Now()
			result, err := r.render.Render(gctx, resolved, spec, checkout, r.renderDir(resolved.Cluster))
			if err != nil {
				return err
			}
			componentRenderDuration.Observe(time.Since(renderStart).Seconds())

			results[i] = result
			reports[i] = ComponentReport{
				Name:     spec.Name,
				Revision: spec.Version,
				Commit:   checkout.Commit.String(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, reports, nil
}

func (r *Runner) loadCluster(clusterID string) (*inventory.Cluster, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		path := filepath.Join(r.cfg.InventoryDir, "clusters", clusterID+ext)
		if _, err := os.Stat(path); err == nil {
			return inventory.LoadCluster(path)
		}
	}
	return nil, apperrors.NewWithContext(apperrors.ErrCodeNotFound,
		"cluster definition not found", map[string]any{"cluster": clusterID})
}

func (r *Runner) renderDir(clusterID string) string {
	return filepath.Join(r.cfg.WorkDir, "render", clusterID)
}

func (r *Runner) catalogDir(clusterID string) string {
	return filepath.Join(r.cfg.WorkDir, "catalog", clusterID)
}

// Clean removes the runner's scratch space and component cache.
func (r *Runner) Clean() error {
	for _, dir := range []string{r.cfg.WorkDir, r.cfg.CacheDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return apperrors.WrapWithContext(apperrors.ErrCodeInternal,
				"removing directory", err, map[string]any{"dir": dir})
		}
	}
	return nil
}

// pins renders component reports as commit message pin descriptions.
func pins(components []ComponentReport) map[string]string {
	out := make(map[string]string, len(components))
	for _, c := range components {
		short := c.Commit
		if len(short) > 7 {
			short = short[:7]
		}
		out[c.Name] = fmt.Sprintf("%s (%s)", c.Revision, short)
	}
	return out
}
