/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mweibel/commodore/pkg/compile"
	"github.com/mweibel/commodore/pkg/defaults"
	"github.com/mweibel/commodore/pkg/inventory"
	"github.com/mweibel/commodore/pkg/oci"
	"github.com/mweibel/commodore/pkg/registry"
	"github.com/mweibel/commodore/pkg/serializer"
)

const defaultWorkDir = ".commodore"

func catalogCmd() *cli.Command {
	return &cli.Command{
		Name:                  "catalog",
		EnableShellCompletion: true,
		Usage:                 "Compile and manage cluster catalogs",
		Commands: []*cli.Command{
			compileCmd(),
			cleanCmd(),
		},
	}
}

func compileCmd() *cli.Command {
	return &cli.Command{
		Name:                  "compile",
		EnableShellCompletion: true,
		Usage:                 "Compile the configuration catalog for one cluster",
		Description: `Compile the configuration catalog for a cluster:
  1. Resolve the hierarchical inventory (global, cloud, region, cluster, tenant)
  2. Fetch the pinned component revisions
  3. Render each component with the configured engine
  4. Assemble the catalog and optionally push it to the catalog repository

The cluster definition is read from the inventory checkout, or from a cluster
registry API when --registry is set.

# Examples

Compile locally without pushing:
  commodore catalog compile --cluster c-prod-1 --engine kustomize --engine-arg build

Compile and push to the cluster's catalog repository:
  commodore catalog compile -c c-prod-1 --engine kustomize --engine-arg build --push

Compile and export the catalog as an OCI artifact:
  commodore catalog compile -c c-prod-1 --engine helm \
    --export oci://ghcr.io/org/catalogs`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "cluster",
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "Cluster ID to compile (repeatable; failures are isolated per cluster)",
			},
			&cli.StringFlag{
				Name:    "inventory",
				Aliases: []string{"i"},
				Value:   ".",
				Usage:   "Path to the inventory repository checkout",
			},
			&cli.StringFlag{
				Name:  "work-dir",
				Value: defaultWorkDir,
				Usage: "Scratch directory for render output and catalog checkouts",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Component checkout cache directory (default: <work-dir>/cache)",
			},
			&cli.StringFlag{
				Name:     "engine",
				Aliases:  []string{"e"},
				Required: true,
				Usage:    "Render engine command",
			},
			&cli.StringSliceFlag{
				Name:  "engine-arg",
				Usage: "Additional render engine argument (repeatable)",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Value: defaults.ComponentConcurrency,
				Usage: "How many components are fetched and rendered in parallel",
			},
			&cli.BoolFlag{
				Name:  "push",
				Usage: "Push the assembled catalog to the cluster's catalog repository",
			},
			&cli.StringFlag{
				Name:  "catalog-url",
				Usage: "Override the catalog repository URL from the cluster definition",
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "Cluster registry API base URL; when set, the cluster definition is fetched from the registry instead of the inventory",
			},
			&cli.StringFlag{
				Name:    "registry-token",
				Usage:   "Bearer token for the cluster registry API",
				Sources: cli.EnvVars("COMMODORE_REGISTRY_TOKEN"),
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "Export the assembled catalog as an OCI artifact (oci://registry/repository[:tag], tag defaults to the cluster ID)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP instead of HTTPS for the OCI registry connection",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "Skip TLS certificate verification for the OCI registry connection",
			},
			outputFlag,
			formatFlag,
		},
		Action: runCompile,
	}
}

func runCompile(ctx context.Context, cmd *cli.Command) error {
	outFormat, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}

	exportTarget, err := parseExportTarget(cmd)
	if err != nil {
		return err
	}

	runner, err := compile.NewRunner(
		compile.WithInventoryDir(cmd.String("inventory")),
		compile.WithWorkDir(cmd.String("work-dir")),
		compile.WithCacheDir(cmd.String("cache-dir")),
		compile.WithEngine(cmd.String("engine"), cmd.StringSlice("engine-arg")...),
		compile.WithConcurrency(int(cmd.Int("concurrency"))),
		compile.WithPush(cmd.Bool("push")),
		compile.WithCatalogURL(cmd.String("catalog-url")),
	)
	if err != nil {
		return err
	}

	clusterIDs := cmd.StringSlice("cluster")

	if len(clusterIDs) > 1 {
		if cmd.String("registry") != "" {
			return fmt.Errorf("--registry supports compiling a single cluster")
		}
		if exportTarget != nil {
			return fmt.Errorf("--export supports compiling a single cluster")
		}
		return runCompileBatch(ctx, cmd, runner, outFormat, clusterIDs)
	}

	clusterID := clusterIDs[0]

	var report *compile.Report
	if regURL := cmd.String("registry"); regURL != "" {
		var cluster *inventory.Cluster
		cluster, err = fetchClusterFromRegistry(ctx, regURL, cmd.String("registry-token"), clusterID)
		if err != nil {
			return err
		}
		report, err = runner.Compile(ctx, cluster)
	} else {
		report, err = runner.CompileID(ctx, clusterID)
	}
	if err != nil {
		return err
	}

	if exportTarget != nil {
		if err := exportCatalog(ctx, cmd, exportTarget, report); err != nil {
			return err
		}
	}

	return serializeResult(ctx, cmd, outFormat, report)
}

// runCompileBatch compiles several clusters with isolated failures and
// reports the per-cluster outcomes. The command fails if any cluster failed.
func runCompileBatch(ctx context.Context, cmd *cli.Command, runner *compile.Runner, outFormat serializer.Format, clusterIDs []string) error {
	results := runner.CompileBatch(ctx, clusterIDs)

	if err := serializeResult(ctx, cmd, outFormat, results); err != nil {
		return err
	}

	var failed []string
	for _, res := range results {
		if res.Failed() {
			failed = append(failed, res.Cluster)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("compilation failed for clusters: %v", failed)
	}
	return nil
}

func serializeResult(ctx context.Context, cmd *cli.Command, outFormat serializer.Format, data any) error {
	ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
	defer func() {
		if err := ser.Close(); err != nil {
			slog.Warn("failed to close serializer", "error", err)
		}
	}()
	return ser.Serialize(ctx, data)
}

// parseExportTarget validates the --export flag. Only OCI targets are
// supported; a local catalog already lands under the work directory.
func parseExportTarget(cmd *cli.Command) (*oci.Reference, error) {
	target := cmd.String("export")
	if target == "" {
		return nil, nil
	}
	if cmd.Bool("push") {
		return nil, fmt.Errorf("--export requires a locally assembled catalog and cannot be combined with --push")
	}

	ref, err := oci.ParseOutputTarget(target)
	if err != nil {
		return nil, err
	}
	if !ref.IsOCI {
		return nil, fmt.Errorf("--export target must be an OCI reference (oci://registry/repository[:tag]), got %q", target)
	}
	return ref, nil
}

func exportCatalog(ctx context.Context, cmd *cli.Command, ref *oci.Reference, report *compile.Report) error {
	if ref.Tag == "" {
		ref = ref.WithTag(report.Cluster)
	}

	res, err := oci.Push(ctx, oci.PushOptions{
		CatalogDir:  report.CatalogDir,
		Reference:   ref,
		Cluster:     report.Cluster,
		PlainHTTP:   cmd.Bool("plain-http"),
		InsecureTLS: cmd.Bool("insecure-tls"),
	})
	if err != nil {
		return err
	}

	slog.Info("catalog exported",
		"cluster", report.Cluster,
		"reference", res.Reference,
		"digest", res.Digest)
	return nil
}

func fetchClusterFromRegistry(ctx context.Context, baseURL, token, clusterID string) (*inventory.Cluster, error) {
	var opts []registry.Option
	if token != "" {
		opts = append(opts, registry.WithToken(token))
	}
	client, err := registry.NewClient(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return client.GetCluster(ctx, clusterID)
}

func cleanCmd() *cli.Command {
	return &cli.Command{
		Name:                  "clean",
		EnableShellCompletion: true,
		Usage:                 "Remove the scratch directory and component cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "work-dir",
				Value: defaultWorkDir,
				Usage: "Scratch directory to remove",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Component checkout cache directory to remove (default: <work-dir>/cache)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, dir := range []string{cmd.String("work-dir"), cmd.String("cache-dir")} {
				if dir == "" {
					continue
				}
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("failed to remove %s: %w", dir, err)
				}
				slog.Info("removed", "dir", dir)
			}
			return nil
		},
	}
}
