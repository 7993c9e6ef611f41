/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/mweibel/commodore/pkg/inventory"
	"github.com/mweibel/commodore/pkg/serializer"
)

func inventoryCmd() *cli.Command {
	return &cli.Command{
		Name:                  "inventory",
		EnableShellCompletion: true,
		Usage:                 "Inspect the hierarchical configuration inventory",
		Commands: []*cli.Command{
			inventoryShowCmd(),
			inventoryClassesCmd(),
		},
	}
}

func inventoryShowCmd() *cli.Command {
	return &cli.Command{
		Name:                  "show",
		EnableShellCompletion: true,
		Usage:                 "Resolve and print the effective inventory for one cluster",
		Description: `Resolve the class hierarchy for a cluster and print the effective
inventory: activated applications, component pins, and merged parameters.

This runs the same resolution as 'catalog compile' but stops before any
component is fetched or rendered, so it is safe to run anywhere.

# Examples

Show the resolved inventory for a cluster:
  commodore inventory show --cluster c-prod-1 --inventory ./inventory

Print merged parameters as JSON:
  commodore inventory show -c c-prod-1 -t json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "cluster",
				Aliases:  []string{"c"},
				Required: true,
				Usage:    "Cluster ID to resolve",
			},
			&cli.StringFlag{
				Name:    "inventory",
				Aliases: []string{"i"},
				Value:   ".",
				Usage:   "Path to the inventory repository checkout",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			inventoryDir := cmd.String("inventory")
			cluster, err := loadClusterFromInventory(inventoryDir, cmd.String("cluster"))
			if err != nil {
				return err
			}

			set, err := inventory.LoadClassSet(filepath.Join(inventoryDir, "classes"))
			if err != nil {
				return err
			}

			resolved, err := inventory.Resolve(cluster, set)
			if err != nil {
				return err
			}

			ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", "error", err)
				}
			}()

			return ser.Serialize(ctx, resolved)
		},
	}
}

func inventoryClassesCmd() *cli.Command {
	return &cli.Command{
		Name:                  "classes",
		EnableShellCompletion: true,
		Usage:                 "List all classes defined in the inventory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "inventory",
				Aliases: []string{"i"},
				Value:   ".",
				Usage:   "Path to the inventory repository checkout",
			},
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat, err := parseOutputFormat(cmd)
			if err != nil {
				return err
			}

			set, err := inventory.LoadClassSet(filepath.Join(cmd.String("inventory"), "classes"))
			if err != nil {
				return err
			}

			refs := make([]string, 0, set.Len())
			for _, level := range inventory.Levels {
				for _, name := range set.Names(level) {
					refs = append(refs, fmt.Sprintf("%s/%s", level, name))
				}
			}

			ser := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer func() {
				if err := ser.Close(); err != nil {
					slog.Warn("failed to close serializer", "error", err)
				}
			}()

			return ser.Serialize(ctx, refs)
		},
	}
}
