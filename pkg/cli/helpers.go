/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/inventory"
	"github.com/mweibel/commodore/pkg/serializer"
)

// parseOutputFormat reads and validates the --format flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	format := serializer.Format(cmd.String("format"))
	if format.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q (supported values: %v)",
			format, serializer.SupportedFormats())
	}
	return format, nil
}

// findClusterFile locates the cluster definition file in the inventory.
func findClusterFile(inventoryDir, clusterID string) (string, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		path := filepath.Join(inventoryDir, "clusters", clusterID+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", apperrors.NewWithContext(apperrors.ErrCodeNotFound,
		"cluster definition not found", map[string]any{"cluster": clusterID})
}

// loadClusterFromInventory reads one cluster definition from the inventory
// checkout.
func loadClusterFromInventory(inventoryDir, clusterID string) (*inventory.Cluster, error) {
	path, err := findClusterFile(inventoryDir, clusterID)
	if err != nil {
		return nil, err
	}
	return inventory.LoadCluster(path)
}
