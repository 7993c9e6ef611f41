// Package cli implements the commodore command-line interface.
//
// # Overview
//
// The commodore CLI compiles per-cluster Kubernetes configuration catalogs
// from a hierarchical inventory. It resolves the class hierarchy for a
// cluster, fetches the pinned component revisions, renders each component
// with an external engine, and assembles the results into a deterministic
// catalog that can be pushed to a git repository or exported as an OCI
// artifact.
//
// # Commands
//
// catalog compile - Compile the catalog for one cluster:
//
//	commodore catalog compile --cluster c-prod-1 --engine kustomize --engine-arg build
//
// catalog clean - Remove the scratch directory and component cache:
//
//	commodore catalog clean --work-dir .commodore
//
// inventory show - Resolve and print the effective inventory for a cluster:
//
//	commodore inventory show --cluster c-prod-1 --inventory ./inventory
//
// inventory classes - List all classes defined in the inventory:
//
//	commodore inventory classes --inventory ./inventory
//
// # Global Flags
//
//	--log-level    Log level: debug, info, warn, error (default: info)
//	--output, -o   Output file path (default: stdout)
//	--format, -t   Output format: yaml, json, table (default: yaml)
//
// # Environment Variables
//
//	LOG_LEVEL                 Logging verbosity when --log-level is not set
//	COMMODORE_REGISTRY_TOKEN  Bearer token for the cluster registry API
//
// The CLI uses the urfave/cli/v3 framework and delegates to the compile,
// inventory, oci, and registry packages. Version information is embedded at
// build time using ldflags:
//
//	go build -ldflags="-X 'github.com/mweibel/commodore/pkg/cli.version=1.0.0'"
package cli
