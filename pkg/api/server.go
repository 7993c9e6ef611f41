/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/
package api

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mweibel/commodore/pkg/compile"
	"github.com/mweibel/commodore/pkg/logging"
	"github.com/mweibel/commodore/pkg/server"
)

const (
	name           = "commodored"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/mweibel/commodore/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve starts the compile API daemon and blocks until shutdown. The
// pipeline is configured through environment variables:
//
//	INVENTORY_DIR    inventory repository checkout (required)
//	WORK_DIR         scratch directory (required)
//	CACHE_DIR        component cache (default: WORK_DIR/cache)
//	ENGINE           render engine command (required)
//	ENGINE_ARGS      space-separated engine arguments
//	CONCURRENCY      parallel component bound
//	CATALOG_PUSH     push compiled catalogs ("false" disables)
//	CATALOG_URL      override catalog repository URL
//	GIT_AUTHOR_NAME  catalog commit author name
//	GIT_AUTHOR_EMAIL catalog commit author email
func Serve() error {
	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	runner, err := compile.NewRunner(runnerOptions()...)
	if err != nil {
		slog.Error("invalid daemon configuration", "error", err)
		return err
	}

	cfg := server.NewConfig()
	cfg.Version = version

	if err := server.Run(cfg, runner); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

func runnerOptions() []compile.Option {
	opts := []compile.Option{
		compile.WithInventoryDir(os.Getenv("INVENTORY_DIR")),
		compile.WithWorkDir(os.Getenv("WORK_DIR")),
		compile.WithCacheDir(os.Getenv("CACHE_DIR")),
		compile.WithEngine(os.Getenv("ENGINE"), strings.Fields(os.Getenv("ENGINE_ARGS"))...),
		compile.WithCatalogURL(os.Getenv("CATALOG_URL")),
		// the daemon pushes by default, unlike the CLI
		compile.WithPush(os.Getenv("CATALOG_PUSH") != "false"),
	}

	if n, err := strconv.Atoi(os.Getenv("CONCURRENCY")); err == nil && n > 0 {
		opts = append(opts, compile.WithConcurrency(n))
	}
	authorName := os.Getenv("GIT_AUTHOR_NAME")
	authorEmail := os.Getenv("GIT_AUTHOR_EMAIL")
	if authorName != "" && authorEmail != "" {
		opts = append(opts, compile.WithAuthor(authorName, authorEmail))
	}
	return opts
}
