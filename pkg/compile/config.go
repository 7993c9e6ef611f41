/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package compile

import (
	"log/slog"
	"path/filepath"

	"github.com/mweibel/commodore/pkg/defaults"
)

// Config controls a compilation Runner.
type Config struct {
	// InventoryDir is the root of the inventory repository checkout. It
	// holds classes/, clusters/ and tenants/.
	InventoryDir string

	// WorkDir is the scratch space for render output and catalog
	// checkouts.
	WorkDir string

	// CacheDir holds cached component checkouts. Defaults to
	// WorkDir/cache.
	CacheDir string

	// Engine is the render engine command, with optional arguments.
	Engine     string
	EngineArgs []string

	// Concurrency bounds how many components are fetched and rendered in
	// parallel.
	Concurrency int

	// Push publishes the assembled catalog to the cluster's catalog
	// repository. When false the catalog is only assembled under WorkDir.
	Push bool

	// CatalogURL overrides the catalog repository URL from the cluster
	// definition.
	CatalogURL string

	// Author identity for catalog commits.
	AuthorName  string
	AuthorEmail string

	Logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Config)

// WithInventoryDir sets the inventory repository checkout location.
func WithInventoryDir(dir string) Option {
	return func(c *Config) {
		c.InventoryDir = dir
	}
}

// WithWorkDir sets the scratch directory.
func WithWorkDir(dir string) Option {
	return func(c *Config) {
		c.WorkDir = dir
	}
}

// WithCacheDir sets the component checkout cache directory.
func WithCacheDir(dir string) Option {
	return func(c *Config) {
		c.CacheDir = dir
	}
}

// WithEngine sets the render engine command.
func WithEngine(command string, args ...string) Option {
	return func(c *Config) {
		c.Engine = command
		c.EngineArgs = args
	}
}

// WithConcurrency bounds parallel component processing.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithPush enables publishing the catalog.
func WithPush(push bool) Option {
	return func(c *Config) {
		c.Push = push
	}
}

// WithCatalogURL overrides the catalog repository URL.
func WithCatalogURL(url string) Option {
	return func(c *Config) {
		c.CatalogURL = url
	}
}

// WithAuthor sets the catalog commit author identity.
func WithAuthor(name, email string) Option {
	return func(c *Config) {
		c.AuthorName = name
		c.AuthorEmail = email
	}
}

// WithLogger sets the logger for the whole pipeline.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		Concurrency: defaults.ComponentConcurrency,
		AuthorName:  "Commodore",
		AuthorEmail: "commodore@localhost",
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.CacheDir == "" && cfg.WorkDir != "" {
		cfg.CacheDir = filepath.Join(cfg.WorkDir, "cache")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}
