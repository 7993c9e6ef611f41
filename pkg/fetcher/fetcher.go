/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"golang.org/x/sync/singleflight"

	"github.com/mweibel/commodore/pkg/defaults"
	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/gitrepo"
	"github.com/mweibel/commodore/pkg/inventory"
)

// Checkout is a component source pinned to a concrete commit, materialized
// on disk.
type Checkout struct {
	Name     string
	URL      string
	Revision string
	Dir      string
	Commit   plumbing.Hash
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for retry and cache events.
func WithLogger(log *slog.Logger) Option {
	return func(f *Fetcher) {
		f.log = log
	}
}

// WithAuth sets the transport credentials used for all component fetches.
func WithAuth(auth transport.AuthMethod) Option {
	return func(f *Fetcher) {
		f.auth = auth
	}
}

// WithRetry overrides the retry budget for transient fetch failures.
func WithRetry(maxRetries uint64, initial, max time.Duration) Option {
	return func(f *Fetcher) {
		f.maxRetries = maxRetries
		f.initialInterval = initial
		f.maxInterval = max
	}
}

// WithTimeout bounds one component fetch, retries included.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// Fetcher caches component checkouts under a root directory.
type Fetcher struct {
	root string
	log  *slog.Logger
	auth transport.AuthMethod

	timeout         time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]*Checkout

	// materialize is swapped in tests to count git operations.
	materialize func(ctx context.Context, spec inventory.ComponentSpec, dir string) (*Checkout, error)
}

// New creates a Fetcher storing checkouts under root.
func New(root string, opts ...Option) *Fetcher {
	f := &Fetcher{
		root:            root,
		log:             slog.Default(),
		timeout:         defaults.FetchTimeout,
		maxRetries:      defaults.FetchRetryMax,
		initialInterval: defaults.RetryInitialInterval,
		maxInterval:     defaults.RetryMaxInterval,
		cache:           map[string]*Checkout{},
	}
	f.materialize = f.gitMaterialize
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a checkout of the component at its pinned revision. Repeated
// and concurrent calls for the same (name, revision) pair share one checkout.
func (f *Fetcher) Fetch(ctx context.Context, spec inventory.ComponentSpec) (*Checkout, error) {
	key := cacheKey(spec)

	f.mu.Lock()
	if c, ok := f.cache[key]; ok {
		f.mu.Unlock()
		return c, nil
	}
	f.mu.Unlock()

	v, err, shared := f.group.Do(key, func() (any, error) {
		// Re-check under the group: another flight may have completed
		// between the cache miss and this call.
		f.mu.Lock()
		c, ok := f.cache[key]
		f.mu.Unlock()
		if ok {
			return c, nil
		}

		c, err := f.fetchWithRetry(ctx, spec)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.cache[key] = c
		f.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.log.Debug("checkout shared between concurrent fetches",
			"component", spec.Name, "revision", spec.Version)
	}
	return v.(*Checkout), nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, spec inventory.ComponentSpec) (*Checkout, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	dir := f.checkoutDir(spec)

	var result *Checkout
	op := func() error {
		c, err := f.materialize(ctx, spec, dir)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = c
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.initialInterval
	expo.MaxInterval = f.maxInterval
	policy := backoff.WithMaxRetries(backoff.WithContext(expo, ctx), f.maxRetries)

	notify := func(err error, wait time.Duration) {
		f.log.Warn("component fetch failed, retrying",
			"component", spec.Name,
			"revision", spec.Version,
			"wait", wait,
			"error", err)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"fetching component", err, map[string]any{
				"component": spec.Name,
				"url":       spec.URL,
				"revision":  spec.Version,
			})
	}

	f.log.Info("component fetched",
		"component", spec.Name,
		"revision", spec.Version,
		"commit", result.Commit.String(),
		"dir", result.Dir)
	return result, nil
}

func (f *Fetcher) gitMaterialize(ctx context.Context, spec inventory.ComponentSpec, dir string) (*Checkout, error) {
	var opts []gitrepo.Option
	if f.auth != nil {
		opts = append(opts, gitrepo.WithAuth(f.auth))
	}

	repo, err := gitrepo.CloneOrOpen(ctx, spec.URL, dir, opts...)
	if err != nil {
		return nil, err
	}
	if err := repo.Fetch(ctx); err != nil {
		return nil, err
	}
	commit, err := repo.Checkout(ctx, spec.Version)
	if err != nil {
		return nil, err
	}

	return &Checkout{
		Name:     spec.Name,
		URL:      spec.URL,
		Revision: spec.Version,
		Dir:      dir,
		Commit:   commit,
	}, nil
}

// checkoutDir maps a pin to its cache directory. The revision is part of the
// path so different pins of the same component never share a working tree.
func (f *Fetcher) checkoutDir(spec inventory.ComponentSpec) string {
	return filepath.Join(f.root, spec.Name, sanitize(spec.Version))
}

func cacheKey(spec inventory.ComponentSpec) string {
	return fmt.Sprintf("%s@%s", spec.Name, spec.Version)
}

func sanitize(revision string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, revision)
}

// isPermanent reports whether retrying the fetch cannot succeed.
func isPermanent(err error) bool {
	return gitrepo.IsAuthError(err) || apperrors.Is(err, gitrepo.ErrRevisionNotFound)
}
