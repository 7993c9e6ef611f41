/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/mweibel/commodore/pkg/defaults"
	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/gitrepo"
	"github.com/mweibel/commodore/pkg/renderer"
)

// CommitMeta describes what a catalog commit was compiled from.
type CommitMeta struct {
	Cluster string
	// Pins maps component names to "revision (commit)" descriptions.
	Pins map[string]string
}

// UpdateReport is the outcome of one catalog update.
type UpdateReport struct {
	Cluster string               `json:"cluster" yaml:"cluster"`
	Commit  string               `json:"commit,omitempty" yaml:"commit,omitempty"`
	Pushed  bool                 `json:"pushed" yaml:"pushed"`
	Diff    *gitrepo.DiffSummary `json:"diff,omitempty" yaml:"diff,omitempty"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for catalog events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithAuth sets the transport credentials used for catalog clone and push.
func WithAuth(auth transport.AuthMethod) Option {
	return func(m *Manager) {
		m.auth = auth
	}
}

// WithAuthor sets the commit author identity.
func WithAuthor(name, email string) Option {
	return func(m *Manager) {
		m.authorName = name
		m.authorEmail = email
	}
}

// WithPushRetries bounds how often a rejected push is rebuilt and retried.
func WithPushRetries(n int) Option {
	return func(m *Manager) {
		m.pushRetries = n
	}
}

// Manager owns the lifecycle of per-cluster catalog repositories.
type Manager struct {
	log         *slog.Logger
	auth        transport.AuthMethod
	authorName  string
	authorEmail string
	pushRetries int
}

// NewManager creates a catalog Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		log:         slog.Default(),
		authorName:  "Commodore",
		authorEmail: "commodore@localhost",
		pushRetries: defaults.PushRetryMax,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// open reuses an existing checkout when the work directory already holds
// one. Reused checkouts may be stale and must be synced onto the remote tip
// before any diff decision is made.
func (m *Manager) open(ctx context.Context, repoURL, dir string) (repo *gitrepo.Repository, reused bool, err error) {
	if _, statErr := os.Stat(filepath.Join(dir, ".git")); statErr == nil {
		repo, err = gitrepo.Open(dir, m.repoOptions()...)
		return repo, true, err
	}
	repo, err = gitrepo.CloneOrInit(ctx, repoURL, dir, m.repoOptions()...)
	return repo, false, err
}

func (m *Manager) repoOptions() []gitrepo.Option {
	opts := []gitrepo.Option{gitrepo.WithAuthor(m.authorName, m.authorEmail)}
	if m.auth != nil {
		opts = append(opts, gitrepo.WithAuth(m.auth))
	}
	return opts
}

// Update clones the catalog repository into dir, assembles the render
// results into it, and publishes the difference. An existing checkout in dir
// is reused and synced onto the remote tip first, so an assembly identical
// to the remote branch tip produces no commit and no push.
//
// A push rejected because the remote advanced is handled by fetching the new
// tip, rebuilding on top of it, and retrying, a bounded number of times. A
// remote tip that no longer descends from the tip we started on means the
// remote history was rewritten; that is reported as an error and never
// overwritten.
func (m *Manager) Update(ctx context.Context, repoURL, dir string, results []*renderer.Result, meta CommitMeta) (*UpdateReport, error) {
	repo, reused, err := m.open(ctx, repoURL, dir)
	if err != nil {
		return nil, err
	}

	var base plumbing.Hash
	if reused {
		// Without this the "no changes" decision below would compare the
		// assembly against a stale local tip instead of the remote branch.
		base, err = m.sync(ctx, repo, meta)
	} else {
		base, err = repo.Head()
	}
	if err != nil {
		return nil, err
	}

	report, err := m.commitAssembly(repo, results, meta)
	if err != nil {
		return nil, err
	}
	if !report.Diff.Changed() {
		m.log.Info("catalog unchanged", "cluster", meta.Cluster)
		return report, nil
	}

	for attempt := 0; ; attempt++ {
		pushCtx, cancel := context.WithTimeout(ctx, defaults.PushTimeout)
		err := repo.Push(pushCtx)
		cancel()
		if err == nil {
			report.Pushed = true
			m.log.Info("catalog pushed",
				"cluster", meta.Cluster,
				"commit", report.Commit,
				"attempt", attempt+1)
			return report, nil
		}
		if !gitrepo.IsNonFastForward(err) {
			return nil, err
		}
		if attempt >= m.pushRetries {
			return nil, apperrors.WrapWithContext(apperrors.ErrCodeCatalog,
				"catalog push retries exhausted", err, map[string]any{
					"cluster":  meta.Cluster,
					"attempts": attempt + 1,
				})
		}

		m.log.Warn("catalog push rejected, rebuilding on new remote tip",
			"cluster", meta.Cluster, "attempt", attempt+1)

		base, err = m.rebase(ctx, repo, base, meta)
		if err != nil {
			return nil, err
		}

		report, err = m.commitAssembly(repo, results, meta)
		if err != nil {
			return nil, err
		}
		if !report.Diff.Changed() {
			// The concurrent writer produced the same catalog.
			m.log.Info("catalog already up to date after rebuild", "cluster", meta.Cluster)
			return report, nil
		}
	}
}

// commitAssembly assembles the results into the working tree and commits
// when anything changed.
func (m *Manager) commitAssembly(repo *gitrepo.Repository, results []*renderer.Result, meta CommitMeta) (*UpdateReport, error) {
	if err := Assemble(repo.Dir(), results); err != nil {
		return nil, err
	}

	diff, err := repo.StageAll()
	if err != nil {
		return nil, err
	}

	report := &UpdateReport{Cluster: meta.Cluster, Diff: diff}
	if !diff.Changed() {
		return report, nil
	}

	commit, err := repo.Commit(commitMessage(meta, diff))
	if err != nil {
		return nil, err
	}
	report.Commit = commit.String()
	return report, nil
}

// sync brings a reused checkout onto the current remote tip. A remote whose
// branch has no commits yet leaves the local state untouched.
func (m *Manager) sync(ctx context.Context, repo *gitrepo.Repository, meta CommitMeta) (plumbing.Hash, error) {
	head, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}

	if err := repo.Fetch(ctx); err != nil {
		if apperrors.Is(err, transport.ErrEmptyRemoteRepository) {
			return head, nil
		}
		return plumbing.ZeroHash, err
	}

	branch, err := repo.Branch()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	tip, err := repo.RemoteHead(branch)
	if err != nil {
		if apperrors.Is(err, plumbing.ErrReferenceNotFound) {
			return head, nil
		}
		return plumbing.ZeroHash, err
	}
	if tip == head {
		return head, nil
	}
	return m.resetToTip(repo, head, tip, meta)
}

// rebase moves the working tree onto the current remote tip, guarding
// against rewritten remote history.
func (m *Manager) rebase(ctx context.Context, repo *gitrepo.Repository, base plumbing.Hash, meta CommitMeta) (plumbing.Hash, error) {
	if err := repo.Fetch(ctx); err != nil {
		return plumbing.ZeroHash, err
	}

	branch, err := repo.Branch()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	tip, err := repo.RemoteHead(branch)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return m.resetToTip(repo, base, tip, meta)
}

// resetToTip hard-resets onto tip after verifying tip descends from base. A
// tip that does not descend from base means the remote history was
// rewritten; that is never overwritten.
func (m *Manager) resetToTip(repo *gitrepo.Repository, base, tip plumbing.Hash, meta CommitMeta) (plumbing.Hash, error) {
	if base != plumbing.ZeroHash && base != tip {
		ok, err := repo.IsAncestor(base, tip)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if !ok {
			return plumbing.ZeroHash, apperrors.NewWithContext(apperrors.ErrCodeCatalog,
				"catalog remote history was rewritten, refusing to push", map[string]any{
					"cluster":   meta.Cluster,
					"base":      base.String(),
					"remoteTip": tip.String(),
				})
		}
	}

	if err := repo.ResetHard(tip); err != nil {
		return plumbing.ZeroHash, err
	}
	return tip, nil
}

// commitMessage renders a reproducible commit message: same pins and same
// diff always produce the same text.
func commitMessage(meta CommitMeta, diff *gitrepo.DiffSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Update catalog for cluster %s\n\n", meta.Cluster)

	if len(meta.Pins) > 0 {
		b.WriteString("Compiled from:\n")
		names := make([]string, 0, len(meta.Pins))
		for name := range meta.Pins {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %s\n", name, meta.Pins[name])
		}
		b.WriteString("\n")
	}

	b.WriteString("Changes:\n")
	b.WriteString(diff.String())
	b.WriteString("\n")
	return b.String()
}
