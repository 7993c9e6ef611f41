/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"context"
	stderrors "errors"
	"os"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	apperrors "github.com/mweibel/commodore/pkg/errors"
)

const remoteName = "origin"

// ErrRevisionNotFound indicates the requested revision matched no remote
// branch, tag, or commit. It is not transient: retrying cannot succeed.
var ErrRevisionNotFound = stderrors.New("revision not found")

// Option configures a Repository handle.
type Option func(*options)

type options struct {
	auth        transport.AuthMethod
	authorName  string
	authorEmail string
}

// WithAuth sets the transport credentials used for fetch and push.
func WithAuth(auth transport.AuthMethod) Option {
	return func(o *options) {
		o.auth = auth
	}
}

// WithAuthor sets the commit author and committer identity.
func WithAuthor(name, email string) Option {
	return func(o *options) {
		o.authorName = name
		o.authorEmail = email
	}
}

func defaultOptions() *options {
	return &options{
		authorName:  "Commodore",
		authorEmail: "commodore@localhost",
	}
}

// Repository is a local checkout of a remote git repository.
type Repository struct {
	repo *git.Repository
	dir  string
	url  string
	opts *options
}

// Clone clones url into dir and returns a handle on the checkout.
func Clone(ctx context.Context, url, dir string, opts ...Option) (*Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        url,
		RemoteName: remoteName,
		Auth:       o.auth,
		Tags:       git.AllTags,
	})
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"cloning repository", err, map[string]any{"url": url})
	}
	return &Repository{repo: repo, dir: dir, url: url, opts: o}, nil
}

// CloneOrInit clones url into dir, initializing a fresh repository with the
// remote configured when the remote exists but has no commits yet. Catalog
// repositories are provisioned empty and receive their first commit from us.
func CloneOrInit(ctx context.Context, url, dir string, opts ...Option) (*Repository, error) {
	r, err := Clone(ctx, url, dir, opts...)
	if err == nil {
		return r, nil
	}
	if !apperrors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, initErr := git.PlainInit(dir, false)
	if initErr != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"initializing repository", initErr, map[string]any{"url": url})
	}
	if _, remoteErr := repo.CreateRemote(&config.RemoteConfig{
		Name: remoteName,
		URLs: []string{url},
	}); remoteErr != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"configuring remote", remoteErr, map[string]any{"url": url})
	}
	return &Repository{repo: repo, dir: dir, url: url, opts: o}, nil
}

// Open opens an existing checkout created by a previous Clone.
func Open(dir string, opts ...Option) (*Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"opening repository", err, map[string]any{"dir": dir})
	}

	url := ""
	if remote, err := repo.Remote(remoteName); err == nil && len(remote.Config().URLs) > 0 {
		url = remote.Config().URLs[0]
	}
	return &Repository{repo: repo, dir: dir, url: url, opts: o}, nil
}

// CloneOrOpen opens dir when it already holds a checkout and clones
// otherwise.
func CloneOrOpen(ctx context.Context, url, dir string, opts ...Option) (*Repository, error) {
	if _, err := os.Stat(dir); err == nil {
		if r, err := Open(dir, opts...); err == nil {
			return r, nil
		}
	}
	return Clone(ctx, url, dir, opts...)
}

// Dir returns the working tree directory.
func (r *Repository) Dir() string {
	return r.dir
}

// URL returns the configured remote URL.
func (r *Repository) URL() string {
	return r.url
}

// Fetch updates remote refs and tags, pruning deleted ones.
func (r *Repository) Fetch(ctx context.Context) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       r.opts.auth,
		Prune:      true,
		Tags:       git.AllTags,
		Force:      true,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"fetching repository", err, map[string]any{"url": r.url})
	}
	return nil
}

// Checkout resets the working tree to the given revision. Revisions are
// resolved against remote branches first, then tags, then raw commit shas,
// mirroring the checkout behavior of git itself. An empty revision keeps the
// current HEAD.
func (r *Repository) Checkout(ctx context.Context, revision string) (plumbing.Hash, error) {
	hash, err := r.resolveRevision(revision)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, apperrors.Wrap(apperrors.ErrCodeFetch, "opening worktree", err)
	}
	if err := ctx.Err(); err != nil {
		return plumbing.ZeroHash, apperrors.Wrap(apperrors.ErrCodeFetch, "checkout canceled", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return plumbing.ZeroHash, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"checking out revision", err, map[string]any{
				"url":      r.url,
				"revision": revision,
			})
	}
	return hash, nil
}

func (r *Repository) resolveRevision(revision string) (plumbing.Hash, error) {
	if revision == "" {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, apperrors.Wrap(apperrors.ErrCodeFetch, "resolving HEAD", err)
		}
		return head.Hash(), nil
	}

	names := []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName(remoteName, revision),
		plumbing.NewTagReferenceName(revision),
		plumbing.NewBranchReferenceName(revision),
	}
	for _, name := range names {
		ref, err := r.repo.Reference(name, true)
		if err != nil {
			continue
		}
		return r.peel(ref.Hash())
	}

	if hash, err := r.repo.ResolveRevision(plumbing.Revision(revision)); err == nil {
		return r.peel(*hash)
	}

	return plumbing.ZeroHash, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
		"resolving revision", ErrRevisionNotFound, map[string]any{
			"url":      r.url,
			"revision": revision,
		})
}

// peel resolves annotated tags to the commit they point at.
func (r *Repository) peel(hash plumbing.Hash) (plumbing.Hash, error) {
	if tag, err := r.repo.TagObject(hash); err == nil {
		return tag.Target, nil
	}
	return hash, nil
}

// Head returns the commit the working tree is currently at.
func (r *Repository) Head() (plumbing.Hash, error) {
	head, err := r.repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn HEAD: freshly initialized repository.
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, apperrors.Wrap(apperrors.ErrCodeFetch, "resolving HEAD", err)
	}
	return head.Hash(), nil
}

// RemoteHead returns the remote tip of the given branch as of the last
// Fetch.
func (r *Repository) RemoteHead(branch string) (plumbing.Hash, error) {
	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err != nil {
		return plumbing.ZeroHash, apperrors.WrapWithContext(apperrors.ErrCodeFetch,
			"resolving remote branch", err, map[string]any{
				"url":    r.url,
				"branch": branch,
			})
	}
	return ref.Hash(), nil
}

// Branch returns the short name of the branch HEAD points at.
func (r *Repository) Branch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			// Unborn HEAD still carries the symbolic target branch.
			if ref, err := r.repo.Storer.Reference(plumbing.HEAD); err == nil {
				return ref.Target().Short(), nil
			}
		}
		return "", apperrors.Wrap(apperrors.ErrCodeFetch, "resolving HEAD", err)
	}
	if !head.Name().IsBranch() {
		return "", apperrors.New(apperrors.ErrCodeFetch, "HEAD is detached")
	}
	return head.Name().Short(), nil
}

// StageAll stages every change in the working tree, deletions included, and
// returns a summary of what changed relative to HEAD.
func (r *Repository) StageAll() (*DiffSummary, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeCatalog, "opening worktree", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeCatalog, "reading worktree status", err)
	}
	summary := summarize(status)

	if summary.Changed() {
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeCatalog, "staging changes", err)
		}
	}
	return summary, nil
}

// Commit records the staged index as a new commit and returns its hash.
func (r *Repository) Commit(message string) (plumbing.Hash, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, apperrors.Wrap(apperrors.ErrCodeCatalog, "opening worktree", err)
	}

	sig := &object.Signature{
		Name:  r.opts.authorName,
		Email: r.opts.authorEmail,
		When:  time.Now(),
	}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return plumbing.ZeroHash, apperrors.Wrap(apperrors.ErrCodeCatalog, "committing changes", err)
	}
	return hash, nil
}

// Push publishes local branches to the remote. Already-up-to-date is not an
// error. A rejected non-fast-forward push is reported as-is so callers can
// fetch, rebuild, and retry.
func (r *Repository) Push(ctx context.Context) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		Auth:       r.opts.auth,
	})
	if err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return apperrors.WrapWithContext(apperrors.ErrCodeCatalog,
			"pushing repository", err, map[string]any{"url": r.url})
	}
	return nil
}

// ResetHard moves HEAD's branch to the given commit and resets the working
// tree to match.
func (r *Repository) ResetHard(hash plumbing.Hash) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCatalog, "opening worktree", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: hash, Mode: git.HardReset}); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeCatalog,
			"resetting repository", err, map[string]any{"commit": hash.String()})
	}
	return nil
}

// IsAncestor reports whether ancestor is reachable from descendant. A remote
// tip that is no longer a descendant of the commit we compiled against means
// the remote history was rewritten.
func (r *Repository) IsAncestor(ancestor, descendant plumbing.Hash) (bool, error) {
	older, err := object.GetCommit(r.repo.Storer, ancestor)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeCatalog, "reading commit", err)
	}
	newer, err := object.GetCommit(r.repo.Storer, descendant)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeCatalog, "reading commit", err)
	}
	ok, err := older.IsAncestor(newer)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeCatalog, "walking history", err)
	}
	return ok, nil
}

// IsNonFastForward reports whether the error is a rejected non-fast-forward
// push.
func IsNonFastForward(err error) bool {
	return err != nil && strings.Contains(err.Error(), "non-fast-forward")
}

// IsAuthError reports whether the error is an authentication or
// authorization failure. Auth failures are permanent: retrying with the same
// credentials cannot succeed.
func IsAuthError(err error) bool {
	return apperrors.Is(err, transport.ErrAuthenticationRequired) ||
		apperrors.Is(err, transport.ErrAuthorizationFailed)
}
