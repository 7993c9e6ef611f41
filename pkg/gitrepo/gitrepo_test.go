/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignature() *object.Signature {
	return &object.Signature{
		Name:  "seed",
		Email: "seed@example.com",
		When:  time.Now(),
	}
}

// seedRemote creates a bare repository with one commit on master containing
// the given files, plus an annotated tag v1.0.0 on that commit. It returns
// the remote path and the tip hash.
func seedRemote(t *testing.T, files map[string]string) (string, plumbing.Hash) {
	t.Helper()

	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	seedDir := t.TempDir()
	repo, err := git.PlainInit(seedDir, false)
	require.NoError(t, err)

	hash := commitFiles(t, repo, seedDir, "seed", files)

	_, err = repo.CreateTag("v1.0.0", hash, &git.CreateTagOptions{
		Tagger:  testSignature(),
		Message: "v1.0.0",
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteDir},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{
		RefSpecs: []config.RefSpec{
			"refs/heads/*:refs/heads/*",
			"refs/tags/*:refs/tags/*",
		},
	}))

	return remoteDir, hash
}

func commitFiles(t *testing.T, repo *git.Repository, dir, message string, files map[string]string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	sig := testSignature()
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
	return hash
}

func remoteTip(t *testing.T, remoteDir string) plumbing.Hash {
	t.Helper()
	repo, err := git.PlainOpen(remoteDir)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	return ref.Hash()
}

func TestCloneAndCheckout(t *testing.T) {
	remote, tip := seedRemote(t, map[string]string{"README.md": "hello"})

	r, err := Clone(t.Context(), remote, t.TempDir())
	require.NoError(t, err)

	t.Run("branch", func(t *testing.T) {
		hash, err := r.Checkout(t.Context(), "master")
		require.NoError(t, err)
		assert.Equal(t, tip, hash)
	})

	t.Run("annotated tag peels to commit", func(t *testing.T) {
		hash, err := r.Checkout(t.Context(), "v1.0.0")
		require.NoError(t, err)
		assert.Equal(t, tip, hash)
	})

	t.Run("commit sha", func(t *testing.T) {
		hash, err := r.Checkout(t.Context(), tip.String())
		require.NoError(t, err)
		assert.Equal(t, tip, hash)
	})

	t.Run("empty revision keeps HEAD", func(t *testing.T) {
		hash, err := r.Checkout(t.Context(), "")
		require.NoError(t, err)
		assert.Equal(t, tip, hash)
	})

	t.Run("unknown revision", func(t *testing.T) {
		_, err := r.Checkout(t.Context(), "does-not-exist")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRevisionNotFound)
	})
}

func TestStageAllCommitPush(t *testing.T) {
	remote, _ := seedRemote(t, map[string]string{
		"keep.yaml":   "keep: true\n",
		"stale.yaml":  "stale: true\n",
		"update.yaml": "version: 1\n",
	})

	dir := t.TempDir()
	r, err := Clone(t.Context(), remote, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.yaml"), []byte("new: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "update.yaml"), []byte("version: 2\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "stale.yaml")))

	summary, err := r.StageAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"new.yaml"}, summary.Added)
	assert.Equal(t, []string{"update.yaml"}, summary.Modified)
	assert.Equal(t, []string{"stale.yaml"}, summary.Deleted)
	assert.True(t, summary.Changed())
	assert.Equal(t, "A new.yaml\nM update.yaml\nD stale.yaml", summary.String())

	hash, err := r.Commit("update catalog")
	require.NoError(t, err)
	require.NoError(t, r.Push(t.Context()))
	assert.Equal(t, hash, remoteTip(t, remote))
}

func TestStageAll_NoChanges(t *testing.T) {
	remote, _ := seedRemote(t, map[string]string{"a.yaml": "a: 1\n"})

	r, err := Clone(t.Context(), remote, t.TempDir())
	require.NoError(t, err)

	summary, err := r.StageAll()
	require.NoError(t, err)
	assert.False(t, summary.Changed())
	assert.Empty(t, summary.String())
}

func TestPush_NonFastForward(t *testing.T) {
	remote, _ := seedRemote(t, map[string]string{"a.yaml": "a: 1\n"})

	dirA := t.TempDir()
	a, err := Clone(t.Context(), remote, dirA)
	require.NoError(t, err)
	dirB := t.TempDir()
	b, err := Clone(t.Context(), remote, dirB)
	require.NoError(t, err)

	// A wins the race.
	require.NoError(t, os.WriteFile(filepath.Join(dirA, "a.yaml"), []byte("a: 2\n"), 0o644))
	_, err = a.StageAll()
	require.NoError(t, err)
	_, err = a.Commit("from a")
	require.NoError(t, err)
	require.NoError(t, a.Push(t.Context()))

	// B's push is rejected.
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "b.yaml"), []byte("b: 1\n"), 0o644))
	_, err = b.StageAll()
	require.NoError(t, err)
	_, err = b.Commit("from b")
	require.NoError(t, err)
	err = b.Push(t.Context())
	require.Error(t, err)
	assert.True(t, IsNonFastForward(err))

	// After fetching and resetting to the remote tip, the retry succeeds.
	require.NoError(t, b.Fetch(t.Context()))
	tip, err := b.RemoteHead("master")
	require.NoError(t, err)
	require.NoError(t, b.ResetHard(tip))

	require.NoError(t, os.WriteFile(filepath.Join(dirB, "b.yaml"), []byte("b: 1\n"), 0o644))
	_, err = b.StageAll()
	require.NoError(t, err)
	hash, err := b.Commit("from b, rebased")
	require.NoError(t, err)
	require.NoError(t, b.Push(t.Context()))
	assert.Equal(t, hash, remoteTip(t, remote))
}

func TestIsAncestor(t *testing.T) {
	remote, first := seedRemote(t, map[string]string{"a.yaml": "a: 1\n"})

	dir := t.TempDir()
	r, err := Clone(t.Context(), remote, dir)
	require.NoError(t, err)

	second := commitFiles(t, r.repo, dir, "second", map[string]string{"b.yaml": "b: 1\n"})

	ok, err := r.IsAncestor(first, second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsAncestor(second, first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloneOrInit_EmptyRemote(t *testing.T) {
	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	dir := t.TempDir()
	r, err := CloneOrInit(t.Context(), remoteDir, dir)
	require.NoError(t, err)

	head, err := r.Head()
	require.NoError(t, err)
	assert.Equal(t, plumbing.ZeroHash, head)

	branch, err := r.Branch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "first.yaml"), []byte("first: true\n"), 0o644))
	summary, err := r.StageAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"first.yaml"}, summary.Added)

	hash, err := r.Commit("initial catalog")
	require.NoError(t, err)
	require.NoError(t, r.Push(t.Context()))
	assert.Equal(t, hash, remoteTip(t, remoteDir))
}

func TestCloneOrOpen_ReusesCheckout(t *testing.T) {
	remote, tip := seedRemote(t, map[string]string{"a.yaml": "a: 1\n"})

	dir := t.TempDir()
	_, err := Clone(t.Context(), remote, dir)
	require.NoError(t, err)

	again, err := CloneOrOpen(t.Context(), remote, dir)
	require.NoError(t, err)
	assert.Equal(t, remote, again.URL())

	head, err := again.Head()
	require.NoError(t, err)
	assert.Equal(t, tip, head)
}
