/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package gitrepo

import (
	"fmt"
	"slices"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// DiffSummary lists the working tree changes staged by StageAll, relative to
// the current HEAD. Paths are sorted so the rendered summary is
// deterministic.
type DiffSummary struct {
	Added    []string `json:"added,omitempty" yaml:"added,omitempty"`
	Modified []string `json:"modified,omitempty" yaml:"modified,omitempty"`
	Deleted  []string `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// Changed reports whether the summary contains any change.
func (d *DiffSummary) Changed() bool {
	return len(d.Added)+len(d.Modified)+len(d.Deleted) > 0
}

// String renders the summary one file per line, git status style.
func (d *DiffSummary) String() string {
	var b strings.Builder
	for _, p := range d.Added {
		fmt.Fprintf(&b, "A %s\n", p)
	}
	for _, p := range d.Modified {
		fmt.Fprintf(&b, "M %s\n", p)
	}
	for _, p := range d.Deleted {
		fmt.Fprintf(&b, "D %s\n", p)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func summarize(status git.Status) *DiffSummary {
	summary := &DiffSummary{}
	for path, st := range status {
		switch code(st) {
		case git.Untracked, git.Added:
			summary.Added = append(summary.Added, path)
		case git.Modified, git.Renamed, git.Copied:
			summary.Modified = append(summary.Modified, path)
		case git.Deleted:
			summary.Deleted = append(summary.Deleted, path)
		}
	}
	slices.Sort(summary.Added)
	slices.Sort(summary.Modified)
	slices.Sort(summary.Deleted)
	return summary
}

// code picks the effective status of a file: the worktree state unless the
// change is only visible in the index.
func code(st *git.FileStatus) git.StatusCode {
	if st.Worktree != git.Unmodified && st.Worktree != git.Untracked {
		return st.Worktree
	}
	if st.Worktree == git.Untracked {
		return git.Untracked
	}
	return st.Staging
}
