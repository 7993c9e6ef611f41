// Package gitrepo wraps go-git with the repository operations the compiler
// needs: cloning and fetching, checking out a revision by branch, tag or
// commit sha, staging the working tree with a change summary, and committing
// and pushing with non-fast-forward detection.
package gitrepo
