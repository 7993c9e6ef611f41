// Package catalog assembles rendered manifests into a per-cluster catalog
// repository and publishes the result.
//
// Assembly is deterministic: manifests land under manifests/<component>/ in
// component name order, and manifests of components that are no longer
// rendered are pruned. Publishing commits the staged changes with a
// reproducible message and pushes, retrying a bounded number of times when
// the remote moved underneath us. A remote whose history was rewritten is
// never force-pushed over; that case is a hard error.
package catalog
