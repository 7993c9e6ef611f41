// Package compile orchestrates a full catalog compilation: resolve the
// cluster's inventory, fetch the pinned component sources, render each
// component, and publish the assembled catalog.
//
// Component fetch and render run concurrently with a bounded worker count.
// The pipeline is idempotent: recompiling an unchanged cluster produces no
// new catalog commit.
package compile
