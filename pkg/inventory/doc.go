// Package inventory implements hierarchical inventory resolution.
//
// Inventory classes are YAML documents organized by hierarchy level
// (global, cloud, region, cluster, tenant). Resolving a cluster builds the
// applicable class chain lowest precedence first, deep-merges parameters,
// concatenates and de-duplicates component activations, and selects the
// most specific version pin per component.
//
// Resolution is a pure function of the class set contents and the cluster's
// facts: identical inputs always resolve identically.
package inventory
