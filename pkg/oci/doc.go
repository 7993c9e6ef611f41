// Package oci exports compiled catalogs as OCI artifacts. A catalog pushed
// to a registry can be consumed by GitOps agents that pull OCI artifacts
// instead of cloning the catalog repository.
package oci
