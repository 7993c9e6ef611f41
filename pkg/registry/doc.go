// Package registry is a client for the cluster registry API, the service of
// record for cluster and tenant definitions. Deployments without a registry
// can load the same definitions from the inventory repository instead.
package registry
