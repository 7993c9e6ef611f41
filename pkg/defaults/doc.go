// Package defaults centralizes timeouts, retry bounds, and concurrency
// limits used across the compilation pipeline and the API server.
package defaults
