// Package server implements the commodored HTTP API.
//
// The server exposes catalog compilation over POST /v1/compile, health and
// readiness probes, and Prometheus metrics. API endpoints run behind a
// middleware chain providing request IDs, rate limiting, panic recovery,
// request logging, and RED metrics.
package server
